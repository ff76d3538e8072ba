package services

import (
	"errors"
	"fmt"

	"github.com/curalink/curalink-api/internal/store"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInternal
)

// Discriminators the client branches on.
const (
	StatusProfileNotFound = "PROFILE_NOT_FOUND"
	StatusNotAuthorized   = "NOT_AUTHORIZED"
)

// Error is the only error shape services hand to the HTTP layer.
type Error struct {
	Kind    ErrorKind
	Status  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func forbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Status: StatusNotAuthorized, Message: msg}
}

func internalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// storeError turns a repository failure into a client error: not-found
// becomes notFoundMsg, everything else a 400 echoing the store message.
func storeError(err error, notFoundMsg string) *Error {
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError(notFoundMsg)
	}
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// IsKind reports whether err is a service Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
