package handlers

import (
	"errors"
	"net/http"

	"github.com/curalink/curalink-api/internal/middleware"
	"github.com/curalink/curalink-api/internal/services"
	"github.com/curalink/curalink-api/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth         *services.AuthService
	Doctors      *services.DoctorService
	Appointments *services.AppointmentService
	Patients     *services.PatientService
	Pharmacists  *services.PharmacistService
	Students     *services.StudentService

	MedicalRecords *services.MedicalRecordService
}

type Handler struct {
	svc Services
	log *zap.Logger
}

func NewHandler(svc Services, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

var errorStatus = map[services.ErrorKind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindUnauthorized: http.StatusUnauthorized,
	services.KindForbidden:    http.StatusForbidden,
	services.KindNotFound:     http.StatusNotFound,
	services.KindInternal:     http.StatusInternalServerError,
}

// respondError writes err as {message[, status]} with the matching HTTP code.
func (h *Handler) respondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		h.log.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	code, ok := errorStatus[se.Kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	body := gin.H{"message": se.Message}
	if se.Status != "" {
		body["status"] = se.Status
	}
	c.JSON(code, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// bindJSON binds the body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

// currentUser returns the authenticated caller's id.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, invalid user"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func currentRole(c *gin.Context) string {
	return c.GetString(middleware.ContextUserRole)
}

func currentClaims(c *gin.Context) *utils.Claims {
	claims, _ := c.Get(middleware.ContextClaims)
	if cl, ok := claims.(*utils.Claims); ok {
		return cl
	}
	return nil
}

// objectIDParam parses a path parameter as an ObjectID, answering 400 when malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
