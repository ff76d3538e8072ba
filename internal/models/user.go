package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleDoctor     = "doctor"
	RolePatient    = "patient"
	RolePharmacist = "pharmacist"
	RoleStudent    = "student"
)

// ValidRole reports whether role is one of the portal roles.
func ValidRole(role string) bool {
	switch role {
	case RoleDoctor, RolePatient, RolePharmacist, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role      string             `bson:"role" json:"role"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserSummary is the public view of a user used in rosters and joins.
type UserSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserUpdate carries the self-service fields a user may change.
type UserUpdate struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil
}
