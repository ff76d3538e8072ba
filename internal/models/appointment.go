package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const AppointmentStatusScheduled = "Scheduled"

// Appointment is the single authoritative booking entity. DoctorID points at
// the Doctor profile, PatientID at the patient's User.
type Appointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DoctorID  primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	PatientID primitive.ObjectID `bson:"patientId" json:"patientId"`
	Date      time.Time          `bson:"date" json:"date"`
	StartTime string             `bson:"startTime" json:"startTime"`
	EndTime   string             `bson:"endTime" json:"endTime"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// AppointmentView is an Appointment joined with the names the dashboards show.
type AppointmentView struct {
	Appointment    `bson:",inline"`
	PatientName    string `json:"patientName,omitempty"`
	DoctorName     string `json:"doctorName,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}
