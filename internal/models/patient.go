package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PatientAddress struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

type Drug struct {
	Name   string `bson:"name" json:"name"`
	Dosage string `bson:"dosage" json:"dosage"`
}

type MedicalHistoryEntry struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Date        time.Time          `bson:"date" json:"date"`
	Description string             `bson:"description" json:"description"`
	Drugs       []Drug             `bson:"drugs" json:"drugs"`
}

func (e MedicalHistoryEntry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if e.Description == "" {
		return fmt.Errorf("description is required")
	}
	for _, d := range e.Drugs {
		if d.Name == "" || d.Dosage == "" {
			return fmt.Errorf("each drug needs a name and a dosage")
		}
	}
	return nil
}

type MedicalReport struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ReportName string             `bson:"reportName" json:"reportName"`
	ReportURL  string             `bson:"reportUrl" json:"reportUrl"`
	Date       time.Time          `bson:"date" json:"date"`
}

// Patient no longer embeds appointments; those live in the appointments
// collection and are attached to PatientProfile on read.
type Patient struct {
	ID             primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID    `bson:"userId" json:"userId"`
	Phone          string                `bson:"phone" json:"phone"`
	Address        PatientAddress        `bson:"address" json:"address"`
	MedicalHistory []MedicalHistoryEntry `bson:"medicalHistory" json:"medicalHistory"`
	MedicalReports []MedicalReport       `bson:"medicalReports" json:"medicalReports"`
	CreatedAt      time.Time             `bson:"createdAt" json:"createdAt"`
}

type PatientUpdate struct {
	Phone   *string         `json:"phone"`
	Address *PatientAddress `json:"address"`
}

type PatientProfile struct {
	*Patient
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Appointments []AppointmentView `json:"appointments"`
}
