package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Prescription struct {
	Medication string `bson:"medication" json:"medication"`
	Dosage     string `bson:"dosage" json:"dosage"`
	Frequency  string `bson:"frequency" json:"frequency"`
	Duration   string `bson:"duration" json:"duration"`
}

type LabResult struct {
	TestName    string    `bson:"testName" json:"testName"`
	Result      string    `bson:"result" json:"result"`
	Date        time.Time `bson:"date" json:"date"`
	Attachments []string  `bson:"attachments" json:"attachments"`
}

// MedicalRecord is a doctor-authored clinical note. PatientID is the
// patient's User, DoctorID the author's Doctor profile.
type MedicalRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID    primitive.ObjectID `bson:"patientId" json:"patientId"`
	DoctorID     primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	Diagnosis    string             `bson:"diagnosis" json:"diagnosis"`
	Prescription []Prescription     `bson:"prescription" json:"prescription"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	LabResults   []LabResult        `bson:"labResults" json:"labResults"`
	Attachments  []string           `bson:"attachments" json:"attachments"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (r *MedicalRecord) Validate() error {
	if r.Diagnosis == "" {
		return fmt.Errorf("diagnosis is required")
	}
	return validateClinical(r.Prescription, r.LabResults)
}

func validateClinical(prescription []Prescription, labs []LabResult) error {
	for _, p := range prescription {
		if p.Medication == "" {
			return fmt.Errorf("each prescription needs a medication")
		}
	}
	for _, l := range labs {
		if l.TestName == "" {
			return fmt.Errorf("each lab result needs a testName")
		}
	}
	return nil
}

// MedicalRecordUpdate carries the PATCH-able fields. The patient and author
// of a record never change.
type MedicalRecordUpdate struct {
	Diagnosis    *string        `json:"diagnosis"`
	Prescription []Prescription `json:"prescription"`
	Notes        *string        `json:"notes"`
	LabResults   []LabResult    `json:"labResults"`
	Attachments  []string       `json:"attachments"`
}

func (u MedicalRecordUpdate) Empty() bool {
	return u.Diagnosis == nil && u.Prescription == nil && u.Notes == nil &&
		u.LabResults == nil && u.Attachments == nil
}

func (u MedicalRecordUpdate) Validate() error {
	if u.Diagnosis != nil && *u.Diagnosis == "" {
		return fmt.Errorf("diagnosis must not be empty")
	}
	return validateClinical(u.Prescription, u.LabResults)
}

// Apply copies the set fields onto r.
func (u MedicalRecordUpdate) Apply(r *MedicalRecord) {
	if u.Diagnosis != nil {
		r.Diagnosis = *u.Diagnosis
	}
	if u.Prescription != nil {
		r.Prescription = u.Prescription
	}
	if u.Notes != nil {
		r.Notes = *u.Notes
	}
	if u.LabResults != nil {
		r.LabResults = u.LabResults
	}
	if u.Attachments != nil {
		r.Attachments = u.Attachments
	}
}

// MedicalRecordView is a record joined with its author's name and specialty.
type MedicalRecordView struct {
	MedicalRecord  `bson:",inline"`
	DoctorName     string `json:"doctorName,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}
