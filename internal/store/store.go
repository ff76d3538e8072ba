// Package store holds the MongoDB repositories behind every profile and the
// appointments collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

const (
	UsersCollection        = "users"
	DoctorsCollection      = "doctors"
	PatientsCollection     = "patients"
	PharmacistsCollection  = "pharmacists"
	StudentsCollection     = "students"
	AppointmentsCollection = "appointments"

	MedicalRecordsCollection = "medical_records"
)

// opTimeout bounds each store round trip on top of the request context.
const opTimeout = 10 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// translate maps driver errors onto the package sentinels, keeping the
// driver message for duplicate keys.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

// Stores bundles every repository built on one database handle.
type Stores struct {
	Users        *UserStore
	Doctors      *DoctorStore
	Patients     *PatientStore
	Pharmacists  *PharmacistStore
	Students     *StudentStore
	Appointments *AppointmentStore

	MedicalRecords *MedicalRecordStore
}

func New(db *mongo.Database) *Stores {
	return &Stores{
		Users:        NewUserStore(db),
		Doctors:      NewDoctorStore(db),
		Patients:     NewPatientStore(db),
		Pharmacists:  NewPharmacistStore(db),
		Students:     NewStudentStore(db),
		Appointments: NewAppointmentStore(db),

		MedicalRecords: NewMedicalRecordStore(db),
	}
}
