package services

import (
	"context"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository contracts. internal/store implements them on MongoDB and
// internal/store/memory in process. Lookups that miss return store.ErrNotFound
// and unique-key violations wrap store.ErrDuplicateKey.

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindPatient(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	SearchPatients(ctx context.Context, query string, limit int) ([]models.UserSummary, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
	Update(ctx context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *models.Doctor) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Doctor, error)
	ListAvailable(ctx context.Context) ([]models.Doctor, error)
	Update(ctx context.Context, userID primitive.ObjectID, upd models.DoctorUpdate) (*models.Doctor, error)
	SetTimeSlots(ctx context.Context, userID primitive.ObjectID, slots []models.TimeSlot) ([]models.TimeSlot, error)
	SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool) (bool, error)
	AddPatient(ctx context.Context, doctorID, patientID primitive.ObjectID) (bool, error)
	RemovePatient(ctx context.Context, doctorID, patientID primitive.ObjectID) error
}

type PatientRepository interface {
	UpsertByUserID(ctx context.Context, userID primitive.ObjectID, seed models.Patient) (*models.Patient, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Patient, error)
	Update(ctx context.Context, userID primitive.ObjectID, upd models.PatientUpdate) (*models.Patient, error)
	AddHistory(ctx context.Context, userID primitive.ObjectID, entry models.MedicalHistoryEntry) (*models.Patient, error)
	RemoveHistory(ctx context.Context, userID, entryID primitive.ObjectID) (bool, error)
	AddReport(ctx context.Context, userID primitive.ObjectID, report models.MedicalReport) (*models.Patient, error)
}

type PharmacistRepository interface {
	Create(ctx context.Context, p *models.Pharmacist) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Pharmacist, error)
	SetInventory(ctx context.Context, userID primitive.ObjectID, items []models.InventoryItem) ([]models.InventoryItem, error)
	AddInventoryItem(ctx context.Context, userID primitive.ObjectID, item models.InventoryItem) ([]models.InventoryItem, error)
	RemoveInventoryItem(ctx context.Context, userID, itemID primitive.ObjectID) ([]models.InventoryItem, error)
	SetNotifications(ctx context.Context, userID primitive.ObjectID, notes []string) ([]string, error)
}

type StudentRepository interface {
	// UpsertByUserID reports whether the call created the document.
	UpsertByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Student, bool, error)
	AddCaseAccess(ctx context.Context, userID primitive.ObjectID, access models.CaseAccess) error
	AddQuizScore(ctx context.Context, userID primitive.ObjectID, score models.QuizScore) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListUpcomingByDoctor(ctx context.Context, doctorID primitive.ObjectID, since time.Time) ([]models.Appointment, error)
	ListUpcomingByPatient(ctx context.Context, patientID primitive.ObjectID, since time.Time) ([]models.Appointment, error)
	ListByDoctorBetween(ctx context.Context, doctorID primitive.ObjectID, from, to time.Time) ([]models.Appointment, error)
}

type MedicalRecordRepository interface {
	Create(ctx context.Context, r *models.MedicalRecord) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.MedicalRecord, error)
	// ListByPatient returns records newest first.
	ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.MedicalRecord, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.MedicalRecordUpdate) (*models.MedicalRecord, error)
}
