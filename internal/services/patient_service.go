package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/storage"
	"github.com/curalink/curalink-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxReportSize caps uploaded medical reports.
const MaxReportSize = 10 << 20

var reportContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

type ReportUpload struct {
	ReportName  string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type PatientService struct {
	patients     PatientRepository
	users        UserRepository
	appointments *AppointmentService
	reports      storage.ReportStore
	log          *zap.Logger
}

func NewPatientService(patients PatientRepository, users UserRepository, appointments *AppointmentService,
	reports storage.ReportStore, log *zap.Logger) *PatientService {
	return &PatientService{patients: patients, users: users, appointments: appointments, reports: reports, log: log}
}

// Profile returns the caller's patient profile, creating an empty one on the
// first visit, joined with the user's name and upcoming appointments.
func (s *PatientService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.PatientProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("User not found")
	}
	if err != nil {
		return nil, internalError("Error fetching profile", err)
	}

	patient, err := s.patients.UpsertByUserID(ctx, userID, models.Patient{Phone: user.Phone})
	if err != nil {
		s.log.Error("upsert patient profile", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, internalError("Error fetching profile", err)
	}

	upcoming, err := s.appointments.ListForPatient(ctx, userID)
	if err != nil {
		return nil, internalError("Error fetching profile", err)
	}

	return &models.PatientProfile{
		Patient:      patient,
		Name:         user.Name,
		Email:        user.Email,
		Appointments: upcoming,
	}, nil
}

func (s *PatientService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd models.PatientUpdate) (*models.Patient, error) {
	if upd.Phone == nil && upd.Address == nil {
		return nil, validationError("No update fields provided")
	}
	patient, err := s.patients.Update(ctx, userID, upd)
	if err != nil {
		return nil, storeError(err, "Patient profile not found")
	}
	return patient, nil
}

func (s *PatientService) AddHistory(ctx context.Context, userID primitive.ObjectID, entry models.MedicalHistoryEntry) ([]models.MedicalHistoryEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, validationError("%s", err.Error())
	}
	entry.ID = primitive.NewObjectID()
	if entry.Drugs == nil {
		entry.Drugs = []models.Drug{}
	}
	patient, err := s.patients.AddHistory(ctx, userID, entry)
	if err != nil {
		return nil, storeError(err, "Patient profile not found")
	}
	return patient.MedicalHistory, nil
}

func (s *PatientService) History(ctx context.Context, userID primitive.ObjectID) ([]models.MedicalHistoryEntry, error) {
	patient, err := s.patients.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Patient profile not found")
	}
	if patient.MedicalHistory == nil {
		return []models.MedicalHistoryEntry{}, nil
	}
	return patient.MedicalHistory, nil
}

func (s *PatientService) DeleteHistory(ctx context.Context, userID, entryID primitive.ObjectID) error {
	removed, err := s.patients.RemoveHistory(ctx, userID, entryID)
	if err != nil {
		return storeError(err, "Patient profile not found")
	}
	if !removed {
		return notFoundError("Medical history entry not found")
	}
	return nil
}

// UploadReport stores the file and appends the resulting report entry to the
// caller's record.
func (s *PatientService) UploadReport(ctx context.Context, userID primitive.ObjectID, up ReportUpload) (*models.MedicalReport, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(up.ContentType, ";")[0]))
	if !reportContentTypes[contentType] {
		return nil, validationError("Only PDF, PNG and JPEG reports are accepted")
	}
	if up.Size <= 0 {
		return nil, validationError("Report file is empty")
	}
	if up.Size > MaxReportSize {
		return nil, validationError("Report exceeds the 10 MB limit")
	}
	if _, err := s.patients.FindByUserID(ctx, userID); err != nil {
		return nil, storeError(err, "Patient profile not found")
	}

	now := time.Now().UTC()
	url, err := s.reports.Save(ctx, storage.Upload{
		OwnerID:     userID.Hex(),
		FileName:    up.FileName,
		ContentType: contentType,
		Size:        up.Size,
		Body:        up.Body,
	})
	if errors.Is(err, storage.ErrNotConfigured) {
		return nil, internalError("Report storage is not configured", err)
	}
	if err != nil {
		s.log.Error("upload medical report", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, internalError("Report upload failed", err)
	}

	name := strings.TrimSpace(up.ReportName)
	if name == "" {
		name = up.FileName
	}
	report := models.MedicalReport{ID: primitive.NewObjectID(), ReportName: name, ReportURL: url, Date: now}
	if _, err := s.patients.AddReport(ctx, userID, report); err != nil {
		return nil, storeError(err, "Patient profile not found")
	}
	s.log.Info("medical report uploaded", zap.String("user_id", userID.Hex()), zap.String("report_id", report.ID.Hex()))
	return &report, nil
}

func (s *PatientService) Reports(ctx context.Context, userID primitive.ObjectID) ([]models.MedicalReport, error) {
	patient, err := s.patients.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Patient profile not found")
	}
	if patient.MedicalReports == nil {
		return []models.MedicalReport{}, nil
	}
	return patient.MedicalReports, nil
}
