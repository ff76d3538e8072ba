package services

import (
	"context"
	"errors"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MedicalRecordService manages doctor-authored records. Doctors write
// records for patients on their roster; a patient can read their own.
type MedicalRecordService struct {
	records MedicalRecordRepository
	roster  *DoctorService
	now     func() time.Time
	log     *zap.Logger
}

func NewMedicalRecordService(records MedicalRecordRepository, roster *DoctorService, log *zap.Logger) *MedicalRecordService {
	return &MedicalRecordService{records: records, roster: roster, now: time.Now, log: log}
}

func (s *MedicalRecordService) Create(ctx context.Context, userID primitive.ObjectID, in models.MedicalRecord) (*models.MedicalRecordView, error) {
	if in.PatientID.IsZero() {
		return nil, validationError("patient is required")
	}
	if err := in.Validate(); err != nil {
		return nil, validationError("%s", err.Error())
	}
	doctor, err := s.roster.onRoster(ctx, userID, in.PatientID)
	if err != nil {
		return nil, err
	}

	in.ID = primitive.NilObjectID
	in.DoctorID = doctor.ID
	in.CreatedAt = s.now().UTC()
	if err := s.records.Create(ctx, &in); err != nil {
		return nil, internalError("Error creating medical record", err)
	}
	s.log.Info("medical record created",
		zap.String("record_id", in.ID.Hex()),
		zap.String("doctor_id", doctor.ID.Hex()),
		zap.String("patient_id", in.PatientID.Hex()))

	views, err := s.views(ctx, []models.MedicalRecord{in})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListForPatient returns patientID's records newest first.
func (s *MedicalRecordService) ListForPatient(ctx context.Context, userID primitive.ObjectID, role string, patientID primitive.ObjectID) ([]models.MedicalRecordView, error) {
	if err := s.canRead(ctx, userID, role, patientID); err != nil {
		return nil, err
	}
	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, internalError("Error fetching medical records", err)
	}
	return s.views(ctx, records)
}

func (s *MedicalRecordService) Get(ctx context.Context, userID primitive.ObjectID, role string, id primitive.ObjectID) (*models.MedicalRecordView, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, userID, role, record.PatientID); err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.MedicalRecord{*record})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update changes the clinical fields of a record. Only its author may.
func (s *MedicalRecordService) Update(ctx context.Context, userID, id primitive.ObjectID, upd models.MedicalRecordUpdate) (*models.MedicalRecordView, error) {
	if upd.Empty() {
		return nil, validationError("No fields to update")
	}
	if err := upd.Validate(); err != nil {
		return nil, validationError("%s", err.Error())
	}
	doctor, err := findDoctor(ctx, s.roster.doctors, userID)
	if err != nil {
		return nil, err
	}
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.DoctorID != doctor.ID {
		return nil, forbiddenError("Not authorized to update this record")
	}

	updated, err := s.records.Update(ctx, id, upd)
	if err != nil {
		return nil, storeError(err, "Medical record not found")
	}
	views, err := s.views(ctx, []models.MedicalRecord{*updated})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *MedicalRecordService) find(ctx context.Context, id primitive.ObjectID) (*models.MedicalRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("Medical record not found")
	}
	if err != nil {
		return nil, internalError("Error fetching medical record", err)
	}
	return record, nil
}

// canRead lets a patient see their own records and a doctor see those of
// patients on the roster.
func (s *MedicalRecordService) canRead(ctx context.Context, userID primitive.ObjectID, role string, patientID primitive.ObjectID) error {
	if userID == patientID {
		return nil
	}
	if role != models.RoleDoctor {
		return forbiddenError("Not authorized to view these records")
	}
	_, err := s.roster.onRoster(ctx, userID, patientID)
	return err
}

// views joins each record with its author's name and specialization.
func (s *MedicalRecordService) views(ctx context.Context, records []models.MedicalRecord) ([]models.MedicalRecordView, error) {
	doctorIDs := make([]primitive.ObjectID, 0, len(records))
	for _, r := range records {
		doctorIDs = append(doctorIDs, r.DoctorID)
	}
	doctors, err := s.roster.doctors.FindByIDs(ctx, doctorIDs)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}
	byDoctor := make(map[primitive.ObjectID]models.Doctor, len(doctors))
	ownerIDs := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		byDoctor[d.ID] = d
		ownerIDs = append(ownerIDs, d.UserID)
	}
	owners, err := s.roster.users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}
	names := make(map[primitive.ObjectID]string, len(owners))
	for _, u := range owners {
		names[u.ID] = u.Name
	}

	views := make([]models.MedicalRecordView, 0, len(records))
	for _, r := range records {
		view := models.MedicalRecordView{MedicalRecord: r}
		if d, ok := byDoctor[r.DoctorID]; ok {
			view.DoctorName = names[d.UserID]
			view.Specialization = d.Specialization
		}
		views = append(views, view)
	}
	return views, nil
}
