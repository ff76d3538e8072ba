package services

import (
	"context"
	"errors"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultSearchLimit = 50

// DoctorService owns doctor profiles, the weekly availability template and
// the patient roster.
type DoctorService struct {
	doctors     DoctorRepository
	users       UserRepository
	patients    PatientRepository
	searchLimit int
	log         *zap.Logger
}

func NewDoctorService(doctors DoctorRepository, users UserRepository, patients PatientRepository, searchLimit int, log *zap.Logger) *DoctorService {
	if searchLimit <= 0 {
		searchLimit = defaultSearchLimit
	}
	return &DoctorService{doctors: doctors, users: users, patients: patients, searchLimit: searchLimit, log: log}
}

// findDoctor resolves the caller's doctor profile.
func findDoctor(ctx context.Context, doctors DoctorRepository, userID primitive.ObjectID) (*models.Doctor, error) {
	doctor, err := doctors.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}
	return doctor, nil
}

// Register creates the caller's doctor profile and promotes the user to the
// doctor role.
func (s *DoctorService) Register(ctx context.Context, userID primitive.ObjectID, in models.Doctor) (*models.Doctor, error) {
	in.ID = primitive.NilObjectID
	in.UserID = userID
	in.Patients = nil
	in.IsAvailable = false
	if err := in.Validate(); err != nil {
		return nil, validationError("%s", err.Error())
	}

	if err := s.doctors.Create(ctx, &in); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, &Error{Kind: KindValidation, Message: "Doctor profile or license already registered", Err: err}
		}
		return nil, storeError(err, "Doctor not found")
	}
	if err := s.users.SetRole(ctx, userID, models.RoleDoctor); err != nil {
		return nil, storeError(err, "User not found")
	}
	s.log.Info("doctor registered", zap.String("user_id", userID.Hex()), zap.String("doctor_id", in.ID.Hex()))
	return &in, nil
}

// Profile returns the caller's populated doctor profile. A missing profile
// is reported as PROFILE_NOT_FOUND to doctors and NOT_AUTHORIZED to anyone else.
func (s *DoctorService) Profile(ctx context.Context, userID primitive.ObjectID, role string) (*models.DoctorProfile, error) {
	doctor, err := s.doctors.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		if role == models.RoleDoctor {
			return nil, &Error{Kind: KindNotFound, Status: StatusProfileNotFound,
				Message: "Doctor profile not found. Please complete registration."}
		}
		return nil, forbiddenError("Not authorized as doctor")
	}
	if err != nil {
		s.log.Error("fetch doctor profile", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, internalError("Error fetching doctor profile", err)
	}

	profile, err := s.populate(ctx, doctor)
	if err != nil {
		s.log.Error("populate doctor profile", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, internalError("Error fetching doctor profile", err)
	}
	return profile, nil
}

func (s *DoctorService) populate(ctx context.Context, doctor *models.Doctor) (*models.DoctorProfile, error) {
	profile := &models.DoctorProfile{Doctor: doctor, Patients: []models.UserSummary{}}

	owner, err := s.users.FindByID(ctx, doctor.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if owner != nil {
		summary := owner.Summary()
		profile.User = &summary
	}

	roster, err := s.users.FindByIDs(ctx, doctor.Patients)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(roster))
	for _, u := range roster {
		byID[u.ID] = u
	}
	for _, id := range doctor.Patients {
		if u, ok := byID[id]; ok {
			profile.Patients = append(profile.Patients, u.Summary())
		}
	}
	return profile, nil
}

func (s *DoctorService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd models.DoctorUpdate) (*models.Doctor, error) {
	if upd.Empty() {
		return nil, validationError("No update fields provided")
	}
	if err := upd.Validate(); err != nil {
		return nil, validationError("%s", err.Error())
	}
	doctor, err := s.doctors.Update(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, &Error{Kind: KindValidation, Message: "License already registered", Err: err}
		}
		return nil, storeError(err, "Doctor not found")
	}
	return doctor, nil
}

// TimeSlots returns the caller's weekly template.
func (s *DoctorService) TimeSlots(ctx context.Context, userID primitive.ObjectID) ([]models.TimeSlot, error) {
	doctor, err := findDoctor(ctx, s.doctors, userID)
	if err != nil {
		return nil, err
	}
	if doctor.TimeSlots == nil {
		return []models.TimeSlot{}, nil
	}
	return doctor.TimeSlots, nil
}

// SetTimeSlots replaces the whole template. Last write wins and overlapping
// slots are accepted.
func (s *DoctorService) SetTimeSlots(ctx context.Context, userID primitive.ObjectID, slots []models.TimeSlot) ([]models.TimeSlot, error) {
	for i, slot := range slots {
		if err := slot.Validate(); err != nil {
			return nil, validationError("timeSlots[%d]: %s", i, err.Error())
		}
	}
	stored, err := s.doctors.SetTimeSlots(ctx, userID, slots)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}
	return stored, nil
}

func (s *DoctorService) SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool) (bool, error) {
	flag, err := s.doctors.SetAvailability(ctx, userID, available)
	if err != nil {
		return false, storeError(err, "Doctor not found")
	}
	s.log.Info("doctor availability changed", zap.String("user_id", userID.Hex()), zap.Bool("available", flag))
	return flag, nil
}

// ListAvailable is the public "find a doctor" listing.
func (s *DoctorService) ListAvailable(ctx context.Context) ([]models.DoctorListing, error) {
	doctors, err := s.doctors.ListAvailable(ctx)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}

	ids := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.UserID)
	}
	owners, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	byID := make(map[primitive.ObjectID]models.User, len(owners))
	for _, u := range owners {
		byID[u.ID] = u
	}

	listing := make([]models.DoctorListing, 0, len(doctors))
	for _, d := range doctors {
		entry := models.DoctorListing{
			ID:             d.ID,
			Specialization: d.Specialization,
			Fees:           d.Fees,
			TimeSlots:      d.TimeSlots,
		}
		if u, ok := byID[d.UserID]; ok {
			entry.User = u.Summary()
		}
		listing = append(listing, entry)
	}
	return listing, nil
}

// SearchPatients lists roster candidates. Only callers with a doctor profile
// may search, and results are capped.
func (s *DoctorService) SearchPatients(ctx context.Context, userID primitive.ObjectID, query string) ([]models.UserSummary, error) {
	if _, err := findDoctor(ctx, s.doctors, userID); err != nil {
		return nil, err
	}
	patients, err := s.users.SearchPatients(ctx, query, s.searchLimit)
	if err != nil {
		return nil, storeError(err, "Patient not found")
	}
	return patients, nil
}

func (s *DoctorService) AddPatient(ctx context.Context, userID, patientID primitive.ObjectID) (*models.UserSummary, error) {
	patient, err := s.users.FindPatient(ctx, patientID)
	if err != nil {
		return nil, storeError(err, "Patient not found")
	}
	doctor, err := findDoctor(ctx, s.doctors, userID)
	if err != nil {
		return nil, err
	}
	if doctor.HasPatient(patientID) {
		return nil, validationError("Patient already added to your list")
	}

	added, err := s.doctors.AddPatient(ctx, doctor.ID, patientID)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}
	if !added {
		return nil, validationError("Patient already added to your list")
	}

	s.log.Info("patient added to roster", zap.String("doctor_id", doctor.ID.Hex()), zap.String("patient_id", patientID.Hex()))
	summary := patient.Summary()
	return &summary, nil
}

// RemovePatient drops patientID from the roster. Removing a patient that is
// not on the roster succeeds without changes.
func (s *DoctorService) RemovePatient(ctx context.Context, userID, patientID primitive.ObjectID) error {
	if _, err := s.users.FindPatient(ctx, patientID); err != nil {
		return storeError(err, "Patient not found")
	}
	doctor, err := findDoctor(ctx, s.doctors, userID)
	if err != nil {
		return err
	}
	if err := s.doctors.RemovePatient(ctx, doctor.ID, patientID); err != nil {
		return storeError(err, "Doctor not found")
	}
	s.log.Info("patient removed from roster", zap.String("doctor_id", doctor.ID.Hex()), zap.String("patient_id", patientID.Hex()))
	return nil
}

// onRoster returns the caller's doctor profile if patientID is on its roster.
func (s *DoctorService) onRoster(ctx context.Context, userID, patientID primitive.ObjectID) (*models.Doctor, error) {
	doctor, err := findDoctor(ctx, s.doctors, userID)
	if err != nil {
		return nil, err
	}
	if !doctor.HasPatient(patientID) {
		return nil, forbiddenError("Patient not found in your list")
	}
	return doctor, nil
}

// rosterPatient loads a patient's record for a doctor who has them on the roster.
func (s *DoctorService) rosterPatient(ctx context.Context, userID, patientID primitive.ObjectID) (*models.Patient, error) {
	if _, err := s.onRoster(ctx, userID, patientID); err != nil {
		return nil, err
	}
	patient, err := s.patients.FindByUserID(ctx, patientID)
	if err != nil {
		return nil, storeError(err, "Patient not found")
	}
	return patient, nil
}

func (s *DoctorService) PatientMedicalReports(ctx context.Context, userID, patientID primitive.ObjectID) ([]models.MedicalReport, error) {
	patient, err := s.rosterPatient(ctx, userID, patientID)
	if err != nil {
		return nil, err
	}
	if patient.MedicalReports == nil {
		return []models.MedicalReport{}, nil
	}
	return patient.MedicalReports, nil
}

func (s *DoctorService) PatientMedicalHistory(ctx context.Context, userID, patientID primitive.ObjectID) ([]models.MedicalHistoryEntry, error) {
	patient, err := s.rosterPatient(ctx, userID, patientID)
	if err != nil {
		return nil, err
	}
	if patient.MedicalHistory == nil {
		return []models.MedicalHistoryEntry{}, nil
	}
	return patient.MedicalHistory, nil
}
