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

type BookInput struct {
	DoctorID  primitive.ObjectID
	Date      time.Time
	StartTime string
	EndTime   string
}

// AppointmentService books, lists and cancels appointments. Booking accepts
// any well-formed request unless strict mode is on, in which case the
// interval must fit an available slot and not overlap another booking.
type AppointmentService struct {
	appointments AppointmentRepository
	doctors      DoctorRepository
	users        UserRepository
	patients     PatientRepository
	notifier     Notifier
	strict       bool
	now          func() time.Time
	log          *zap.Logger
}

func NewAppointmentService(appointments AppointmentRepository, doctors DoctorRepository, users UserRepository,
	patients PatientRepository, notifier Notifier, strict bool, log *zap.Logger) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		doctors:      doctors,
		users:        users,
		patients:     patients,
		notifier:     notifier,
		strict:       strict,
		now:          time.Now,
		log:          log,
	}
}

// Book creates a Scheduled appointment for patientID with the given doctor.
func (s *AppointmentService) Book(ctx context.Context, patientID primitive.ObjectID, in BookInput) (*models.Appointment, error) {
	if in.Date.IsZero() {
		return nil, validationError("date is required")
	}
	start, err := models.ParseClock(in.StartTime)
	if err != nil {
		return nil, validationError("startTime: %s", err.Error())
	}
	end, err := models.ParseClock(in.EndTime)
	if err != nil {
		return nil, validationError("endTime: %s", err.Error())
	}
	if end <= start {
		return nil, validationError("endTime must be after startTime")
	}

	doctor, err := s.doctors.FindByID(ctx, in.DoctorID)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}

	if s.strict {
		if err := s.checkBookable(ctx, doctor, in.Date, start, end); err != nil {
			return nil, err
		}
	}

	apt := &models.Appointment{
		DoctorID:  doctor.ID,
		PatientID: patientID,
		Date:      in.Date.UTC(),
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    models.AppointmentStatusScheduled,
	}
	if err := s.appointments.Create(ctx, apt); err != nil {
		return nil, storeError(err, "Appointment not found")
	}

	s.log.Info("appointment booked",
		zap.String("appointment_id", apt.ID.Hex()),
		zap.String("doctor_id", doctor.ID.Hex()),
		zap.String("patient_id", patientID.Hex()))

	s.notify(ctx, doctor, apt, false)
	return apt, nil
}

// checkBookable enforces the strict booking rules on one calendar day.
func (s *AppointmentService) checkBookable(ctx context.Context, doctor *models.Doctor, date time.Time, start, end int) error {
	if !doctor.IsAvailable {
		return validationError("Doctor is not accepting appointments")
	}

	day := models.WeekdayOf(date.UTC())
	covered := false
	for _, slot := range doctor.TimeSlots {
		if slot.Day == day && slot.IsAvailable && slot.Covers(start, end) {
			covered = true
			break
		}
	}
	if !covered {
		return validationError("Requested time is outside the doctor's available slots")
	}

	d := date.UTC()
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	existing, err := s.appointments.ListByDoctorBetween(ctx, doctor.ID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return storeError(err, "Appointment not found")
	}
	for _, apt := range existing {
		from, err1 := models.ParseClock(apt.StartTime)
		to, err2 := models.ParseClock(apt.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if start < to && from < end {
			return validationError("Requested time overlaps an existing appointment")
		}
	}
	return nil
}

// ListForDoctor returns the caller's upcoming appointments with patient
// names. A non-nil requested id must be the caller's own doctor profile.
func (s *AppointmentService) ListForDoctor(ctx context.Context, userID primitive.ObjectID, requested *primitive.ObjectID) ([]models.AppointmentView, error) {
	doctor, err := findDoctor(ctx, s.doctors, userID)
	if err != nil {
		return nil, err
	}
	if requested != nil && *requested != doctor.ID {
		return nil, forbiddenError("Not authorized to view these appointments")
	}

	list, err := s.appointments.ListUpcomingByDoctor(ctx, doctor.ID, s.today())
	if err != nil {
		return nil, storeError(err, "Appointment not found")
	}

	patientIDs := make([]primitive.ObjectID, 0, len(list))
	for _, apt := range list {
		patientIDs = append(patientIDs, apt.PatientID)
	}
	names, err := s.userNames(ctx, patientIDs)
	if err != nil {
		return nil, storeError(err, "Patient not found")
	}

	views := make([]models.AppointmentView, 0, len(list))
	for _, apt := range list {
		views = append(views, models.AppointmentView{Appointment: apt, PatientName: names[apt.PatientID]})
	}
	return views, nil
}

// ListForPatient returns the patient's upcoming appointments with the
// doctor's name and specialization.
func (s *AppointmentService) ListForPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.AppointmentView, error) {
	list, err := s.appointments.ListUpcomingByPatient(ctx, patientID, s.today())
	if err != nil {
		return nil, storeError(err, "Appointment not found")
	}

	doctorIDs := make([]primitive.ObjectID, 0, len(list))
	for _, apt := range list {
		doctorIDs = append(doctorIDs, apt.DoctorID)
	}
	doctors, err := s.doctors.FindByIDs(ctx, doctorIDs)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}
	byDoctor := make(map[primitive.ObjectID]models.Doctor, len(doctors))
	ownerIDs := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		byDoctor[d.ID] = d
		ownerIDs = append(ownerIDs, d.UserID)
	}
	names, err := s.userNames(ctx, ownerIDs)
	if err != nil {
		return nil, storeError(err, "Doctor not found")
	}

	views := make([]models.AppointmentView, 0, len(list))
	for _, apt := range list {
		view := models.AppointmentView{Appointment: apt}
		if d, ok := byDoctor[apt.DoctorID]; ok {
			view.DoctorName = names[d.UserID]
			view.Specialization = d.Specialization
		}
		views = append(views, view)
	}
	return views, nil
}

// Cancel hard-deletes an appointment owned by the calling doctor.
func (s *AppointmentService) Cancel(ctx context.Context, userID, appointmentID primitive.ObjectID) error {
	doctor, err := findDoctor(ctx, s.doctors, userID)
	if err != nil {
		return err
	}
	apt, err := s.appointments.FindByID(ctx, appointmentID)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError("Appointment not found")
	}
	if err != nil {
		return internalError("Internal server error", err)
	}
	if apt.DoctorID != doctor.ID {
		return forbiddenError("Not authorized to delete this appointment")
	}

	if err := s.appointments.Delete(ctx, appointmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("Appointment not found")
		}
		return internalError("Internal server error", err)
	}

	s.log.Info("appointment deleted", zap.String("appointment_id", appointmentID.Hex()), zap.String("doctor_id", doctor.ID.Hex()))
	s.notify(ctx, doctor, apt, true)
	return nil
}

// today is midnight UTC of the current day; appointments dated today still
// count as upcoming.
func (s *AppointmentService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *AppointmentService) userNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// notify is best effort; lookup failures only mean no SMS.
func (s *AppointmentService) notify(ctx context.Context, doctor *models.Doctor, apt *models.Appointment, cancelled bool) {
	if s.notifier == nil {
		return
	}
	var phone string
	if patient, err := s.patients.FindByUserID(ctx, apt.PatientID); err == nil {
		phone = patient.Phone
	}
	if phone == "" {
		if user, err := s.users.FindByID(ctx, apt.PatientID); err == nil {
			phone = user.Phone
		}
	}

	view := &models.AppointmentView{Appointment: *apt, Specialization: doctor.Specialization}
	if owner, err := s.users.FindByID(ctx, doctor.UserID); err == nil {
		view.DoctorName = owner.Name
	}
	if cancelled {
		s.notifier.AppointmentCancelled(phone, view)
		return
	}
	s.notifier.AppointmentBooked(phone, view)
}
