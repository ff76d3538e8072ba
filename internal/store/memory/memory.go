// Package memory implements the service repositories in process. It mirrors
// the MongoDB store's not-found and unique-index behavior and is used by the
// service and handler tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stores groups one in-memory repository per collection.
type Stores struct {
	Users        *Users
	Doctors      *Doctors
	Patients     *Patients
	Pharmacists  *Pharmacists
	Students     *Students
	Appointments *Appointments

	MedicalRecords *MedicalRecords
}

func New() *Stores {
	return &Stores{
		Users:        &Users{byID: map[primitive.ObjectID]models.User{}},
		Doctors:      &Doctors{byID: map[primitive.ObjectID]models.Doctor{}},
		Patients:     &Patients{byUser: map[primitive.ObjectID]models.Patient{}},
		Pharmacists:  &Pharmacists{byUser: map[primitive.ObjectID]models.Pharmacist{}},
		Students:     &Students{byUser: map[primitive.ObjectID]models.Student{}},
		Appointments: &Appointments{byID: map[primitive.ObjectID]models.Appointment{}},

		MedicalRecords: &MedicalRecords{byID: map[primitive.ObjectID]models.MedicalRecord{}},
	}
}

func duplicate(field, value string) error {
	return fmt.Errorf("%w: %s %q already exists", store.ErrDuplicateKey, field, value)
}

// ---- users ----

type Users struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.User
}

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return duplicate("email", u.Email)
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Users) FindPatient(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RolePatient {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (r *Users) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []models.User
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			u.Password = ""
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *Users) SearchPatients(_ context.Context, query string, limit int) ([]models.UserSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	patients := make([]models.UserSummary, 0)
	for _, u := range r.byID {
		if u.Role != models.RolePatient {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		patients = append(patients, u.Summary())
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].Name < patients[j].Name })
	if limit > 0 && len(patients) > limit {
		patients = patients[:limit]
	}
	return patients, nil
}

func (r *Users) SetRole(_ context.Context, id primitive.ObjectID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	r.byID[id] = u
	return nil
}

func (r *Users) Update(_ context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	r.byID[id] = u
	return &u, nil
}

// ---- doctors ----

type Doctors struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.Doctor
}

func copyDoctor(d models.Doctor) *models.Doctor {
	d.Languages = append([]string(nil), d.Languages...)
	d.Education = append([]models.Education(nil), d.Education...)
	d.Certificates = append([]models.Certificate(nil), d.Certificates...)
	d.TimeSlots = append([]models.TimeSlot{}, d.TimeSlots...)
	d.Patients = append([]primitive.ObjectID{}, d.Patients...)
	return &d
}

func (r *Doctors) Create(_ context.Context, d *models.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.UserID == d.UserID {
			return duplicate("userId", d.UserID.Hex())
		}
		if existing.License == d.License {
			return duplicate("license", d.License)
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	if d.Patients == nil {
		d.Patients = []primitive.ObjectID{}
	}
	if d.TimeSlots == nil {
		d.TimeSlots = []models.TimeSlot{}
	}
	r.byID[d.ID] = *copyDoctor(*d)
	return nil
}

func (r *Doctors) FindByID(_ context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyDoctor(d), nil
}

func (r *Doctors) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idForUser(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyDoctor(r.byID[id]), nil
}

func (r *Doctors) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var doctors []models.Doctor
	for _, id := range ids {
		if d, ok := r.byID[id]; ok {
			doctors = append(doctors, *copyDoctor(d))
		}
	}
	return doctors, nil
}

func (r *Doctors) ListAvailable(_ context.Context) ([]models.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var doctors []models.Doctor
	for _, d := range r.byID {
		if d.IsAvailable {
			doctors = append(doctors, *copyDoctor(d))
		}
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID.Hex() < doctors[j].ID.Hex() })
	return doctors, nil
}

func (r *Doctors) Update(_ context.Context, userID primitive.ObjectID, upd models.DoctorUpdate) (*models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.idForUser(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.License != nil {
		for otherID, other := range r.byID {
			if otherID != id && other.License == *upd.License {
				return nil, duplicate("license", *upd.License)
			}
		}
	}
	d := r.byID[id]
	upd.Apply(&d)
	d.UpdatedAt = time.Now().UTC()
	r.byID[id] = d
	return copyDoctor(d), nil
}

func (r *Doctors) SetTimeSlots(_ context.Context, userID primitive.ObjectID, slots []models.TimeSlot) ([]models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.idForUser(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	d := r.byID[id]
	d.TimeSlots = append([]models.TimeSlot{}, slots...)
	r.byID[id] = d
	return append([]models.TimeSlot{}, d.TimeSlots...), nil
}

func (r *Doctors) SetAvailability(_ context.Context, userID primitive.ObjectID, available bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.idForUser(userID)
	if !ok {
		return false, store.ErrNotFound
	}
	d := r.byID[id]
	d.IsAvailable = available
	r.byID[id] = d
	return d.IsAvailable, nil
}

func (r *Doctors) AddPatient(_ context.Context, doctorID, patientID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[doctorID]
	if !ok || d.HasPatient(patientID) {
		return false, nil
	}
	d.Patients = append(append([]primitive.ObjectID{}, d.Patients...), patientID)
	r.byID[doctorID] = d
	return true, nil
}

func (r *Doctors) RemovePatient(_ context.Context, doctorID, patientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[doctorID]
	if !ok {
		return store.ErrNotFound
	}
	kept := make([]primitive.ObjectID, 0, len(d.Patients))
	for _, p := range d.Patients {
		if p != patientID {
			kept = append(kept, p)
		}
	}
	d.Patients = kept
	r.byID[doctorID] = d
	return nil
}

func (r *Doctors) idForUser(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	for id, d := range r.byID {
		if d.UserID == userID {
			return id, true
		}
	}
	return primitive.NilObjectID, false
}

// ---- patients ----

type Patients struct {
	mu     sync.RWMutex
	byUser map[primitive.ObjectID]models.Patient
}

func copyPatient(p models.Patient) *models.Patient {
	p.MedicalHistory = append([]models.MedicalHistoryEntry{}, p.MedicalHistory...)
	p.MedicalReports = append([]models.MedicalReport{}, p.MedicalReports...)
	return &p
}

func (r *Patients) UpsertByUserID(_ context.Context, userID primitive.ObjectID, seed models.Patient) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byUser[userID]; ok {
		return copyPatient(p), nil
	}
	p := models.Patient{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		Phone:          seed.Phone,
		Address:        seed.Address,
		MedicalHistory: []models.MedicalHistoryEntry{},
		MedicalReports: []models.MedicalReport{},
		CreatedAt:      time.Now().UTC(),
	}
	r.byUser[userID] = p
	return copyPatient(p), nil
}

func (r *Patients) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyPatient(p), nil
}

func (r *Patients) Update(_ context.Context, userID primitive.ObjectID, upd models.PatientUpdate) (*models.Patient, error) {
	return r.mutate(userID, func(p *models.Patient) {
		if upd.Phone != nil {
			p.Phone = *upd.Phone
		}
		if upd.Address != nil {
			p.Address = *upd.Address
		}
	})
}

func (r *Patients) AddHistory(_ context.Context, userID primitive.ObjectID, entry models.MedicalHistoryEntry) (*models.Patient, error) {
	return r.mutate(userID, func(p *models.Patient) {
		p.MedicalHistory = append(p.MedicalHistory, entry)
	})
}

func (r *Patients) RemoveHistory(_ context.Context, userID, entryID primitive.ObjectID) (bool, error) {
	removed := false
	_, err := r.mutate(userID, func(p *models.Patient) {
		kept := make([]models.MedicalHistoryEntry, 0, len(p.MedicalHistory))
		for _, e := range p.MedicalHistory {
			if e.ID == entryID {
				removed = true
				continue
			}
			kept = append(kept, e)
		}
		p.MedicalHistory = kept
	})
	return removed, err
}

func (r *Patients) AddReport(_ context.Context, userID primitive.ObjectID, report models.MedicalReport) (*models.Patient, error) {
	return r.mutate(userID, func(p *models.Patient) {
		p.MedicalReports = append(p.MedicalReports, report)
	})
}

func (r *Patients) mutate(userID primitive.ObjectID, fn func(*models.Patient)) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copyPatient(p)
	fn(cp)
	r.byUser[userID] = *cp
	return copyPatient(*cp), nil
}

// ---- pharmacists ----

type Pharmacists struct {
	mu     sync.RWMutex
	byUser map[primitive.ObjectID]models.Pharmacist
}

func copyPharmacist(p models.Pharmacist) *models.Pharmacist {
	p.Inventory = append([]models.InventoryItem{}, p.Inventory...)
	p.Notifications = append([]string{}, p.Notifications...)
	return &p
}

func (r *Pharmacists) Create(_ context.Context, p *models.Pharmacist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[p.UserID]; ok {
		return duplicate("userId", p.UserID.Hex())
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.byUser[p.UserID] = *copyPharmacist(*p)
	return nil
}

func (r *Pharmacists) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.Pharmacist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyPharmacist(p), nil
}

func (r *Pharmacists) SetInventory(_ context.Context, userID primitive.ObjectID, items []models.InventoryItem) ([]models.InventoryItem, error) {
	p, err := r.mutate(userID, func(p *models.Pharmacist) {
		p.Inventory = append([]models.InventoryItem{}, items...)
	})
	if err != nil {
		return nil, err
	}
	return p.Inventory, nil
}

func (r *Pharmacists) AddInventoryItem(_ context.Context, userID primitive.ObjectID, item models.InventoryItem) ([]models.InventoryItem, error) {
	p, err := r.mutate(userID, func(p *models.Pharmacist) {
		p.Inventory = append(p.Inventory, item)
	})
	if err != nil {
		return nil, err
	}
	return p.Inventory, nil
}

func (r *Pharmacists) RemoveInventoryItem(_ context.Context, userID, itemID primitive.ObjectID) ([]models.InventoryItem, error) {
	p, err := r.mutate(userID, func(p *models.Pharmacist) {
		kept := make([]models.InventoryItem, 0, len(p.Inventory))
		for _, it := range p.Inventory {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		p.Inventory = kept
	})
	if err != nil {
		return nil, err
	}
	return p.Inventory, nil
}

func (r *Pharmacists) SetNotifications(_ context.Context, userID primitive.ObjectID, notes []string) ([]string, error) {
	p, err := r.mutate(userID, func(p *models.Pharmacist) {
		p.Notifications = append([]string{}, notes...)
	})
	if err != nil {
		return nil, err
	}
	return p.Notifications, nil
}

func (r *Pharmacists) mutate(userID primitive.ObjectID, fn func(*models.Pharmacist)) (*models.Pharmacist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copyPharmacist(p)
	fn(cp)
	cp.UpdatedAt = time.Now().UTC()
	r.byUser[userID] = *cp
	return copyPharmacist(*cp), nil
}

// ---- students ----

type Students struct {
	mu     sync.RWMutex
	byUser map[primitive.ObjectID]models.Student
}

func (r *Students) UpsertByUserID(_ context.Context, userID primitive.ObjectID) (*models.Student, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byUser[userID]
	if !ok {
		s = models.Student{
			ID:            primitive.NewObjectID(),
			UserID:        userID,
			QuizScores:    []models.QuizScore{},
			AccessedCases: []models.CaseAccess{},
			CreatedAt:     time.Now().UTC(),
		}
		r.byUser[userID] = s
	}
	s.QuizScores = append([]models.QuizScore{}, s.QuizScores...)
	s.AccessedCases = append([]models.CaseAccess{}, s.AccessedCases...)
	return &s, !ok, nil
}

func (r *Students) AddCaseAccess(_ context.Context, userID primitive.ObjectID, access models.CaseAccess) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byUser[userID]
	if !ok {
		return store.ErrNotFound
	}
	s.AccessedCases = append(append([]models.CaseAccess{}, s.AccessedCases...), access)
	r.byUser[userID] = s
	return nil
}

func (r *Students) AddQuizScore(_ context.Context, userID primitive.ObjectID, score models.QuizScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byUser[userID]
	if !ok {
		return store.ErrNotFound
	}
	s.QuizScores = append(append([]models.QuizScore{}, s.QuizScores...), score)
	r.byUser[userID] = s
	return nil
}

// ---- appointments ----

type Appointments struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.Appointment
}

func (r *Appointments) Create(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.byID[a.ID] = *a
	return nil
}

func (r *Appointments) FindByID(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (r *Appointments) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Appointments) ListUpcomingByDoctor(_ context.Context, doctorID primitive.ObjectID, since time.Time) ([]models.Appointment, error) {
	return r.list(func(a models.Appointment) bool {
		return a.DoctorID == doctorID && !a.Date.Before(since)
	}), nil
}

func (r *Appointments) ListUpcomingByPatient(_ context.Context, patientID primitive.ObjectID, since time.Time) ([]models.Appointment, error) {
	return r.list(func(a models.Appointment) bool {
		return a.PatientID == patientID && !a.Date.Before(since)
	}), nil
}

func (r *Appointments) ListByDoctorBetween(_ context.Context, doctorID primitive.ObjectID, from, to time.Time) ([]models.Appointment, error) {
	return r.list(func(a models.Appointment) bool {
		return a.DoctorID == doctorID && !a.Date.Before(from) && a.Date.Before(to)
	}), nil
}

func (r *Appointments) list(keep func(models.Appointment) bool) []models.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appointments := make([]models.Appointment, 0)
	for _, a := range r.byID {
		if keep(a) {
			appointments = append(appointments, a)
		}
	}
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date.Equal(appointments[j].Date) {
			return appointments[i].StartTime < appointments[j].StartTime
		}
		return appointments[i].Date.Before(appointments[j].Date)
	})
	return appointments
}

// ---- medical records ----

type MedicalRecords struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.MedicalRecord
}

func copyRecord(r models.MedicalRecord) *models.MedicalRecord {
	r.Prescription = append([]models.Prescription{}, r.Prescription...)
	r.LabResults = append([]models.LabResult{}, r.LabResults...)
	r.Attachments = append([]string{}, r.Attachments...)
	return &r
}

func (r *MedicalRecords) Create(_ context.Context, rec *models.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = rec.CreatedAt
	*rec = *copyRecord(*rec)
	r.byID[rec.ID] = *copyRecord(*rec)
	return nil
}

func (r *MedicalRecords) FindByID(_ context.Context, id primitive.ObjectID) (*models.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (r *MedicalRecords) ListByPatient(_ context.Context, patientID primitive.ObjectID) ([]models.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]models.MedicalRecord, 0)
	for _, rec := range r.byID {
		if rec.PatientID == patientID {
			records = append(records, *copyRecord(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return bytes.Compare(records[i].ID[:], records[j].ID[:]) > 0
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (r *MedicalRecords) Update(_ context.Context, id primitive.ObjectID, upd models.MedicalRecordUpdate) (*models.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	upd.Apply(&rec)
	rec.UpdatedAt = time.Now().UTC()
	r.byID[id] = *copyRecord(rec)
	return copyRecord(rec), nil
}
