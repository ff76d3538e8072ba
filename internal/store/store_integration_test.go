package store

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// testClient is shared by every test; nil means no server could be reached
// and skipReason says why.
var (
	testClient *mongo.Client
	skipReason string
)

// TestMain connects to MONGO_TEST_URI when set and otherwise starts a
// throwaway mongo container. Without either the store tests are skipped.
func TestMain(m *testing.M) {
	flag.Parse()
	ctx := context.Background()

	cleanup := func() {}
	uri := os.Getenv("MONGO_TEST_URI")
	switch {
	case testing.Short():
		skipReason = "short mode"
	case uri == "":
		var err error
		uri, cleanup, err = startMongoContainer(ctx)
		if err != nil {
			skipReason = err.Error()
		}
	default:
		if err := pingMongo(ctx, uri); err != nil {
			skipReason = fmt.Sprintf("ping %s: %v", uri, err)
		}
	}

	if skipReason == "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			skipReason = err.Error()
		} else {
			testClient = client
		}
	}

	code := m.Run()
	if testClient != nil {
		_ = testClient.Disconnect(ctx)
	}
	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}

// newTestDB returns an indexed, uniquely named database dropped after the test.
func newTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testClient == nil {
		t.Skipf("mongo unavailable: %s", skipReason)
	}
	db := testClient.Database("curalink_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	require.NoError(t, EnsureIndexes(context.Background(), db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
	})
	return db
}

func TestEnsureIndexesIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureIndexes(ctx, db))

	specs, err := db.Collection(UsersCollection).Indexes().ListSpecifications(ctx)
	require.NoError(t, err)

	uniqueEmail := false
	for _, spec := range specs {
		if _, err := spec.KeysDocument.LookupErr("email"); err == nil && spec.Unique != nil && *spec.Unique {
			uniqueEmail = true
		}
	}
	assert.True(t, uniqueEmail, "users.email should carry a unique index")
}

func TestUserEmailIsUnique(t *testing.T) {
	users := NewUserStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RolePatient}))

	err := users.Create(ctx, &models.User{Name: "Other Ada", Email: "ada@example.com", Role: models.RolePatient})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	_, err = users.FindByID(ctx, primitive.NewObjectID())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSearchPatients(t *testing.T) {
	users := NewUserStore(newTestDB(t))
	ctx := context.Background()

	for _, u := range []models.User{
		{Name: "Zed Adams", Email: "zed@example.com", Role: models.RolePatient},
		{Name: "Bob Stone", Email: "bob@example.com", Role: models.RolePatient},
		{Name: "Ada Lovelace", Email: "ada@example.com", Role: models.RolePatient},
		{Name: "Lisa.Ann", Email: "lisa@example.com", Role: models.RolePatient},
		{Name: "Adam Pharma", Email: "adam@example.com", Role: models.RolePharmacist},
	} {
		u := u
		require.NoError(t, users.Create(ctx, &u))
	}

	names := func(query string, limit int) []string {
		t.Helper()
		found, err := users.SearchPatients(ctx, query, limit)
		require.NoError(t, err)
		out := make([]string, 0, len(found))
		for _, s := range found {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Ada Lovelace", "Zed Adams"}, names("ADA", 0))
	assert.Equal(t, []string{"Bob Stone"}, names("bob@", 0))
	// metacharacters match literally
	assert.Equal(t, []string{"Lisa.Ann"}, names("a.a", 0))
	assert.Empty(t, names("(", 0))
	assert.Equal(t, []string{"Ada Lovelace", "Bob Stone", "Lisa.Ann", "Zed Adams"}, names("", 0))
	assert.Equal(t, []string{"Ada Lovelace", "Bob Stone"}, names("", 2))
}

func TestDoctorRoster(t *testing.T) {
	doctors := NewDoctorStore(newTestDB(t))
	ctx := context.Background()

	doctor := &models.Doctor{UserID: primitive.NewObjectID(), Specialization: "Cardiology", License: "LIC-1"}
	require.NoError(t, doctors.Create(ctx, doctor))

	first := primitive.NewObjectID()
	added, err := doctors.AddPatient(ctx, doctor.ID, first)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = doctors.AddPatient(ctx, doctor.ID, first)
	require.NoError(t, err)
	assert.False(t, added)

	second := primitive.NewObjectID()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		errCh = make(chan error, 8)
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := doctors.AddPatient(ctx, doctor.ID, second)
			if err != nil {
				errCh <- err
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, wins)

	stored, err := doctors.FindByID(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{first, second}, stored.Patients)

	require.NoError(t, doctors.RemovePatient(ctx, doctor.ID, first))
	require.NoError(t, doctors.RemovePatient(ctx, doctor.ID, first))
	stored, err = doctors.FindByID(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{second}, stored.Patients)

	assert.True(t, errors.Is(doctors.RemovePatient(ctx, primitive.NewObjectID(), first), ErrNotFound))
}

func TestDoctorLicenseIsUnique(t *testing.T) {
	doctors := NewDoctorStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, doctors.Create(ctx, &models.Doctor{UserID: primitive.NewObjectID(), Specialization: "ENT", License: "LIC-1"}))
	err := doctors.Create(ctx, &models.Doctor{UserID: primitive.NewObjectID(), Specialization: "ENT", License: "LIC-1"})
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestPatientUpsertIsSingleDocument(t *testing.T) {
	db := newTestDB(t)
	patients := NewPatientStore(db)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	ids := make([]primitive.ObjectID, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := patients.UpsertByUserID(ctx, userID, models.Patient{Phone: "555-0100"})
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	count, err := db.Collection(PatientsCollection).CountDocuments(ctx, bson.M{"userId": userID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// the seed only applies on insert
	again, err := patients.UpsertByUserID(ctx, userID, models.Patient{Phone: "555-0199"})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", again.Phone)
	assert.NotNil(t, again.MedicalHistory)
}

func TestStudentUpsertReportsCreationOnce(t *testing.T) {
	db := newTestDB(t)
	students := NewStudentStore(db)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, isNew, err := students.UpsertByUserID(ctx, userID)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, userID, s.UserID)
			if isNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)

	count, err := db.Collection(StudentsCollection).CountDocuments(ctx, bson.M{"userId": userID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, students.AddQuizScore(ctx, userID, models.QuizScore{QuizID: primitive.NewObjectID(), Score: 9}))
	s, isNew, err := students.UpsertByUserID(ctx, userID)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Len(t, s.QuizScores, 1)

	err = students.AddCaseAccess(ctx, primitive.NewObjectID(), models.CaseAccess{CaseID: primitive.NewObjectID()})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAppointmentListings(t *testing.T) {
	appointments := NewAppointmentStore(newTestDB(t))
	ctx := context.Background()
	doctorID, patientID := primitive.NewObjectID(), primitive.NewObjectID()
	today := time.Date(2030, time.March, 4, 0, 0, 0, 0, time.UTC)

	book := func(day int, start, end string) {
		t.Helper()
		require.NoError(t, appointments.Create(ctx, &models.Appointment{
			DoctorID:  doctorID,
			PatientID: patientID,
			Date:      today.AddDate(0, 0, day),
			StartTime: start,
			EndTime:   end,
			Status:    models.AppointmentStatusScheduled,
		}))
	}
	book(2, "09:00", "09:30")
	book(-1, "10:00", "10:30")
	book(2, "08:00", "08:30")
	book(0, "15:00", "15:30")

	slots := func(list []models.Appointment) []string {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.Date.Format("01-02")+" "+a.StartTime)
		}
		return out
	}

	upcoming, err := appointments.ListUpcomingByDoctor(ctx, doctorID, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"03-04 15:00", "03-06 08:00", "03-06 09:00"}, slots(upcoming))

	upcoming, err = appointments.ListUpcomingByPatient(ctx, patientID, today)
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)

	window, err := appointments.ListByDoctorBetween(ctx, doctorID, today.AddDate(0, 0, 2), today.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"03-06 08:00", "03-06 09:00"}, slots(window))

	none, err := appointments.ListUpcomingByDoctor(ctx, primitive.NewObjectID(), today)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	require.NoError(t, appointments.Delete(ctx, upcoming[0].ID))
	assert.True(t, errors.Is(appointments.Delete(ctx, upcoming[0].ID), ErrNotFound))
}

func TestMedicalRecordsNewestFirst(t *testing.T) {
	records := NewMedicalRecordStore(newTestDB(t))
	ctx := context.Background()
	patientID, doctorID := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Date(2030, time.March, 4, 9, 0, 0, 0, time.UTC)

	for i, diagnosis := range []string{"Flu", "Migraine", "Sprain"} {
		offset := []int{0, 2, 1}[i]
		require.NoError(t, records.Create(ctx, &models.MedicalRecord{
			PatientID: patientID,
			DoctorID:  doctorID,
			Diagnosis: diagnosis,
			CreatedAt: base.Add(time.Duration(offset) * time.Hour),
		}))
	}
	require.NoError(t, records.Create(ctx, &models.MedicalRecord{PatientID: primitive.NewObjectID(), DoctorID: doctorID, Diagnosis: "Other"}))

	list, err := records.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Migraine", list[0].Diagnosis)
	assert.Equal(t, "Sprain", list[1].Diagnosis)
	assert.Equal(t, "Flu", list[2].Diagnosis)
	assert.NotNil(t, list[0].Prescription)

	notes := "rest"
	updated, err := records.Update(ctx, list[2].ID, models.MedicalRecordUpdate{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "rest", updated.Notes)
	assert.Equal(t, "Flu", updated.Diagnosis)
	assert.Equal(t, patientID, updated.PatientID)

	_, err = records.FindByID(ctx, primitive.NewObjectID())
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = records.Update(ctx, primitive.NewObjectID(), models.MedicalRecordUpdate{Notes: &notes})
	assert.True(t, errors.Is(err, ErrNotFound))
}
