package services

import (
	"context"
	"testing"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func appointmentIDs(views []models.AppointmentView) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestBookIsVisibleToBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docUser, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	patient := f.register(t, "Ada", "ada@example.com", "")

	apt, err := f.appointments.Book(ctx, patient.ID, BookInput{
		DoctorID: doctor.ID, Date: f.now.AddDate(0, 0, 2), StartTime: "10:00", EndTime: "10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusScheduled, apt.Status)

	forDoctor, err := f.appointments.ListForDoctor(ctx, docUser.ID, &doctor.ID)
	require.NoError(t, err)
	require.Len(t, forDoctor, 1)
	assert.Equal(t, apt.ID, forDoctor[0].ID)
	assert.Equal(t, "Ada", forDoctor[0].PatientName)

	forPatient, err := f.appointments.ListForPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, forPatient, 1)
	assert.Equal(t, "Grey", forPatient[0].DoctorName)
	assert.Equal(t, "Cardiology", forPatient[0].Specialization)
}

func TestBookAcceptsOverlapsByDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docUser, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	a := f.register(t, "Ada", "ada@example.com", "")
	b := f.register(t, "Bob", "bob@example.com", "")

	in := BookInput{DoctorID: doctor.ID, Date: f.now.AddDate(0, 0, 1), StartTime: "10:00", EndTime: "11:00"}
	_, err := f.appointments.Book(ctx, a.ID, in)
	require.NoError(t, err)
	_, err = f.appointments.Book(ctx, b.ID, in)
	require.NoError(t, err)

	list, err := f.appointments.ListForDoctor(ctx, docUser.ID, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBookUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	patient := f.register(t, "Ada", "ada@example.com", "")

	_, err := f.appointments.Book(context.Background(), patient.ID, BookInput{
		DoctorID: primitive.NewObjectID(), Date: f.now, StartTime: "10:00", EndTime: "10:30",
	})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestBookValidatesTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	patient := f.register(t, "Ada", "ada@example.com", "")

	cases := map[string]BookInput{
		"missing date":  {DoctorID: doctor.ID, StartTime: "10:00", EndTime: "10:30"},
		"bad start":     {DoctorID: doctor.ID, Date: f.now, StartTime: "ten", EndTime: "10:30"},
		"end too early": {DoctorID: doctor.ID, Date: f.now, StartTime: "10:30", EndTime: "10:00"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.appointments.Book(ctx, patient.ID, in)
			assert.True(t, IsKind(err, KindValidation))
		})
	}
}

func TestBookNotifiesPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	res, err := f.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password123", Phone: "+15550100"})
	require.NoError(t, err)

	_, err = f.appointments.Book(ctx, res.User.ID, BookInput{
		DoctorID: doctor.ID, Date: f.now.AddDate(0, 0, 1), StartTime: "09:00", EndTime: "09:30",
	})
	require.NoError(t, err)

	f.notifier.AssertCalled(t, "AppointmentBooked", "+15550100", mock.MatchedBy(func(v *models.AppointmentView) bool {
		return v.DoctorName == "Grey" && v.StartTime == "09:00"
	}))
}

func TestPastAppointmentsAreNotUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docUser, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	patient := f.register(t, "Ada", "ada@example.com", "")

	past, err := f.appointments.Book(ctx, patient.ID, BookInput{
		DoctorID: doctor.ID, Date: f.now.AddDate(0, 0, -3), StartTime: "10:00", EndTime: "10:30",
	})
	require.NoError(t, err)
	today, err := f.appointments.Book(ctx, patient.ID, BookInput{
		DoctorID: doctor.ID, Date: time.Date(2030, time.March, 4, 0, 0, 0, 0, time.UTC), StartTime: "15:00", EndTime: "15:30",
	})
	require.NoError(t, err)

	list, err := f.appointments.ListForDoctor(ctx, docUser.ID, nil)
	require.NoError(t, err)
	ids := appointmentIDs(list)
	assert.NotContains(t, ids, past.ID)
	assert.Contains(t, ids, today.ID)
}

func TestListForDoctorRejectsForeignDoctorID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docUser, _ := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	_, other := f.registerDoctor(t, "House", "house@example.com", "LIC-2")

	_, err := f.appointments.ListForDoctor(ctx, docUser.ID, &other.ID)
	assert.True(t, IsKind(err, KindForbidden))
}

func TestCancelRemovesFromBothListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	docUser, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	patient := f.register(t, "Ada", "ada@example.com", "")

	apt, err := f.appointments.Book(ctx, patient.ID, BookInput{
		DoctorID: doctor.ID, Date: f.now.AddDate(0, 0, 1), StartTime: "10:00", EndTime: "10:30",
	})
	require.NoError(t, err)

	require.NoError(t, f.appointments.Cancel(ctx, docUser.ID, apt.ID))

	forDoctor, err := f.appointments.ListForDoctor(ctx, docUser.ID, nil)
	require.NoError(t, err)
	assert.NotContains(t, appointmentIDs(forDoctor), apt.ID)

	forPatient, err := f.appointments.ListForPatient(ctx, patient.ID)
	require.NoError(t, err)
	assert.NotContains(t, appointmentIDs(forPatient), apt.ID)

	f.notifier.AssertCalled(t, "AppointmentCancelled", mock.Anything, mock.Anything)

	err = f.appointments.Cancel(ctx, docUser.ID, apt.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCancelRequiresOwningDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	otherUser, _ := f.registerDoctor(t, "House", "house@example.com", "LIC-2")
	patient := f.register(t, "Ada", "ada@example.com", "")

	apt, err := f.appointments.Book(ctx, patient.ID, BookInput{
		DoctorID: doctor.ID, Date: f.now.AddDate(0, 0, 1), StartTime: "10:00", EndTime: "10:30",
	})
	require.NoError(t, err)

	err = f.appointments.Cancel(ctx, otherUser.ID, apt.ID)
	assert.True(t, IsKind(err, KindForbidden))

	stored, err := f.stores.Appointments.FindByID(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, apt.ID, stored.ID)
}

func TestStrictBooking(t *testing.T) {
	f := newFixture(t)
	f.appointments.strict = true
	ctx := context.Background()
	docUser, doctor := f.registerDoctor(t, "Grey", "grey@example.com", "LIC-1")
	patient := f.register(t, "Ada", "ada@example.com", "")

	monday := f.now.AddDate(0, 0, 7)
	slot := BookInput{DoctorID: doctor.ID, Date: monday, StartTime: "09:00", EndTime: "09:30"}

	_, err := f.appointments.Book(ctx, patient.ID, slot)
	assert.True(t, IsKind(err, KindValidation), "doctor not accepting appointments")

	_, err = f.doctors.SetAvailability(ctx, docUser.ID, true)
	require.NoError(t, err)
	_, err = f.doctors.SetTimeSlots(ctx, docUser.ID, []models.TimeSlot{
		{Day: models.Monday, StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
	})
	require.NoError(t, err)

	_, err = f.appointments.Book(ctx, patient.ID, slot)
	require.NoError(t, err)

	overlap := BookInput{DoctorID: doctor.ID, Date: monday, StartTime: "09:15", EndTime: "09:45"}
	_, err = f.appointments.Book(ctx, patient.ID, overlap)
	assert.True(t, IsKind(err, KindValidation))

	adjacent := BookInput{DoctorID: doctor.ID, Date: monday, StartTime: "09:30", EndTime: "10:00"}
	_, err = f.appointments.Book(ctx, patient.ID, adjacent)
	assert.NoError(t, err)

	outside := BookInput{DoctorID: doctor.ID, Date: monday, StartTime: "11:30", EndTime: "12:30"}
	_, err = f.appointments.Book(ctx, patient.ID, outside)
	assert.True(t, IsKind(err, KindValidation))

	tuesday := BookInput{DoctorID: doctor.ID, Date: monday.AddDate(0, 0, 1), StartTime: "09:00", EndTime: "09:30"}
	_, err = f.appointments.Book(ctx, patient.ID, tuesday)
	assert.True(t, IsKind(err, KindValidation))
}
