package store

import (
	"context"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AppointmentStore struct {
	coll *mongo.Collection
}

func NewAppointmentStore(db *mongo.Database) *AppointmentStore {
	return &AppointmentStore{coll: db.Collection(AppointmentsCollection)}
}

func (s *AppointmentStore) Create(ctx context.Context, a *models.Appointment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.coll.InsertOne(ctx, a)
	return translate(err)
}

func (s *AppointmentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var apt models.Appointment
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&apt); err != nil {
		return nil, translate(err)
	}
	return &apt, nil
}

func (s *AppointmentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUpcomingByDoctor returns the doctor's appointments dated at or after
// since, oldest first.
func (s *AppointmentStore) ListUpcomingByDoctor(ctx context.Context, doctorID primitive.ObjectID, since time.Time) ([]models.Appointment, error) {
	return s.list(ctx, bson.M{"doctorId": doctorID, "date": bson.M{"$gte": since}})
}

func (s *AppointmentStore) ListUpcomingByPatient(ctx context.Context, patientID primitive.ObjectID, since time.Time) ([]models.Appointment, error) {
	return s.list(ctx, bson.M{"patientId": patientID, "date": bson.M{"$gte": since}})
}

// ListByDoctorBetween returns the doctor's appointments with from <= date < to.
func (s *AppointmentStore) ListByDoctorBetween(ctx context.Context, doctorID primitive.ObjectID, from, to time.Time) ([]models.Appointment, error) {
	return s.list(ctx, bson.M{"doctorId": doctorID, "date": bson.M{"$gte": from, "$lt": to}})
}

func (s *AppointmentStore) list(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	appointments := make([]models.Appointment, 0)
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, translate(err)
	}
	return appointments, nil
}
