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

type DoctorStore struct {
	coll *mongo.Collection
}

func NewDoctorStore(db *mongo.Database) *DoctorStore {
	return &DoctorStore{coll: db.Collection(DoctorsCollection)}
}

func (s *DoctorStore) Create(ctx context.Context, d *models.Doctor) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

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
	_, err := s.coll.InsertOne(ctx, d)
	return translate(err)
}

func (s *DoctorStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *DoctorStore) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	return s.findOne(ctx, bson.M{"userId": userID})
}

func (s *DoctorStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Doctor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListAvailable backs the public doctor listing.
func (s *DoctorStore) ListAvailable(ctx context.Context) ([]models.Doctor, error) {
	return s.find(ctx, bson.M{"isAvailable": true})
}

func (s *DoctorStore) Update(ctx context.Context, userID primitive.ObjectID, upd models.DoctorUpdate) (*models.Doctor, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Specialization != nil {
		set["specialization"] = *upd.Specialization
	}
	if upd.License != nil {
		set["license"] = *upd.License
	}
	if upd.Experience != nil {
		set["experience"] = *upd.Experience
	}
	if upd.Fees != nil {
		set["fees"] = *upd.Fees
	}
	if upd.About != nil {
		set["about"] = *upd.About
	}
	if upd.Languages != nil {
		set["languages"] = upd.Languages
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.Education != nil {
		set["education"] = upd.Education
	}
	if upd.Certificates != nil {
		set["certificates"] = upd.Certificates
	}
	return s.findOneAndSet(ctx, userID, set)
}

// SetTimeSlots overwrites the whole weekly template.
func (s *DoctorStore) SetTimeSlots(ctx context.Context, userID primitive.ObjectID, slots []models.TimeSlot) ([]models.TimeSlot, error) {
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	doctor, err := s.findOneAndSet(ctx, userID, bson.M{"timeSlots": slots, "updatedAt": time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return doctor.TimeSlots, nil
}

func (s *DoctorStore) SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool) (bool, error) {
	doctor, err := s.findOneAndSet(ctx, userID, bson.M{"isAvailable": available, "updatedAt": time.Now().UTC()})
	if err != nil {
		return false, err
	}
	return doctor.IsAvailable, nil
}

// AddPatient appends patientID to the roster unless it is already present.
// It reports false when the roster already held the id.
func (s *DoctorStore) AddPatient(ctx context.Context, doctorID, patientID primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": doctorID, "patients": bson.M{"$ne": patientID}},
		bson.M{"$push": bson.M{"patients": patientID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, translate(err)
	}
	return result.ModifiedCount == 1, nil
}

// RemovePatient pulls patientID from the roster; absent ids are a no-op.
func (s *DoctorStore) RemovePatient(ctx context.Context, doctorID, patientID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": doctorID},
		bson.M{"$pull": bson.M{"patients": patientID}},
	)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DoctorStore) findOneAndSet(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Doctor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doctor models.Doctor
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doctor)
	if err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (s *DoctorStore) findOne(ctx context.Context, filter bson.M) (*models.Doctor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doctor models.Doctor
	if err := s.coll.FindOne(ctx, filter).Decode(&doctor); err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (s *DoctorStore) find(ctx context.Context, filter bson.M) ([]models.Doctor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, translate(err)
	}
	return doctors, nil
}
