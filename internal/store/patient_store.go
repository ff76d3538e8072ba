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

type PatientStore struct {
	coll *mongo.Collection
}

func NewPatientStore(db *mongo.Database) *PatientStore {
	return &PatientStore{coll: db.Collection(PatientsCollection)}
}

// UpsertByUserID returns the patient document owned by userID, creating it
// from seed when none exists. The unique userId index keeps concurrent first
// fetches from producing two documents.
func (s *PatientStore) UpsertByUserID(ctx context.Context, userID primitive.ObjectID, seed models.Patient) (*models.Patient, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	onInsert := bson.M{
		"phone":          seed.Phone,
		"address":        seed.Address,
		"medicalHistory": bson.A{},
		"medicalReports": bson.A{},
		"createdAt":      time.Now().UTC(),
	}

	var patient models.Patient
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		bson.M{"$setOnInsert": onInsert},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&patient)
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race; the winner's document is there now
		return s.FindByUserID(ctx, userID)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

func (s *PatientStore) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Patient, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var patient models.Patient
	if err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&patient); err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

func (s *PatientStore) Update(ctx context.Context, userID primitive.ObjectID, upd models.PatientUpdate) (*models.Patient, error) {
	set := bson.M{}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	return s.findOneAndUpdate(ctx, userID, bson.M{"$set": set})
}

func (s *PatientStore) AddHistory(ctx context.Context, userID primitive.ObjectID, entry models.MedicalHistoryEntry) (*models.Patient, error) {
	return s.findOneAndUpdate(ctx, userID, bson.M{"$push": bson.M{"medicalHistory": entry}})
}

// RemoveHistory reports false when no entry with entryID existed.
func (s *PatientStore) RemoveHistory(ctx context.Context, userID, entryID primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$pull": bson.M{"medicalHistory": bson.M{"_id": entryID}}},
	)
	if err != nil {
		return false, translate(err)
	}
	if result.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return result.ModifiedCount == 1, nil
}

func (s *PatientStore) AddReport(ctx context.Context, userID primitive.ObjectID, report models.MedicalReport) (*models.Patient, error) {
	return s.findOneAndUpdate(ctx, userID, bson.M{"$push": bson.M{"medicalReports": report}})
}

func (s *PatientStore) findOneAndUpdate(ctx context.Context, userID primitive.ObjectID, update bson.M) (*models.Patient, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var patient models.Patient
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&patient)
	if err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}
