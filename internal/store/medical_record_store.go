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

type MedicalRecordStore struct {
	coll *mongo.Collection
}

func NewMedicalRecordStore(db *mongo.Database) *MedicalRecordStore {
	return &MedicalRecordStore{coll: db.Collection(MedicalRecordsCollection)}
}

func (s *MedicalRecordStore) Create(ctx context.Context, r *models.MedicalRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = r.CreatedAt
	if r.Prescription == nil {
		r.Prescription = []models.Prescription{}
	}
	if r.LabResults == nil {
		r.LabResults = []models.LabResult{}
	}
	if r.Attachments == nil {
		r.Attachments = []string{}
	}
	_, err := s.coll.InsertOne(ctx, r)
	return translate(err)
}

func (s *MedicalRecordStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.MedicalRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var record models.MedicalRecord
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&record); err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// ListByPatient returns the patient's records newest first.
func (s *MedicalRecordStore) ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.MedicalRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"patientId": patientID}, findOptions)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	records := make([]models.MedicalRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, translate(err)
	}
	return records, nil
}

// Update sets the given fields; patientId and doctorId are never written.
func (s *MedicalRecordStore) Update(ctx context.Context, id primitive.ObjectID, upd models.MedicalRecordUpdate) (*models.MedicalRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Diagnosis != nil {
		set["diagnosis"] = *upd.Diagnosis
	}
	if upd.Prescription != nil {
		set["prescription"] = upd.Prescription
	}
	if upd.Notes != nil {
		set["notes"] = *upd.Notes
	}
	if upd.LabResults != nil {
		set["labResults"] = upd.LabResults
	}
	if upd.Attachments != nil {
		set["attachments"] = upd.Attachments
	}

	var record models.MedicalRecord
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&record)
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}
