package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexSpecs lists the indexes the uniqueness and lookup invariants rely on.
var indexSpecs = map[string][]mongo.IndexModel{
	UsersCollection: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "name", Value: 1}}},
	},
	DoctorsCollection: {
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "license", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isAvailable", Value: 1}}},
	},
	PatientsCollection: {
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	PharmacistsCollection: {
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	StudentsCollection: {
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	AppointmentsCollection: {
		{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "date", Value: 1}}},
	},
	MedicalRecordsCollection: {
		{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
}

// EnsureIndexes creates every index; existing identical indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range indexSpecs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
