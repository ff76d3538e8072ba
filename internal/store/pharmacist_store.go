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

type PharmacistStore struct {
	coll *mongo.Collection
}

func NewPharmacistStore(db *mongo.Database) *PharmacistStore {
	return &PharmacistStore{coll: db.Collection(PharmacistsCollection)}
}

func (s *PharmacistStore) Create(ctx context.Context, p *models.Pharmacist) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Inventory == nil {
		p.Inventory = []models.InventoryItem{}
	}
	if p.Notifications == nil {
		p.Notifications = []string{}
	}
	_, err := s.coll.InsertOne(ctx, p)
	return translate(err)
}

func (s *PharmacistStore) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Pharmacist, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var pharmacist models.Pharmacist
	if err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&pharmacist); err != nil {
		return nil, translate(err)
	}
	return &pharmacist, nil
}

func (s *PharmacistStore) SetInventory(ctx context.Context, userID primitive.ObjectID, items []models.InventoryItem) ([]models.InventoryItem, error) {
	if items == nil {
		items = []models.InventoryItem{}
	}
	p, err := s.findOneAndUpdate(ctx, userID, bson.M{"$set": bson.M{"inventory": items, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return nil, err
	}
	return p.Inventory, nil
}

func (s *PharmacistStore) AddInventoryItem(ctx context.Context, userID primitive.ObjectID, item models.InventoryItem) ([]models.InventoryItem, error) {
	p, err := s.findOneAndUpdate(ctx, userID, bson.M{
		"$push": bson.M{"inventory": item},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return nil, err
	}
	return p.Inventory, nil
}

func (s *PharmacistStore) RemoveInventoryItem(ctx context.Context, userID, itemID primitive.ObjectID) ([]models.InventoryItem, error) {
	p, err := s.findOneAndUpdate(ctx, userID, bson.M{
		"$pull": bson.M{"inventory": bson.M{"_id": itemID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return nil, err
	}
	return p.Inventory, nil
}

func (s *PharmacistStore) SetNotifications(ctx context.Context, userID primitive.ObjectID, notes []string) ([]string, error) {
	if notes == nil {
		notes = []string{}
	}
	p, err := s.findOneAndUpdate(ctx, userID, bson.M{"$set": bson.M{"notifications": notes, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return nil, err
	}
	return p.Notifications, nil
}

func (s *PharmacistStore) findOneAndUpdate(ctx context.Context, userID primitive.ObjectID, update bson.M) (*models.Pharmacist, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var pharmacist models.Pharmacist
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&pharmacist)
	if err != nil {
		return nil, translate(err)
	}
	return &pharmacist, nil
}
