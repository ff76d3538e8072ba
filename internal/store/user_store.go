package store

import (
	"context"
	"regexp"

	"github.com/curalink/curalink-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection)}
}

// Create inserts u. Email uniqueness is enforced by the unique index, so a
// second registration fails with ErrDuplicateKey.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, u)
	return translate(err)
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindPatient returns the user only when it carries the patient role.
func (s *UserStore) FindPatient(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id, "role": models.RolePatient})
}

func (s *UserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"password": 0}))
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// SearchPatients lists patient-role users whose name or email contains query
// (case-insensitive), ordered by name. An empty query matches every patient.
func (s *UserStore) SearchPatients(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"role": models.RolePatient}
	if query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}
	}

	findOptions := options.Find().
		SetProjection(bson.M{"name": 1, "email": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	patients := make([]models.UserSummary, 0)
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, translate(err)
	}
	return patients, nil
}

func (s *UserStore) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Update sets the provided self-service fields and returns the updated user.
func (s *UserStore) Update(ctx context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if len(set) == 0 {
		return s.FindByID(ctx, id)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
