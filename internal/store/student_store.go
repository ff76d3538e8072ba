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

type StudentStore struct {
	coll *mongo.Collection
}

func NewStudentStore(db *mongo.Database) *StudentStore {
	return &StudentStore{coll: db.Collection(StudentsCollection)}
}

// UpsertByUserID returns the student document owned by userID, creating it
// when none exists. created is true only for the call that inserted it.
func (s *StudentStore) UpsertByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Student, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$setOnInsert": bson.M{
			"quizScores":    bson.A{},
			"accessedCases": bson.A{},
			"createdAt":     time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	created := false
	switch {
	case mongo.IsDuplicateKeyError(err):
		// lost the insert race; the winner's document is there now
	case err != nil:
		return nil, false, translate(err)
	default:
		created = result.UpsertedCount == 1
	}

	var student models.Student
	if err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&student); err != nil {
		return nil, false, translate(err)
	}
	return &student, created, nil
}

func (s *StudentStore) AddCaseAccess(ctx context.Context, userID primitive.ObjectID, access models.CaseAccess) error {
	return s.push(ctx, userID, "accessedCases", access)
}

func (s *StudentStore) AddQuizScore(ctx context.Context, userID primitive.ObjectID, score models.QuizScore) error {
	return s.push(ctx, userID, "quizScores", score)
}

func (s *StudentStore) push(ctx context.Context, userID primitive.ObjectID, field string, value interface{}) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$push": bson.M{field: value}})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
