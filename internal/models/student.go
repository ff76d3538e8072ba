package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuizScore struct {
	QuizID primitive.ObjectID `bson:"quizId" json:"quizId"`
	Score  float64            `bson:"score" json:"score"`
	Date   time.Time          `bson:"date" json:"date"`
}

type CaseAccess struct {
	CaseID primitive.ObjectID `bson:"caseId" json:"caseId"`
	Date   time.Time          `bson:"date" json:"date"`
}

type Student struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	QuizScores    []QuizScore        `bson:"quizScores" json:"quizScores"`
	AccessedCases []CaseAccess       `bson:"accessedCases" json:"accessedCases"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
