package services

import (
	"context"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StudentService tracks case-study access and quiz results for students.
type StudentService struct {
	students StudentRepository
	users    UserRepository
	log      *zap.Logger
}

func NewStudentService(students StudentRepository, users UserRepository, log *zap.Logger) *StudentService {
	return &StudentService{students: students, users: users, log: log}
}

// ensureStudent returns the caller's student record, creating it on first
// use. Only patients and students may hold one; a patient is promoted to the
// student role when the record is created. failMsg labels store faults.
func (s *StudentService) ensureStudent(ctx context.Context, userID primitive.ObjectID, failMsg string) (*models.Student, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	if user.Role != models.RolePatient && user.Role != models.RoleStudent {
		return nil, forbiddenError("Not authorized as student")
	}

	student, created, err := s.students.UpsertByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(failMsg, err)
	}
	if created && user.Role == models.RolePatient {
		if err := s.users.SetRole(ctx, userID, models.RoleStudent); err != nil {
			return nil, internalError(failMsg, err)
		}
		s.log.Info("user promoted to student", zap.String("user_id", userID.Hex()))
	}
	return student, nil
}

func (s *StudentService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.Student, error) {
	return s.ensureStudent(ctx, userID, "Error fetching student profile")
}

func (s *StudentService) AccessCase(ctx context.Context, userID, caseID primitive.ObjectID) (*models.CaseAccess, error) {
	if _, err := s.ensureStudent(ctx, userID, "Error accessing case study"); err != nil {
		return nil, err
	}
	access := models.CaseAccess{CaseID: caseID, Date: time.Now().UTC()}
	if err := s.students.AddCaseAccess(ctx, userID, access); err != nil {
		return nil, internalError("Error accessing case study", err)
	}
	return &access, nil
}

func (s *StudentService) TrackQuizScore(ctx context.Context, userID, quizID primitive.ObjectID, score float64) (*models.QuizScore, error) {
	if score < 0 {
		return nil, validationError("score must not be negative")
	}
	if _, err := s.ensureStudent(ctx, userID, "Error tracking quiz score"); err != nil {
		return nil, err
	}
	entry := models.QuizScore{QuizID: quizID, Score: score, Date: time.Now().UTC()}
	if err := s.students.AddQuizScore(ctx, userID, entry); err != nil {
		return nil, internalError("Error tracking quiz score", err)
	}
	s.log.Debug("quiz score tracked", zap.String("user_id", userID.Hex()), zap.String("quiz_id", quizID.Hex()))
	return &entry, nil
}
