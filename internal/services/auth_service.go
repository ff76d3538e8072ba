package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/curalink/curalink-api/internal/session"
	"github.com/curalink/curalink-api/internal/store"
	"github.com/curalink/curalink-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	users       UserRepository
	pharmacists PharmacistRepository
	tokens      *utils.TokenManager
	revoker     session.Revoker
	log         *zap.Logger
}

func NewAuthService(users UserRepository, pharmacists PharmacistRepository, tokens *utils.TokenManager, revoker session.Revoker, log *zap.Logger) *AuthService {
	return &AuthService{users: users, pharmacists: pharmacists, tokens: tokens, revoker: revoker, log: log}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role := in.Role
	if role == "" {
		role = models.RolePatient
	}
	if !models.ValidRole(role) {
		return nil, validationError("invalid role %q", in.Role)
	}

	hashed, err := utils.HashPassword(in.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, validationError("%s", err.Error())
	}
	if err != nil {
		return nil, internalError("Failed to hash password", err)
	}

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  hashed,
		Role:      role,
		Phone:     in.Phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, &Error{Kind: KindValidation, Message: "Email already exists. Please use a different email.", Err: err}
		}
		return nil, storeError(err, "User not found")
	}

	if role == models.RolePharmacist {
		if err := s.pharmacists.Create(ctx, &models.Pharmacist{UserID: user.ID}); err != nil {
			s.log.Error("create pharmacist profile on register", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		}
	}

	token, err := s.tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, internalError("Could not generate token", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.Hex()), zap.String("role", role))
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || !utils.CheckPasswordHash(password, user.Password) {
		return nil, &Error{Kind: KindUnauthorized, Message: "Invalid email or password"}
	}

	token, err := s.tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, internalError("Could not generate token", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

// UpdateMe changes the caller's own name or phone.
func (s *AuthService) UpdateMe(ctx context.Context, userID primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, validationError("No update fields provided")
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		upd.Name = &name
	}
	user, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if claims.ID == "" {
		return validationError("token cannot be revoked")
	}
	expiresAt := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revoker.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return internalError("Could not revoke token", err)
	}
	return nil
}

// Reissue signs a fresh token after the user's role changed.
func (s *AuthService) Reissue(userID primitive.ObjectID, role string) (string, error) {
	return s.tokens.GenerateJWT(userID.Hex(), role)
}
