package services

import (
	"context"
	"testing"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultsToPatient(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "  Ada@Example.com ", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, res.User.Role)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEqual(t, "password123", res.User.Password)

	claims, err := f.tokens.ValidateJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RolePatient, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.register(t, "Ada", "ada@example.com", "")

	_, err := f.auth.Register(ctx, RegisterInput{Name: "Other", Email: "ADA@example.com", Password: "password123"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "Email already exists. Please use a different email.", err.(*Error).Message)

	stored, err := f.auth.Me(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.Name)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), RegisterInput{
		Name: "Eve", Email: "eve@example.com", Password: "password123", Role: "admin",
	})
	assert.True(t, IsKind(err, KindValidation))
}

func TestRegisterPharmacistCreatesProfile(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "Phil", "phil@example.com", models.RolePharmacist)

	profile, err := f.pharmacists.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Inventory)
	assert.Equal(t, "Phil", profile.User.Name)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ada", "ada@example.com", "")

	res, err := f.auth.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = f.auth.Login(ctx, "ada@example.com", "wrong-password")
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = f.auth.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ada", "ada@example.com", "")

	res, err := f.auth.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	claims, err := f.tokens.ValidateJWT(res.Token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, claims))

	revoked, err := f.auth.revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUpdateMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "Ada", "ada@example.com", "")

	name, phone := " Ada Lovelace ", "+15550100"
	updated, err := f.auth.UpdateMe(ctx, user.ID, models.UserUpdate{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, phone, updated.Phone)

	_, err = f.auth.UpdateMe(ctx, user.ID, models.UserUpdate{})
	assert.True(t, IsKind(err, KindValidation))

	blank := "  "
	_, err = f.auth.UpdateMe(ctx, user.ID, models.UserUpdate{Name: &blank})
	assert.True(t, IsKind(err, KindValidation))
}
