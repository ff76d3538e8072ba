package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/curalink/curalink-api/internal/session"
	"github.com/curalink/curalink-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, tokens *utils.TokenManager, revoker session.Revoker, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(tokens, revoker)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString(ContextUserID), "role": c.GetString(ContextUserRole)})
	})
	r.GET("/private", handlers...)
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens, err := utils.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	revoker := session.NewMemoryRevoker()
	r := newRouter(t, tokens, revoker)

	token, err := tokens.GenerateJWT("64b7f0c2a1b2c3d4e5f60718", "doctor")
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	})
	t.Run("not bearer", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "Basic abc").Code)
	})
	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not-a-jwt").Code)
	})
	t.Run("valid token", func(t *testing.T) {
		w := get(r, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"doctor"`)
	})
	t.Run("revoked token", func(t *testing.T) {
		claims, err := tokens.ValidateJWT(token)
		require.NoError(t, err)
		require.NoError(t, revoker.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
		assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token).Code)
	})
}

func TestRequireRole(t *testing.T) {
	tokens, err := utils.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	r := newRouter(t, tokens, session.NewMemoryRevoker(), RequireRole("doctor"))

	doctor, err := tokens.GenerateJWT("64b7f0c2a1b2c3d4e5f60718", "doctor")
	require.NoError(t, err)
	patient, err := tokens.GenerateJWT("64b7f0c2a1b2c3d4e5f60719", "patient")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+doctor).Code)

	w := get(r, "Bearer "+patient)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_AUTHORIZED")
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "/ping", fields["path"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
}

func TestRequestIDGenerated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
}
