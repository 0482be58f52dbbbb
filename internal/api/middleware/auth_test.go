package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/auth"
)

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing-purposes", 15*time.Minute, 24*time.Hour)
}

func okHandler(sawUserID *int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sawUserID != nil {
			*sawUserID = GetUserID(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestExtractToken(t *testing.T) {
	// Bearer header
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(req))

	// Cookie wins over header
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
	assert.Equal(t, "cookie-token", ExtractToken(req))

	// Neither
	assert.Equal(t, "", ExtractToken(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestAuth_ValidToken(t *testing.T) {
	jwtService := newTestJWT()
	token, _, err := jwtService.GenerateAccessToken(42, "user@example.com", "customer")
	require.NoError(t, err)

	var sawUserID int64
	handler := Auth(jwtService)(okHandler(&sawUserID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), sawUserID)
}

func TestAuth_MissingOrBadToken(t *testing.T) {
	jwtService := newTestJWT()
	handler := Auth(jwtService)(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuth_GuestPassesThrough(t *testing.T) {
	jwtService := newTestJWT()

	var sawUserID int64
	handler := OptionalAuth(jwtService)(okHandler(&sawUserID))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), sawUserID)
}

func TestRequireRole(t *testing.T) {
	jwtService := newTestJWT()
	customer, _, err := jwtService.GenerateAccessToken(1, "c@example.com", "customer")
	require.NoError(t, err)
	admin, _, err := jwtService.GenerateAccessToken(2, "a@example.com", "admin")
	require.NoError(t, err)

	handler := Auth(jwtService)(RequireRole("admin")(okHandler(nil)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
