package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lendcore/lending-os/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, sub, org string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"org": org,
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddlewareInjectsIdentity(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}

	var gotUser, gotOrg int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserID(r.Context())
		gotOrg, _ = OrganizationID(r.Context())
	})

	req := httptest.NewRequest("GET", "/loans", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "42", "7"))
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUser)
	assert.Equal(t, int64(7), gotOrg)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	cases := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"wrong secret", signToken(t, "other-secret", "42", "7")},
		{"garbage", "Bearer not-a-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/loans", nil)
			if tc.token != "" {
				if tc.name == "garbage" {
					req.Header.Set("Authorization", tc.token)
				} else {
					req.Header.Set("Authorization", "Bearer "+tc.token)
				}
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(cfg)(next).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
