package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator-1",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: "operator",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var operator string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator = GetOperator(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/conversations", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	Auth(testSecret)(next).ServeHTTP(rec, req)
	return rec, operator
}

func TestAuthAcceptsValidToken(t *testing.T) {
	token := signToken(t, testSecret, time.Now().Add(time.Hour))

	rec, operator := runAuth(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "operator-1", operator)
}

func TestAuthRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer token", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "wrong secret", header: "Bearer " + signTokenWithSecret(t, "other-secret")},
		{name: "expired token", header: "Bearer " + signTokenExpired(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := runAuth(t, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func signTokenWithSecret(t *testing.T, secret string) string {
	return signToken(t, secret, time.Now().Add(time.Hour))
}

func signTokenExpired(t *testing.T) string {
	return signToken(t, testSecret, time.Now().Add(-time.Hour))
}
