package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/auth"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	raw := signToken(t, jwt.MapClaims{
		"sub":  "user-1",
		"role": "admin",
		"exp":  exp,
	})

	claims, err := auth.ParseClaims(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, time.Unix(exp, 0), claims.ExpiresAt)
}

func TestParseClaimsWithoutOptionalClaims(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "user-1"})

	claims, err := auth.ParseClaims(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Empty(t, claims.Role)
	assert.True(t, claims.ExpiresAt.IsZero())
}

func TestParseClaimsRejectsMissingSubject(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"role": "user"})

	_, err := auth.ParseClaims(raw)
	assert.Error(t, err)
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	_, err := auth.ParseClaims("")
	assert.Error(t, err)

	_, err = auth.ParseClaims("not.a.token")
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Now()

	past := &auth.TokenClaims{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, past.Expired(now))

	future := &auth.TokenClaims{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, future.Expired(now))

	// no exp claim means usable
	none := &auth.TokenClaims{}
	assert.False(t, none.Expired(now))
}
