package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the client cares about when restoring a
// persisted session. The signature is not verified here: the backend
// rejects forged tokens on every call, the client only needs to know
// whether a cached token is worth presenting at all.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// ParseClaims extracts subject, role and expiry from a bearer token.
func ParseClaims(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("subject claim not found in token")
	}

	out := &TokenClaims{Subject: sub}

	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return out, nil
}

// Expired reports whether the token carries an exp claim in the past.
// Tokens without an exp claim are treated as usable.
func (c *TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}
