package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryLookahead is how far ahead of its exp claim an access token is
// already considered stale.
const ExpiryLookahead = 5 * time.Minute

// TokenState is the outcome of inspecting an access token.
type TokenState int

const (
	TokenValid TokenState = iota
	TokenExpired
	TokenMalformed
)

func (s TokenState) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "malformed"
	}
}

var unverified = jwt.NewParser()

// CheckToken inspects the exp claim of a compact JWT without verifying its
// signature; only the server can do that. Anything that cannot be decoded,
// or carries no exp, is TokenMalformed. The header segment must decode too,
// so a token with a readable payload but a broken header is TokenMalformed
// and the caller re-authenticates.
func CheckToken(token string, now time.Time) TokenState {
	if token == "" {
		return TokenMalformed
	}

	var claims jwt.RegisteredClaims
	if _, _, err := unverified.ParseUnverified(token, &claims); err != nil {
		return TokenMalformed
	}
	if claims.ExpiresAt == nil {
		return TokenMalformed
	}

	if claims.ExpiresAt.Time.Sub(now) < ExpiryLookahead {
		return TokenExpired
	}
	return TokenValid
}
