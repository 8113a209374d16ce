package domain

import "time"

// SessionTokens is the credential pair a client holds. Empty means absent.
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the access token expiry in unix seconds.
	ExpiresAt int64 `json:"expires_at"`
}

// RefreshRecord is what the server keeps for an outstanding refresh token.
type RefreshRecord struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}
