package session

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session is a refresh-token login. Only the hash of the refresh token is stored.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	// AccessTokenID is the jti of the latest access token issued for this session.
	AccessTokenID string
	UserAgent     string
	IPAddress     string
	RememberMe    bool
	ExpiresAt     time.Time
	CreatedAt     time.Time
	LastUsedAt    time.Time
}

// Rotation replaces the refresh token of a session. The new expiry depends on
// whether the session was created with remember-me.
type Rotation struct {
	RefreshTokenHash  string
	AccessTokenID     string
	ExpiresAt         time.Time
	RememberExpiresAt time.Time
}
