package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ResetPasswordWithin is how long a password reset link stays usable.
const ResetPasswordWithin = 6 * time.Hour

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// ConfirmationTokenHash is only set on create.
	ConfirmationTokenHash string `json:"-"`
}

func (u User) Confirmed() bool {
	return u.ConfirmedAt != nil
}
