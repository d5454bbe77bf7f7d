package user

import (
	"context"
	"time"

	"tsundoku/internal/mailer"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	// Delete removes the user; readings and sessions go with it through FK cascades.
	Delete(ctx context.Context, id string) error

	// Confirm marks the holder of the token confirmed and burns the token.
	Confirm(ctx context.Context, tokenHash string) (User, error)
	SetConfirmationToken(ctx context.Context, id, tokenHash string) error
	SetResetPasswordToken(ctx context.Context, id, tokenHash string) error
	// ResetPassword swaps the password of the token holder when the token was
	// issued after sentAfter. A used token cannot be replayed.
	ResetPassword(ctx context.Context, tokenHash, passwordHash string, sentAfter time.Time) (User, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}
