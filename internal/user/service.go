package user

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/mailer"
	"tsundoku/internal/platform/crypto"
)

type Service struct {
	repo      Repository
	mailer    Mailer
	publicURL string
	now       func() time.Time
	log       logrus.FieldLogger
}

// NewService builds the account service. publicURL is the origin that mailed links point at.
func NewService(repo Repository, m Mailer, publicURL string, log logrus.FieldLogger) *Service {
	return &Service{
		repo:      repo,
		mailer:    m,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
		log:       log.WithField("component", "user"),
	}
}

func (s *Service) link(path, token string) string {
	return s.publicURL + path + "?" + url.Values{"token": {token}}.Encode()
}

type RegisterCommand struct {
	Email    string
	Username string
	Password string
}

// Register creates an unconfirmed account and mails its confirmation link. When the address is
// already taken it sends an "already registered" notice instead and still
// returns nil, so callers cannot tell the two cases apart.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) error {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))

	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.notify(ctx, mailer.AlreadyRegistered(email))
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}

	hash, err := crypto.HashPassword(cmd.Password)
	if err != nil {
		return err
	}
	token, tokenHash, err := crypto.NewOpaqueToken()
	if err != nil {
		return err
	}

	u := &User{
		Email:                 email,
		Username:              strings.TrimSpace(cmd.Username),
		PasswordHash:          hash,
		Role:                  RoleUser,
		ConfirmationTokenHash: tokenHash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			s.notify(ctx, mailer.AlreadyRegistered(email))
			return nil
		}
		return err
	}

	s.log.WithField("user_id", u.ID).Info("user registered")
	s.notify(ctx, mailer.Confirmation(u.Email, u.Username, s.link("/users/confirm", token)))
	return nil
}

// Confirm activates the account holding the token. Tokens work once.
func (s *Service) Confirm(ctx context.Context, token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrInvalidToken
	}
	u, err := s.repo.Confirm(ctx, crypto.HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}

	s.log.WithField("user_id", u.ID).Info("user confirmed")
	s.notify(ctx, mailer.Welcome(u.Email, u.Username))
	return u, nil
}

// ResendConfirmation mails a fresh confirmation link. Unknown and already
// confirmed addresses are ignored without an error.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	u, err := s.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case u.Confirmed():
		return nil
	}

	token, tokenHash, err := crypto.NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.repo.SetConfirmationToken(ctx, u.ID, tokenHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	s.notify(ctx, mailer.Confirmation(u.Email, u.Username, s.link("/users/confirm", token)))
	return nil
}

// RequestPasswordReset mails a reset link. Unknown addresses are ignored without an error.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	}

	token, tokenHash, err := crypto.NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.repo.SetResetPasswordToken(ctx, u.ID, tokenHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	s.log.WithField("user_id", u.ID).Info("password reset requested")
	s.notify(ctx, mailer.ResetPassword(u.Email, s.link("/users/password/edit", token)))
	return nil
}

// ResetPassword sets a new password for the holder of a reset token issued
// within ResetPasswordWithin.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	u, err := s.repo.ResetPassword(ctx, crypto.HashToken(token), hash, s.now().Add(-ResetPasswordWithin))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	s.log.WithField("user_id", u.ID).Info("password reset")
	return nil
}

func (s *Service) notify(ctx context.Context, msg mailer.Message) {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("subject", msg.Subject).Warn("mail delivery failed")
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}
