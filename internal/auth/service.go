package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/platform/crypto"
	"tsundoku/internal/session"
	"tsundoku/internal/user"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnconfirmed  = errors.New("email address not confirmed")
)

const (
	accessTokenTTL     = 15 * time.Minute
	refreshTokenTTL    = 30 * 24 * time.Hour
	rememberRefreshTTL = 90 * 24 * time.Hour
)

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *session.Session) error
	Rotate(ctx context.Context, oldHash string, next session.Rotation) (session.Session, error)
	End(ctx context.Context, jti, userID string, expiresAt time.Time) error
}

// Tokens is what a successful login or refresh hands back to the client.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type Client struct {
	UserAgent string
	IPAddress string
}

type Service struct {
	secret   string
	users    UserFinder
	sessions SessionStore
	log      logrus.FieldLogger
}

func NewService(secret string, users UserFinder, sessions SessionStore, log logrus.FieldLogger) *Service {
	return &Service{
		secret:   secret,
		users:    users,
		sessions: sessions,
		log:      log.WithField("component", "auth"),
	}
}

func refreshTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return rememberRefreshTTL
	}
	return refreshTokenTTL
}

func (s *Service) Login(ctx context.Context, email, password string, rememberMe bool, client Client) (Tokens, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return Tokens{}, err
		}
		return Tokens{}, ErrUnauthorized
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Tokens{}, ErrUnauthorized
	}
	if !u.Confirmed() {
		return Tokens{}, ErrUnconfirmed
	}

	accessToken, jti, err := crypto.GenerateToken(s.secret, u.ID, u.Role, accessTokenTTL)
	if err != nil {
		return Tokens{}, err
	}
	refreshToken, refreshHash, err := crypto.NewOpaqueToken()
	if err != nil {
		return Tokens{}, err
	}

	sess := &session.Session{
		UserID:           u.ID,
		RefreshTokenHash: refreshHash,
		AccessTokenID:    jti,
		UserAgent:        client.UserAgent,
		IPAddress:        client.IPAddress,
		RememberMe:       rememberMe,
		ExpiresAt:        time.Now().Add(refreshTTL(rememberMe)),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return Tokens{}, err
	}

	s.log.WithFields(logrus.Fields{"user_id": u.ID, "session_id": sess.ID}).Info("login")
	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

// Refresh redeems a refresh token once and issues a new token pair for the same session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	newRefresh, newHash, err := crypto.NewOpaqueToken()
	if err != nil {
		return Tokens{}, err
	}

	// The user is only known after rotation, so the jti is chosen up front and
	// the access token is signed afterwards.
	jti, err := crypto.NewTokenID()
	if err != nil {
		return Tokens{}, err
	}

	now := time.Now()
	sess, err := s.sessions.Rotate(ctx, crypto.HashToken(refreshToken), session.Rotation{
		RefreshTokenHash:  newHash,
		AccessTokenID:     jti,
		ExpiresAt:         now.Add(refreshTokenTTL),
		RememberExpiresAt: now.Add(rememberRefreshTTL),
	})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Tokens{}, ErrUnauthorized
		}
		return Tokens{}, err
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return Tokens{}, ErrUnauthorized
	}

	accessToken, err := crypto.SignToken(s.secret, jti, u.ID, u.Role, accessTokenTTL)
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

// Logout ends the session of the presented access token and blacklists it until it expires.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := crypto.ParseToken(s.secret, token)
	if err != nil {
		return ErrUnauthorized
	}

	expiresAt := time.Now().Add(accessTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.sessions.End(ctx, claims.ID, claims.Sub, expiresAt)
}
