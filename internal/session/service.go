package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Service struct {
	repo          Repository
	blacklistRepo BlacklistRepository
	log           logrus.FieldLogger
}

func NewService(repo Repository, blacklistRepo BlacklistRepository, log logrus.FieldLogger) *Service {
	return &Service{
		repo:          repo,
		blacklistRepo: blacklistRepo,
		log:           log.WithField("component", "session"),
	}
}

func (s *Service) ListByUserID(ctx context.Context, userID string) ([]Session, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Revoke deletes one of the user's sessions. Sessions of other users are reported as not found.
func (s *Service) Revoke(ctx context.Context, userID, sessionID string) error {
	return s.repo.DeleteForUser(ctx, userID, sessionID)
}

func (s *Service) Create(ctx context.Context, sess *Session) error {
	return s.repo.Create(ctx, sess)
}

func (s *Service) GetByTokenHash(ctx context.Context, hash string) (Session, error) {
	return s.repo.GetByTokenHash(ctx, hash)
}

func (s *Service) Rotate(ctx context.Context, oldHash string, next Rotation) (Session, error) {
	return s.repo.Rotate(ctx, oldHash, next)
}

// End closes the session bound to an access token and revokes that token.
func (s *Service) End(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	if err := s.repo.DeleteByAccessTokenID(ctx, jti); err != nil {
		return err
	}
	return s.blacklistRepo.AddToken(ctx, jti, userID, expiresAt)
}

func (s *Service) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.blacklistRepo.IsBlacklisted(ctx, jti)
}

// RunCleanup purges expired sessions and blacklist entries every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *Service) cleanup(ctx context.Context) {
	sessions, err := s.repo.CleanupExpired(ctx)
	if err != nil {
		s.log.WithError(err).Warn("expired session cleanup failed")
	}
	tokens, err := s.blacklistRepo.CleanupExpired(ctx)
	if err != nil {
		s.log.WithError(err).Warn("blacklist cleanup failed")
	}
	if sessions > 0 || tokens > 0 {
		s.log.WithFields(logrus.Fields{"sessions": sessions, "tokens": tokens}).Info("expired auth state removed")
	}
}
