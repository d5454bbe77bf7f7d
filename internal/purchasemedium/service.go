package purchasemedium

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type Service struct {
	repo Repository
	log  logrus.FieldLogger
}

func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log.WithField("component", "purchasemedium")}
}

// List returns every medium ordered by id.
func (s *Service) List(ctx context.Context) ([]Medium, error) {
	return s.repo.List(ctx)
}

// Seed inserts the default media that are missing. Running it twice is a no-op.
func (s *Service) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, m := range Defaults() {
		ok, err := s.repo.EnsureExists(ctx, m)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", m.Name, err)
		}
		if ok {
			created++
		}
	}
	s.log.WithField("created", created).Info("purchase media seeded")
	return created, nil
}

// Delete removes a medium. It fails with ErrInUse while readings reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
