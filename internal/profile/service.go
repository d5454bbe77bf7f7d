package profile

import (
	"context"

	"tsundoku/internal/reading"
	"tsundoku/internal/user"
)

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type StatsProvider interface {
	Stats(ctx context.Context, userID string) (reading.Stats, error)
}

type Service struct {
	users UserGetter
	stats StatsProvider
}

func NewService(users UserGetter, stats StatsProvider) *Service {
	return &Service{users: users, stats: stats}
}

func (s *Service) GetOwnProfile(ctx context.Context, userID string) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	st, err := s.stats.Stats(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: u, Stats: st}, nil
}
