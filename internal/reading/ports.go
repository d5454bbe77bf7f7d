package reading

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=reading

import (
	"context"
)

// ListQuery selects one page of a user's readings.
type ListQuery struct {
	Status *Status
	After  CursorData
	Limit  int
}

// Repository defines the contract for reading storage. Every user-facing
// method is scoped to the owner; rows of other users are reported as ErrNotFound.
type Repository interface {
	Create(ctx context.Context, r *Reading) error
	Get(ctx context.Context, userID, id string) (Reading, error)
	// FindByID ignores ownership and is meant for public share cards.
	FindByID(ctx context.Context, id string) (Reading, error)
	List(ctx context.Context, userID string, q ListQuery) ([]Reading, error)
	// ListAll returns every reading of the user without book data.
	ListAll(ctx context.Context, userID string) ([]Reading, error)
	Update(ctx context.Context, r *Reading) error
	Delete(ctx context.Context, userID, id string) error
	Random(ctx context.Context, userID string) (Reading, error)
	RecentReasons(ctx context.Context, userID string, limit int) ([]string, error)
}
