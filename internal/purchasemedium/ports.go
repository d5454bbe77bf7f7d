package purchasemedium

import "context"

// Repository defines the contract for purchase medium storage.
type Repository interface {
	List(ctx context.Context) ([]Medium, error)
	// EnsureExists inserts m unless a medium with the same name exists and
	// reports whether a row was added.
	EnsureExists(ctx context.Context, m Medium) (bool, error)
	Delete(ctx context.Context, id int64) error
}
