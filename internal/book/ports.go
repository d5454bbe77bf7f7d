package book

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=book

import (
	"context"

	"tsundoku/internal/platform/googlebooks"
)

// Repository defines the contract for book data storage.
type Repository interface {
	FindByISBN(ctx context.Context, isbn string) (Book, error)
	FindByTitleAuthor(ctx context.Context, title, author string) (Book, error)
	GetByID(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, q Query) ([]Book, int, error)
	// Create inserts the book and fills ID and timestamps. A concurrent insert of
	// the same ISBN yields ErrDuplicateISBN.
	Create(ctx context.Context, b *Book) error
}

// Catalog is the external volume search.
type Catalog interface {
	Search(ctx context.Context, query string, page, perPage int) googlebooks.SearchResult
	FindByID(ctx context.Context, volumeID string) (*googlebooks.Volume, bool)
}
