package book

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned by Create when another row already holds the ISBN.
	ErrDuplicateISBN = errors.New("book with this isbn already exists")
)

// Book is a catalogued title. ISBN and ImageURL are nil when unknown.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Publisher     string    `json:"publisher"`
	PublishedDate string    `json:"published_date"`
	Description   string    `json:"description"`
	ISBN          *string   `json:"isbn"`
	ImageURL      *string   `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Persisted reports whether the book has been stored.
func (b Book) Persisted() bool {
	return b.ID != ""
}

// Source tells where a candidate came from. It is never stored.
type Source string

const (
	SourceManual      Source = "manual"
	SourceGoogleBooks Source = "google_books"
)

// Candidate is user or API supplied book data awaiting resolution.
type Candidate struct {
	Title         string
	Author        string
	Publisher     string
	PublishedDate string
	Description   string
	ISBN          string
	ImageURL      string
	Source        Source
}

// NormalizeISBN trims surrounding whitespace; blank input means no ISBN.
func NormalizeISBN(raw string) *string {
	isbn := strings.TrimSpace(raw)
	if isbn == "" {
		return nil
	}
	return &isbn
}

// SecureImageURL rewrites a leading "http:" to "https:".
func SecureImageURL(u *string) *string {
	if u == nil {
		return nil
	}
	if rest, ok := strings.CutPrefix(*u, "http:"); ok {
		s := "https:" + rest
		return &s
	}
	return u
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Query defines filters and pagination for listing books.
type Query struct {
	Q      string
	Limit  int
	Offset int
}

// Suggestion is the compact shape used for search-as-you-type.
type Suggestion struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ImageURL string `json:"image_url"`
}
