package book

import (
	"context"
	"errors"
	"strings"
)

// Outcome says whether resolution found a stored book or built a new one.
type Outcome int

const (
	OutcomeReused Outcome = iota + 1
	OutcomeConstructed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReused:
		return "reused"
	case OutcomeConstructed:
		return "constructed"
	}
	return "unknown"
}

type Resolution struct {
	Book    Book
	Outcome Outcome
}

// Finder is the read side the resolver needs.
type Finder interface {
	FindByISBN(ctx context.Context, isbn string) (Book, error)
	FindByTitleAuthor(ctx context.Context, title, author string) (Book, error)
}

// Resolver maps a candidate to an existing book or an unsaved new one. It never writes.
type Resolver struct {
	finder Finder
}

func NewResolver(finder Finder) *Resolver {
	return &Resolver{finder: finder}
}

// Resolve looks up by ISBN when the candidate has one, then by exact
// (case-sensitive) title and author. A book stored without an ISBN is reused
// by a later candidate that carries one.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) (Resolution, error) {
	isbn := NormalizeISBN(c.ISBN)

	if isbn != nil {
		found, err := r.finder.FindByISBN(ctx, *isbn)
		if err == nil {
			return Resolution{Book: found, Outcome: OutcomeReused}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Resolution{}, err
		}
	}

	found, err := r.finder.FindByTitleAuthor(ctx, strings.TrimSpace(c.Title), strings.TrimSpace(c.Author))
	switch {
	case err == nil:
		return Resolution{Book: found, Outcome: OutcomeReused}, nil
	case errors.Is(err, ErrNotFound):
		return Resolution{Book: construct(c, isbn), Outcome: OutcomeConstructed}, nil
	default:
		return Resolution{}, err
	}
}

func construct(c Candidate, isbn *string) Book {
	return Book{
		Title:         strings.TrimSpace(c.Title),
		Author:        strings.TrimSpace(c.Author),
		Publisher:     strings.TrimSpace(c.Publisher),
		PublishedDate: strings.TrimSpace(c.PublishedDate),
		Description:   strings.TrimSpace(c.Description),
		ISBN:          isbn,
		ImageURL:      optional(c.ImageURL),
	}
}
