package book

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/metrics"
	"tsundoku/internal/platform/googlebooks"
)

var (
	ErrTitleRequired  = errors.New("title is required")
	ErrVolumeNotFound = errors.New("volume not found")
)

const (
	searchPageSize     = 20
	suggestionPageSize = 3
)

// Service provides book-related business logic.
type Service struct {
	repo     Repository
	resolver *Resolver
	catalog  Catalog
	log      logrus.FieldLogger
}

// NewService creates a new book service.
func NewService(repo Repository, catalog Catalog, log logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		resolver: NewResolver(repo),
		catalog:  catalog,
		log:      log.WithField("component", "book"),
	}
}

// Register resolves the candidate and stores it when no existing book matches.
// Registering the same book twice returns the first row both times.
func (s *Service) Register(ctx context.Context, c Candidate) (Resolution, error) {
	res, err := s.resolver.Resolve(ctx, c)
	if err != nil {
		return Resolution{}, err
	}
	if res.Outcome == OutcomeReused {
		s.record(res, c.Source)
		return res, nil
	}

	if strings.TrimSpace(res.Book.Title) == "" {
		return Resolution{}, ErrTitleRequired
	}

	if err := s.repo.Create(ctx, &res.Book); err != nil {
		if !errors.Is(err, ErrDuplicateISBN) {
			return Resolution{}, err
		}
		// Lost an insert race on the ISBN; the winner is now visible.
		res, err = s.resolver.Resolve(ctx, c)
		if err != nil {
			return Resolution{}, err
		}
		if res.Outcome != OutcomeReused {
			return Resolution{}, ErrDuplicateISBN
		}
	}

	s.record(res, c.Source)
	return res, nil
}

func (s *Service) record(res Resolution, src Source) {
	metrics.RecordBookResolution(res.Outcome.String(), string(src))
	s.log.WithFields(logrus.Fields{
		"book_id": res.Book.ID,
		"outcome": res.Outcome.String(),
		"source":  src,
	}).Debug("book resolved")
}

// Import registers a Google Books volume by its id.
func (s *Service) Import(ctx context.Context, volumeID string) (Resolution, error) {
	v, ok := s.catalog.FindByID(ctx, volumeID)
	if !ok {
		return Resolution{}, ErrVolumeNotFound
	}
	return s.Register(ctx, CandidateFromVolume(*v))
}

func CandidateFromVolume(v googlebooks.Volume) Candidate {
	return Candidate{
		Title:         v.Title,
		Author:        v.Author,
		Publisher:     v.Publisher,
		PublishedDate: v.PublishedDate,
		Description:   v.Description,
		ISBN:          v.ISBN,
		ImageURL:      v.ImageURL,
		Source:        SourceGoogleBooks,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a list of books matching the query.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.List(ctx, q)
}

// Search proxies the external catalog with the fixed page size of the search screen.
func (s *Service) Search(ctx context.Context, query string, page int) googlebooks.SearchResult {
	return s.catalog.Search(ctx, query, page, searchPageSize)
}

func (s *Service) Suggestions(ctx context.Context, query string) []Suggestion {
	if strings.TrimSpace(query) == "" {
		return []Suggestion{}
	}
	res := s.catalog.Search(ctx, query, 1, suggestionPageSize)
	out := make([]Suggestion, 0, len(res.Results))
	for _, v := range res.Results {
		out = append(out, Suggestion{Title: v.Title, Author: v.Author, ImageURL: v.ImageURL})
	}
	return out
}
