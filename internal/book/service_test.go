package book

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsundoku/internal/logger"
	"tsundoku/internal/platform/googlebooks"
)

// memRepo enforces the same uniqueness rule as the books table: ISBN unique when set.
type memRepo struct {
	mu    sync.Mutex
	books []Book
}

func (m *memRepo) FindByISBN(_ context.Context, isbn string) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ISBN != nil && *b.ISBN == isbn {
			return b, nil
		}
	}
	return Book{}, ErrNotFound
}

func (m *memRepo) FindByTitleAuthor(_ context.Context, title, author string) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.Title == title && b.Author == author {
			return b, nil
		}
	}
	return Book{}, ErrNotFound
}

func (m *memRepo) GetByID(_ context.Context, id string) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ID == id {
			return b, nil
		}
	}
	return Book{}, ErrNotFound
}

func (m *memRepo) List(context.Context, Query) ([]Book, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Book(nil), m.books...), len(m.books), nil
}

func (m *memRepo) Create(_ context.Context, b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ISBN != nil {
		for _, existing := range m.books {
			if existing.ISBN != nil && *existing.ISBN == *b.ISBN {
				return ErrDuplicateISBN
			}
		}
	}
	b.ID = "book-" + strconv.Itoa(len(m.books)+1)
	m.books = append(m.books, *b)
	return nil
}

func newMemService(repo Repository) *Service {
	return NewService(repo, nil, logger.Discard())
}

func TestService_Register_SameISBNTwice(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)
	ctx := context.Background()

	first, err := svc.Register(ctx, Candidate{Title: "こころ", ISBN: "9784101010137"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConstructed, first.Outcome)

	second, err := svc.Register(ctx, Candidate{Title: "Kokoro", ISBN: "9784101010137"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, second.Outcome)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.Len(t, repo.books, 1)
}

func TestService_Register_TitleAuthorFallback(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)
	ctx := context.Background()

	first, err := svc.Register(ctx, Candidate{Title: "こころ", Author: "夏目漱石"})
	require.NoError(t, err)

	again, err := svc.Register(ctx, Candidate{Title: "こころ", Author: "夏目漱石"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, again.Outcome)
	assert.Equal(t, first.Book.ID, again.Book.ID)

	other, err := svc.Register(ctx, Candidate{Title: "こころ", Author: "別の著者"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConstructed, other.Outcome)
	assert.Len(t, repo.books, 2)
}

func TestService_Register_ImportReusesHandEnteredBook(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)
	ctx := context.Background()

	manual, err := svc.Register(ctx, Candidate{Title: "こころ", Author: "夏目漱石", Source: SourceManual})
	require.NoError(t, err)
	require.Nil(t, manual.Book.ISBN)

	imported, err := svc.Register(ctx, Candidate{Title: "こころ", Author: "夏目漱石", ISBN: "9784101010137", Source: SourceGoogleBooks})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, imported.Outcome)
	assert.Equal(t, manual.Book.ID, imported.Book.ID)
	assert.Len(t, repo.books, 1)
}

func TestService_Register_CaseSensitive(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, Candidate{Title: "The Go Programming Language", Author: "Donovan"})
	require.NoError(t, err)
	res, err := svc.Register(ctx, Candidate{Title: "The Go programming language", Author: "Donovan"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeConstructed, res.Outcome)
	assert.Len(t, repo.books, 2)
}

func TestService_Register_EmptyISBNsDoNotCollide(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)
	ctx := context.Background()

	a, err := svc.Register(ctx, Candidate{Title: "A", ISBN: ""})
	require.NoError(t, err)
	b, err := svc.Register(ctx, Candidate{Title: "B", ISBN: "  "})
	require.NoError(t, err)

	assert.Nil(t, a.Book.ISBN)
	assert.Nil(t, b.Book.ISBN)
	assert.NotEqual(t, a.Book.ID, b.Book.ID)
}

func TestService_Register_TitleRequired(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)

	_, err := svc.Register(context.Background(), Candidate{Title: "  ", Author: "someone"})
	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.Empty(t, repo.books)
}

func TestService_Register_ISBNReuseSkipsTitleCheck(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, Candidate{Title: "こころ", ISBN: "9784101010137"})
	require.NoError(t, err)

	res, err := svc.Register(ctx, Candidate{ISBN: "9784101010137"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, res.Outcome)
}

func TestService_Register_LostRaceReusesWinner(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	svc := NewService(repo, nil, logger.Discard())
	winner := Book{ID: "winner", Title: "こころ", ISBN: strPtr("9784101010137")}

	gomock.InOrder(
		repo.EXPECT().FindByISBN(gomock.Any(), "9784101010137").Return(Book{}, ErrNotFound),
		repo.EXPECT().FindByTitleAuthor(gomock.Any(), "こころ", "").Return(Book{}, ErrNotFound),
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrDuplicateISBN),
		repo.EXPECT().FindByISBN(gomock.Any(), "9784101010137").Return(winner, nil),
	)

	res, err := svc.Register(context.Background(), Candidate{Title: "こころ", ISBN: "9784101010137"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, res.Outcome)
	assert.Equal(t, "winner", res.Book.ID)
}

func TestService_Register_Concurrent(t *testing.T) {
	repo := &memRepo{}
	svc := newMemService(repo)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Register(context.Background(), Candidate{Title: "こころ", ISBN: "9784101010137"})
			if assert.NoError(t, err) {
				ids[i] = res.Book.ID
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, repo.books, 1)
	for _, id := range ids {
		assert.Equal(t, repo.books[0].ID, id)
	}
}

func TestService_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	catalog := NewMockCatalog(ctrl)
	repo := &memRepo{}
	svc := NewService(repo, catalog, logger.Discard())

	catalog.EXPECT().FindByID(gomock.Any(), "vol-1").Return(&googlebooks.Volume{
		GoogleBooksID: "vol-1",
		Title:         "こころ",
		Author:        "夏目漱石",
		ISBN:          "9784101010137",
		ImageURL:      "https://books.google.com/c.jpg",
	}, true)
	catalog.EXPECT().FindByID(gomock.Any(), "missing").Return(nil, false)

	res, err := svc.Import(context.Background(), "vol-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConstructed, res.Outcome)
	assert.Equal(t, "https://books.google.com/c.jpg", *res.Book.ImageURL)

	_, err = svc.Import(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVolumeNotFound)
}

func TestService_Suggestions(t *testing.T) {
	ctrl := gomock.NewController(t)
	catalog := NewMockCatalog(ctrl)
	svc := NewService(&memRepo{}, catalog, logger.Discard())

	catalog.EXPECT().Search(gomock.Any(), "こころ", 1, 3).Return(googlebooks.SearchResult{
		Results: []googlebooks.Volume{{Title: "こころ", Author: "夏目漱石", ImageURL: "https://i"}},
	})

	assert.Equal(t, []Suggestion{{Title: "こころ", Author: "夏目漱石", ImageURL: "https://i"}},
		svc.Suggestions(context.Background(), "こころ"))
	assert.Empty(t, svc.Suggestions(context.Background(), " "))
}
