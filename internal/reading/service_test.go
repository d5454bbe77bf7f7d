package reading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsundoku/internal/logger"
)

const (
	userID    = "0b8f2a3e-9c41-4d7a-a3c5-6e2f1d9b8a70"
	readingID = "7c3d9e1f-2a4b-4c6d-8e0f-1a2b3c4d5e6f"
	bookID    = "5f1e8a52-3c7b-4a5e-9d3f-2b6c1a0e9f11"
)

func newTestService(repo Repository) *Service {
	s := NewService(repo, time.UTC, logger.Discard())
	s.now = func() time.Time { return today.Add(15 * time.Hour) }
	return s
}

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	s := newTestService(repo)

	t.Run("stores and reloads", func(t *testing.T) {
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *Reading) error {
			assert.Equal(t, userID, r.UserID)
			assert.Equal(t, StatusTsundoku, r.Status)
			assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), *r.TsundokuDate)
			r.ID = readingID
			return nil
		})
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(Reading{ID: readingID, UserID: userID}, nil)

		date := time.Date(2025, 10, 1, 18, 0, 0, 0, time.UTC)
		got, err := s.Create(context.Background(), userID, Input{BookID: bookID, Status: StatusTsundoku, TsundokuDate: &date})
		require.NoError(t, err)
		assert.Equal(t, readingID, got.ID)
	})

	t.Run("rejects future dates without writing", func(t *testing.T) {
		future := today.AddDate(0, 0, 1)
		_, err := s.Create(context.Background(), userID, Input{BookID: bookID, Status: StatusWish, WishDate: &future})

		verr, ok := IsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "wish_date", verr.Fields[0].Field)
	})

	t.Run("missing book", func(t *testing.T) {
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrBookNotFound)

		_, err := s.Create(context.Background(), userID, Input{BookID: bookID, Status: StatusWish})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}

func TestService_ChangeStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	s := newTestService(repo)

	existing := func() Reading {
		return Reading{ID: readingID, UserID: userID, BookID: bookID, Status: StatusWish, WishDate: daysAgo(30)}
	}

	t.Run("sets missing date to today", func(t *testing.T) {
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(existing(), nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *Reading) error {
			assert.Equal(t, StatusTsundoku, r.Status)
			require.NotNil(t, r.TsundokuDate)
			assert.Equal(t, today, *r.TsundokuDate)
			assert.Equal(t, *daysAgo(30), *r.WishDate)
			return nil
		})
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(existing(), nil)

		_, err := s.ChangeStatus(context.Background(), userID, readingID, StatusTsundoku, nil)
		require.NoError(t, err)
	})

	t.Run("keeps an existing date", func(t *testing.T) {
		r := existing()
		r.CompletedDate = daysAgo(2)
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(r, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *Reading) error {
			assert.Equal(t, *daysAgo(2), *r.CompletedDate)
			return nil
		})
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(r, nil)

		_, err := s.ChangeStatus(context.Background(), userID, readingID, StatusCompleted, nil)
		require.NoError(t, err)
	})

	t.Run("explicit date wins", func(t *testing.T) {
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(existing(), nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *Reading) error {
			assert.Equal(t, *daysAgo(5), *r.CompletedDate)
			return nil
		})
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(existing(), nil)

		_, err := s.ChangeStatus(context.Background(), userID, readingID, StatusCompleted, daysAgo(5))
		require.NoError(t, err)
	})

	t.Run("future date rejected", func(t *testing.T) {
		repo.EXPECT().Get(gomock.Any(), userID, readingID).Return(existing(), nil)

		future := today.AddDate(0, 1, 0)
		_, err := s.ChangeStatus(context.Background(), userID, readingID, StatusCompleted, &future)
		_, ok := IsValidation(err)
		assert.True(t, ok)
	})

	t.Run("other user's reading", func(t *testing.T) {
		repo.EXPECT().Get(gomock.Any(), "someone-else", readingID).Return(Reading{}, ErrNotFound)

		_, err := s.ChangeStatus(context.Background(), "someone-else", readingID, StatusCompleted, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	s := newTestService(repo)

	created := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	rows := []Reading{
		{ID: "r1", CreatedAt: created.Add(2 * time.Hour)},
		{ID: "r2", CreatedAt: created.Add(time.Hour)},
		{ID: "r3", CreatedAt: created},
	}

	t.Run("more pages", func(t *testing.T) {
		repo.EXPECT().List(gomock.Any(), userID, ListQuery{Limit: 3}).Return(rows, nil)

		page, err := s.List(context.Background(), userID, nil, "", 2)
		require.NoError(t, err)
		assert.Len(t, page.Readings, 2)
		require.NotEmpty(t, page.NextCursor)

		next, err := DecodeCursor(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, "r2", next.AfterID)
	})

	t.Run("last page", func(t *testing.T) {
		status := StatusTsundoku
		repo.EXPECT().List(gomock.Any(), userID, ListQuery{Status: &status, Limit: defaultPageSize + 1}).Return(nil, nil)

		page, err := s.List(context.Background(), userID, &status, "", 0)
		require.NoError(t, err)
		assert.Empty(t, page.NextCursor)
		assert.NotNil(t, page.Readings)
	})

	t.Run("bad cursor", func(t *testing.T) {
		_, err := s.List(context.Background(), userID, nil, "!!", 10)
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})
}

func TestService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	s := newTestService(repo)

	repo.EXPECT().ListAll(gomock.Any(), userID).Return([]Reading{
		{Status: StatusWish},
		{Status: StatusTsundoku, TsundokuDate: daysAgo(3)},
		{Status: StatusTsundoku, TsundokuDate: daysAgo(400)},
		{Status: StatusTsundoku},
		{Status: StatusCompleted, TsundokuDate: daysAgo(1000)},
	}, nil)

	st, err := s.Stats(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 1, st.Wish)
	assert.Equal(t, 3, st.Tsundoku)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 1, st.Tiers[TierFresh])
	assert.Equal(t, 1, st.Tiers[TierVintage])
	assert.Equal(t, 0, st.Tiers[TierLegendary])
	assert.Equal(t, 400, st.MaxMaturity)
	assert.InDelta(t, 201.5, st.AverageMaturity, 0.001)
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	s := newTestService(repo)

	repo.EXPECT().Delete(gomock.Any(), userID, readingID).Return(nil)
	assert.NoError(t, s.Delete(context.Background(), userID, readingID))

	repo.EXPECT().Delete(gomock.Any(), userID, readingID).Return(ErrNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), userID, readingID), ErrNotFound)
}

func TestService_Recommend(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	s := newTestService(repo)

	repo.EXPECT().Random(gomock.Any(), userID).Return(Reading{}, errors.New("boom"))
	_, err := s.Recommend(context.Background(), userID)
	assert.Error(t, err)
}
