package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	d := today.AddDate(0, 0, -n)
	return &d
}

func TestTierForDays_Boundaries(t *testing.T) {
	tests := []struct {
		days int
		want Tier
	}{
		{0, TierFresh},
		{6, TierFresh},
		{7, TierMaturing},
		{89, TierMaturing},
		{90, TierAged},
		{364, TierAged},
		{365, TierVintage},
		{1094, TierVintage},
		{1095, TierPremium},
		{1824, TierPremium},
		{1825, TierLegendary},
		{3000, TierLegendary},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForDays(tt.days), "days=%d", tt.days)
	}
}

func TestClassify(t *testing.T) {
	t.Run("tsundoku with date", func(t *testing.T) {
		r := Reading{Status: StatusTsundoku, TsundokuDate: daysAgo(100)}
		tier, ok := Classify(r, today)
		require.True(t, ok)
		assert.Equal(t, TierAged, tier)

		days, ok := MaturityDays(r, today)
		require.True(t, ok)
		assert.Equal(t, 100, days)
	})

	t.Run("no classification", func(t *testing.T) {
		for name, r := range map[string]Reading{
			"tsundoku without date": {Status: StatusTsundoku},
			"wish with date":        {Status: StatusWish, TsundokuDate: daysAgo(10)},
			"completed with date":   {Status: StatusCompleted, TsundokuDate: daysAgo(10)},
		} {
			_, ok := Classify(r, today)
			assert.False(t, ok, name)
			_, ok = MaturityDays(r, today)
			assert.False(t, ok, name)
			_, ok = Badge(r, today)
			assert.False(t, ok, name)
		}
	})

	t.Run("counts calendar days across a clock time", func(t *testing.T) {
		late := time.Date(2025, 10, 19, 23, 59, 0, 0, time.UTC)
		r := Reading{Status: StatusTsundoku, TsundokuDate: &late}
		days, ok := MaturityDays(r, today)
		require.True(t, ok)
		assert.Equal(t, 1, days)
	})
}

func TestBadge(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "📚 新鮮"},
		{30, "🍷 熟成中"},
		{200, "🏺 熟成済み"},
		{400, "💎 ヴィンテージ"},
		{1500, "👑 プレミアム"},
		{2000, "⭐ 伝説級"},
	}
	for _, tt := range tests {
		got, ok := Badge(Reading{Status: StatusTsundoku, TsundokuDate: daysAgo(tt.days)}, today)
		require.True(t, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidate(t *testing.T) {
	tomorrow := today.AddDate(0, 0, 1)

	t.Run("valid", func(t *testing.T) {
		r := Reading{BookID: "b", Status: StatusTsundoku, TsundokuDate: &today, WishDate: daysAgo(3)}
		assert.Nil(t, Validate(r, today))
	})

	t.Run("future dates", func(t *testing.T) {
		r := Reading{BookID: "b", Status: StatusCompleted, WishDate: &tomorrow, TsundokuDate: &tomorrow, CompletedDate: &tomorrow}
		verr := Validate(r, today)
		require.NotNil(t, verr)
		require.Len(t, verr.Fields, 3)
		assert.Equal(t, FieldError{Field: "wish_date", Message: "cannot be in the future"}, verr.Fields[0])
		assert.Equal(t, "tsundoku_date", verr.Fields[1].Field)
		assert.Equal(t, "completed_date", verr.Fields[2].Field)
	})

	t.Run("missing book and bad status", func(t *testing.T) {
		verr := Validate(Reading{Status: Status(9)}, today)
		require.NotNil(t, verr)
		assert.Equal(t, "status", verr.Fields[0].Field)
		assert.Equal(t, "book_id", verr.Fields[1].Field)
		assert.Contains(t, verr.Error(), "book_id is required")
	})
}

func TestParseStatus(t *testing.T) {
	for _, name := range []string{"wish", "tsundoku", "completed"} {
		s, err := ParseStatus(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.String())
	}

	_, err := ParseStatus("reading")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseStatus("Wish")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("1")))
	_, err = Status(5).MarshalText()
	assert.Error(t, err)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "気になる", StatusWish.Label())
	assert.Equal(t, "積読", StatusTsundoku.Label())
	assert.Equal(t, "読了", StatusCompleted.Label())
}

func TestToday_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2025, 10, 19, 16, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), Today(now, tokyo))
	assert.Equal(t, time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC), Today(now, time.UTC))
}
