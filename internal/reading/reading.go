package reading

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tsundoku/internal/book"
)

var (
	// ErrNotFound is returned when a reading does not exist or belongs to another user.
	ErrNotFound = errors.New("reading not found")
	// ErrBookNotFound is returned when the referenced book does not exist.
	ErrBookNotFound = errors.New("book not found")
	// ErrMediumNotFound is returned when the referenced purchase medium does not exist.
	ErrMediumNotFound = errors.New("purchase medium not found")
	// ErrInvalidStatus is returned by ParseStatus for unknown names.
	ErrInvalidStatus = errors.New("invalid status")
)

// Status is where a book sits in the reading lifecycle.
type Status int16

const (
	StatusWish Status = iota
	StatusTsundoku
	StatusCompleted
)

var statusNames = [...]string{"wish", "tsundoku", "completed"}

func (s Status) Valid() bool {
	return s >= StatusWish && s <= StatusCompleted
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int16(s))
	}
	return statusNames[s]
}

// Label is the Japanese name shown on share cards.
func (s Status) Label() string {
	switch s {
	case StatusWish:
		return "気になる"
	case StatusTsundoku:
		return "積読"
	case StatusCompleted:
		return "読了"
	default:
		return "不明"
	}
}

func ParseStatus(v string) (Status, error) {
	for i, name := range statusNames {
		if v == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, v)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidStatus
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Tier is the maturity rank of an unread book.
type Tier string

const (
	TierFresh     Tier = "fresh"
	TierMaturing  Tier = "maturing"
	TierAged      Tier = "aged"
	TierVintage   Tier = "vintage"
	TierPremium   Tier = "premium"
	TierLegendary Tier = "legendary"
)

// Tiers lists every tier from youngest to oldest.
var Tiers = []Tier{TierFresh, TierMaturing, TierAged, TierVintage, TierPremium, TierLegendary}

// TierForDays maps elapsed days to a tier. Each tier starts at its lower bound:
// 0, 7, 90, 365, 1095 and 1825 days.
func TierForDays(days int) Tier {
	switch {
	case days < 7:
		return TierFresh
	case days < 90:
		return TierMaturing
	case days < 365:
		return TierAged
	case days < 1095:
		return TierVintage
	case days < 1825:
		return TierPremium
	default:
		return TierLegendary
	}
}

var badges = map[Tier]struct{ icon, label string }{
	TierFresh:     {"📚", "新鮮"},
	TierMaturing:  {"🍷", "熟成中"},
	TierAged:      {"🏺", "熟成済み"},
	TierVintage:   {"💎", "ヴィンテージ"},
	TierPremium:   {"👑", "プレミアム"},
	TierLegendary: {"⭐", "伝説級"},
}

// Reading is one user's relationship with one book. Dates are calendar days
// stored at midnight UTC.
type Reading struct {
	ID               string
	UserID           string
	BookID           string
	PurchaseMediumID *int64
	Reason           string
	Status           Status
	WishDate         *time.Time
	TsundokuDate     *time.Time
	CompletedDate    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Book is filled by repository reads.
	Book *book.Book
}

// MaturityDays returns the whole days the book has been sitting unread. It is
// only defined for tsundoku readings with a tsundoku date.
func MaturityDays(r Reading, today time.Time) (int, bool) {
	if r.Status != StatusTsundoku || r.TsundokuDate == nil {
		return 0, false
	}
	days := DaysBetween(*r.TsundokuDate, today)
	if days < 0 {
		days = 0
	}
	return days, true
}

// Classify returns the maturity tier of a tsundoku reading.
func Classify(r Reading, today time.Time) (Tier, bool) {
	days, ok := MaturityDays(r, today)
	if !ok {
		return "", false
	}
	return TierForDays(days), true
}

// Badge renders the tier as "<icon> <label>".
func Badge(r Reading, today time.Time) (string, bool) {
	tier, ok := Classify(r, today)
	if !ok {
		return "", false
	}
	b := badges[tier]
	return b.icon + " " + b.label, true
}

// FieldError is a single invalid attribute.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects the invalid attributes of a reading.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid reading: " + strings.Join(parts, ", ")
}

const futureDateMessage = "cannot be in the future"

// Validate checks the reading against today's date. It returns nil when valid.
func Validate(r Reading, today time.Time) *ValidationError {
	var fields []FieldError
	if !r.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Message: "is not a valid status"})
	}
	if strings.TrimSpace(r.BookID) == "" {
		fields = append(fields, FieldError{Field: "book_id", Message: "is required"})
	}
	for _, d := range []struct {
		field string
		date  *time.Time
	}{
		{"wish_date", r.WishDate},
		{"tsundoku_date", r.TsundokuDate},
		{"completed_date", r.CompletedDate},
	} {
		if d.date != nil && DaysBetween(*d.date, today) < 0 {
			fields = append(fields, FieldError{Field: d.field, Message: futureDateMessage})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Today returns the current calendar day in loc as midnight UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	return DateOf(now.In(loc))
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b; negative when b is earlier.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(v string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, v, time.UTC)
}

// FormatDate renders a calendar day as YYYY-MM-DD, or nil when unset.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
