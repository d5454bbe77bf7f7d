package reading

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Input is the editable part of a reading.
type Input struct {
	BookID           string
	PurchaseMediumID *int64
	Reason           string
	Status           Status
	WishDate         *time.Time
	TsundokuDate     *time.Time
	CompletedDate    *time.Time
}

// Page is one page of readings, newest first.
type Page struct {
	Readings   []Reading
	NextCursor string
}

// Stats summarises a user's shelf.
type Stats struct {
	Total           int          `json:"total"`
	Wish            int          `json:"wish"`
	Tsundoku        int          `json:"tsundoku"`
	Completed       int          `json:"completed"`
	Tiers           map[Tier]int `json:"tiers"`
	AverageMaturity float64      `json:"average_maturity_days"`
	MaxMaturity     int          `json:"max_maturity_days"`
}

// Service provides reading business logic. The caller's user id is always
// passed explicitly.
type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
	log  logrus.FieldLogger
}

// NewService creates a new reading service. loc decides which calendar day is today.
func NewService(repo Repository, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo: repo,
		loc:  loc,
		now:  time.Now,
		log:  log.WithField("component", "reading"),
	}
}

// Today is the current calendar day in the configured timezone.
func (s *Service) Today() time.Time {
	return Today(s.now(), s.loc)
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (Reading, error) {
	r := Reading{UserID: userID}
	in.apply(&r)
	if verr := Validate(r, s.Today()); verr != nil {
		return Reading{}, verr
	}
	if err := s.repo.Create(ctx, &r); err != nil {
		return Reading{}, err
	}
	s.log.WithFields(logrus.Fields{"reading_id": r.ID, "user_id": userID, "status": r.Status}).Info("reading created")
	return s.repo.Get(ctx, userID, r.ID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (Reading, error) {
	return s.repo.Get(ctx, userID, id)
}

// FindPublic loads a reading regardless of owner.
func (s *Service) FindPublic(ctx context.Context, id string) (Reading, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns the user's readings newest first. cursor is the NextCursor of
// the previous page, empty for the first page.
func (s *Service) List(ctx context.Context, userID string, status *Status, cursor string, limit int) (Page, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	// One extra row tells whether another page exists.
	rows, err := s.repo.List(ctx, userID, ListQuery{Status: status, After: after, Limit: limit + 1})
	if err != nil {
		return Page{}, err
	}

	page := Page{Readings: rows}
	if len(rows) > limit {
		page.Readings = rows[:limit]
		last := page.Readings[limit-1]
		page.NextCursor = EncodeCursor(CursorData{AfterID: last.ID, CreatedAt: last.CreatedAt})
	}
	if page.Readings == nil {
		page.Readings = []Reading{}
	}
	return page, nil
}

// Update replaces every editable attribute of the reading.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (Reading, error) {
	r, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Reading{}, err
	}
	in.apply(&r)
	return s.save(ctx, r)
}

// ChangeStatus moves the reading to status. The date that goes with the new
// status is set to date when given, and to today when it is still unset.
func (s *Service) ChangeStatus(ctx context.Context, userID, id string, status Status, date *time.Time) (Reading, error) {
	if !status.Valid() {
		return Reading{}, &ValidationError{Fields: []FieldError{{Field: "status", Message: "is not a valid status"}}}
	}

	r, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Reading{}, err
	}

	r.Status = status
	target := r.dateFor(status)
	switch {
	case date != nil:
		d := DateOf(*date)
		*target = &d
	case *target == nil:
		today := s.Today()
		*target = &today
	}
	return s.save(ctx, r)
}

func (s *Service) save(ctx context.Context, r Reading) (Reading, error) {
	if verr := Validate(r, s.Today()); verr != nil {
		return Reading{}, verr
	}
	if err := s.repo.Update(ctx, &r); err != nil {
		return Reading{}, err
	}
	return s.repo.Get(ctx, r.UserID, r.ID)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"reading_id": id, "user_id": userID}).Info("reading deleted")
	return nil
}

// Recommend picks one of the user's readings at random.
func (s *Service) Recommend(ctx context.Context, userID string) (Reading, error) {
	return s.repo.Random(ctx, userID)
}

// RecentReasons returns up to limit reasons the user gave, newest first.
func (s *Service) RecentReasons(ctx context.Context, userID string, limit int) ([]string, error) {
	return s.repo.RecentReasons(ctx, userID, limit)
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	rows, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(rows, s.Today()), nil
}

// ComputeStats aggregates readings as of today.
func ComputeStats(rows []Reading, today time.Time) Stats {
	st := Stats{Total: len(rows), Tiers: make(map[Tier]int, len(Tiers))}
	for _, t := range Tiers {
		st.Tiers[t] = 0
	}

	var sum, aged int
	for _, r := range rows {
		switch r.Status {
		case StatusWish:
			st.Wish++
		case StatusTsundoku:
			st.Tsundoku++
		case StatusCompleted:
			st.Completed++
		}

		days, ok := MaturityDays(r, today)
		if !ok {
			continue
		}
		st.Tiers[TierForDays(days)]++
		sum += days
		aged++
		if days > st.MaxMaturity {
			st.MaxMaturity = days
		}
	}
	if aged > 0 {
		st.AverageMaturity = float64(sum) / float64(aged)
	}
	return st
}

func (in Input) apply(r *Reading) {
	r.BookID = in.BookID
	r.PurchaseMediumID = in.PurchaseMediumID
	r.Reason = in.Reason
	r.Status = in.Status
	r.WishDate = dateOnly(in.WishDate)
	r.TsundokuDate = dateOnly(in.TsundokuDate)
	r.CompletedDate = dateOnly(in.CompletedDate)
}

func (r *Reading) dateFor(s Status) **time.Time {
	switch s {
	case StatusTsundoku:
		return &r.TsundokuDate
	case StatusCompleted:
		return &r.CompletedDate
	default:
		return &r.WishDate
	}
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}

// IsValidation reports whether err carries field errors.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
