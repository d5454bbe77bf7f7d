package reading

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tsundoku/internal/book"
)

const (
	foreignKeyViolation = "23503"
	bookConstraint      = "readings_book_id_fkey"
	mediumConstraint    = "readings_purchase_medium_id_fkey"
)

const readingColumns = `r.id, r.user_id, r.book_id, r.purchase_medium_id, r.reason, r.status,
	r.wish_date, r.tsundoku_date, r.completed_date, r.created_at, r.updated_at`

const bookColumns = `b.id, b.title, b.author, b.publisher, b.published_date, b.description,
	b.isbn, b.image_url, b.created_at, b.updated_at`

const selectWithBook = `SELECT ` + readingColumns + `, ` + bookColumns + `
	FROM readings r JOIN books b ON b.id = r.book_id`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Create(ctx context.Context, rd *Reading) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRow(timeoutCtx, `
		INSERT INTO readings (user_id, book_id, purchase_medium_id, reason, status, wish_date, tsundoku_date, completed_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		rd.UserID, rd.BookID, rd.PurchaseMediumID, rd.Reason, int16(rd.Status),
		rd.WishDate, rd.TsundokuDate, rd.CompletedDate,
	).Scan(&rd.ID, &rd.CreatedAt, &rd.UpdatedAt)
	return mapWriteError(err)
}

func (r *PostgresRepo) Get(ctx context.Context, userID, id string) (Reading, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanWithBook(r.db.QueryRow(timeoutCtx, selectWithBook+` WHERE r.id = $1 AND r.user_id = $2`, id, userID))
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (Reading, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanWithBook(r.db.QueryRow(timeoutCtx, selectWithBook+` WHERE r.id = $1`, id))
}

func (r *PostgresRepo) List(ctx context.Context, userID string, q ListQuery) ([]Reading, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := selectWithBook + ` WHERE r.user_id = $1`
	args := []any{userID}
	if q.Status != nil {
		args = append(args, int16(*q.Status))
		query += ` AND r.status = $` + strconv.Itoa(len(args))
	}
	if q.After.AfterID != "" {
		args = append(args, q.After.CreatedAt, q.After.AfterID)
		query += ` AND (r.created_at, r.id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	args = append(args, q.Limit)
	query += ` ORDER BY r.created_at DESC, r.id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		rd, err := scanWithBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListAll(ctx context.Context, userID string) ([]Reading, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx,
		`SELECT `+readingColumns+` FROM readings r WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var rd Reading
		if err := rows.Scan(readingDest(&rd)...); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, rd *Reading) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRow(timeoutCtx, `
		UPDATE readings
		SET book_id = $3, purchase_medium_id = $4, reason = $5, status = $6,
		    wish_date = $7, tsundoku_date = $8, completed_date = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`,
		rd.ID, rd.UserID, rd.BookID, rd.PurchaseMediumID, rd.Reason, int16(rd.Status),
		rd.WishDate, rd.TsundokuDate, rd.CompletedDate,
	).Scan(&rd.UpdatedAt)
	return mapWriteError(err)
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM readings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Random(ctx context.Context, userID string) (Reading, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanWithBook(r.db.QueryRow(timeoutCtx, selectWithBook+` WHERE r.user_id = $1 ORDER BY random() LIMIT 1`, userID))
}

func (r *PostgresRepo) RecentReasons(ctx context.Context, userID string, limit int) ([]string, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, `
		SELECT reason FROM readings
		WHERE user_id = $1 AND reason <> ''
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// readingDest lists scan targets in readingColumns order.
func readingDest(rd *Reading) []any {
	return []any{
		&rd.ID, &rd.UserID, &rd.BookID, &rd.PurchaseMediumID, &rd.Reason, (*int16)(&rd.Status),
		&rd.WishDate, &rd.TsundokuDate, &rd.CompletedDate, &rd.CreatedAt, &rd.UpdatedAt,
	}
}

func scanWithBook(row pgx.Row) (Reading, error) {
	var rd Reading
	var b book.Book
	dest := append(readingDest(&rd),
		&b.ID, &b.Title, &b.Author, &b.Publisher, &b.PublishedDate, &b.Description,
		&b.ISBN, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reading{}, ErrNotFound
		}
		return Reading{}, err
	}
	b.ImageURL = book.SecureImageURL(b.ImageURL)
	rd.Book = &b
	return rd, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		switch pgErr.ConstraintName {
		case bookConstraint:
			return ErrBookNotFound
		case mediumConstraint:
			return ErrMediumNotFound
		}
	}
	return err
}
