package book

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation = "23505"
	isbnConstraint  = "index_books_on_isbn"
)

const bookColumns = `id, title, author, publisher, published_date, description, isbn, image_url, created_at, updated_at`

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

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Publisher, &b.PublishedDate, &b.Description,
		&b.ISBN, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	b.ImageURL = SecureImageURL(b.ImageURL)
	return b, nil
}

func (r *PostgresRepo) FindByISBN(ctx context.Context, isbn string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1 LIMIT 1`, isbn))
}

// FindByTitleAuthor matches both columns exactly; "Go" and "go" are different books.
func (r *PostgresRepo) FindByTitleAuthor(ctx context.Context, title, author string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx,
		`SELECT `+bookColumns+` FROM books WHERE title = $1 AND author = $2 ORDER BY created_at LIMIT 1`,
		title, author))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	where := ""
	args := []any{}
	if s := strings.TrimSpace(q.Q); s != "" {
		where = "WHERE title ILIKE $1 OR author ILIKE $1 OR isbn = $2"
		args = append(args, "%"+escapeLike(s)+"%", s)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(timeoutCtx, "SELECT COUNT(*) FROM books "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	dataSQL := `SELECT ` + bookColumns + ` FROM books ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.db.Query(timeoutCtx, dataSQL, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
	INSERT INTO books (id, title, author, publisher, published_date, description, isbn, image_url)
	VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query,
		b.Title, b.Author, b.Publisher, b.PublishedDate, b.Description, b.ISBN, b.ImageURL,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == isbnConstraint {
			return ErrDuplicateISBN
		}
		return err
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
