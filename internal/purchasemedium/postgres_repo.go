package purchasemedium

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

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

func (r *PostgresRepo) List(ctx context.Context) ([]Medium, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx,
		`SELECT id, name, category, created_at, updated_at FROM purchase_media ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Medium{}
	for rows.Next() {
		var m Medium
		var cat *string
		if err := rows.Scan(&m.ID, &m.Name, &cat, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if cat != nil {
			m.Category = category(Category(*cat))
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) EnsureExists(ctx context.Context, m Medium) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var cat *string
	if m.Category != nil {
		s := string(*m.Category)
		cat = &s
	}
	tag, err := r.db.Exec(timeoutCtx,
		`INSERT INTO purchase_media (name, category) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		m.Name, cat)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM purchase_media WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
