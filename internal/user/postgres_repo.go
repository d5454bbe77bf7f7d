package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const userColumns = `id, email, username, password_hash, role, confirmed_at, created_at, updated_at`

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

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	const query = `
	INSERT INTO users (id, email, username, password_hash, role, confirmation_token_hash, confirmation_sent_at)
	VALUES (gen_random_uuid(), lower($1), $2, $3, COALESCE(NULLIF($4, ''), 'USER'), NULLIF($5, ''),
	        CASE WHEN $5 = '' THEN NULL ELSE now() END)
	RETURNING id, email, role, confirmed_at, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, u.Email, u.Username, u.PasswordHash, u.Role, u.ConfirmationTokenHash).
		Scan(&u.ID, &u.Email, &u.Role, &u.ConfirmedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
	SELECT ` + userColumns + `
	FROM users
	WHERE email = lower($1)
	LIMIT 1
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, query, email))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, query, id))
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Confirm(ctx context.Context, tokenHash string) (User, error) {
	const query = `
	UPDATE users
	SET confirmed_at = COALESCE(confirmed_at, now()), confirmation_token_hash = NULL, updated_at = now()
	WHERE confirmation_token_hash = $1
	RETURNING ` + userColumns
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, query, tokenHash))
}

func (r *PostgresRepo) SetConfirmationToken(ctx context.Context, id, tokenHash string) error {
	const query = `
	UPDATE users
	SET confirmation_token_hash = $2, confirmation_sent_at = now(), updated_at = now()
	WHERE id = $1 AND confirmed_at IS NULL
	`
	return r.exec(ctx, query, id, tokenHash)
}

func (r *PostgresRepo) SetResetPasswordToken(ctx context.Context, id, tokenHash string) error {
	const query = `
	UPDATE users
	SET reset_password_token_hash = $2, reset_password_sent_at = now(), updated_at = now()
	WHERE id = $1
	`
	return r.exec(ctx, query, id, tokenHash)
}

func (r *PostgresRepo) ResetPassword(ctx context.Context, tokenHash, passwordHash string, sentAfter time.Time) (User, error) {
	const query = `
	UPDATE users
	SET password_hash = $2, reset_password_token_hash = NULL, reset_password_sent_at = NULL, updated_at = now()
	WHERE reset_password_token_hash = $1 AND reset_password_sent_at > $3
	RETURNING ` + userColumns
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(timeoutCtx, query, tokenHash, passwordHash, sentAfter))
}

func (r *PostgresRepo) exec(ctx context.Context, query string, args ...any) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.ConfirmedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
