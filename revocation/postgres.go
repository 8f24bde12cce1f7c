package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vigil-auth/vigil/revocation/migrations"
	"github.com/vigil-auth/vigil/token"
)

// PostgresStore is a [Store] backed by Postgres. The unique constraint on
// the token column plus INSERT ... ON CONFLICT DO NOTHING gives the
// idempotent, atomically convergent insert the revocation contract requires.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgresStore opens dsn with the pgx stdlib driver, applies the
// embedded schema migrations, and returns the store.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("revocation: db open error: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("revocation: migration error: %w", err)
	}
	return s, nil
}

// RunMigrations applies the embedded goose migrations.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// IsRevoked implements [Store].
func (s *PostgresStore) IsRevoked(ctx context.Context, tokenStr string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token = $1)`,
		tokenStr,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return exists, nil
}

// Revoke implements [Store]. ON CONFLICT DO NOTHING makes the insert a no-op
// for the losers of a concurrent race; they then read back the winner's row.
func (s *PostgresStore) Revoke(ctx context.Context, tokenStr string, purpose token.Purpose, expiresAt time.Time, manual bool) (Record, error) {
	if err := checkPurpose(purpose); err != nil {
		return Record{}, err
	}

	query := `
		INSERT INTO revoked_tokens (token, purpose, manual, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO NOTHING
		RETURNING token, purpose, manual, expires_at, created_at, updated_at`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, tokenStr, string(purpose), manual, expiresAt))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Conflict: the token is already revoked. Return the existing row.
	rec, err = scanRecord(s.db.QueryRowContext(ctx, `
		SELECT token, purpose, manual, expires_at, created_at, updated_at
		FROM revoked_tokens WHERE token = $1`, tokenStr))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rec, nil
}

// Sweep implements [Store].
func (s *PostgresStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

func scanRecord(row *sql.Row) (Record, error) {
	var rec Record
	var purpose string
	if err := row.Scan(&rec.Token, &purpose, &rec.Manual, &rec.ExpiresAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	rec.Purpose = token.Purpose(purpose)
	return rec, nil
}
