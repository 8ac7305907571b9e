package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"carvest/internal/registration/models"
	"carvest/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// Postgres persists signup records. The unique indexes declared in Schema are
// the actual uniqueness mechanism for concurrent signups; the service-level
// checks only produce friendlier errors.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Schema declares the signups table and its uniqueness constraints.
const Schema = `
CREATE TABLE IF NOT EXISTS signups (
	id            UUID PRIMARY KEY,
	kind          TEXT NOT NULL,
	token         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	primary_id    TEXT NOT NULL,
	secondary_id  TEXT NOT NULL DEFAULT '',
	secret        TEXT NOT NULL,
	status        TEXT NOT NULL,
	kyc_status    TEXT NOT NULL,
	signup_date   TIMESTAMPTZ NOT NULL,
	is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS signups_kind_primary_idx
	ON signups (kind, primary_id);
CREATE UNIQUE INDEX IF NOT EXISTS signups_kind_secondary_idx
	ON signups (kind, secondary_id) WHERE secondary_id <> '';
`

// EnsureSchema creates the table and indexes if they do not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure signups schema: %w", err)
	}
	return nil
}

const signupColumns = `id, kind, token, name, primary_id, secondary_id, secret,
	status, kyc_status, signup_date, is_verified, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, rec *models.SignupRecord) error {
	query := `
		INSERT INTO signups (` + signupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Kind, rec.Token, rec.Name, rec.PrimaryID, rec.SecondaryID,
		rec.Secret, rec.Status, rec.KYCStatus, rec.SignupDate, rec.Verified,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert signup: %w", err)
	}
	return nil
}

func (s *Postgres) FindOne(ctx context.Context, kind models.ActorKind, f Filter) (*models.SignupRecord, error) {
	if f.IsZero() {
		return nil, sentinel.ErrNotFound
	}

	query := `SELECT ` + signupColumns + ` FROM signups WHERE kind = $1`
	args := []any{kind}
	if f.PrimaryID != "" {
		args = append(args, f.PrimaryID)
		query += fmt.Sprintf(" AND primary_id = $%d", len(args))
	}
	if f.SecondaryID != "" {
		args = append(args, f.SecondaryID)
		query += fmt.Sprintf(" AND secondary_id = $%d", len(args))
	}

	rec, err := scanSignup(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find signup: %w", err)
	}
	return rec, nil
}

func (s *Postgres) List(ctx context.Context, kind models.ActorKind) ([]*models.SignupRecord, error) {
	query := `SELECT ` + signupColumns + ` FROM signups WHERE kind = $1 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	var out []*models.SignupRecord
	for rows.Next() {
		rec, err := scanSignup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignup(row rowScanner) (*models.SignupRecord, error) {
	var rec models.SignupRecord
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.Token, &rec.Name, &rec.PrimaryID, &rec.SecondaryID,
		&rec.Secret, &rec.Status, &rec.KYCStatus, &rec.SignupDate, &rec.Verified,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
