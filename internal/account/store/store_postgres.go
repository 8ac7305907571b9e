package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"carvest/internal/account/models"
	regmodels "carvest/internal/registration/models"
	regstore "carvest/internal/registration/store"
	"carvest/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists accounts through database/sql with the pq driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema declares the accounts table. The partial index mirrors the signup
// store: absent secondary identifiers are unconstrained.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	primary_id TEXT NOT NULL,
	secondary_id TEXT NOT NULL DEFAULT '',
	documents JSONB NOT NULL DEFAULT '{}',
	is_manual_entry BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_kind_primary_idx ON accounts (kind, primary_id);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_kind_secondary_idx ON accounts (kind, secondary_id) WHERE secondary_id <> '';
`

func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure accounts schema: %w", err)
	}
	return nil
}

const accountColumns = "id, kind, name, primary_id, secondary_id, documents, is_manual_entry, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, acc *models.Account) error {
	docs, err := json.Marshal(acc.Documents)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		acc.ID, acc.Kind, acc.Name, acc.PrimaryID, acc.SecondaryID,
		docs, acc.IsManualEntry, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, acc *models.Account) error {
	docs, err := json.Marshal(acc.Documents)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = $2, primary_id = $3, secondary_id = $4, documents = $5, updated_at = $6
		WHERE id = $1`,
		acc.ID, acc.Name, acc.PrimaryID, acc.SecondaryID, docs, acc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM accounts WHERE id = $1
		RETURNING `+accountColumns, id)
	return scanAccount(row)
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (s *Postgres) FindOne(ctx context.Context, kind regmodels.ActorKind, f regstore.Filter) (*models.Account, error) {
	if f.IsZero() {
		return nil, sentinel.ErrNotFound
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE kind = $1`
	args := []any{kind}
	if f.PrimaryID != "" {
		args = append(args, f.PrimaryID)
		query += fmt.Sprintf(" AND primary_id = $%d", len(args))
	}
	if f.SecondaryID != "" {
		args = append(args, f.SecondaryID)
		query += fmt.Sprintf(" AND secondary_id = $%d", len(args))
	}

	return scanAccount(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Postgres) FindAny(ctx context.Context, kind regmodels.ActorKind, primaryID, secondaryID string) (*models.Account, error) {
	if primaryID == "" && secondaryID == "" {
		return nil, sentinel.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE kind = $1 AND (($2 <> '' AND primary_id = $2) OR ($3 <> '' AND secondary_id = $3))
		LIMIT 1`,
		kind, primaryID, secondaryID)
	return scanAccount(row)
}

func (s *Postgres) List(ctx context.Context, kind regmodels.ActorKind, manualOnly bool) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE kind = $1 AND ($2 = FALSE OR is_manual_entry)
		ORDER BY created_at`,
		kind, manualOnly)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var acc models.Account
	var docs []byte
	err := row.Scan(
		&acc.ID, &acc.Kind, &acc.Name, &acc.PrimaryID, &acc.SecondaryID,
		&docs, &acc.IsManualEntry, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if err := json.Unmarshal(docs, &acc.Documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return &acc, nil
}
