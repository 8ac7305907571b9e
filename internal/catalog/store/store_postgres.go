package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"carvest/internal/catalog/models"
	"carvest/pkg/platform/sentinel"
)

// PostgresPlans persists plans through database/sql with the pq driver.
type PostgresPlans struct {
	db *sql.DB
}

func NewPostgresPlans(db *sql.DB) *PostgresPlans {
	return &PostgresPlans{db: db}
}

const plansSchema = `
CREATE TABLE IF NOT EXISTS investment_plans (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	min_amount DOUBLE PRECISION NOT NULL,
	max_amount DOUBLE PRECISION NOT NULL,
	expected_roi DOUBLE PRECISION NOT NULL,
	features TEXT[] NOT NULL DEFAULT '{}',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	return_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	investors_count INTEGER NOT NULL DEFAULT 0,
	total_invested DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresPlans) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, plansSchema); err != nil {
		return fmt.Errorf("ensure investment_plans schema: %w", err)
	}
	return nil
}

const planColumns = "id, name, min_amount, max_amount, expected_roi, features, active, return_rate, description, status, investors_count, total_invested, created_at, updated_at"

func (s *PostgresPlans) Create(ctx context.Context, plan *models.InvestmentPlan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investment_plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		plan.ID, plan.Name, plan.MinAmount, plan.MaxAmount, plan.ExpectedROI,
		pq.Array(plan.Features), plan.Active, plan.ReturnRate, plan.Description,
		plan.Status, plan.InvestorsCount, plan.TotalInvested,
		plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *PostgresPlans) Update(ctx context.Context, plan *models.InvestmentPlan) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE investment_plans SET
			name = $2, min_amount = $3, max_amount = $4, expected_roi = $5,
			features = $6, active = $7, return_rate = $8, description = $9,
			status = $10, investors_count = $11, total_invested = $12,
			updated_at = $13
		WHERE id = $1`,
		plan.ID, plan.Name, plan.MinAmount, plan.MaxAmount, plan.ExpectedROI,
		pq.Array(plan.Features), plan.Active, plan.ReturnRate, plan.Description,
		plan.Status, plan.InvestorsCount, plan.TotalInvested, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresPlans) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM investment_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresPlans) FindByID(ctx context.Context, id uuid.UUID) (*models.InvestmentPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+planColumns+` FROM investment_plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (s *PostgresPlans) List(ctx context.Context) ([]*models.InvestmentPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+planColumns+` FROM investment_plans ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []*models.InvestmentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.InvestmentPlan, error) {
	var plan models.InvestmentPlan
	err := row.Scan(
		&plan.ID, &plan.Name, &plan.MinAmount, &plan.MaxAmount, &plan.ExpectedROI,
		pq.Array(&plan.Features), &plan.Active, &plan.ReturnRate, &plan.Description,
		&plan.Status, &plan.InvestorsCount, &plan.TotalInvested,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	return &plan, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresEntries persists entries; the payload travels as JSONB.
type PostgresEntries struct {
	db *sql.DB
}

func NewPostgresEntries(db *sql.DB) *PostgresEntries {
	return &PostgresEntries{db: db}
}

const entriesSchema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	id UUID PRIMARY KEY,
	plan_id UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

func (s *PostgresEntries) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, entriesSchema); err != nil {
		return fmt.Errorf("ensure catalog_entries schema: %w", err)
	}
	return nil
}

func (s *PostgresEntries) Create(ctx context.Context, entry *models.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_entries (id, plan_id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.PlanID, []byte(entry.Payload), entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (s *PostgresEntries) Update(ctx context.Context, entry *models.Entry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE catalog_entries SET plan_id = $2, payload = $3, updated_at = $4
		WHERE id = $1`,
		entry.ID, entry.PlanID, []byte(entry.Payload), entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresEntries) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresEntries) FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, plan_id, payload, created_at, updated_at
		FROM catalog_entries WHERE id = $1`, id)
	return scanEntry(row)
}

func (s *PostgresEntries) List(ctx context.Context) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, payload, created_at, updated_at
		FROM catalog_entries ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		entry   models.Entry
		payload []byte
	)
	err := row.Scan(&entry.ID, &entry.PlanID, &payload, &entry.CreatedAt, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	entry.Payload = payload
	return &entry, nil
}
