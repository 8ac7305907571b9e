// Package store persists the investment catalog.
package store

import (
	"context"

	"github.com/google/uuid"

	"carvest/internal/catalog/models"
)

// PlanStore persists investment plans.
//
// Create and Update take the full record; Update returns
// sentinel.ErrNotFound when the plan does not exist.
type PlanStore interface {
	Create(ctx context.Context, plan *models.InvestmentPlan) error
	Update(ctx context.Context, plan *models.InvestmentPlan) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InvestmentPlan, error)
	List(ctx context.Context) ([]*models.InvestmentPlan, error)
}

// EntryStore persists catalog entries.
type EntryStore interface {
	Create(ctx context.Context, entry *models.Entry) error
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	List(ctx context.Context) ([]*models.Entry, error)
}
