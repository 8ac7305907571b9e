// Package store persists provisioned accounts. Uniqueness of (kind,
// primary) and (kind, secondary) is enforced here, mirroring the signup
// store contract.
package store

import (
	"context"

	"github.com/google/uuid"

	"carvest/internal/account/models"
	regmodels "carvest/internal/registration/models"
	regstore "carvest/internal/registration/store"
)

// AccountStore is the provisioned-account collection.
type AccountStore interface {
	// Create inserts an account. Returns sentinel.ErrAlreadyUsed when a
	// uniqueness constraint rejects the write.
	Create(ctx context.Context, acc *models.Account) error
	Update(ctx context.Context, acc *models.Account) error
	// Delete removes an account, returning it. sentinel.ErrNotFound when
	// absent.
	Delete(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// FindOne matches the conjunction of set filter fields.
	FindOne(ctx context.Context, kind regmodels.ActorKind, f regstore.Filter) (*models.Account, error)
	// FindAny matches either identifier independently.
	FindAny(ctx context.Context, kind regmodels.ActorKind, primaryID, secondaryID string) (*models.Account, error)
	// List returns accounts of a kind; manualOnly restricts to admin-entered
	// records.
	List(ctx context.Context, kind regmodels.ActorKind, manualOnly bool) ([]*models.Account, error)
}
