// Package store persists signup records. Implementations enforce the
// uniqueness constraints on (kind, primary) and (kind, secondary); the
// service's duplicate checks are a friendlier-error layer on top, not the
// source of truth.
package store

import (
	"context"

	"carvest/internal/registration/models"
)

// Filter selects records by identifier equality. Zero-valued fields are
// ignored; when both are set, FindOne requires the conjunction.
type Filter struct {
	PrimaryID   string
	SecondaryID string
}

// IsZero reports whether the filter selects nothing.
func (f Filter) IsZero() bool {
	return f.PrimaryID == "" && f.SecondaryID == ""
}

// SignupStore is the pending-registration collection. Records are created
// once and never updated or deleted here; later lifecycle transitions belong
// to the administrative process.
type SignupStore interface {
	// Create inserts a record. Returns sentinel.ErrAlreadyUsed when a
	// uniqueness constraint rejects the write.
	Create(ctx context.Context, rec *models.SignupRecord) error
	// FindOne returns the record matching every set filter field, or
	// sentinel.ErrNotFound.
	FindOne(ctx context.Context, kind models.ActorKind, f Filter) (*models.SignupRecord, error)
	// List returns all records of a kind, oldest first.
	List(ctx context.Context, kind models.ActorKind) ([]*models.SignupRecord, error)
}
