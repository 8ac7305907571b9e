package service

import (
	"context"

	regmodels "carvest/internal/registration/models"
	regstore "carvest/internal/registration/store"
)

// Directory adapts the account store to the lookup shape the registration
// gateway consumes for duplicate detection.
type Directory struct {
	accounts AccountStore
}

func NewDirectory(accounts AccountStore) *Directory {
	return &Directory{accounts: accounts}
}

func (d *Directory) FindOne(ctx context.Context, kind regmodels.ActorKind, f regstore.Filter) (*regmodels.AccountRef, error) {
	acc, err := d.accounts.FindOne(ctx, kind, f)
	if err != nil {
		return nil, err
	}
	return acc.Ref(), nil
}

func (d *Directory) FindAny(ctx context.Context, kind regmodels.ActorKind, primaryID, secondaryID string) (*regmodels.AccountRef, error) {
	acc, err := d.accounts.FindAny(ctx, kind, primaryID, secondaryID)
	if err != nil {
		return nil, err
	}
	return acc.Ref(), nil
}
