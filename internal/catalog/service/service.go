// Package service implements the catalog operations exposed to the admin
// panel.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"carvest/internal/catalog/models"
	"carvest/internal/catalog/store"
	dErrors "carvest/pkg/domain-errors"
	"carvest/pkg/platform/sentinel"
	"carvest/pkg/requestcontext"
)

// Service manages investment plans and their entries.
type Service struct {
	plans   store.PlanStore
	entries store.EntryStore
}

func New(plans store.PlanStore, entries store.EntryStore) *Service {
	return &Service{plans: plans, entries: entries}
}

func (s *Service) CreatePlan(ctx context.Context, req *models.PlanRequest) (*models.InvestmentPlan, error) {
	req.Normalize()
	if err := req.ValidateCreate(); err != nil {
		return nil, err
	}

	plan := models.NewPlan(req, requestcontext.Now(ctx))
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create plan")
	}
	return plan, nil
}

func (s *Service) UpdatePlan(ctx context.Context, id uuid.UUID, req *models.PlanRequest) (*models.InvestmentPlan, error) {
	req.Normalize()
	if req.Name != nil && *req.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name cannot be cleared")
	}

	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, planError(err, "failed to load plan")
	}

	plan.Apply(req)
	if plan.MinAmount < 0 || plan.MaxAmount < plan.MinAmount {
		return nil, dErrors.New(dErrors.CodeValidation, "amount range is invalid")
	}
	plan.UpdatedAt = requestcontext.Now(ctx)

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, planError(err, "failed to update plan")
	}
	return plan, nil
}

func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		return planError(err, "failed to delete plan")
	}
	return nil
}

func (s *Service) ListPlans(ctx context.Context) ([]*models.InvestmentPlan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list plans")
	}
	if plans == nil {
		plans = []*models.InvestmentPlan{}
	}
	return plans, nil
}

func (s *Service) CreateEntry(ctx context.Context, req *models.EntryRequest) (*models.Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.PlanID != uuid.Nil {
		if _, err := s.plans.FindByID(ctx, req.PlanID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeValidation, "plan does not exist")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan")
		}
	}

	entry := models.NewEntry(req, requestcontext.Now(ctx))
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create entry")
	}
	return entry, nil
}

func (s *Service) UpdateEntry(ctx context.Context, id uuid.UUID, req *models.EntryRequest) (*models.Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, entryError(err, "failed to load entry")
	}

	if req.PlanID != uuid.Nil {
		entry.PlanID = req.PlanID
	}
	entry.Payload = req.Payload
	entry.UpdatedAt = requestcontext.Now(ctx)

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, entryError(err, "failed to update entry")
	}
	return entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return entryError(err, "failed to delete entry")
	}
	return nil
}

func (s *Service) ListEntries(ctx context.Context) ([]*models.Entry, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries")
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	return entries, nil
}

func planError(err error, fallback string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "plan not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fallback)
}

func entryError(err error, fallback string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fallback)
}
