package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"carvest/internal/catalog/models"
	"carvest/pkg/platform/sentinel"
)

// InMemoryPlans keeps plans in process memory. Used in tests and local
// development.
type InMemoryPlans struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]models.InvestmentPlan
}

func NewInMemoryPlans() *InMemoryPlans {
	return &InMemoryPlans{plans: make(map[uuid.UUID]models.InvestmentPlan)}
}

func (s *InMemoryPlans) Create(_ context.Context, plan *models.InvestmentPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (s *InMemoryPlans) Update(_ context.Context, plan *models.InvestmentPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (s *InMemoryPlans) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *InMemoryPlans) FindByID(_ context.Context, id uuid.UUID) (*models.InvestmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clonePlan(&plan)
	return &out, nil
}

func (s *InMemoryPlans) List(_ context.Context) ([]*models.InvestmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.InvestmentPlan, 0, len(s.plans))
	for _, plan := range s.plans {
		p := clonePlan(&plan)
		out = append(out, &p)
	}
	slices.SortFunc(out, func(a, b *models.InvestmentPlan) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func clonePlan(plan *models.InvestmentPlan) models.InvestmentPlan {
	out := *plan
	out.Features = slices.Clone(plan.Features)
	return out
}

// InMemoryEntries keeps entries in process memory.
type InMemoryEntries struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]models.Entry
}

func NewInMemoryEntries() *InMemoryEntries {
	return &InMemoryEntries{entries: make(map[uuid.UUID]models.Entry)}
}

func (s *InMemoryEntries) Create(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *InMemoryEntries) Update(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *InMemoryEntries) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *InMemoryEntries) FindByID(_ context.Context, id uuid.UUID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneEntry(&entry)
	return &out, nil
}

func (s *InMemoryEntries) List(_ context.Context) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		e := cloneEntry(&entry)
		out = append(out, &e)
	}
	slices.SortFunc(out, func(a, b *models.Entry) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func cloneEntry(entry *models.Entry) models.Entry {
	out := *entry
	out.Payload = slices.Clone(entry.Payload)
	return out
}
