package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"

	"carvest/internal/account/models"
	regmodels "carvest/internal/registration/models"
	regstore "carvest/internal/registration/store"
	"carvest/pkg/platform/sentinel"
)

// InMemory keeps accounts in process memory. Default store for development
// and tests.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]models.Account
	// Unique indexes, keyed by kind + "\x00" + identifier.
	byPrimary   map[string]uuid.UUID
	bySecondary map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts:    make(map[uuid.UUID]models.Account),
		byPrimary:   make(map[string]uuid.UUID),
		bySecondary: make(map[string]uuid.UUID),
	}
}

func indexKey(kind regmodels.ActorKind, identifier string) string {
	return string(kind) + "\x00" + identifier
}

func (s *InMemory) Create(_ context.Context, acc *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pKey := indexKey(acc.Kind, acc.PrimaryID)
	if _, taken := s.byPrimary[pKey]; taken {
		return sentinel.ErrAlreadyUsed
	}
	var sKey string
	if acc.SecondaryID != "" {
		sKey = indexKey(acc.Kind, acc.SecondaryID)
		if _, taken := s.bySecondary[sKey]; taken {
			return sentinel.ErrAlreadyUsed
		}
	}

	s.accounts[acc.ID] = cloneAccount(acc)
	s.byPrimary[pKey] = acc.ID
	if sKey != "" {
		s.bySecondary[sKey] = acc.ID
	}
	return nil
}

func (s *InMemory) Update(_ context.Context, acc *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[acc.ID]
	if !ok {
		return sentinel.ErrNotFound
	}

	if acc.PrimaryID != existing.PrimaryID {
		newKey := indexKey(acc.Kind, acc.PrimaryID)
		if owner, taken := s.byPrimary[newKey]; taken && owner != acc.ID {
			return sentinel.ErrAlreadyUsed
		}
		delete(s.byPrimary, indexKey(existing.Kind, existing.PrimaryID))
		s.byPrimary[newKey] = acc.ID
	}
	if acc.SecondaryID != existing.SecondaryID {
		if acc.SecondaryID != "" {
			newKey := indexKey(acc.Kind, acc.SecondaryID)
			if owner, taken := s.bySecondary[newKey]; taken && owner != acc.ID {
				return sentinel.ErrAlreadyUsed
			}
			s.bySecondary[newKey] = acc.ID
		}
		if existing.SecondaryID != "" {
			delete(s.bySecondary, indexKey(existing.Kind, existing.SecondaryID))
		}
	}

	s.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.byPrimary, indexKey(acc.Kind, acc.PrimaryID))
	if acc.SecondaryID != "" {
		delete(s.bySecondary, indexKey(acc.Kind, acc.SecondaryID))
	}
	out := cloneAccount(&acc)
	return &out, nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneAccount(&acc)
	return &out, nil
}

func (s *InMemory) FindOne(_ context.Context, kind regmodels.ActorKind, f regstore.Filter) (*models.Account, error) {
	if f.IsZero() {
		return nil, sentinel.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var id uuid.UUID
	var ok bool
	if f.PrimaryID != "" {
		id, ok = s.byPrimary[indexKey(kind, f.PrimaryID)]
	} else {
		id, ok = s.bySecondary[indexKey(kind, f.SecondaryID)]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	acc := s.accounts[id]
	if f.PrimaryID != "" && acc.PrimaryID != f.PrimaryID {
		return nil, sentinel.ErrNotFound
	}
	if f.SecondaryID != "" && acc.SecondaryID != f.SecondaryID {
		return nil, sentinel.ErrNotFound
	}
	out := cloneAccount(&acc)
	return &out, nil
}

func (s *InMemory) FindAny(_ context.Context, kind regmodels.ActorKind, primaryID, secondaryID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if primaryID != "" {
		if id, ok := s.byPrimary[indexKey(kind, primaryID)]; ok {
			acc := s.accounts[id]
			out := cloneAccount(&acc)
			return &out, nil
		}
	}
	if secondaryID != "" {
		if id, ok := s.bySecondary[indexKey(kind, secondaryID)]; ok {
			acc := s.accounts[id]
			out := cloneAccount(&acc)
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, kind regmodels.ActorKind, manualOnly bool) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Account, 0)
	for _, acc := range s.accounts {
		if acc.Kind != kind {
			continue
		}
		if manualOnly && !acc.IsManualEntry {
			continue
		}
		cp := cloneAccount(&acc)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneAccount(acc *models.Account) models.Account {
	out := *acc
	out.Documents = maps.Clone(acc.Documents)
	return out
}
