package store

import (
	"context"
	"sort"
	"sync"

	"carvest/internal/registration/models"
	"carvest/pkg/platform/sentinel"
)

// InMemory keeps signup records in process memory. It favors clarity over
// performance and is the default store for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]models.SignupRecord // keyed by record ID
	// Unique indexes, keyed by kind + "\x00" + identifier. These make the
	// create path enforce the same constraints the SQL store declares.
	byPrimary   map[string]string
	bySecondary map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		records:     make(map[string]models.SignupRecord),
		byPrimary:   make(map[string]string),
		bySecondary: make(map[string]string),
	}
}

func indexKey(kind models.ActorKind, identifier string) string {
	return string(kind) + "\x00" + identifier
}

func (s *InMemory) Create(_ context.Context, rec *models.SignupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pKey := indexKey(rec.Kind, rec.PrimaryID)
	if _, taken := s.byPrimary[pKey]; taken {
		return sentinel.ErrAlreadyUsed
	}
	var sKey string
	if rec.SecondaryID != "" {
		sKey = indexKey(rec.Kind, rec.SecondaryID)
		if _, taken := s.bySecondary[sKey]; taken {
			return sentinel.ErrAlreadyUsed
		}
	}

	id := rec.ID.String()
	s.records[id] = *rec
	s.byPrimary[pKey] = id
	if sKey != "" {
		s.bySecondary[sKey] = id
	}
	return nil
}

func (s *InMemory) FindOne(_ context.Context, kind models.ActorKind, f Filter) (*models.SignupRecord, error) {
	if f.IsZero() {
		return nil, sentinel.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	var ok bool
	if f.PrimaryID != "" {
		id, ok = s.byPrimary[indexKey(kind, f.PrimaryID)]
	} else {
		id, ok = s.bySecondary[indexKey(kind, f.SecondaryID)]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	rec := s.records[id]
	// Every set filter field must match (conjunction).
	if f.PrimaryID != "" && rec.PrimaryID != f.PrimaryID {
		return nil, sentinel.ErrNotFound
	}
	if f.SecondaryID != "" && rec.SecondaryID != f.SecondaryID {
		return nil, sentinel.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (s *InMemory) List(_ context.Context, kind models.ActorKind) ([]*models.SignupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SignupRecord, 0)
	for _, rec := range s.records {
		if rec.Kind != kind {
			continue
		}
		cp := rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
