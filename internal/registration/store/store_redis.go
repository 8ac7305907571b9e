package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"carvest/internal/registration/models"
	"carvest/pkg/platform/sentinel"
)

// Key layout:
//
//	signup:{kind}:rec:{id}        -> record JSON
//	signup:{kind}:primary:{v}     -> record id (SETNX, the uniqueness constraint)
//	signup:{kind}:secondary:{v}   -> record id (SETNX)
//	signup:{kind}:ids             -> set of record ids
const (
	recKeyFmt       = "signup:%s:rec:%s"
	primaryKeyFmt   = "signup:%s:primary:%s"
	secondaryKeyFmt = "signup:%s:secondary:%s"
	idsKeyFmt       = "signup:%s:ids"
)

// Redis is a shared-store implementation for multi-instance deployments.
// SETNX on the index keys provides the storage-level uniqueness guarantee
// that concurrent signups rely on.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// redisRecord mirrors SignupRecord with the secret included, since the model
// excludes it from its public JSON form.
type redisRecord struct {
	ID          string           `json:"id"`
	Kind        models.ActorKind `json:"kind"`
	Token       string           `json:"token"`
	Name        string           `json:"name,omitempty"`
	PrimaryID   string           `json:"primary_id"`
	SecondaryID string           `json:"secondary_id,omitempty"`
	Secret      string           `json:"secret"`
	Status      models.Status    `json:"status"`
	KYCStatus   models.KYCStatus `json:"kyc_status"`
	SignupDate  time.Time        `json:"signup_date"`
	Verified    bool             `json:"is_verified"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func toRedisRecord(rec *models.SignupRecord) redisRecord {
	return redisRecord{
		ID:          rec.ID.String(),
		Kind:        rec.Kind,
		Token:       rec.Token,
		Name:        rec.Name,
		PrimaryID:   rec.PrimaryID,
		SecondaryID: rec.SecondaryID,
		Secret:      rec.Secret,
		Status:      rec.Status,
		KYCStatus:   rec.KYCStatus,
		SignupDate:  rec.SignupDate,
		Verified:    rec.Verified,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func (r redisRecord) toModel() (*models.SignupRecord, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	return &models.SignupRecord{
		ID:          id,
		Kind:        r.Kind,
		Token:       r.Token,
		Name:        r.Name,
		PrimaryID:   r.PrimaryID,
		SecondaryID: r.SecondaryID,
		Secret:      r.Secret,
		Status:      r.Status,
		KYCStatus:   r.KYCStatus,
		SignupDate:  r.SignupDate,
		Verified:    r.Verified,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func (s *Redis) Create(ctx context.Context, rec *models.SignupRecord) error {
	id := rec.ID.String()
	pKey := fmt.Sprintf(primaryKeyFmt, rec.Kind, rec.PrimaryID)

	ok, err := s.client.SetNX(ctx, pKey, id, 0).Result()
	if err != nil {
		return fmt.Errorf("claim primary index: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}

	if rec.SecondaryID != "" {
		sKey := fmt.Sprintf(secondaryKeyFmt, rec.Kind, rec.SecondaryID)
		ok, err := s.client.SetNX(ctx, sKey, id, 0).Result()
		if err != nil {
			_ = s.client.Del(ctx, pKey).Err()
			return fmt.Errorf("claim secondary index: %w", err)
		}
		if !ok {
			// Release the primary claim so the caller can retry with a
			// different secondary identifier.
			_ = s.client.Del(ctx, pKey).Err()
			return sentinel.ErrAlreadyUsed
		}
	}

	payload, err := json.Marshal(toRedisRecord(rec))
	if err != nil {
		return fmt.Errorf("marshal signup record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(recKeyFmt, rec.Kind, id), payload, 0)
	pipe.SAdd(ctx, fmt.Sprintf(idsKeyFmt, rec.Kind), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store signup record: %w", err)
	}
	return nil
}

func (s *Redis) FindOne(ctx context.Context, kind models.ActorKind, f Filter) (*models.SignupRecord, error) {
	if f.IsZero() {
		return nil, sentinel.ErrNotFound
	}

	idxKey := fmt.Sprintf(primaryKeyFmt, kind, f.PrimaryID)
	if f.PrimaryID == "" {
		idxKey = fmt.Sprintf(secondaryKeyFmt, kind, f.SecondaryID)
	}

	id, err := s.client.Get(ctx, idxKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve signup index: %w", err)
	}

	rec, err := s.getRecord(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	// Every set filter field must match (conjunction).
	if f.PrimaryID != "" && rec.PrimaryID != f.PrimaryID {
		return nil, sentinel.ErrNotFound
	}
	if f.SecondaryID != "" && rec.SecondaryID != f.SecondaryID {
		return nil, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *Redis) List(ctx context.Context, kind models.ActorKind) ([]*models.SignupRecord, error) {
	ids, err := s.client.SMembers(ctx, fmt.Sprintf(idsKeyFmt, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("list signup ids: %w", err)
	}

	out := make([]*models.SignupRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.getRecord(ctx, kind, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	// SMembers yields arbitrary order; List promises oldest first.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Redis) getRecord(ctx context.Context, kind models.ActorKind, id string) (*models.SignupRecord, error) {
	payload, err := s.client.Get(ctx, fmt.Sprintf(recKeyFmt, kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get signup record: %w", err)
	}
	var rr redisRecord
	if err := json.Unmarshal(payload, &rr); err != nil {
		return nil, fmt.Errorf("unmarshal signup record: %w", err)
	}
	return rr.toModel()
}
