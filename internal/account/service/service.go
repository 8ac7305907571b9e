// Package service manages provisioned accounts for the admin panel and
// exposes them to the registration gateway for duplicate detection.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"carvest/internal/account/models"
	"carvest/internal/audit"
	"carvest/internal/media"
	regmodels "carvest/internal/registration/models"
	regstore "carvest/internal/registration/store"
	dErrors "carvest/pkg/domain-errors"
	"carvest/pkg/platform/sentinel"
	"carvest/pkg/requestcontext"
)

type AccountStore interface {
	Create(ctx context.Context, acc *models.Account) error
	Update(ctx context.Context, acc *models.Account) error
	Delete(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindOne(ctx context.Context, kind regmodels.ActorKind, f regstore.Filter) (*models.Account, error)
	FindAny(ctx context.Context, kind regmodels.ActorKind, primaryID, secondaryID string) (*models.Account, error)
	List(ctx context.Context, kind regmodels.ActorKind, manualOnly bool) ([]*models.Account, error)
}

type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Service orchestrates account CRUD with document uploads.
type Service struct {
	accounts AccountStore
	uploader media.Uploader
	logger   *slog.Logger
	auditor  AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// New constructs a Service. The uploader may be nil when document handling
// is disabled; data: payloads are then rejected.
func New(accounts AccountStore, uploader media.Uploader, opts ...Option) *Service {
	s := &Service{accounts: accounts, uploader: uploader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create provisions a manually entered account. Document fields holding
// data: URIs are pushed to the media host and replaced by their URLs before
// the record persists.
func (s *Service) Create(ctx context.Context, kind regmodels.ActorKind, req *models.CreateAccountRequest) (*models.Account, error) {
	req.Normalize()
	if err := req.Validate(kind); err != nil {
		return nil, err
	}

	acc := models.NewAccount(kind, req, requestcontext.Now(ctx))
	if err := s.attachDocuments(ctx, acc, req.Documents); err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "account with these identifiers already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.publishAudit(ctx, audit.ActionAccountCreated, acc)
	return acc, nil
}

// Update applies partial changes and uploads any new documents.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *models.UpdateAccountRequest) (*models.Account, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if req.Name != nil {
		acc.Name = *req.Name
	}
	if req.PrimaryID != nil {
		acc.PrimaryID = *req.PrimaryID
	}
	if req.SecondaryID != nil {
		acc.SecondaryID = *req.SecondaryID
	}
	if err := s.attachDocuments(ctx, acc, req.Documents); err != nil {
		return nil, err
	}
	acc.UpdatedAt = requestcontext.Now(ctx)

	if err := s.accounts.Update(ctx, acc); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "account with these identifiers already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}

	s.publishAudit(ctx, audit.ActionAccountUpdated, acc)
	return acc, nil
}

// Delete removes an account and returns the removed record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	acc, err := s.accounts.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete account")
	}

	s.publishAudit(ctx, audit.ActionAccountDeleted, acc)
	return acc, nil
}

// List returns manually entered accounts of a kind, as shown in the admin
// panel.
func (s *Service) List(ctx context.Context, kind regmodels.ActorKind) ([]*models.Account, error) {
	accs, err := s.accounts.List(ctx, kind, true)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accs, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return acc, nil
}

// attachDocuments uploads every data: URI and records the hosted URL.
// Non-data values (already-hosted URLs) pass through unchanged. Raw base64
// never reaches the store.
func (s *Service) attachDocuments(ctx context.Context, acc *models.Account, docs map[string]string) error {
	if acc.Documents == nil {
		acc.Documents = map[string]string{}
	}
	for _, field := range models.DocumentFields {
		payload, ok := docs[field]
		if !ok || payload == "" {
			continue
		}
		if !media.IsDataURI(payload) {
			acc.Documents[field] = payload
			continue
		}
		if s.uploader == nil {
			return dErrors.New(dErrors.CodeValidation, "document uploads are not configured")
		}
		path := fmt.Sprintf("%ss/%s/%s", acc.Kind, acc.ID, field)
		url, err := s.uploader.Upload(ctx, path, payload)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to upload "+field)
		}
		acc.Documents[field] = url
	}
	return nil
}

func (s *Service) publishAudit(ctx context.Context, action audit.Action, acc *models.Account) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		Timestamp: requestcontext.Now(ctx),
		ActorKind: acc.Kind.String(),
		RecordID:  acc.ID.String(),
		PrimaryID: acc.PrimaryID,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.InfoContext(ctx, "audit publish failed", "error", err)
	}
}
