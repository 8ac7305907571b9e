// Package models defines provisioned accounts: the records the registration
// gateway consults for duplicate detection and the admin panel manages
// directly.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	regmodels "carvest/internal/registration/models"
	dErrors "carvest/pkg/domain-errors"
)

// DocumentFields are the wire fields that may carry base64 data URIs. Each
// is uploaded to the media host and stored as a URL; raw base64 never
// persists.
var DocumentFields = []string{
	"profilePhoto",
	"aadharDocument",
	"aadharDocumentBack",
	"panDocument",
	"bankDocument",
}

// Account is a fully provisioned driver or investor record.
type Account struct {
	ID          uuid.UUID           `json:"id"`
	Kind        regmodels.ActorKind `json:"kind"`
	Name        string              `json:"name,omitempty"`
	PrimaryID   string              `json:"primary_id"`
	SecondaryID string              `json:"secondary_id,omitempty"`
	// Documents maps a document field name to its hosted URL.
	Documents map[string]string `json:"documents,omitempty"`
	// IsManualEntry marks accounts entered through the admin panel, as
	// opposed to promoted self-service signups.
	IsManualEntry bool      `json:"is_manual_entry"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Ref converts the account to the reference shape the registration gateway
// consumes.
func (a *Account) Ref() *regmodels.AccountRef {
	return &regmodels.AccountRef{
		PrimaryID:   a.PrimaryID,
		SecondaryID: a.SecondaryID,
		Name:        a.Name,
	}
}

// CreateAccountRequest carries admin input for a new account. Document
// values may be data: URIs or already-hosted URLs.
type CreateAccountRequest struct {
	Name        string
	PrimaryID   string
	SecondaryID string
	Documents   map[string]string
}

func (r *CreateAccountRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.PrimaryID = strings.TrimSpace(r.PrimaryID)
	r.SecondaryID = strings.TrimSpace(r.SecondaryID)
}

func (r *CreateAccountRequest) Validate(kind regmodels.ActorKind) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.PrimaryID == "" {
		return dErrors.New(dErrors.CodeValidation, kind.PrimaryField()+" is required")
	}
	return nil
}

// UpdateAccountRequest carries partial updates; nil fields stay untouched.
type UpdateAccountRequest struct {
	Name        *string
	PrimaryID   *string
	SecondaryID *string
	Documents   map[string]string
}

func (r *UpdateAccountRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.PrimaryID != nil {
		trimmed := strings.TrimSpace(*r.PrimaryID)
		r.PrimaryID = &trimmed
	}
	if r.SecondaryID != nil {
		trimmed := strings.TrimSpace(*r.SecondaryID)
		r.SecondaryID = &trimmed
	}
}

func (r *UpdateAccountRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.PrimaryID != nil && *r.PrimaryID == "" {
		return dErrors.New(dErrors.CodeValidation, "primary identifier cannot be cleared")
	}
	return nil
}

// NewAccount builds a manually entered account.
func NewAccount(kind regmodels.ActorKind, req *CreateAccountRequest, now time.Time) *Account {
	return &Account{
		ID:            uuid.New(),
		Kind:          kind,
		Name:          req.Name,
		PrimaryID:     req.PrimaryID,
		SecondaryID:   req.SecondaryID,
		Documents:     map[string]string{},
		IsManualEntry: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
