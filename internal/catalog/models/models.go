// Package models defines the investment catalog: the plans offered to
// investors and the free-form entries recorded against them.
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "carvest/pkg/domain-errors"
)

// InvestmentPlan is a product in the catalog. The trailing fields mirror
// older admin panels and stay optional.
type InvestmentPlan struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	MinAmount   float64   `json:"minAmount"`
	MaxAmount   float64   `json:"maxAmount"`
	ExpectedROI float64   `json:"expectedROI"`
	Features    []string  `json:"features"`
	Active      bool      `json:"active"`

	ReturnRate     float64 `json:"returnRate,omitempty"`
	Description    string  `json:"description,omitempty"`
	Status         string  `json:"status,omitempty"`
	InvestorsCount int     `json:"investorsCount,omitempty"`
	TotalInvested  float64 `json:"totalInvested,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlanRequest carries the admin wire shape for creating or updating a
// plan. Pointer fields distinguish absent from zero on updates.
type PlanRequest struct {
	Name        *string  `json:"name"`
	MinAmount   *float64 `json:"minAmount"`
	MaxAmount   *float64 `json:"maxAmount"`
	ExpectedROI *float64 `json:"expectedROI"`
	Features    []string `json:"features"`
	Active      *bool    `json:"active"`

	ReturnRate     *float64 `json:"returnRate"`
	Description    *string  `json:"description"`
	Status         *string  `json:"status"`
	InvestorsCount *int     `json:"investorsCount"`
	TotalInvested  *float64 `json:"totalInvested"`
}

func (r *PlanRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Description != nil {
		trimmed := strings.TrimSpace(*r.Description)
		r.Description = &trimmed
	}
}

// ValidateCreate enforces the fields a new plan must carry.
func (r *PlanRequest) ValidateCreate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == nil || *r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.MinAmount == nil {
		return dErrors.New(dErrors.CodeValidation, "minAmount is required")
	}
	if r.MaxAmount == nil {
		return dErrors.New(dErrors.CodeValidation, "maxAmount is required")
	}
	if r.ExpectedROI == nil {
		return dErrors.New(dErrors.CodeValidation, "expectedROI is required")
	}
	if *r.MinAmount < 0 || *r.MaxAmount < *r.MinAmount {
		return dErrors.New(dErrors.CodeValidation, "amount range is invalid")
	}
	return nil
}

// NewPlan builds a plan from a create request. Plans start active unless
// the request says otherwise.
func NewPlan(r *PlanRequest, now time.Time) *InvestmentPlan {
	p := &InvestmentPlan{
		ID:          uuid.New(),
		Name:        *r.Name,
		MinAmount:   *r.MinAmount,
		MaxAmount:   *r.MaxAmount,
		ExpectedROI: *r.ExpectedROI,
		Features:    r.Features,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	p.applyOptional(r)
	return p
}

// Apply overlays the request's present fields onto the plan.
func (p *InvestmentPlan) Apply(r *PlanRequest) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.MinAmount != nil {
		p.MinAmount = *r.MinAmount
	}
	if r.MaxAmount != nil {
		p.MaxAmount = *r.MaxAmount
	}
	if r.ExpectedROI != nil {
		p.ExpectedROI = *r.ExpectedROI
	}
	if r.Features != nil {
		p.Features = r.Features
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	p.applyOptional(r)
}

func (p *InvestmentPlan) applyOptional(r *PlanRequest) {
	if r.ReturnRate != nil {
		p.ReturnRate = *r.ReturnRate
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	if r.InvestorsCount != nil {
		p.InvestorsCount = *r.InvestorsCount
	}
	if r.TotalInvested != nil {
		p.TotalInvested = *r.TotalInvested
	}
}

// Entry is a free-form record tied to a plan. The payload is kept as the
// caller sent it.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	PlanID    uuid.UUID       `json:"planId"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// EntryRequest carries the wire shape for entries. Everything outside the
// optional planId travels opaquely in the payload.
type EntryRequest struct {
	PlanID  uuid.UUID       `json:"planId"`
	Payload json.RawMessage `json:"payload"`
}

func (r *EntryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Payload) == 0 {
		return dErrors.New(dErrors.CodeValidation, "payload is required")
	}
	if !json.Valid(r.Payload) {
		return dErrors.New(dErrors.CodeValidation, "payload must be valid JSON")
	}
	return nil
}

// NewEntry builds an entry from a request.
func NewEntry(r *EntryRequest, now time.Time) *Entry {
	return &Entry{
		ID:        uuid.New(),
		PlanID:    r.PlanID,
		Payload:   r.Payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
