// Package handler exposes the investment catalog over HTTP. Reads are
// public; mutations require the admin token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"carvest/internal/catalog/models"
	"carvest/internal/platform/middleware"
	dErrors "carvest/pkg/domain-errors"
	"carvest/pkg/platform/httputil"
)

// Service defines the catalog operations the handler needs.
type Service interface {
	CreatePlan(ctx context.Context, req *models.PlanRequest) (*models.InvestmentPlan, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, req *models.PlanRequest) (*models.InvestmentPlan, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	ListPlans(ctx context.Context) ([]*models.InvestmentPlan, error)

	CreateEntry(ctx context.Context, req *models.EntryRequest) (*models.Entry, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, req *models.EntryRequest) (*models.Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	ListEntries(ctx context.Context) ([]*models.Entry, error)
}

// Handler handles catalog endpoints.
type Handler struct {
	logger     *slog.Logger
	svc        Service
	adminToken string
}

// New creates a new catalog Handler.
func New(svc Service, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc, adminToken: adminToken}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	admin := middleware.RequireAdminToken(h.adminToken, h.logger)

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.handleListPlans)
		r.With(admin).Post("/", h.handleCreatePlan)
		r.With(admin).Put("/{id}", h.handleUpdatePlan)
		r.With(admin).Delete("/{id}", h.handleDeletePlan)
	})
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.handleListEntries)
		r.With(admin).Post("/", h.handleCreateEntry)
		r.With(admin).Put("/{id}", h.handleUpdateEntry)
		r.With(admin).Delete("/{id}", h.handleDeleteEntry)
	})
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to list plans")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var body models.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	plan, err := h.svc.CreatePlan(r.Context(), &body)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to create plan")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, plan)
}

func (h *Handler) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var body models.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	plan, err := h.svc.UpdatePlan(r.Context(), id, &body)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to update plan")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.DeletePlan(r.Context(), id); err != nil {
		h.writeError(r.Context(), w, err, "failed to delete plan")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"message": "Deleted"})
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntries(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to list entries")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	body, err := decodeEntry(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.svc.CreateEntry(r.Context(), body)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to create entry")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, err := decodeEntry(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.svc.UpdateEntry(r.Context(), id, body)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to update entry")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), id); err != nil {
		h.writeError(r.Context(), w, err, "failed to delete entry")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// decodeEntry accepts either the explicit {planId, payload} shape or a bare
// JSON object, which is stored wholesale as the payload.
func decodeEntry(r *http.Request) (*models.EntryRequest, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}

	var body models.EntryRequest
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Payload) > 0 {
		return &body, nil
	}
	return &models.EntryRequest{Payload: raw}, nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid id")
	}
	return id, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, logMsg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, logMsg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
