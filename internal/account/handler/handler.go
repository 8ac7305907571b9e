// Package handler exposes admin CRUD over provisioned accounts. Every route
// requires the admin token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"carvest/internal/account/models"
	"carvest/internal/platform/middleware"
	regmodels "carvest/internal/registration/models"
	dErrors "carvest/pkg/domain-errors"
	"carvest/pkg/platform/httputil"
)

// Service defines the account operations the handler needs.
type Service interface {
	Create(ctx context.Context, kind regmodels.ActorKind, req *models.CreateAccountRequest) (*models.Account, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateAccountRequest) (*models.Account, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
	List(ctx context.Context, kind regmodels.ActorKind) ([]*models.Account, error)
}

// Handler handles admin account endpoints.
type Handler struct {
	logger     *slog.Logger
	svc        Service
	adminToken string
}

// New creates a new account Handler.
func New(svc Service, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc, adminToken: adminToken}
}

// Register registers the admin account routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		for _, kind := range []regmodels.ActorKind{regmodels.KindDriver, regmodels.KindInvestor} {
			kind := kind
			r.Route("/"+kind.String()+"s", func(r chi.Router) {
				r.Get("/", h.handleList(kind))
				r.Post("/", h.handleCreate(kind))
				r.Get("/{id}", h.handleGet)
				r.Put("/{id}", h.handleUpdate)
				r.Delete("/{id}", h.handleDelete)
			})
		}
	})
}

// accountPayload carries the admin wire shape for both kinds. Document
// fields may hold base64 data: URIs or hosted URLs.
type accountPayload struct {
	Name         string `json:"name"`
	InvestorName string `json:"investorName"`
	Mobile       string `json:"mobile"`
	Phone        string `json:"phone"`
	Username     string `json:"username"`
	Email        string `json:"email"`

	ProfilePhoto       string `json:"profilePhoto"`
	AadharDocument     string `json:"aadharDocument"`
	AadharDocumentBack string `json:"aadharDocumentBack"`
	PanDocument        string `json:"panDocument"`
	BankDocument       string `json:"bankDocument"`
}

func (p *accountPayload) name() string {
	if p.InvestorName != "" {
		return p.InvestorName
	}
	return p.Name
}

func (p *accountPayload) primaryID(kind regmodels.ActorKind) string {
	if kind == regmodels.KindInvestor {
		return p.Phone
	}
	return p.Mobile
}

func (p *accountPayload) secondaryID(kind regmodels.ActorKind) string {
	if kind == regmodels.KindInvestor {
		return p.Email
	}
	return p.Username
}

func (p *accountPayload) documents() map[string]string {
	return map[string]string{
		"profilePhoto":       p.ProfilePhoto,
		"aadharDocument":     p.AadharDocument,
		"aadharDocumentBack": p.AadharDocumentBack,
		"panDocument":        p.PanDocument,
		"bankDocument":       p.BankDocument,
	}
}

func (h *Handler) handleList(kind regmodels.ActorKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accs, err := h.svc.List(r.Context(), kind)
		if err != nil {
			h.writeError(r.Context(), w, err, "failed to list accounts")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, accs)
	}
}

func (h *Handler) handleCreate(kind regmodels.ActorKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body accountPayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		acc, err := h.svc.Create(r.Context(), kind, &models.CreateAccountRequest{
			Name:        body.name(),
			PrimaryID:   body.primaryID(kind),
			SecondaryID: body.secondaryID(kind),
			Documents:   body.documents(),
		})
		if err != nil {
			h.writeError(r.Context(), w, err, "failed to create account")
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, acc)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	acc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to load account")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var body accountPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	req := &models.UpdateAccountRequest{Documents: body.documents()}
	if name := body.name(); name != "" {
		req.Name = &name
	}
	if primary := firstNonEmpty(body.Mobile, body.Phone); primary != "" {
		req.PrimaryID = &primary
	}
	if secondary := firstNonEmpty(body.Username, body.Email); secondary != "" {
		req.SecondaryID = &secondary
	}

	acc, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to update account")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	acc, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to delete account")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Account deleted successfully.",
		"account": acc,
	})
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid account id")
	}
	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
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
