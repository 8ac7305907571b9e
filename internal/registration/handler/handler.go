// Package handler exposes the registration gateway over HTTP. Drivers and
// investors share one implementation; only the wire field names differ
// (mobile/username/driverToken vs phone/email/investorToken).
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carvest/internal/platform/middleware"
	"carvest/internal/registration/models"
	dErrors "carvest/pkg/domain-errors"
	"carvest/pkg/platform/httputil"
)

// Service defines the registration operations the handler needs.
type Service interface {
	CheckRegistration(ctx context.Context, kind models.ActorKind, req *models.CheckRequest) (*models.CheckResult, error)
	Signup(ctx context.Context, kind models.ActorKind, req *models.SignupRequest) (*models.AuthResult, error)
	Login(ctx context.Context, kind models.ActorKind, req *models.LoginRequest) (*models.AuthResult, error)
	ListSignups(ctx context.Context, kind models.ActorKind) ([]*models.SignupRecord, error)
	GetSignup(ctx context.Context, kind models.ActorKind, primaryID string) (*models.SignupRecord, error)
}

// Handler handles registration and authentication endpoints.
type Handler struct {
	logger     *slog.Logger
	svc        Service
	validator  middleware.JWTValidator
	adminToken string
}

// New creates a new registration Handler.
func New(svc Service, validator middleware.JWTValidator, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		svc:        svc,
		validator:  validator,
		adminToken: adminToken,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/drivers", func(r chi.Router) {
		h.registerKind(r, models.KindDriver)
	})
	r.Route("/investors", func(r chi.Router) {
		h.registerKind(r, models.KindInvestor)
		r.With(middleware.RequireAdminToken(h.adminToken, h.logger)).
			Get("/signup/credentials", h.handleListCredentials)
	})
}

func (h *Handler) registerKind(r chi.Router, kind models.ActorKind) {
	r.Post("/check-registration", h.handleCheck(kind))
	r.Post("/signup", h.handleSignup(kind, models.SchemePassword))
	r.Post("/login", h.handleLogin(kind, models.SchemePassword))
	r.Post("/signup-otp", h.handleSignup(kind, models.SchemeOTP))
	r.Post("/login-otp", h.handleLogin(kind, models.SchemeOTP))
	r.With(middleware.RequireAuth(h.validator, h.logger)).Get("/me", h.handleMe(kind))
}

// payload carries all wire fields of both kinds; the handler picks the ones
// that apply.
type payload struct {
	Mobile       string `json:"mobile"`
	Username     string `json:"username"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	InvestorName string `json:"investorName"`
	Password     string `json:"password"`
	OTP          string `json:"otp"`
}

func (p *payload) primaryID(kind models.ActorKind) string {
	if kind == models.KindInvestor {
		return p.Phone
	}
	return p.Mobile
}

func (p *payload) secondaryID(kind models.ActorKind) string {
	if kind == models.KindInvestor {
		return p.Email
	}
	return p.Username
}

func (p *payload) secret(scheme models.Scheme) string {
	if scheme == models.SchemeOTP {
		return p.OTP
	}
	return p.Password
}

func (h *Handler) handleCheck(kind models.ActorKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		res, err := h.svc.CheckRegistration(ctx, kind, &models.CheckRequest{
			PrimaryID:   body.primaryID(kind),
			SecondaryID: body.secondaryID(kind),
		})
		if err != nil {
			h.writeFailure(ctx, w, kind, err, "registration check failed")
			return
		}

		httputil.WriteJSON(w, http.StatusOK, checkResponse(kind, res))
	}
}

func (h *Handler) handleSignup(kind models.ActorKind, scheme models.Scheme) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		res, err := h.svc.Signup(ctx, kind, &models.SignupRequest{
			Name:        body.InvestorName,
			PrimaryID:   body.primaryID(kind),
			SecondaryID: body.secondaryID(kind),
			Secret:      body.secret(scheme),
			Scheme:      scheme,
		})
		if err != nil {
			h.writeFailure(ctx, w, kind, err, "signup failed")
			return
		}

		// Investor signups answer 201, driver signups 200.
		status := http.StatusOK
		if kind == models.KindInvestor {
			status = http.StatusCreated
		}
		httputil.WriteJSON(w, status, map[string]any{
			"message":     "Signup successful. " + tokenNoun(kind) + " generated.",
			"token":       res.Credential,
			kind.String(): recordView(kind, res.Record),
		})
	}
}

func (h *Handler) handleLogin(kind models.ActorKind, scheme models.Scheme) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body payload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		// Driver password logins identify by username; every other flow uses
		// the primary identifier.
		identifier := body.primaryID(kind)
		if kind == models.KindDriver && scheme == models.SchemePassword {
			identifier = body.Username
		}

		res, err := h.svc.Login(ctx, kind, &models.LoginRequest{
			Identifier: identifier,
			Secret:     body.secret(scheme),
			Scheme:     scheme,
		})
		if err != nil {
			h.writeFailure(ctx, w, kind, err, "login failed")
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"message":     "Login successful.",
			"token":       res.Credential,
			kind.String(): recordView(kind, res.Record),
		})
	}
}

func (h *Handler) handleMe(kind models.ActorKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if middleware.GetActorKind(ctx) != kind.String() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "credential does not match this resource"))
			return
		}

		rec, err := h.svc.GetSignup(ctx, kind, middleware.GetPrimaryID(ctx))
		if err != nil {
			h.writeFailure(ctx, w, kind, err, "profile lookup failed")
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			kind.String(): recordView(kind, rec),
		})
	}
}

// handleListCredentials lists pending investor signups for the admin panel,
// including the stored secret; access is gated by the admin token.
func (h *Handler) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recs, err := h.svc.ListSignups(ctx, models.KindInvestor)
	if err != nil {
		h.writeFailure(ctx, w, models.KindInvestor, err, "failed to list signup credentials")
		return
	}

	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, map[string]any{
			"investorToken": rec.Token,
			"investorName":  rec.Name,
			"email":         rec.SecondaryID,
			"phone":         rec.PrimaryID,
			"password":      rec.Secret,
			"status":        rec.Status,
			"kycStatus":     rec.KYCStatus,
			"signupDate":    rec.SignupDate,
			"isVerified":    rec.Verified,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// writeFailure renders an operation error. Conflicts keep the legacy wire
// shape: HTTP 400 with alreadyRegistered and the existing token so callers
// can resume a prior signup.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, kind models.ActorKind, err error, logMsg string) {
	var conflict *models.AlreadyRegisteredError
	if dErrors.HasCode(err, dErrors.CodeConflict) && errors.As(err, &conflict) {
		body := map[string]any{
			"message":           "Already registered.",
			"alreadyRegistered": true,
		}
		if conflict.Token != "" {
			body[tokenField(kind)] = conflict.Token
		}
		httputil.WriteJSON(w, http.StatusBadRequest, body)
		return
	}

	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, logMsg,
			"request_id", middleware.GetRequestID(ctx),
			"kind", kind.String(),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func tokenField(kind models.ActorKind) string {
	if kind == models.KindInvestor {
		return "investorToken"
	}
	return "driverToken"
}

func tokenNoun(kind models.ActorKind) string {
	if kind == models.KindInvestor {
		return "Investor token"
	}
	return "Driver token"
}

func checkResponse(kind models.ActorKind, res *models.CheckResult) map[string]any {
	if !res.Registered {
		return map[string]any{
			"registered": false,
			"message":    "Not registered. Can proceed with signup.",
		}
	}

	body := map[string]any{
		"registered":          true,
		kind.PrimaryField():   res.PrimaryID,
		kind.SecondaryField(): res.SecondaryID,
	}
	if res.Token != "" {
		body["message"] = "Already registered."
		body[tokenField(kind)] = res.Token
		body["status"] = res.Status
		body["kycStatus"] = res.KYCStatus
	} else {
		body["message"] = "Already exists in the system."
	}
	return body
}

func recordView(kind models.ActorKind, rec *models.SignupRecord) map[string]any {
	view := map[string]any{
		"id":                  rec.ID,
		tokenField(kind):      rec.Token,
		kind.PrimaryField():   rec.PrimaryID,
		kind.SecondaryField(): rec.SecondaryID,
		"status":              rec.Status,
		"kycStatus":           rec.KYCStatus,
	}
	if kind == models.KindInvestor {
		view["investorName"] = rec.Name
	}
	return view
}
