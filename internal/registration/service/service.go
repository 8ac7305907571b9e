// Package service implements the registration gateway: duplicate detection
// across the pending and provisioned stores, record creation, and bearer
// credential issuance.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"carvest/internal/audit"
	"carvest/internal/platform/config"
	"carvest/internal/registration/metrics"
	"carvest/internal/registration/models"
	"carvest/internal/registration/store"
	dErrors "carvest/pkg/domain-errors"
	"carvest/pkg/platform/sentinel"
	"carvest/pkg/requestcontext"
	"carvest/pkg/secrets"
)

// defaultInvestorName fills the display name on investor OTP signups, which
// do not collect one.
const defaultInvestorName = "Investor"

type SignupStore interface {
	Create(ctx context.Context, rec *models.SignupRecord) error
	FindOne(ctx context.Context, kind models.ActorKind, f store.Filter) (*models.SignupRecord, error)
	List(ctx context.Context, kind models.ActorKind) ([]*models.SignupRecord, error)
}

// AccountDirectory is the provisioned-account collection. It is only ever
// consulted for duplicate detection; the gateway never writes to it.
type AccountDirectory interface {
	// FindOne matches the conjunction of set filter fields.
	FindOne(ctx context.Context, kind models.ActorKind, f store.Filter) (*models.AccountRef, error)
	// FindAny matches either identifier independently.
	FindAny(ctx context.Context, kind models.ActorKind, primaryID, secondaryID string) (*models.AccountRef, error)
}

// CredentialIssuer signs bearer credentials for authenticated records.
type CredentialIssuer interface {
	IssueCredential(recordID uuid.UUID, signupToken, kind, primaryID, secondaryID, name string, expiresIn time.Duration) (string, error)
}

type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Service orchestrates registration checks, signups, and logins.
type Service struct {
	signups  SignupStore
	accounts AccountDirectory
	issuer   CredentialIssuer
	verifier secrets.Verifier
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithVerifier overrides secret comparison. The default compares byte for
// byte because records store secrets exactly as supplied.
func WithVerifier(v secrets.Verifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

// New constructs a Service.
func New(signups SignupStore, accounts AccountDirectory, issuer CredentialIssuer, opts ...Option) *Service {
	s := &Service{
		signups:  signups,
		accounts: accounts,
		issuer:   issuer,
		verifier: secrets.Literal{},
		tracer:   otel.Tracer("carvest/registration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckRegistration reports whether an identity is already known in either
// store. Matches from the pending store carry the signup token and statuses;
// provisioned accounts carry identifiers only. No side effects.
func (s *Service) CheckRegistration(ctx context.Context, kind models.ActorKind, req *models.CheckRequest) (*models.CheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.CheckRegistration",
		trace.WithAttributes(attribute.String("kind", kind.String())))
	defer span.End()

	req.Normalize()
	if err := req.Validate(kind); err != nil {
		return nil, err
	}

	// When both identifiers are supplied the lookup requires BOTH to match
	// the same record, rather than checking each independently. Inherited
	// quirk; kept deliberately, see the matching test.
	filter := store.Filter{PrimaryID: req.PrimaryID, SecondaryID: req.SecondaryID}

	rec, err := s.signups.FindOne(ctx, kind, filter)
	switch {
	case err == nil:
		s.publishAudit(ctx, audit.Event{
			Action:    audit.ActionCheckPerformed,
			ActorKind: kind.String(),
			Token:     rec.Token,
			PrimaryID: rec.PrimaryID,
		})
		return &models.CheckResult{
			Registered:  true,
			Token:       rec.Token,
			Status:      rec.Status,
			KYCStatus:   rec.KYCStatus,
			PrimaryID:   rec.PrimaryID,
			SecondaryID: rec.SecondaryID,
			Name:        rec.Name,
		}, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query signups")
	}

	ref, err := s.accounts.FindOne(ctx, kind, filter)
	switch {
	case err == nil:
		return &models.CheckResult{
			Registered:  true,
			PrimaryID:   ref.PrimaryID,
			SecondaryID: ref.SecondaryID,
			Name:        ref.Name,
		}, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query accounts")
	}

	return &models.CheckResult{Registered: false}, nil
}

// Signup creates a pending registration after ordered duplicate checks, then
// issues a bearer credential. Each check short-circuits with a conflict
// carrying the existing token when a match is found; conflict paths insert
// nothing.
func (s *Service) Signup(ctx context.Context, kind models.ActorKind, req *models.SignupRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Signup",
		trace.WithAttributes(attribute.String("kind", kind.String())))
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveSignup(time.Now())
	}

	req.Normalize()
	if err := req.Validate(kind); err != nil {
		return nil, err
	}

	if req.Scheme == models.SchemePassword && req.SecondaryID != "" {
		rec, err := s.signups.FindOne(ctx, kind, store.Filter{SecondaryID: req.SecondaryID})
		if err == nil {
			return nil, s.conflict(ctx, kind, req.PrimaryID, rec.Token)
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			span.RecordError(err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query signups")
		}
	}

	rec, err := s.signups.FindOne(ctx, kind, store.Filter{PrimaryID: req.PrimaryID})
	if err == nil {
		return nil, s.conflict(ctx, kind, req.PrimaryID, rec.Token)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query signups")
	}

	if _, err := s.accounts.FindAny(ctx, kind, req.PrimaryID, req.SecondaryID); err == nil {
		// Provisioned accounts carry no signup token.
		return nil, s.conflict(ctx, kind, req.PrimaryID, "")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query accounts")
	}

	name := req.Name
	if kind == models.KindInvestor && name == "" {
		name = defaultInvestorName
	}

	record := models.NewSignupRecord(kind, name, req.PrimaryID, req.SecondaryID, req.Secret, requestcontext.Now(ctx))
	if err := record.EnsureToken(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate signup token")
	}

	if err := s.signups.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Lost a race with a concurrent signup. Surface the winner's
			// token when it is findable.
			if existing, findErr := s.signups.FindOne(ctx, kind, store.Filter{PrimaryID: req.PrimaryID}); findErr == nil {
				return nil, s.conflict(ctx, kind, req.PrimaryID, existing.Token)
			}
			return nil, s.conflict(ctx, kind, req.PrimaryID, "")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create signup")
	}

	credential, err := s.issue(record)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
	}

	if s.metrics != nil {
		s.metrics.IncrementSignupCompleted(kind.String())
	}
	s.publishAudit(ctx, audit.Event{
		Action:    audit.ActionSignupCompleted,
		ActorKind: kind.String(),
		RecordID:  record.ID.String(),
		Token:     record.Token,
		PrimaryID: record.PrimaryID,
	})
	s.logInfo(ctx, "signup completed",
		"kind", kind.String(),
		"record_id", record.ID.String(),
		"token", record.Token)

	return &models.AuthResult{Credential: credential, Record: record}, nil
}

// Login authenticates against an existing pending registration. Driver
// password logins identify by username; every other flow identifies by the
// primary identifier.
func (s *Service) Login(ctx context.Context, kind models.ActorKind, req *models.LoginRequest) (*models.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Login",
		trace.WithAttributes(attribute.String("kind", kind.String())))
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveLogin(time.Now())
	}

	req.Normalize()
	if err := req.Validate(kind); err != nil {
		return nil, err
	}

	filter := store.Filter{PrimaryID: req.Identifier}
	if kind == models.KindDriver && req.Scheme == models.SchemePassword {
		filter = store.Filter{SecondaryID: req.Identifier}
	}

	rec, err := s.signups.FindOne(ctx, kind, filter)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.loginFailure(ctx, kind, req.Identifier, "unknown identifier")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query signups")
	}

	if err := s.verifier.Verify(rec.Secret, req.Secret); err != nil {
		return nil, s.loginFailure(ctx, kind, req.Identifier, "secret mismatch")
	}

	credential, err := s.issue(rec)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
	}

	s.publishAudit(ctx, audit.Event{
		Action:    audit.ActionLoginSucceeded,
		ActorKind: kind.String(),
		RecordID:  rec.ID.String(),
		Token:     rec.Token,
		PrimaryID: rec.PrimaryID,
	})

	return &models.AuthResult{Credential: credential, Record: rec}, nil
}

// ListSignups returns all pending registrations of a kind, oldest first.
// Administrative surface; not exposed to end users.
func (s *Service) ListSignups(ctx context.Context, kind models.ActorKind) ([]*models.SignupRecord, error) {
	recs, err := s.signups.List(ctx, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list signups")
	}
	return recs, nil
}

// GetSignup loads the pending registration behind an authenticated
// credential by its primary identifier.
func (s *Service) GetSignup(ctx context.Context, kind models.ActorKind, primaryID string) (*models.SignupRecord, error) {
	rec, err := s.signups.FindOne(ctx, kind, store.Filter{PrimaryID: primaryID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load signup")
	}
	return rec, nil
}

func (s *Service) issue(rec *models.SignupRecord) (string, error) {
	return s.issuer.IssueCredential(
		rec.ID,
		rec.Token,
		rec.Kind.String(),
		rec.PrimaryID,
		rec.SecondaryID,
		rec.Name,
		config.CredentialTTL,
	)
}

// conflict wraps the duplicate-identity signal. The caller treats this as an
// idempotent "already signed up", so the existing token rides along.
func (s *Service) conflict(ctx context.Context, kind models.ActorKind, primaryID, token string) error {
	if s.metrics != nil {
		s.metrics.IncrementSignupConflict(kind.String())
	}
	s.publishAudit(ctx, audit.Event{
		Action:    audit.ActionSignupConflict,
		ActorKind: kind.String(),
		Token:     token,
		PrimaryID: primaryID,
	})
	return dErrors.Wrap(&models.AlreadyRegisteredError{Token: token}, dErrors.CodeConflict, "already registered")
}

func (s *Service) loginFailure(ctx context.Context, kind models.ActorKind, identifier, reason string) error {
	if s.metrics != nil {
		s.metrics.IncrementLoginFailure(kind.String())
	}
	s.publishAudit(ctx, audit.Event{
		Action:    audit.ActionLoginFailed,
		ActorKind: kind.String(),
		Reason:    reason,
	})
	s.logInfo(ctx, "login rejected", "kind", kind.String(), "identifier", identifier, "reason", reason)
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func (s *Service) publishAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	if err := s.auditor.Publish(ctx, event); err != nil {
		s.logInfo(ctx, "audit publish failed", "error", err)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, attributes...)
}
