package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating bearer credentials.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	RecordID    string
	SignupToken string
	Kind        string
	PrimaryID   string
}

// Context keys for storing authenticated caller information.
type contextKeyRecordID struct{}
type contextKeySignupToken struct{}
type contextKeyActorKind struct{}
type contextKeyPrimaryID struct{}

// GetRecordID retrieves the authenticated signup record ID from the context.
func GetRecordID(ctx context.Context) string {
	id, ok := ctx.Value(contextKeyRecordID{}).(string)
	if !ok {
		return ""
	}
	return id
}

// GetSignupToken retrieves the caller's opaque signup token from the context.
func GetSignupToken(ctx context.Context) string {
	token, ok := ctx.Value(contextKeySignupToken{}).(string)
	if !ok {
		return ""
	}
	return token
}

// GetActorKind retrieves the caller's actor kind tag from the context.
func GetActorKind(ctx context.Context) string {
	kind, ok := ctx.Value(contextKeyActorKind{}).(string)
	if !ok {
		return ""
	}
	return kind
}

// GetPrimaryID retrieves the caller's primary contact identifier from the
// context.
func GetPrimaryID(ctx context.Context) string {
	id, ok := ctx.Value(contextKeyPrimaryID{}).(string)
	if !ok {
		return ""
	}
	return id
}

// WithClaims injects validated claims into a context. Useful for handler
// tests that don't run the full middleware chain.
func WithClaims(ctx context.Context, claims *JWTClaims) context.Context {
	ctx = context.WithValue(ctx, contextKeyRecordID{}, claims.RecordID)
	ctx = context.WithValue(ctx, contextKeySignupToken{}, claims.SignupToken)
	ctx = context.WithValue(ctx, contextKeyActorKind{}, claims.Kind)
	ctx = context.WithValue(ctx, contextKeyPrimaryID{}, claims.PrimaryID)
	return ctx
}

// RequireAuth rejects requests without a valid bearer credential and stores
// the validated claims in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
