package models

import (
	"strings"

	dErrors "carvest/pkg/domain-errors"
)

const maxIdentifierLen = 255

// CheckRequest asks whether an identity is already known.
type CheckRequest struct {
	PrimaryID   string
	SecondaryID string
}

func (r *CheckRequest) Normalize() {
	if r == nil {
		return
	}
	r.PrimaryID = strings.TrimSpace(r.PrimaryID)
	r.SecondaryID = strings.TrimSpace(r.SecondaryID)
}

// Follows validation order: Size -> Required.
func (r *CheckRequest) Validate(kind ActorKind) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.PrimaryID) > maxIdentifierLen || len(r.SecondaryID) > maxIdentifierLen {
		return dErrors.New(dErrors.CodeValidation, "identifier must be 255 characters or less")
	}
	if r.PrimaryID == "" && r.SecondaryID == "" {
		return dErrors.New(dErrors.CodeValidation, kind.PrimaryField()+" or "+kind.SecondaryField()+" is required")
	}
	return nil
}

// SignupRequest creates a pending registration.
type SignupRequest struct {
	// Name is required for investor password signups; OTP signups default it.
	Name        string
	PrimaryID   string
	SecondaryID string
	// Secret is the password or the caller-supplied OTP value, depending on
	// Scheme.
	Secret string
	Scheme Scheme
}

func (r *SignupRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.PrimaryID = strings.TrimSpace(r.PrimaryID)
	r.SecondaryID = strings.TrimSpace(r.SecondaryID)
	// Secret is deliberately not trimmed: it is stored and compared verbatim.
}

// Follows validation order: Size -> Required. The secondary identifier is
// required on the password scheme for drivers and optional everywhere else;
// investor password signups require a name instead.
func (r *SignupRequest) Validate(kind ActorKind) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.PrimaryID) > maxIdentifierLen || len(r.SecondaryID) > maxIdentifierLen || len(r.Name) > maxIdentifierLen {
		return dErrors.New(dErrors.CodeValidation, "identifier must be 255 characters or less")
	}
	if r.Scheme != SchemePassword && r.Scheme != SchemeOTP {
		return dErrors.New(dErrors.CodeValidation, "unknown credential scheme")
	}

	secretField := "password"
	if r.Scheme == SchemeOTP {
		secretField = "otp"
	}
	if r.PrimaryID == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, kind.PrimaryField()+" and "+secretField+" are required")
	}
	if r.Scheme == SchemePassword {
		if kind == KindDriver && r.SecondaryID == "" {
			return dErrors.New(dErrors.CodeValidation, "username, mobile and password are required")
		}
		if kind == KindInvestor && r.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "name, phone and password are required")
		}
	}
	return nil
}

// LoginRequest authenticates against an existing pending registration.
type LoginRequest struct {
	// Identifier is the username for driver password logins and the primary
	// identifier (mobile/phone) for every other flow.
	Identifier string
	Secret     string
	Scheme     Scheme
}

func (r *LoginRequest) Normalize() {
	if r == nil {
		return
	}
	r.Identifier = strings.TrimSpace(r.Identifier)
}

func (r *LoginRequest) Validate(kind ActorKind) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Identifier) > maxIdentifierLen {
		return dErrors.New(dErrors.CodeValidation, "identifier must be 255 characters or less")
	}
	if r.Scheme != SchemePassword && r.Scheme != SchemeOTP {
		return dErrors.New(dErrors.CodeValidation, "unknown credential scheme")
	}
	secretField := "password"
	if r.Scheme == SchemeOTP {
		secretField = "otp"
	}
	if r.Identifier == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "identifier and "+secretField+" are required")
	}
	return nil
}

// CheckResult is the outcome of a registration check. Token, Status, and
// KYCStatus are only populated for matches from the pending store; the
// provisioned store does not carry them.
type CheckResult struct {
	Registered  bool
	Token       string
	Status      Status
	KYCStatus   KYCStatus
	PrimaryID   string
	SecondaryID string
	Name        string
}

// AuthResult pairs an issued bearer credential with the record it asserts.
type AuthResult struct {
	Credential string
	Record     *SignupRecord
}
