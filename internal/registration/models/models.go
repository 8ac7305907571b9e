package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "carvest/pkg/domain-errors"
)

// ActorKind identifies which of the two parallel registration flows a record
// belongs to. Drivers and investors live in disjoint collections with
// independent uniqueness constraints.
type ActorKind string

const (
	KindDriver   ActorKind = "driver"
	KindInvestor ActorKind = "investor"
)

var validKinds = map[ActorKind]bool{
	KindDriver:   true,
	KindInvestor: true,
}

// ParseActorKind constructs an ActorKind from external input.
func ParseActorKind(s string) (ActorKind, error) {
	k := ActorKind(strings.ToLower(strings.TrimSpace(s)))
	if !validKinds[k] {
		return "", dErrors.New(dErrors.CodeValidation, "unknown actor kind")
	}
	return k, nil
}

func (k ActorKind) IsValid() bool { return validKinds[k] }

func (k ActorKind) String() string { return string(k) }

// TokenPrefix returns the opaque-token prefix for the kind.
func (k ActorKind) TokenPrefix() string {
	if k == KindInvestor {
		return "INV"
	}
	return "DRV"
}

// PrimaryField names the required unique contact field for the kind, as it
// appears on the wire.
func (k ActorKind) PrimaryField() string {
	if k == KindInvestor {
		return "phone"
	}
	return "mobile"
}

// SecondaryField names the optional unique field for the kind.
func (k ActorKind) SecondaryField() string {
	if k == KindInvestor {
		return "email"
	}
	return "username"
}

// Status is the provisioning state of a signup record. Transitions are owned
// by the administrative process, not by this service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// KYCStatus is the verification state of a signup record.
type KYCStatus string

const (
	KYCPending    KYCStatus = "pending"
	KYCVerified   KYCStatus = "verified"
	KYCRejected   KYCStatus = "rejected"
	KYCIncomplete KYCStatus = "incomplete"
)

// Scheme selects how the signup secret was supplied. An OTP here is just a
// caller-supplied string stored as the secret; this service neither generates
// nor expires it.
type Scheme string

const (
	SchemePassword Scheme = "password"
	SchemeOTP      Scheme = "otp"
)

// SignupRecord is a self-service registration awaiting administrative
// promotion. The service only ever creates these; status and KYC transitions
// happen elsewhere.
type SignupRecord struct {
	ID   uuid.UUID `json:"id"`
	Kind ActorKind `json:"kind"`
	// Token is the opaque per-kind identifier (e.g. DRV3F2A...). Assigned
	// exactly once at persist time; never regenerated once set.
	Token string `json:"token"`
	// Name is the investor display name; empty for drivers.
	Name string `json:"name,omitempty"`
	// PrimaryID is the required unique contact identifier (driver mobile /
	// investor phone).
	PrimaryID string `json:"primary_id"`
	// SecondaryID is the optional unique identifier (driver username /
	// investor email). Empty means absent.
	SecondaryID string `json:"secondary_id,omitempty"`
	// Secret is stored exactly as supplied.
	Secret     string    `json:"-"`
	Status     Status    `json:"status"`
	KYCStatus  KYCStatus `json:"kyc_status"`
	SignupDate time.Time `json:"signup_date"`
	Verified   bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSignupRecord builds a pending record. Token assignment is deferred to
// EnsureToken so a caller-supplied token survives unchanged.
func NewSignupRecord(kind ActorKind, name, primaryID, secondaryID, secret string, now time.Time) *SignupRecord {
	return &SignupRecord{
		ID:          uuid.New(),
		Kind:        kind,
		Name:        name,
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
		Secret:      secret,
		Status:      StatusPending,
		KYCStatus:   KYCPending,
		SignupDate:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EnsureToken assigns the opaque token if the record does not carry one yet.
// A token that is already set is never regenerated.
func (r *SignupRecord) EnsureToken() error {
	if r.Token != "" {
		return nil
	}
	token, err := NewSignupToken(r.Kind)
	if err != nil {
		return err
	}
	r.Token = token
	return nil
}

// NewSignupToken generates the kind-prefixed opaque token: 8 bytes from a
// cryptographically random source, hex-encoded and uppercased.
func NewSignupToken(kind ActorKind) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate signup token: %w", err)
	}
	return kind.TokenPrefix() + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// AccountRef identifies a provisioned account found during duplicate
// detection. Provisioned accounts carry no signup token or status, so only
// the identifiers come back.
type AccountRef struct {
	PrimaryID   string
	SecondaryID string
	Name        string
}

// AlreadyRegisteredError reports a duplicate identity found during signup.
// Token is empty when the match came from the provisioned store, which does
// not carry signup tokens.
type AlreadyRegisteredError struct {
	Token string
}

func (e *AlreadyRegisteredError) Error() string { return "already registered" }
