// Package secrets holds secret generation and verification helpers.
//
// Verification sits behind the Verifier interface because the upstream data
// this service inherits stores signup secrets verbatim. The default Literal
// verifier preserves that byte-for-byte comparison; Bcrypt is the hardened
// drop-in for deployments that re-provision their signup records.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "carvest/pkg/domain-errors"
)

// Generate creates a cryptographically secure random secret.
// Returns a base64-encoded string suitable for admin tokens and API keys.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verifier checks a supplied secret against its stored form.
type Verifier interface {
	Verify(stored, supplied string) error
}

// Literal compares secrets byte-for-byte, matching how the records were
// written: no hashing, no trimming, case-sensitive. "P@ss" does not match
// "p@ss" and "p@ss " does not match "p@ss".
type Literal struct{}

func (Literal) Verify(stored, supplied string) error {
	if stored != supplied {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return nil
}

// Bcrypt verifies against a bcrypt hash. Pair with Hash at write time.
type Bcrypt struct{}

func (Bcrypt) Verify(stored, supplied string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return fmt.Errorf("could not verify secret: %w", err)
	}
	return nil
}

// Hash creates a bcrypt hash of the provided secret for use with the Bcrypt
// verifier.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeValidation, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "secret is too long")
		}
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}
