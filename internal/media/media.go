// Package media abstracts the blob host used for document uploads: store a
// base64 data URI under a path, get back a public URL.
package media

import (
	"context"
	"strings"

	dErrors "carvest/pkg/domain-errors"
)

// Uploader stores a data: URI payload and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, path, dataURI string) (string, error)
}

// IsDataURI reports whether the payload is an inline base64 document rather
// than an already-hosted URL.
func IsDataURI(payload string) bool {
	return strings.HasPrefix(payload, "data:")
}

func validatePayload(dataURI string) error {
	if !IsDataURI(dataURI) {
		return dErrors.New(dErrors.CodeValidation, "payload must be a data: URI")
	}
	return nil
}
