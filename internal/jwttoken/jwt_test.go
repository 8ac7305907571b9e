package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carvest/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var recordID = uuid.New()
var expiresIn = time.Hour

func Test_IssueCredential(t *testing.T) {
	token, err := jwtService.IssueCredential(recordID, "DRVA1B2C3D4E5F60718", "driver", "9999999999", "alice", "", expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, recordID.String(), claims.RecordID)
	assert.Equal(t, "DRVA1B2C3D4E5F60718", claims.SignupToken)
	assert.Equal(t, "driver", claims.Kind)
	assert.Equal(t, "9999999999", claims.PrimaryID)
	assert.Equal(t, "alice", claims.SecondaryID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid credential"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.IssueCredential(recordID, "INVA1B2C3D4E5F60718", "investor", "8888888888", "", "Ada", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "credential has expired"))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("other-signing-key", "test-issuer", "test-audience")
	token, err := other.IssueCredential(recordID, "DRVA1B2C3D4E5F60718", "driver", "9999999999", "", "", expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid credential"))
}

func Test_ExtractRecordID(t *testing.T) {
	token, err := jwtService.IssueCredential(recordID, "DRVA1B2C3D4E5F60718", "driver", "9999999999", "", "", expiresIn)
	require.NoError(t, err)

	got, err := jwtService.ExtractRecordID(token)
	require.NoError(t, err)
	assert.Equal(t, recordID, got)
}
