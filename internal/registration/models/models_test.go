package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carvest/pkg/domain-errors"
)

var tokenPattern = regexp.MustCompile(`^(DRV|INV)[0-9A-F]{16}$`)

func TestNewSignupToken(t *testing.T) {
	for _, kind := range []ActorKind{KindDriver, KindInvestor} {
		token, err := NewSignupToken(kind)
		require.NoError(t, err)
		assert.Regexp(t, tokenPattern, token, "kind %s", kind)
	}

	a, err := NewSignupToken(KindDriver)
	require.NoError(t, err)
	b, err := NewSignupToken(KindDriver)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEnsureTokenAssignsOnce(t *testing.T) {
	rec := NewSignupRecord(KindDriver, "", "9999999999", "alice", "p@ss", time.Now())
	require.Empty(t, rec.Token)

	require.NoError(t, rec.EnsureToken())
	first := rec.Token
	assert.Regexp(t, tokenPattern, first)

	// A second call must not regenerate.
	require.NoError(t, rec.EnsureToken())
	assert.Equal(t, first, rec.Token)
}

func TestParseActorKind(t *testing.T) {
	k, err := ParseActorKind(" Driver ")
	require.NoError(t, err)
	assert.Equal(t, KindDriver, k)

	_, err = ParseActorKind("rider")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCheckRequestValidate(t *testing.T) {
	t.Run("both identifiers absent rejected", func(t *testing.T) {
		req := &CheckRequest{}
		err := req.Validate(KindDriver)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "mobile or username")
	})

	t.Run("secondary alone passes", func(t *testing.T) {
		req := &CheckRequest{SecondaryID: "alice"}
		assert.NoError(t, req.Validate(KindDriver))
	})
}

func TestSignupRequestValidate(t *testing.T) {
	t.Run("driver password requires username", func(t *testing.T) {
		req := &SignupRequest{PrimaryID: "9999999999", Secret: "p@ss", Scheme: SchemePassword}
		err := req.Validate(KindDriver)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("driver otp allows missing username", func(t *testing.T) {
		req := &SignupRequest{PrimaryID: "9999999999", Secret: "123456", Scheme: SchemeOTP}
		assert.NoError(t, req.Validate(KindDriver))
	})

	t.Run("investor password requires name", func(t *testing.T) {
		req := &SignupRequest{PrimaryID: "8888888888", Secret: "p@ss", Scheme: SchemePassword}
		err := req.Validate(KindInvestor)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("missing secret rejected", func(t *testing.T) {
		req := &SignupRequest{PrimaryID: "9999999999", SecondaryID: "alice", Scheme: SchemePassword}
		err := req.Validate(KindDriver)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestSignupRequestNormalizeKeepsSecret(t *testing.T) {
	req := &SignupRequest{PrimaryID: " 9999999999 ", Secret: " p@ss ", Scheme: SchemePassword}
	req.Normalize()
	assert.Equal(t, "9999999999", req.PrimaryID)
	// Secrets are stored and compared verbatim, whitespace included.
	assert.Equal(t, " p@ss ", req.Secret)
}
