package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carvest/pkg/domain-errors"
)

func TestLiteralVerify(t *testing.T) {
	v := Literal{}

	assert.NoError(t, v.Verify("p@ss", "p@ss"))

	// Byte-for-byte: case and whitespace differences fail.
	for _, supplied := range []string{"P@ss", "p@ss ", " p@ss", ""} {
		err := v.Verify("p@ss", supplied)
		require.Error(t, err, "supplied %q", supplied)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}

func TestBcryptRoundTrip(t *testing.T) {
	hashed, err := Hash("p@ss")
	require.NoError(t, err)
	require.NotEqual(t, "p@ss", hashed)

	v := Bcrypt{}
	assert.NoError(t, v.Verify(hashed, "p@ss"))

	err = v.Verify(hashed, "P@ss")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := Hash("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
