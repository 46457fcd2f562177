package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	box := NewBox("test-secret")

	token, err := box.Encrypt("abs-bearer-token")
	require.NoError(t, err)
	assert.NotEqual(t, "abs-bearer-token", token)
	assert.Equal(t, "abs-bearer-token", box.Decrypt(token))
}

func TestEmptyPlaintext(t *testing.T) {
	box := NewBox("test-secret")
	token, err := box.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", token)
	assert.Equal(t, "", box.Decrypt(""))
}

func TestDecryptDegradesToEmpty(t *testing.T) {
	box := NewBox("test-secret")
	other := NewBox("rotated-secret")

	token, err := box.Encrypt("abs-bearer-token")
	require.NoError(t, err)

	// Wrong key, garbage input, and truncated payloads all yield "".
	assert.Equal(t, "", other.Decrypt(token))
	assert.Equal(t, "", box.Decrypt("not base64 at all!"))
	assert.Equal(t, "", box.Decrypt("c2hvcnQ="))
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	box := NewBox("test-secret")
	first, err := box.Encrypt("abs-bearer-token")
	require.NoError(t, err)
	second, err := box.Encrypt("abs-bearer-token")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
