package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher("test-encryption-key-12345678901234")
	require.NoError(t, err)
	return c
}

func TestNewCipher_EmptyKey(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	testCases := []struct {
		name  string
		value string
	}{
		{"Simple text", "Hello, world!"},
		{"Empty string", ""},
		{"Special characters", "!@#$%^&*()_+{}|:<>?~"},
		{"Long text", "This is a longer text to encrypt and decrypt to ensure that our encryption works correctly with various lengths of input data."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encrypted, err := c.Encrypt(tc.value)
			require.NoError(t, err)
			if tc.value != "" {
				assert.NotEqual(t, tc.value, encrypted)
			}

			decrypted, err := c.Decrypt(encrypted)
			require.NoError(t, err)
			assert.Equal(t, tc.value, decrypted)
		})
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptErrors(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.Decrypt("not-base64!")
	assert.Error(t, err)

	_, err = c.Decrypt("AAAA")
	assert.Error(t, err, "ciphertext shorter than nonce")

	enc, err := c.Encrypt("secret")
	require.NoError(t, err)
	other, err := NewCipher("a-different-key")
	require.NoError(t, err)
	_, err = other.Decrypt(enc)
	assert.Error(t, err, "wrong key must fail authentication")
}

func TestFieldHelpers(t *testing.T) {
	c := newTestCipher(t)

	stored, err := c.EncryptField("alice@example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "enc:"))
	assert.NotContains(t, stored, "alice@example.com")

	plain, err := c.DecryptField(stored)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", plain)

	empty, err := c.EncryptField("")
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	legacy, err := c.DecryptField("555-0100")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", legacy)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
	assert.False(t, CheckPassword("not-a-hash", "hunter2"))

	_, err = HashPassword("", bcrypt.MinCost)
	assert.Error(t, err)
}
