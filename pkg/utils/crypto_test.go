package utils

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey()

	for _, plaintext := range []string{
		"short",
		"",
		"a much longer secret token value with spaces and unicode: héllo wörld",
	} {
		encrypted, err := Encrypt([]byte(plaintext), key)
		require.NoError(t, err)

		decrypted, err := Decrypt(encrypted, key)
		require.NoError(t, err)
		assert.Equal(t, plaintext, string(decrypted))
	}
}

func TestEncryptLayout(t *testing.T) {
	key := testKey()

	plaintext := []byte("layout check")
	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)

	// nonce (12) || tag (16) || ciphertext
	assert.Equal(t, 12+16+len(plaintext), len(raw))
}

func TestEncryptUniqueNonce(t *testing.T) {
	key := testKey()

	a, err := Encrypt([]byte("same input"), key)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same input"), key)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key := testKey()

	encrypted, err := Encrypt([]byte("do not touch"), key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = Decrypt(base64.StdEncoding.EncodeToString(raw), key)
	assert.Error(t, err)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), testKey())
	require.NoError(t, err)

	wrongKey := bytes.Repeat([]byte{0x13}, 32)
	_, err = Decrypt(encrypted, wrongKey)
	assert.Error(t, err)
}

func TestDecryptRejectsShortInput(t *testing.T) {
	_, err := Decrypt(base64.StdEncoding.EncodeToString([]byte("tiny")), testKey())
	assert.Error(t, err)

	_, err = Decrypt("not base64 at all!!!", testKey())
	assert.Error(t, err)
}
