package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretKey_EncryptDecrypt(t *testing.T) {
	t.Setenv(secretKeyEnv, "test-secret-key-for-unit-tests")

	sk, err := NewSecretKey(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"api_key", "sk-abc123def456xyz"},
		{"empty", ""},
		{"long_key", "sk-proj-very-long-api-key-that-might-be-used-by-some-providers-1234567890"},
		{"special_chars", "sk-+/=!@#$%^&*()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := sk.Encrypt(tt.plaintext)
			require.NoError(t, err)

			if tt.plaintext == "" {
				assert.Empty(t, encrypted)
				return
			}

			assert.Equal(t, encPrefix, encrypted[:4])
			assert.NotEqual(t, tt.plaintext, encrypted)

			decrypted, err := sk.Decrypt(encrypted)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestSecretKey_DecryptPlaintext(t *testing.T) {
	sk := NewSecretKeyFromPassphrase("test-key")

	result, err := sk.Decrypt("plain-text-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-text-value", result)
}

func TestSecretKey_WrongKeyFails(t *testing.T) {
	enc, err := NewSecretKeyFromPassphrase("one").Encrypt("sk-secret")
	require.NoError(t, err)

	_, err = NewSecretKeyFromPassphrase("two").Decrypt(enc)
	assert.Error(t, err)

	_, err = NewSecretKeyFromPassphrase("one").Decrypt(encPrefix + "!!!")
	assert.Error(t, err)
}

func TestSecretKey_PersistsGeneratedKey(t *testing.T) {
	t.Setenv(secretKeyEnv, "")
	dir := filepath.Join(t.TempDir(), "data")

	first, err := NewSecretKey(dir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	enc, err := first.Encrypt("sk-persisted")
	require.NoError(t, err)

	second, err := NewSecretKey(dir)
	require.NoError(t, err)
	got, err := second.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "sk-persisted", got)
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"ab", "****"},
		{"abcd", "****"},
		{"sk-abc123def", "****3def"},
		{"sk-proj-very-long-key-12345", "****2345"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MaskSecret(tt.input), tt.input)
	}
	assert.True(t, isMasked(MaskSecret("sk-abc123def")))
}
