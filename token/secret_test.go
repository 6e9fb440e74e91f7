package token

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSecret(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads contents verbatim", func(t *testing.T) {
		path := filepath.Join(dir, "verbatim.conf")
		require.NoError(t, os.WriteFile(path, []byte("secret-value\n"), 0o600))

		secret, info, err := LoadSecret(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("secret-value\n"), secret)
		assert.Equal(t, 13, info.Length)
		assert.False(t, info.Exposed)
	})

	t.Run("flags world readable file", func(t *testing.T) {
		path := filepath.Join(dir, "exposed.conf")
		require.NoError(t, os.WriteFile(path, []byte("secret"), 0o600))
		require.NoError(t, os.Chmod(path, 0o644))

		_, info, err := LoadSecret(path)
		require.NoError(t, err)
		assert.True(t, info.Exposed)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadSecret(filepath.Join(dir, "nope.conf"))
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.conf")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, _, err := LoadSecret(path)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})
}

func TestGenerateSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared-secret.conf")

	require.NoError(t, GenerateSecret(path, 64))

	secret, info, err := LoadSecret(path)
	require.NoError(t, err)
	assert.Len(t, secret, 64)
	assert.False(t, info.Exposed)

	t.Run("short lengths are raised to the recommended minimum", func(t *testing.T) {
		short := filepath.Join(dir, "short.conf")
		require.NoError(t, GenerateSecret(short, 8))

		secret, _, err := LoadSecret(short)
		require.NoError(t, err)
		assert.Len(t, secret, RecommendedSecretLength)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		assert.Error(t, GenerateSecret(path, 64))
	})
}
