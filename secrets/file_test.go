package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileSource(t *testing.T) {
	t.Parallel()

	t.Run("requires a directory", func(t *testing.T) {
		t.Parallel()

		_, err := NewFileSource("", nil)
		assert.ErrorIs(t, err, ErrSourceNotConfigured)
	})

	t.Run("rejects a missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := NewFileSource(filepath.Join(t.TempDir(), "nope"), nil)
		assert.ErrorIs(t, err, ErrSourceNotConfigured)
	})

	t.Run("rejects a regular file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

		_, err := NewFileSource(path, nil)
		assert.ErrorIs(t, err, ErrSourceNotConfigured)
	})
}

func TestFileSource_Get(t *testing.T) {
	t.Parallel()

	t.Run("reads and trims the secret file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "client-secret"), []byte("  s3cret\n"), 0o600))

		src, err := NewFileSource(dir, nil)
		require.NoError(t, err)
		defer src.Close()

		assert.Equal(t, "file", src.Name())

		value, err := src.Get(context.Background(), "client-secret")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", value)
	})

	t.Run("reads nested keys", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "providers"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "providers", "openai"), []byte("nested"), 0o600))

		src, err := NewFileSource(dir, nil)
		require.NoError(t, err)

		value, err := src.Get(context.Background(), "providers/openai")
		require.NoError(t, err)
		assert.Equal(t, "nested", value)
	})

	t.Run("returns ErrNotFound for missing files", func(t *testing.T) {
		t.Parallel()

		src, err := NewFileSource(t.TempDir(), nil)
		require.NoError(t, err)

		_, err = src.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects path escapes", func(t *testing.T) {
		t.Parallel()

		src, err := NewFileSource(t.TempDir(), nil)
		require.NoError(t, err)

		_, err = src.Get(context.Background(), "../etc/passwd")
		assert.ErrorIs(t, err, ErrInvalidKey)

		_, err = src.Get(context.Background(), "/etc/passwd")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("rejects empty keys", func(t *testing.T) {
		t.Parallel()

		src, err := NewFileSource(t.TempDir(), nil)
		require.NoError(t, err)

		_, err = src.Get(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}
