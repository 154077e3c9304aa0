package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), nil, nil)
		assert.ErrorIs(t, err, ErrSourceNotConfigured)
	})

	t.Run("creates a static source", func(t *testing.T) {
		t.Parallel()

		src, err := New(context.Background(), &Config{
			Type:   "static",
			Values: map[string]string{"k": "v"},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "static", src.Name())
	})

	t.Run("creates an env source", func(t *testing.T) {
		t.Parallel()

		src, err := New(context.Background(), &Config{Type: "env"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "env", src.Name())
	})

	t.Run("creates a file source", func(t *testing.T) {
		t.Parallel()

		src, err := New(context.Background(), &Config{Type: "file", Dir: t.TempDir()}, nil)
		require.NoError(t, err)
		assert.Equal(t, "file", src.Name())
	})

	t.Run("propagates file source validation", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &Config{Type: "file"}, nil)
		assert.ErrorIs(t, err, ErrSourceNotConfigured)
	})

	t.Run("propagates vault source validation", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &Config{Type: "vault"}, nil)
		assert.ErrorIs(t, err, ErrSourceNotConfigured)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &Config{Type: "consul"}, nil)
		assert.ErrorIs(t, err, ErrInvalidSourceType)
	})
}
