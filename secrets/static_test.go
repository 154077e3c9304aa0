package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSource(t *testing.T) {
	t.Parallel()

	t.Run("resolves known keys", func(t *testing.T) {
		t.Parallel()

		src := NewStaticSource(map[string]string{"api-secret": "s3cret"})
		defer src.Close()

		assert.Equal(t, "static", src.Name())

		value, err := src.Get(context.Background(), "api-secret")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", value)
	})

	t.Run("returns ErrNotFound for unknown keys", func(t *testing.T) {
		t.Parallel()

		src := NewStaticSource(map[string]string{})
		_, err := src.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects empty keys", func(t *testing.T) {
		t.Parallel()

		src := NewStaticSource(nil)
		_, err := src.Get(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("copies the backing map", func(t *testing.T) {
		t.Parallel()

		values := map[string]string{"k": "v1"}
		src := NewStaticSource(values)
		values["k"] = "v2"

		value, err := src.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "v1", value)
	})
}
