package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSource(t *testing.T) {
	t.Run("resolves a prefixed variable", func(t *testing.T) {
		t.Setenv("RELEVAI_SECRET_API_KEY", "from-env")

		src := NewEnvSource("", nil)
		defer src.Close()

		assert.Equal(t, "env", src.Name())

		value, err := src.Get(context.Background(), "api-key")
		require.NoError(t, err)
		assert.Equal(t, "from-env", value)
	})

	t.Run("uses a custom prefix", func(t *testing.T) {
		t.Setenv("CUSTOM_DB_PASSWORD", "hunter2")

		src := NewEnvSource("CUSTOM_", nil)

		value, err := src.Get(context.Background(), "db.password")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", value)
	})

	t.Run("normalizes separators", func(t *testing.T) {
		t.Setenv("RELEVAI_SECRET_PROVIDERS_OPENAI_SECRET", "norm")

		src := NewEnvSource("", nil)

		value, err := src.Get(context.Background(), "providers/openai.secret")
		require.NoError(t, err)
		assert.Equal(t, "norm", value)
	})

	t.Run("returns ErrNotFound for unset variables", func(t *testing.T) {
		src := NewEnvSource("", nil)
		_, err := src.Get(context.Background(), "definitely-not-set")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects empty keys", func(t *testing.T) {
		src := NewEnvSource("", nil)
		_, err := src.Get(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}
