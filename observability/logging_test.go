package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultLogConfig()},
		{name: "debug console stderr", cfg: LogConfig{Level: "debug", Format: "console", Output: "stderr"}},
		{name: "warn level", cfg: LogConfig{Level: "warn", Format: "json", Output: "stdout"}},
		{name: "invalid level", cfg: LogConfig{Level: "loud", Format: "json", Output: "stdout"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)

			logger.Debug("debug message", String("k", "v"))
			logger.Info("info message", Int("n", 1))
			logger.Warn("warn message", Bool("b", true))
			logger.Error("error message", Any("v", []int{1, 2}))
		})
	}
}

func TestLogger_With(t *testing.T) {
	t.Parallel()

	base := NopLogger()
	derived := base.With(String("component", "key"))
	require.NotNil(t, derived)
	derived.Info("still works")
}

func TestLogger_WithContext(t *testing.T) {
	t.Parallel()

	logger := NopLogger()

	plain := logger.WithContext(context.Background())
	assert.Same(t, logger, plain)

	ctx := ContextWithRequestID(context.Background(), "req-7")
	enriched := logger.WithContext(ctx)
	assert.NotSame(t, logger, enriched)
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RequestIDFromContext(context.Background()))

	ctx := ContextWithRequestID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", RequestIDFromContext(ctx))
}

func TestGlobalLogger(t *testing.T) {
	custom := NopLogger()
	SetGlobalLogger(custom)
	defer SetGlobalLogger(nil)

	assert.Same(t, custom, GetGlobalLogger())
	assert.Same(t, custom, L())

	SetGlobalLogger(nil)
	assert.NotNil(t, GetGlobalLogger())
}

func TestNopLogger_Sync(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NopLogger().Sync())
}
