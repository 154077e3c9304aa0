package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/relev-ai/relevai-go/observability"
)

// DefaultEnvPrefix is the default prefix for environment variable secrets.
const DefaultEnvPrefix = "RELEVAI_SECRET_"

// EnvSource serves secrets from environment variables with a configurable
// prefix. The key "openai-secret" maps to "{PREFIX}OPENAI_SECRET".
type EnvSource struct {
	prefix string
	logger observability.Logger
}

// NewEnvSource creates an environment variable source. An empty prefix
// means DefaultEnvPrefix.
func NewEnvSource(prefix string, logger observability.Logger) *EnvSource {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &EnvSource{prefix: prefix, logger: logger}
}

// Name returns the source type.
func (s *EnvSource) Name() string {
	return string(SourceTypeEnv)
}

// normalizeEnvName converts a secret key to an environment variable name:
// uppercase, with dashes, dots, and slashes replaced by underscores, and
// the configured prefix prepended.
func (s *EnvSource) normalizeEnvName(key string) string {
	name := strings.ToUpper(key)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "/", "_")
	return s.prefix + name
}

// Get resolves a secret from the environment.
func (s *EnvSource) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	envName := s.normalizeEnvName(key)

	value, exists := os.LookupEnv(envName)
	if !exists {
		s.logger.Debug("environment variable not set",
			observability.String("env_var", envName),
		)
		return "", fmt.Errorf("%w: environment variable %s not set", ErrNotFound, envName)
	}

	return value, nil
}

// Close cleans up source resources.
func (s *EnvSource) Close() error {
	return nil
}

// Ensure EnvSource implements Source.
var _ Source = (*EnvSource)(nil)
