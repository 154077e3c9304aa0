package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/relev-ai/relevai-go/observability"
)

// SourceType identifies a secrets backend.
type SourceType string

const (
	// SourceTypeStatic serves secrets from an in-memory map.
	SourceTypeStatic SourceType = "static"
	// SourceTypeEnv serves secrets from environment variables.
	SourceTypeEnv SourceType = "env"
	// SourceTypeFile serves secrets from files under a base directory.
	SourceTypeFile SourceType = "file"
	// SourceTypeVault serves secrets from HashiCorp Vault KV v2.
	SourceTypeVault SourceType = "vault"
)

// Common errors for secret sources.
var (
	// ErrNotFound is returned when a secret is not found.
	ErrNotFound = errors.New("secret not found")
	// ErrInvalidKey is returned when the secret key is invalid.
	ErrInvalidKey = errors.New("invalid secret key")
	// ErrSourceNotConfigured is returned when the source is not properly
	// configured.
	ErrSourceNotConfigured = errors.New("secret source not configured")
	// ErrInvalidSourceType is returned for an unknown source type.
	ErrInvalidSourceType = errors.New("invalid secret source type")
)

// Source resolves string secrets by key. Key format depends on the
// backend:
//   - static: map key
//   - env: variable name without the prefix, case-insensitive
//   - file: path relative to the base directory
//   - vault: "path" or "path:field" under the configured KV mount
type Source interface {
	// Name returns the source type for logs and errors.
	Name() string

	// Get resolves one secret.
	Get(ctx context.Context, key string) (string, error)

	// Close cleans up source resources.
	Close() error
}

// Config selects and configures a secrets backend.
type Config struct {
	// Type is one of static, env, file, vault.
	Type string `yaml:"type" json:"type"`

	// Values backs the static source.
	Values map[string]string `yaml:"values,omitempty" json:"values,omitempty"`

	// Prefix is the environment variable prefix for the env source.
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	// Dir is the base directory for the file source.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// Vault configures the vault source.
	Vault *VaultConfig `yaml:"vault,omitempty" json:"vault,omitempty"`
}

// New creates a Source from cfg.
func New(ctx context.Context, cfg *Config, logger observability.Logger) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrSourceNotConfigured)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	switch SourceType(cfg.Type) {
	case SourceTypeStatic:
		return NewStaticSource(cfg.Values), nil
	case SourceTypeEnv:
		return NewEnvSource(cfg.Prefix, logger), nil
	case SourceTypeFile:
		return NewFileSource(cfg.Dir, logger)
	case SourceTypeVault:
		return NewVaultSource(ctx, cfg.Vault, logger)
	default:
		return nil, fmt.Errorf("%w: %q, must be one of: static, env, file, vault",
			ErrInvalidSourceType, cfg.Type)
	}
}
