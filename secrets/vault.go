package secrets

import (
	"context"
	"fmt"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/relev-ai/relevai-go/observability"
)

// Vault source defaults.
const (
	DefaultVaultMount   = "secret"
	DefaultVaultField   = "value"
	DefaultVaultTimeout = 30 * time.Second
)

// VaultConfig configures the Vault secrets source.
type VaultConfig struct {
	// Address is the Vault server address.
	Address string `yaml:"address" json:"address"`

	// Token is the Vault token used for authentication.
	Token string `yaml:"token" json:"token"`

	// Namespace is the Vault namespace (Enterprise only).
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// Mount is the KV v2 secrets engine mount point. Empty means "secret".
	Mount string `yaml:"mount,omitempty" json:"mount,omitempty"`

	// Timeout is the request timeout. Zero means 30s.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// VaultSource serves secrets from HashiCorp Vault's KV v2 engine. Keys
// take the form "path" or "path:field"; without an explicit field the
// "value" field of the secret is returned.
type VaultSource struct {
	api    *vaultapi.Client
	mount  string
	logger observability.Logger
}

// NewVaultSource creates a Vault source and verifies the configuration.
func NewVaultSource(_ context.Context, cfg *VaultConfig, logger observability.Logger) (*VaultSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: vault config is required", ErrSourceNotConfigured)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: vault address is required", ErrSourceNotConfigured)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: vault token is required", ErrSourceNotConfigured)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = cfg.Address
	apiConfig.Timeout = cfg.Timeout
	if apiConfig.Timeout == 0 {
		apiConfig.Timeout = DefaultVaultTimeout
	}

	api, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}

	api.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		api.SetNamespace(cfg.Namespace)
	}

	mount := cfg.Mount
	if mount == "" {
		mount = DefaultVaultMount
	}

	return &VaultSource{
		api:    api,
		mount:  mount,
		logger: logger.With(observability.String("source", "vault")),
	}, nil
}

// Name returns the source type.
func (s *VaultSource) Name() string {
	return string(SourceTypeVault)
}

// Get reads a secret from the KV v2 engine.
func (s *VaultSource) Get(ctx context.Context, key string) (string, error) {
	path, field, err := splitVaultKey(key)
	if err != nil {
		return "", err
	}

	fullPath := fmt.Sprintf("%s/data/%s", s.mount, path)

	secret, err := s.api.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		return "", fmt.Errorf("reading vault secret %s: %w", fullPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, fullPath)
	}

	// KV v2 nests the payload under "data".
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("%w: %s has no data", ErrNotFound, fullPath)
	}

	value, ok := data[field].(string)
	if !ok {
		return "", fmt.Errorf("%w: field %s in %s", ErrNotFound, field, fullPath)
	}

	s.logger.Debug("secret read from vault",
		observability.String("path", fullPath),
		observability.String("field", field),
	)

	return value, nil
}

// splitVaultKey splits "path:field" into its parts, defaulting the field.
func splitVaultKey(key string) (path, field string, err error) {
	if key == "" {
		return "", "", ErrInvalidKey
	}

	path, field, found := strings.Cut(key, ":")
	if !found {
		field = DefaultVaultField
	}
	if path == "" || field == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return path, field, nil
}

// Close cleans up source resources.
func (s *VaultSource) Close() error {
	return nil
}

// Ensure VaultSource implements Source.
var _ Source = (*VaultSource)(nil)
