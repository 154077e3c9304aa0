package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/relev-ai/relevai-go/observability"
	"github.com/relev-ai/relevai-go/secrets"
)

// ErrInvalidConfig indicates that the configuration failed validation.
var ErrInvalidConfig = errors.New("invalid agent configuration")

// Grant type values for KeyConfig.GrantType.
const (
	// GrantRefreshToken exchanges a long-lived refresh token (account
	// API key) for access tokens.
	GrantRefreshToken = "refresh_token"

	// GrantClientCredentials authenticates a service account with its
	// client secret.
	GrantClientCredentials = "client_credentials"
)

// Default server values.
const (
	DefaultAgentName       = "relevai-agent"
	DefaultListenAddress   = ":8600"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultAPIKeyHeader    = "X-API-Key"
)

// AgentConfig is the root configuration for the relevai-agent sidecar.
type AgentConfig struct {
	// Name identifies this agent instance in logs and traces.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`

	// Auth configures API-key protection of the /v1 endpoints.
	Auth APIAuthConfig `yaml:"auth,omitempty" json:"auth,omitempty"`

	// Logging configures the agent logger.
	Logging observability.LogConfig `yaml:"logging,omitempty" json:"logging,omitempty"`

	// Tracing configures the optional OTLP trace exporter.
	Tracing observability.TracerConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`

	// Secrets configures the source used to resolve secret references
	// in key configurations.
	Secrets *SecretsConfig `yaml:"secrets,omitempty" json:"secrets,omitempty"`

	// Keys lists the managed credentials, one Key per entry.
	Keys []KeyConfig `yaml:"keys" json:"keys"`
}

// ServerConfig configures the agent HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port to bind. Empty means ":8600".
	ListenAddress string `yaml:"listenAddress,omitempty" json:"listenAddress,omitempty"`

	ReadTimeout  Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout  Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
}

// APIAuthConfig configures API-key authentication for the token endpoints.
type APIAuthConfig struct {
	// Enabled turns API-key checking on. When off, /v1 is open.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Header is the request header carrying the API key.
	// Empty means "X-API-Key".
	Header string `yaml:"header,omitempty" json:"header,omitempty"`

	// Keys lists the accepted API keys.
	Keys []APIKeyEntry `yaml:"keys,omitempty" json:"keys,omitempty"`
}

// APIKeyEntry is one accepted API key, either as a bcrypt hash or as a
// plain value compared in constant time. Exactly one of Hash and Value
// must be set.
type APIKeyEntry struct {
	// Name identifies the key's owner in logs.
	Name string `yaml:"name" json:"name"`

	// Hash is the bcrypt hash of the key.
	Hash string `yaml:"hash,omitempty" json:"hash,omitempty"`

	// Value is the plain key value, usually injected via ${VAR}.
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// KeyConfig describes one managed credential.
type KeyConfig struct {
	// Name identifies the key; /v1/token?name= selects by it.
	Name string `yaml:"name" json:"name"`

	// AuthURL is the token issuance endpoint.
	AuthURL string `yaml:"authUrl" json:"authUrl"`

	// GrantType is "refresh_token" or "client_credentials".
	GrantType string `yaml:"grantType" json:"grantType"`

	// ClientID identifies the client to the issuance endpoint.
	ClientID string `yaml:"clientId" json:"clientId"`

	// RefreshToken is the long-lived token for the refresh_token grant.
	RefreshToken string `yaml:"refreshToken,omitempty" json:"refreshToken,omitempty"`

	// ClientSecret is the inline client secret. Mutually exclusive with
	// ClientSecretRef.
	ClientSecret string `yaml:"clientSecret,omitempty" json:"clientSecret,omitempty"`

	// ClientSecretRef resolves the client secret through the configured
	// secrets source. Mutually exclusive with ClientSecret.
	ClientSecretRef string `yaml:"clientSecretRef,omitempty" json:"clientSecretRef,omitempty"`

	// AccessToken optionally seeds the key with a pre-existing token.
	AccessToken string `yaml:"accessToken,omitempty" json:"accessToken,omitempty"`

	// SafetyMargin, PollInterval, FailureBackoff and MaxAttempts tune
	// the renewal schedule. Zero values take the SDK defaults.
	SafetyMargin   Duration `yaml:"safetyMargin,omitempty" json:"safetyMargin,omitempty"`
	PollInterval   Duration `yaml:"pollInterval,omitempty" json:"pollInterval,omitempty"`
	FailureBackoff Duration `yaml:"failureBackoff,omitempty" json:"failureBackoff,omitempty"`
	MaxAttempts    int      `yaml:"maxAttempts,omitempty" json:"maxAttempts,omitempty"`

	// Alive runs the background refresher. Absent means true.
	Alive *bool `yaml:"alive,omitempty" json:"alive,omitempty"`

	// Breaker optionally wraps issuance calls in a circuit breaker.
	Breaker *BreakerConfig `yaml:"breaker,omitempty" json:"breaker,omitempty"`
}

// IsAlive returns whether the background refresher should run, defaulting
// to true when unset.
func (kc *KeyConfig) IsAlive() bool {
	if kc.Alive == nil {
		return true
	}
	return *kc.Alive
}

// BreakerConfig configures the issuance circuit breaker for a key.
type BreakerConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	MaxRequests      uint32   `yaml:"maxRequests,omitempty" json:"maxRequests,omitempty"`
	Interval         Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
	Timeout          Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	FailureThreshold uint32   `yaml:"failureThreshold,omitempty" json:"failureThreshold,omitempty"`
	FailureRatio     float64  `yaml:"failureRatio,omitempty" json:"failureRatio,omitempty"`
}

// SecretsConfig is the YAML-facing secrets source configuration.
type SecretsConfig struct {
	// Type is the source backend: static, env, file or vault.
	Type string `yaml:"type" json:"type"`

	// Values backs the static source.
	Values map[string]string `yaml:"values,omitempty" json:"values,omitempty"`

	// Prefix backs the env source. Empty means the default prefix.
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	// Dir backs the file source.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// Vault backs the vault source.
	Vault *VaultSecretsConfig `yaml:"vault,omitempty" json:"vault,omitempty"`
}

// VaultSecretsConfig configures the Vault secrets source.
type VaultSecretsConfig struct {
	Address   string   `yaml:"address" json:"address"`
	Token     string   `yaml:"token" json:"token"`
	Namespace string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Mount     string   `yaml:"mount,omitempty" json:"mount,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// SourceConfig converts the YAML-facing form into the secrets package
// configuration.
func (sc *SecretsConfig) SourceConfig() *secrets.Config {
	if sc == nil {
		return nil
	}
	out := &secrets.Config{
		Type:   sc.Type,
		Values: sc.Values,
		Prefix: sc.Prefix,
		Dir:    sc.Dir,
	}
	if sc.Vault != nil {
		out.Vault = &secrets.VaultConfig{
			Address:   sc.Vault.Address,
			Token:     sc.Vault.Token,
			Namespace: sc.Vault.Namespace,
			Mount:     sc.Vault.Mount,
			Timeout:   sc.Vault.Timeout.Duration(),
		}
	}
	return out
}

// DefaultAgentConfig returns an AgentConfig with server and logging
// defaults applied. Keys must still be supplied.
func DefaultAgentConfig() *AgentConfig {
	cfg := &AgentConfig{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero fields with default values.
func (c *AgentConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultAgentName
	}
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = DefaultListenAddress
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Auth.Header == "" {
		c.Auth.Header = DefaultAPIKeyHeader
	}
	if c.Logging.Level == "" {
		c.Logging = observability.DefaultLogConfig()
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
}

// Validate checks the configuration and returns an error naming the first
// offending field.
func (c *AgentConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: configuration is nil", ErrInvalidConfig)
	}

	if err := c.Auth.validate(); err != nil {
		return err
	}
	if err := c.Secrets.validate(); err != nil {
		return err
	}

	if len(c.Keys) == 0 {
		return fmt.Errorf("%w: keys must contain at least one entry", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Keys))
	for i := range c.Keys {
		kc := &c.Keys[i]
		if err := kc.validate(i); err != nil {
			return err
		}
		if seen[kc.Name] {
			return fmt.Errorf("%w: keys[%d].name %q is duplicated", ErrInvalidConfig, i, kc.Name)
		}
		seen[kc.Name] = true
		if kc.ClientSecretRef != "" && c.Secrets == nil {
			return fmt.Errorf(
				"%w: keys[%d].clientSecretRef requires a secrets section", ErrInvalidConfig, i)
		}
	}

	return nil
}

func (a *APIAuthConfig) validate() error {
	if !a.Enabled {
		return nil
	}
	if len(a.Keys) == 0 {
		return fmt.Errorf("%w: auth.keys must contain at least one entry when auth is enabled",
			ErrInvalidConfig)
	}
	for i, entry := range a.Keys {
		if entry.Name == "" {
			return fmt.Errorf("%w: auth.keys[%d].name must not be empty", ErrInvalidConfig, i)
		}
		if (entry.Hash == "") == (entry.Value == "") {
			return fmt.Errorf("%w: auth.keys[%d] must set exactly one of hash and value",
				ErrInvalidConfig, i)
		}
	}
	return nil
}

func (sc *SecretsConfig) validate() error {
	if sc == nil {
		return nil
	}
	switch secrets.SourceType(sc.Type) {
	case secrets.SourceTypeStatic, secrets.SourceTypeEnv:
	case secrets.SourceTypeFile:
		if sc.Dir == "" {
			return fmt.Errorf("%w: secrets.dir must not be empty for the file source",
				ErrInvalidConfig)
		}
	case secrets.SourceTypeVault:
		if sc.Vault == nil || sc.Vault.Address == "" {
			return fmt.Errorf("%w: secrets.vault.address must not be empty for the vault source",
				ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: secrets.type %q is not one of static, env, file, vault",
			ErrInvalidConfig, sc.Type)
	}
	return nil
}

func (kc *KeyConfig) validate(i int) error {
	if kc.Name == "" {
		return fmt.Errorf("%w: keys[%d].name must not be empty", ErrInvalidConfig, i)
	}
	if kc.AuthURL == "" {
		return fmt.Errorf("%w: keys[%d].authUrl must not be empty", ErrInvalidConfig, i)
	}
	if kc.ClientID == "" {
		return fmt.Errorf("%w: keys[%d].clientId must not be empty", ErrInvalidConfig, i)
	}
	switch kc.GrantType {
	case GrantRefreshToken:
		if kc.RefreshToken == "" {
			return fmt.Errorf("%w: keys[%d].refreshToken must not be empty for the refresh_token grant",
				ErrInvalidConfig, i)
		}
	case GrantClientCredentials:
	default:
		return fmt.Errorf("%w: keys[%d].grantType %q is not one of refresh_token, client_credentials",
			ErrInvalidConfig, i, kc.GrantType)
	}
	if kc.ClientSecret != "" && kc.ClientSecretRef != "" {
		return fmt.Errorf("%w: keys[%d] must not set both clientSecret and clientSecretRef",
			ErrInvalidConfig, i)
	}
	if kc.SafetyMargin < 0 {
		return fmt.Errorf("%w: keys[%d].safetyMargin must not be negative", ErrInvalidConfig, i)
	}
	return nil
}
