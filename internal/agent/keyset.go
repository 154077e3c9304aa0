package agent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/relev-ai/relevai-go/config"
	"github.com/relev-ai/relevai-go/key"
	"github.com/relev-ai/relevai-go/observability"
	"github.com/relev-ai/relevai-go/secrets"
)

// KeySet holds the agent's managed keys by name. Reload swaps individual
// keys without disturbing the rest, so a config edit to one credential
// never interrupts token serving for the others.
type KeySet struct {
	logger  observability.Logger
	metrics *key.Metrics
	secrets secrets.Source

	mu      sync.RWMutex
	keys    map[string]*key.Key
	configs map[string]config.KeyConfig
}

// KeyStatus is one key's health snapshot.
type KeyStatus struct {
	Grant     string `json:"grant"`
	State     string `json:"state"`
	ExpiresIn int64  `json:"expires_in"`
}

// NewKeySet creates an empty key set. The secrets source may be nil when
// no key uses a secret reference.
func NewKeySet(logger observability.Logger, metrics *key.Metrics, src secrets.Source) *KeySet {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = key.NopMetrics()
	}

	return &KeySet{
		logger:  logger,
		metrics: metrics,
		secrets: src,
		keys:    make(map[string]*key.Key),
		configs: make(map[string]config.KeyConfig),
	}
}

// Build constructs every configured key. It fails fast: the first
// construction error closes whatever was already built and is returned,
// leaving the set empty.
func (s *KeySet) Build(ctx context.Context, configs []config.KeyConfig) error {
	built := make(map[string]*key.Key, len(configs))
	for _, kc := range configs {
		k, err := s.buildKey(ctx, kc)
		if err != nil {
			for _, b := range built {
				_ = b.Close()
			}
			return fmt.Errorf("building key %q: %w", kc.Name, err)
		}
		built[kc.Name] = k
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kc := range configs {
		s.keys[kc.Name] = built[kc.Name]
		s.configs[kc.Name] = kc
	}
	return nil
}

// Reload diffs the desired configuration against the current set: new
// keys are built, removed keys are closed, changed keys are rebuilt and
// swapped, unchanged keys are left running. A key that fails to build
// keeps its previous instance when one exists; all failures come back
// joined.
func (s *KeySet) Reload(ctx context.Context, configs []config.KeyConfig) error {
	desired := make(map[string]config.KeyConfig, len(configs))
	for _, kc := range configs {
		desired[kc.Name] = kc
	}

	s.mu.RLock()
	current := make(map[string]config.KeyConfig, len(s.configs))
	for name, kc := range s.configs {
		current[name] = kc
	}
	s.mu.RUnlock()

	// Build replacements before taking the write lock: construction may
	// perform an initial issuance call.
	var errs []error
	built := make(map[string]*key.Key)
	for name, kc := range desired {
		if old, ok := current[name]; ok && reflect.DeepEqual(old, kc) {
			continue
		}
		k, err := s.buildKey(ctx, kc)
		if err != nil {
			errs = append(errs, fmt.Errorf("building key %q: %w", name, err))
			s.logger.Error("key rebuild failed, keeping previous instance",
				observability.String("key", name),
				observability.Error(err))
			continue
		}
		built[name] = k
	}

	var displaced []*key.Key

	s.mu.Lock()
	for name, k := range built {
		if old, ok := s.keys[name]; ok {
			displaced = append(displaced, old)
		}
		s.keys[name] = k
		s.configs[name] = desired[name]
	}
	for name, k := range s.keys {
		if _, ok := desired[name]; ok {
			continue
		}
		displaced = append(displaced, k)
		delete(s.keys, name)
		delete(s.configs, name)
		s.logger.Info("key removed", observability.String("key", name))
	}
	s.mu.Unlock()

	for _, k := range displaced {
		_ = k.Close()
	}

	return errors.Join(errs...)
}

// Get returns the named key.
func (s *KeySet) Get(name string) (*key.Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[name]
	return k, ok
}

// Names returns the managed key names, sorted.
func (s *KeySet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of managed keys.
func (s *KeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Statuses snapshots every key's refresher state and expiry.
func (s *KeySet) Statuses() map[string]KeyStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[string]KeyStatus, len(s.keys))
	for name, k := range s.keys {
		statuses[name] = KeyStatus{
			Grant:     k.GrantType(),
			State:     string(k.State()),
			ExpiresIn: int64(k.ExpiresIn().Seconds()),
		}
	}
	return statuses
}

// Close stops and closes every key. The set is empty afterwards.
func (s *KeySet) Close() error {
	s.mu.Lock()
	keys := s.keys
	s.keys = make(map[string]*key.Key)
	s.configs = make(map[string]config.KeyConfig)
	s.mu.Unlock()

	var errs []error
	for name, k := range keys {
		if err := k.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing key %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// buildKey maps one key configuration onto the SDK constructor.
func (s *KeySet) buildKey(ctx context.Context, kc config.KeyConfig) (*key.Key, error) {
	cfg := &key.Config{
		AuthURL:        kc.AuthURL,
		AccessToken:    kc.AccessToken,
		SafetyMargin:   kc.SafetyMargin.Duration(),
		PollInterval:   kc.PollInterval.Duration(),
		FailureBackoff: kc.FailureBackoff.Duration(),
		MaxAttempts:    kc.MaxAttempts,
		Alive:          kc.IsAlive(),
	}

	switch kc.GrantType {
	case config.GrantRefreshToken:
		cfg.Grant = key.RefreshTokenGrant{
			ClientID:     kc.ClientID,
			RefreshToken: kc.RefreshToken,
			ClientSecret: kc.ClientSecret,
		}
	case config.GrantClientCredentials:
		cfg.Grant = key.ClientCredentialsGrant{
			ClientID:     kc.ClientID,
			ClientSecret: kc.ClientSecret,
		}
	default:
		return nil, fmt.Errorf("unsupported grant type %q", kc.GrantType)
	}

	opts := []key.Option{
		key.WithName(kc.Name),
		key.WithLogger(s.logger),
		key.WithMetrics(s.metrics),
	}

	if kc.ClientSecretRef != "" {
		if s.secrets == nil {
			return nil, fmt.Errorf("clientSecretRef %q set but no secrets source configured", kc.ClientSecretRef)
		}
		opts = append(opts, key.WithSecretSource(s.secrets, kc.ClientSecretRef))
	}

	if kc.Breaker != nil && kc.Breaker.Enabled {
		opts = append(opts, key.WithBreaker(key.BreakerConfig{
			Enabled:          true,
			MaxRequests:      kc.Breaker.MaxRequests,
			Interval:         kc.Breaker.Interval.Duration(),
			Timeout:          kc.Breaker.Timeout.Duration(),
			FailureThreshold: kc.Breaker.FailureThreshold,
			FailureRatio:     kc.Breaker.FailureRatio,
		}))
	}

	return key.New(ctx, cfg, opts...)
}
