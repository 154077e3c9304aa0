package key

import (
	"net/http"
	"time"

	"github.com/relev-ai/relevai-go/observability"
	"github.com/relev-ai/relevai-go/secrets"
)

// Option customizes a Key at construction time.
type Option func(*Key)

// WithHTTPClient sets the HTTP client used for issuance calls. The manager
// imposes no request timeout of its own; whatever the supplied client
// enforces applies.
func WithHTTPClient(client *http.Client) Option {
	return func(k *Key) {
		if client != nil {
			k.client = client
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger observability.Logger) Option {
	return func(k *Key) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithMetrics sets the metrics instance. Defaults to an unscraped one.
func WithMetrics(m *Metrics) Option {
	return func(k *Key) {
		if m != nil {
			k.metrics = m
		}
	}
}

// WithName sets the name used in metric labels and log fields when one
// process manages several keys. Defaults to "default".
func WithName(name string) Option {
	return func(k *Key) {
		if name != "" {
			k.name = name
		}
	}
}

// WithBreaker enables a circuit breaker around issuance calls.
func WithBreaker(cfg BreakerConfig) Option {
	return func(k *Key) {
		k.breakerCfg = cfg
	}
}

// WithClock sets the time source used for expiry arithmetic. Intended for
// tests that simulate the passage of time.
func WithClock(now func() time.Time) Option {
	return func(k *Key) {
		if now != nil {
			k.now = now
		}
	}
}

// WithSecretSource resolves the grant's client secret from src under
// secretName during construction, so secrets need not live in process
// arguments or source code.
func WithSecretSource(src secrets.Source, secretName string) Option {
	return func(k *Key) {
		k.secretSource = src
		k.secretName = secretName
	}
}

// WithClientSecret sets the grant's client secret. Useful with
// NewClientKey, where the secret is optional.
func WithClientSecret(secret string) Option {
	return func(k *Key) {
		k.setClientSecret(secret)
	}
}

// WithSeedToken seeds the credential with a pre-existing access token,
// skipping the initial issuance call. Expiration comes from the token's
// own exp claim when present; otherwise the token is treated as already
// expired and the first access renews.
func WithSeedToken(accessToken string) Option {
	return func(k *Key) {
		k.cfg.AccessToken = accessToken
	}
}

// WithSafetyMargin overrides the renewal lead time.
func WithSafetyMargin(margin time.Duration) Option {
	return func(k *Key) {
		k.cfg.SafetyMargin = margin
	}
}

// WithPollInterval overrides the background refresher wake interval.
func WithPollInterval(interval time.Duration) Option {
	return func(k *Key) {
		if interval > 0 {
			k.cfg.PollInterval = interval
		}
	}
}

// WithFailureBackoff overrides the wait between failed background
// renewal attempts.
func WithFailureBackoff(backoff time.Duration) Option {
	return func(k *Key) {
		if backoff > 0 {
			k.cfg.FailureBackoff = backoff
		}
	}
}

// WithMaxAttempts overrides the consecutive background failure budget.
func WithMaxAttempts(attempts int) Option {
	return func(k *Key) {
		if attempts > 0 {
			k.cfg.MaxAttempts = attempts
		}
	}
}

// WithAlive controls whether the background refresher runs at all.
func WithAlive(alive bool) Option {
	return func(k *Key) {
		k.cfg.Alive = alive
	}
}
