package key

import (
	"net/url"
	"time"
)

// Default configuration values.
const (
	// DefaultSafetyMargin is the lead time before expiry at which a token
	// is treated as due for renewal.
	DefaultSafetyMargin = 30 * time.Second

	// DefaultPollInterval is how often the background refresher wakes to
	// check expiration.
	DefaultPollInterval = 5 * time.Second

	// DefaultFailureBackoff is the wait after a failed background renewal
	// before the next attempt.
	DefaultFailureBackoff = 10 * time.Second

	// DefaultMaxAttempts is the number of consecutive background renewal
	// failures tolerated before the refresher stops permanently.
	DefaultMaxAttempts = 5
)

// Config holds construction parameters for a Key.
type Config struct {
	// AuthURL is the token issuance endpoint.
	AuthURL string

	// Grant selects how credentials are exchanged for access tokens.
	Grant Grant

	// AccessToken optionally seeds the credential with a pre-existing
	// token. When set, no initial issuance call is made: expiration is
	// taken from the token's own exp claim when present, otherwise the
	// token is treated as already expired and the first access renews.
	AccessToken string

	// SafetyMargin is the lead time before expiry at which the token is
	// due for renewal. Zero means DefaultSafetyMargin.
	SafetyMargin time.Duration

	// PollInterval is the background refresher wake interval. Zero means
	// DefaultPollInterval. It governs how often the loop checks, not when
	// it decides to renew; that is SafetyMargin's job.
	PollInterval time.Duration

	// FailureBackoff is the wait between failed background renewal
	// attempts. Zero means DefaultFailureBackoff.
	FailureBackoff time.Duration

	// MaxAttempts is the consecutive background failure budget before the
	// refresher stops permanently. Zero means DefaultMaxAttempts.
	MaxAttempts int

	// Alive runs the background refresher. Constructors built from
	// DefaultConfig enable it; a zero-value Config leaves it off.
	Alive bool
}

// DefaultConfig returns a Config with default values. AuthURL and Grant
// must still be supplied.
func DefaultConfig() *Config {
	return &Config{
		SafetyMargin:   DefaultSafetyMargin,
		PollInterval:   DefaultPollInterval,
		FailureBackoff: DefaultFailureBackoff,
		MaxAttempts:    DefaultMaxAttempts,
		Alive:          true,
	}
}

// withDefaults returns a copy with zero fields replaced by defaults.
// Alive is kept as provided since false is a meaningful setting.
func (c *Config) withDefaults() Config {
	out := *c
	if out.SafetyMargin == 0 {
		out.SafetyMargin = DefaultSafetyMargin
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.FailureBackoff <= 0 {
		out.FailureBackoff = DefaultFailureBackoff
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = DefaultMaxAttempts
	}
	return out
}

// validate checks the fields the manager itself needs. Grant credential
// values are deliberately not validated here; the issuance endpoint is
// the authority on those.
func (c *Config) validate() error {
	if c.AuthURL == "" {
		return NewConfigError("authUrl", "must not be empty")
	}
	if _, err := url.Parse(c.AuthURL); err != nil {
		return NewConfigError("authUrl", "must be a valid URL")
	}
	if c.Grant == nil {
		return NewConfigError("grant", "must not be nil")
	}
	if c.SafetyMargin < 0 {
		return NewConfigError("safetyMargin", "must not be negative")
	}
	return nil
}
