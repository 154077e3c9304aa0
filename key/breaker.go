package key

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/relev-ai/relevai-go/observability"
)

// Breaker defaults.
const (
	DefaultBreakerMaxRequests      = 1
	DefaultBreakerInterval         = 60 * time.Second
	DefaultBreakerTimeout          = 30 * time.Second
	DefaultBreakerFailureThreshold = 5
	DefaultBreakerFailureRatio     = 0.5
)

// BreakerConfig controls the optional circuit breaker around issuance
// calls. Disabled by default: without it every renewal reaches the
// endpoint, and failures surface per the usual propagation rules. With it,
// a run of failures short-circuits further calls until the timeout lapses.
type BreakerConfig struct {
	// Enabled turns the breaker on.
	Enabled bool

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period over which the closed-state counters
	// are reset.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the minimum number of requests before the
	// breaker may trip.
	FailureThreshold uint32

	// FailureRatio is the failure fraction at which the breaker trips.
	FailureRatio float64
}

// DefaultBreakerConfig returns a BreakerConfig with defaults, enabled.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      DefaultBreakerMaxRequests,
		Interval:         DefaultBreakerInterval,
		Timeout:          DefaultBreakerTimeout,
		FailureThreshold: DefaultBreakerFailureThreshold,
		FailureRatio:     DefaultBreakerFailureRatio,
	}
}

// withDefaults fills zero fields with defaults.
func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxRequests == 0 {
		c.MaxRequests = DefaultBreakerMaxRequests
	}
	if c.Interval <= 0 {
		c.Interval = DefaultBreakerInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultBreakerTimeout
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultBreakerFailureThreshold
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = DefaultBreakerFailureRatio
	}
	return c
}

// issuanceBreaker wraps gobreaker around the issuance call.
type issuanceBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func newIssuanceBreaker(name string, cfg BreakerConfig, logger observability.Logger) *issuanceBreaker {
	cfg = cfg.withDefaults()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.FailureThreshold && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("issuance circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	}

	return &issuanceBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// execute runs fn through the breaker, translating breaker rejections
// into issuance errors.
func (b *issuanceBreaker) execute(url string, fn func() (*issuanceResponse, error)) (*issuanceResponse, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, NewIssuanceErrorWithCause(url, "circuit breaker rejected the call", err)
		}
		return nil, err
	}
	return out.(*issuanceResponse), nil
}
