package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/relev-ai/relevai-go/config"
	"github.com/relev-ai/relevai-go/key"
	"github.com/relev-ai/relevai-go/observability"
	"github.com/relev-ai/relevai-go/secrets"
)

// Agent is the credential sidecar: a key set kept fresh by background
// refreshers, exposed over an HTTP API.
type Agent struct {
	cfg         *config.AgentConfig
	logger      observability.Logger
	tracer      *observability.Tracer
	metrics     *key.Metrics
	httpMetrics *httpMetrics
	keys        *KeySet
	secrets     secrets.Source

	engine     *gin.Engine
	httpServer *http.Server

	mu      sync.Mutex
	addr    string
	running bool
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics sets the key metrics instance. Defaults to the shared
// process-wide instance.
func WithMetrics(m *key.Metrics) Option {
	return func(a *Agent) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithSecretsSource overrides the secrets source built from the
// configuration.
func WithSecretsSource(src secrets.Source) Option {
	return func(a *Agent) {
		a.secrets = src
	}
}

// New builds an agent from its configuration: tracer, secrets source and
// every configured key. Key construction may call the issuance endpoint,
// so a failing credential fails construction.
func New(ctx context.Context, cfg *config.AgentConfig, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:    cfg,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.metrics == nil {
		a.metrics = key.GetSharedMetrics()
	}

	tracer, err := observability.NewTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}
	a.tracer = tracer

	if a.secrets == nil && cfg.Secrets != nil {
		src, err := secrets.New(ctx, cfg.Secrets.SourceConfig(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("initializing secrets source: %w", err)
		}
		a.secrets = src
	}

	a.keys = NewKeySet(a.logger, a.metrics, a.secrets)
	if err := a.keys.Build(ctx, cfg.Keys); err != nil {
		a.closeSources()
		_ = a.tracer.Shutdown(ctx)
		return nil, err
	}

	a.httpMetrics = newHTTPMetrics(a.metrics.Registry())
	a.engine = a.buildEngine()
	a.httpServer = &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      a.engine,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	return a, nil
}

// Start binds the listener and begins serving. It does not block; the
// server runs until Stop.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return errors.New("agent already running")
	}

	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", a.httpServer.Addr, err)
	}
	a.addr = ln.Addr().String()
	a.running = true

	go func() {
		if serveErr := a.httpServer.Serve(ln); serveErr != nil &&
			!errors.Is(serveErr, http.ErrServerClosed) {
			a.logger.Error("http server error", observability.Error(serveErr))
		}
	}()

	a.logger.Info("agent started",
		observability.String("address", a.addr),
		observability.Int("keys", a.keys.Len()),
	)
	return nil
}

// Addr returns the bound listen address, empty before Start.
func (a *Agent) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Reload applies a changed configuration. Only the key set reloads at
// runtime; server, auth and observability settings take effect on the
// next restart.
func (a *Agent) Reload(ctx context.Context, cfg *config.AgentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := a.keys.Reload(ctx, cfg.Keys); err != nil {
		return err
	}

	a.logger.Info("configuration reloaded",
		observability.Int("keys", a.keys.Len()))
	return nil
}

// Stop drains the HTTP server, then closes every key, the secrets source
// and the tracer. Safe to call more than once.
func (a *Agent) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down http server: %w", err))
	}
	if err := a.keys.Close(); err != nil {
		errs = append(errs, err)
	}
	a.closeSources()
	if err := a.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
	}

	a.logger.Info("agent stopped")
	return errors.Join(errs...)
}

// Keys exposes the managed key set.
func (a *Agent) Keys() *KeySet {
	return a.keys
}

func (a *Agent) closeSources() {
	if a.secrets != nil {
		if err := a.secrets.Close(); err != nil {
			a.logger.Warn("closing secrets source", observability.Error(err))
		}
	}
}
