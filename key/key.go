package key

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relev-ai/relevai-go/internal/util"
	"github.com/relev-ai/relevai-go/observability"
	"github.com/relev-ai/relevai-go/secrets"
	"github.com/relev-ai/relevai-go/token"
)

// Renewal trigger labels used in metrics and logs.
const (
	TriggerInitial    = "initial"
	TriggerAccess     = "access"
	TriggerBackground = "background"
	TriggerManual     = "manual"
)

// maxErrorBodyBytes caps how much of an issuance error response is read
// into the error message.
const maxErrorBodyBytes = 4 << 10

// Key is the single source of truth for a valid bearer credential. It owns
// the access token, its expiration, and the decoded header/claim mappings,
// all guarded by one exclusive lock, and orchestrates renewal and hook
// notification. See the package documentation for usage.
type Key struct {
	cfg  Config
	name string

	client  *http.Client
	logger  observability.Logger
	metrics *Metrics
	now     func() time.Time

	breakerCfg BreakerConfig
	breaker    *issuanceBreaker

	secretSource secrets.Source
	secretName   string

	hooks *hookRegistry

	// mu guards the four credential fields below. It is never held across
	// network I/O or hook invocation.
	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	header      token.Header
	claims      token.Claims

	// taskMu guards the background refresher state.
	taskMu    sync.Mutex
	running   bool
	terminal  bool
	stopCh    chan struct{}
	stoppedCh chan struct{}

	closed atomic.Bool
}

// issuanceResponse is the JSON body returned by the issuance endpoint.
type issuanceResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// New creates a Key from cfg. Unless the credential is seeded via
// cfg.AccessToken, one synchronous issuance call runs before New returns
// and its failure fails construction. When cfg.Alive is set the background
// refresher is started.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Key, error) {
	if cfg == nil {
		return nil, NewConfigError("config", "must not be nil")
	}

	k := &Key{
		cfg:     cfg.withDefaults(),
		name:    "default",
		client:  &http.Client{},
		logger:  observability.NopLogger(),
		metrics: NopMetrics(),
		now:     time.Now,
		hooks:   newHookRegistry(),
	}

	for _, opt := range opts {
		opt(k)
	}

	if err := k.cfg.validate(); err != nil {
		return nil, err
	}

	k.logger = k.logger.With(
		observability.String("key", k.name),
		observability.String("grant", k.GrantType()),
	)

	if k.secretSource != nil {
		secret, err := k.secretSource.Get(ctx, k.secretName)
		if err != nil {
			return nil, NewConfigErrorWithCause("clientSecret",
				"resolving secret "+k.secretName, err)
		}
		k.setClientSecret(secret)
	}

	if k.breakerCfg.Enabled {
		k.breaker = newIssuanceBreaker(k.name, k.breakerCfg, k.logger)
	}

	k.metrics.Init(k.name, k.GrantType())

	if k.cfg.AccessToken != "" {
		k.seed(k.cfg.AccessToken)
	} else if err := k.renew(ctx, TriggerInitial); err != nil {
		return nil, err
	}

	if k.cfg.Alive {
		k.Start()
	}

	return k, nil
}

// NewClientKey creates a Key that exchanges an account API key through the
// refresh-token grant. Background refresh is enabled by default.
func NewClientKey(ctx context.Context, authURL, clientID, apiKey string, opts ...Option) (*Key, error) {
	cfg := DefaultConfig()
	cfg.AuthURL = authURL
	cfg.Grant = RefreshTokenGrant{
		ClientID:     clientID,
		RefreshToken: apiKey,
	}
	return New(ctx, cfg, opts...)
}

// NewServiceKey creates a Key that authenticates a service account through
// the client-credentials grant. Background refresh is enabled by default.
func NewServiceKey(ctx context.Context, authURL, clientID, clientSecret string, opts ...Option) (*Key, error) {
	cfg := DefaultConfig()
	cfg.AuthURL = authURL
	cfg.Grant = ClientCredentialsGrant{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	return New(ctx, cfg, opts...)
}

// Token returns the current access token, renewing first when the token is
// unset or inside the safety margin. Renewal failures propagate instead of
// returning a token known to be expired. As a side effect of any access,
// a dead refresher is restarted when background refresh is configured on.
func (k *Key) Token(ctx context.Context) (string, error) {
	if k.closed.Load() {
		return "", ErrKeyClosed
	}
	defer k.Start()

	if k.needsRenewal() {
		if err := k.renew(ctx, TriggerAccess); err != nil {
			return "", err
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	return k.accessToken, nil
}

// AuthorizationValue returns "Bearer <token>" for use in Authorization
// headers, with the same renewal semantics as Token.
func (k *Key) AuthorizationValue(ctx context.Context) (string, error) {
	tok, err := k.Token(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + tok, nil
}

// Renew forces one synchronous issuance call regardless of expiration.
// Each call issues exactly one network request; concurrent renewals may
// race and the last state write wins.
func (k *Key) Renew(ctx context.Context) error {
	if k.closed.Load() {
		return ErrKeyClosed
	}
	return k.renew(ctx, TriggerManual)
}

// renew performs one issuance round trip. State is replaced all-or-nothing:
// on any failure the previous credential stays untouched. Hooks fire after
// the lock is released.
func (k *Key) renew(ctx context.Context, trigger string) error {
	start := time.Now()

	resp, err := k.doIssue(ctx)
	if err != nil {
		k.metrics.RecordRenewal(k.name, k.GrantType(), trigger, "error", util.Elapsed(start))
		return err
	}

	decoded, err := token.Decode(resp.AccessToken)
	if err != nil {
		k.metrics.RecordRenewal(k.name, k.GrantType(), trigger, "error", util.Elapsed(start))
		return err
	}

	expiresIn := time.Duration(resp.ExpiresIn) * time.Second

	k.mu.Lock()
	k.accessToken = resp.AccessToken
	k.expiresAt = util.StripMonotonic(k.now().Add(expiresIn))
	k.header = decoded.Header
	k.claims = decoded.Claims
	expiresAt := k.expiresAt
	k.mu.Unlock()

	k.metrics.RecordRenewal(k.name, k.GrantType(), trigger, "success", util.Elapsed(start))
	k.metrics.SetTokenExpiry(k.name, k.GrantType(), expiresAt)
	k.logger.Debug("token renewed",
		observability.String("trigger", trigger),
		observability.Duration("expires_in", expiresIn),
	)

	k.hooks.broadcast(k)
	return nil
}

// doIssue routes the issuance call through the breaker when one is
// configured.
func (k *Key) doIssue(ctx context.Context) (*issuanceResponse, error) {
	if k.breaker != nil {
		return k.breaker.execute(k.cfg.AuthURL, func() (*issuanceResponse, error) {
			return k.issue(ctx)
		})
	}
	return k.issue(ctx)
}

// issue POSTs the grant's form body to the issuance endpoint and parses
// the response. Non-2xx statuses and missing response fields are issuance
// errors.
func (k *Key) issue(ctx context.Context) (*issuanceResponse, error) {
	body := k.cfg.Grant.Form().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.cfg.AuthURL, strings.NewReader(body))
	if err != nil {
		return nil, NewIssuanceErrorWithCause(k.cfg.AuthURL, "building request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, NewIssuanceErrorWithCause(k.cfg.AuthURL, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &IssuanceError{
			URL:        k.cfg.AuthURL,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(detail)),
		}
	}

	var out issuanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, NewIssuanceErrorWithCause(k.cfg.AuthURL, "decoding response", err)
	}
	if out.AccessToken == "" {
		return nil, NewIssuanceError(k.cfg.AuthURL, "response missing access_token")
	}
	if out.ExpiresIn <= 0 {
		return nil, NewIssuanceError(k.cfg.AuthURL, "response missing expires_in")
	}
	return &out, nil
}

// seed installs a caller-supplied token without a network call. The decode
// is best-effort: an undecodable seed leaves header/claims unset and the
// zero expiry makes the first access renew. Expiration comes from the
// token's own exp claim when present.
func (k *Key) seed(raw string) {
	decoded, err := token.Decode(raw)

	k.mu.Lock()
	defer k.mu.Unlock()

	k.accessToken = raw
	if err != nil {
		k.logger.Warn("seed token is undecodable, treating as already expired",
			observability.Error(err))
		return
	}

	k.header = decoded.Header
	k.claims = decoded.Claims
	if exp, ok := decoded.Claims.ExpiresAt(); ok {
		k.expiresAt = util.StripMonotonic(exp)
	}
}

// ExpiresIn returns the time until the current token expires. It may be
// negative, and is hugely negative before the first issuance.
func (k *Key) ExpiresIn() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.expiresAt.Sub(k.now())
}

// needsRenewal reports whether the credential is unset or inside the
// safety margin.
func (k *Key) needsRenewal() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.accessToken == "" || k.expiresAt.Sub(k.now()) <= k.cfg.SafetyMargin
}

// AddHook registers a weakly-held callback invoked after each successful
// renewal. The caller must retain the returned Registration for as long
// as it wants notifications; see Registration. Safe to call at any time,
// including before the first renewal. A nil hook returns a nil
// Registration.
func (k *Key) AddHook(hook RenewalHook) *Registration {
	return k.hooks.add(hook)
}

// Header returns a copy of the decoded header of the current token. Nil
// until a token has been decoded.
func (k *Key) Header() token.Header {
	k.mu.Lock()
	defer k.mu.Unlock()
	return copyMapping(k.header)
}

// Claims returns a copy of the decoded claims of the current token. Nil
// until a token has been decoded.
func (k *Key) Claims() token.Claims {
	k.mu.Lock()
	defer k.mu.Unlock()
	return copyMapping(k.claims)
}

// UserID returns the subject claim of the current token, or "unknown".
func (k *Key) UserID() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if sub := k.claims.Subject(); sub != "" {
		return sub
	}
	return "unknown"
}

// Name returns the key's name used in metrics and logs.
func (k *Key) Name() string {
	return k.name
}

// GrantType returns the OAuth2 grant type of the configured grant.
func (k *Key) GrantType() string {
	if k.cfg.Grant == nil {
		return ""
	}
	return k.cfg.Grant.Type()
}

// IsAlive reports whether background refresh is configured on. This is
// the static configuration flag, distinct from IsRunning, which reflects
// current task liveness.
func (k *Key) IsAlive() bool {
	return k.cfg.Alive
}

// Close stops the background refresher and marks the key closed. Safe to
// call more than once. Implements io.Closer.
func (k *Key) Close() error {
	if !k.closed.CompareAndSwap(false, true) {
		return nil
	}
	k.Stop()
	return nil
}

// setClientSecret rewrites the grant with the given client secret.
func (k *Key) setClientSecret(secret string) {
	switch g := k.cfg.Grant.(type) {
	case RefreshTokenGrant:
		g.ClientSecret = secret
		k.cfg.Grant = g
	case ClientCredentialsGrant:
		g.ClientSecret = secret
		k.cfg.Grant = g
	}
}

func copyMapping[M ~map[string]any](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for key, value := range m {
		out[key] = value
	}
	return out
}

// Compile-time interface checks.
var _ io.Closer = (*Key)(nil)
