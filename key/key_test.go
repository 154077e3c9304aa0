package key

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relev-ai/relevai-go/token"
)

// makeTestToken builds a decodable three-segment token from claims. The
// signature segment is filler; nothing in this package verifies it.
func makeTestToken(claims map[string]any) string {
	header := map[string]any{"alg": "HS256", "typ": "JWT"}
	headerJSON, _ := json.Marshal(header)
	claimsJSON, _ := json.Marshal(claims)

	return base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("signature"))
}

// fakeIssuer is a configurable issuance endpoint for tests.
type fakeIssuer struct {
	srv *httptest.Server

	mu        sync.Mutex
	requests  int
	status    int
	expiresIn int64
	token     string
	body      any
	lastForm  url.Values
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()

	f := &fakeIssuer{expiresIn: 3600}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) handle(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	f.mu.Lock()
	f.requests++
	f.lastForm = r.PostForm
	status := f.status
	expiresIn := f.expiresIn
	tok := f.token
	body := f.body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "issuance unavailable"})
		return
	}

	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
		return
	}

	if tok == "" {
		tok = makeTestToken(map[string]any{
			"sub": "user-1",
			"iss": "fake-issuer",
			"exp": time.Now().Add(time.Duration(expiresIn) * time.Second).Unix(),
		})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_in":   expiresIn,
	})
}

func (f *fakeIssuer) url() string { return f.srv.URL }

func (f *fakeIssuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeIssuer) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func (f *fakeIssuer) setStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = code
}

func (f *fakeIssuer) setExpiresIn(seconds int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiresIn = seconds
}

func (f *fakeIssuer) setToken(tok string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = tok
}

func (f *fakeIssuer) setBody(body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func serviceConfig(issuer *fakeIssuer) *Config {
	cfg := DefaultConfig()
	cfg.AuthURL = issuer.url()
	cfg.Grant = ClientCredentialsGrant{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
	}
	return cfg
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("performs initial issuance", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		assert.Equal(t, 1, issuer.count())

		tok, err := k.Token(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, tok)
		assert.Equal(t, 1, issuer.count(), "fresh token should not be renewed again")
	})

	t.Run("returns error for nil config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("returns error for missing auth URL", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Grant = ClientCredentialsGrant{ClientID: "c", ClientSecret: "s"}

		_, err := New(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("returns error for missing grant", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.AuthURL = "http://localhost:1"

		_, err := New(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("fails construction when initial issuance fails", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		issuer.setStatus(http.StatusInternalServerError)

		_, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIssuance)
	})

	t.Run("starts refresher when alive", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer))
		require.NoError(t, err)
		defer k.Close()

		assert.True(t, k.IsAlive())
		assert.True(t, k.IsRunning())
	})

	t.Run("does not start refresher when not alive", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		assert.False(t, k.IsAlive())
		assert.False(t, k.IsRunning())
	})

	t.Run("applies name option", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithName("billing"))
		require.NoError(t, err)
		defer k.Close()

		assert.Equal(t, "billing", k.Name())
	})
}

func TestNewClientKey(t *testing.T) {
	t.Parallel()

	t.Run("posts refresh token grant form", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := NewClientKey(context.Background(), issuer.url(), "acme", "api-key-123",
			WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		form := issuer.form()
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "acme", form.Get("client_id"))
		assert.Equal(t, "api-key-123", form.Get("refresh_token"))
		assert.False(t, form.Has("client_secret"), "empty secret should be omitted")
		assert.Equal(t, "refresh_token", k.GrantType())
	})

	t.Run("includes client secret when set", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := NewClientKey(context.Background(), issuer.url(), "acme", "api-key-123",
			WithAlive(false), WithClientSecret("confidential"))
		require.NoError(t, err)
		defer k.Close()

		form := issuer.form()
		assert.Equal(t, "confidential", form.Get("client_secret"))
	})
}

func TestNewServiceKey(t *testing.T) {
	t.Parallel()

	t.Run("posts client credentials grant form", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := NewServiceKey(context.Background(), issuer.url(), "svc", "svc-secret",
			WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		form := issuer.form()
		assert.Equal(t, "client_credentials", form.Get("grant_type"))
		assert.Equal(t, "svc", form.Get("client_id"))
		assert.Equal(t, "svc-secret", form.Get("client_secret"))
		assert.Equal(t, "client_credentials", k.GrantType())
	})
}

func TestKey_Token(t *testing.T) {
	t.Parallel()

	t.Run("returns current token while fresh", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		first, err := k.Token(context.Background())
		require.NoError(t, err)
		second, err := k.Token(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, issuer.count())
	})

	t.Run("renews when inside safety margin", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		issuer.setExpiresIn(60)
		clock := newFakeClock()

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithClock(clock.Now))
		require.NoError(t, err)
		defer k.Close()

		_, err = k.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, issuer.count(), "60s left against a 30s margin is fresh")

		clock.Advance(31 * time.Second)

		_, err = k.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, issuer.count(), "29s left against a 30s margin is due")
	})

	t.Run("propagates renewal failure and keeps prior state", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		issuer.setExpiresIn(60)
		clock := newFakeClock()

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithClock(clock.Now))
		require.NoError(t, err)
		defer k.Close()

		before, err := k.Token(context.Background())
		require.NoError(t, err)

		issuer.setStatus(http.StatusBadGateway)
		clock.Advance(45 * time.Second)

		_, err = k.Token(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIssuance)

		var issErr *IssuanceError
		require.ErrorAs(t, err, &issErr)
		assert.Equal(t, http.StatusBadGateway, issErr.StatusCode)

		k.mu.Lock()
		after := k.accessToken
		k.mu.Unlock()
		assert.Equal(t, before, after, "failed renewal must not clear the stored token")
	})

	t.Run("concurrent access of a fresh token issues nothing", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		var wg sync.WaitGroup
		var failures atomic.Int64
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := k.Token(context.Background())
				if err != nil || tok == "" {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Zero(t, failures.Load())
		assert.Equal(t, 1, issuer.count())
	})

	t.Run("returns ErrKeyClosed after close", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		require.NoError(t, k.Close())

		_, err = k.Token(context.Background())
		assert.ErrorIs(t, err, ErrKeyClosed)
	})
}

func TestKey_Renew(t *testing.T) {
	t.Parallel()

	t.Run("forces issuance regardless of freshness", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		require.NoError(t, k.Renew(context.Background()))
		require.NoError(t, k.Renew(context.Background()))
		assert.Equal(t, 3, issuer.count())
	})

	t.Run("replaces token claims and header together", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		issuer.setToken(makeTestToken(map[string]any{
			"sub": "user-2",
			"exp": time.Now().Add(time.Hour).Unix(),
		}))
		require.NoError(t, k.Renew(context.Background()))

		assert.Equal(t, "user-2", k.UserID())
		assert.Equal(t, "HS256", k.Header().Algorithm())
	})

	t.Run("returns ErrKeyClosed after close", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		require.NoError(t, k.Close())

		assert.ErrorIs(t, k.Renew(context.Background()), ErrKeyClosed)
	})
}

func TestKey_RenewAllOrNothing(t *testing.T) {
	t.Parallel()

	t.Run("undecodable issued token leaves state untouched", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		before, err := k.Token(context.Background())
		require.NoError(t, err)
		beforeClaims := k.Claims()

		issuer.setToken("not-a-decodable-token")
		err = k.Renew(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, token.ErrMalformed)

		after, err := k.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, beforeClaims, k.Claims())
	})

	t.Run("response missing access_token is an issuance error", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		issuer.setBody(map[string]any{"token_type": "Bearer", "expires_in": 3600})
		assert.ErrorIs(t, k.Renew(context.Background()), ErrIssuance)
	})

	t.Run("non-positive expires_in is an issuance error", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		issuer.setBody(map[string]any{
			"access_token": makeTestToken(map[string]any{"sub": "x"}),
			"token_type":   "Bearer",
			"expires_in":   0,
		})
		assert.ErrorIs(t, k.Renew(context.Background()), ErrIssuance)
	})
}

func TestKey_Seeded(t *testing.T) {
	t.Parallel()

	t.Run("skips initial issuance", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		seed := makeTestToken(map[string]any{
			"sub": "seeded-user",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithSeedToken(seed))
		require.NoError(t, err)
		defer k.Close()

		assert.Equal(t, 0, issuer.count())

		tok, err := k.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, seed, tok)
		assert.Equal(t, 0, issuer.count(), "a fresh seed needs no renewal")
		assert.Equal(t, "seeded-user", k.UserID())
	})

	t.Run("expired seed renews on first access", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		seed := makeTestToken(map[string]any{
			"sub": "seeded-user",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithSeedToken(seed))
		require.NoError(t, err)
		defer k.Close()

		assert.Equal(t, 0, issuer.count())

		tok, err := k.Token(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, seed, tok)
		assert.Equal(t, 1, issuer.count())
	})

	t.Run("seed without exp claim is treated as expired", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		seed := makeTestToken(map[string]any{"sub": "seeded-user"})

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithSeedToken(seed))
		require.NoError(t, err)
		defer k.Close()

		assert.Negative(t, k.ExpiresIn())

		_, err = k.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, issuer.count())
	})

	t.Run("undecodable seed is installed but expired", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithSeedToken("opaque-token"))
		require.NoError(t, err)
		defer k.Close()

		assert.Nil(t, k.Claims())
		assert.Nil(t, k.Header())

		_, err = k.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, issuer.count())
	})
}

func TestKey_ExpiresIn(t *testing.T) {
	t.Parallel()

	t.Run("tracks issued lifetime", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		issuer.setExpiresIn(120)
		clock := newFakeClock()

		k, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithClock(clock.Now))
		require.NoError(t, err)
		defer k.Close()

		assert.Equal(t, 120*time.Second, k.ExpiresIn())

		clock.Advance(50 * time.Second)
		assert.Equal(t, 70*time.Second, k.ExpiresIn())

		clock.Advance(100 * time.Second)
		assert.Equal(t, -30*time.Second, k.ExpiresIn())
	})
}

func TestKey_Accessors(t *testing.T) {
	t.Parallel()

	t.Run("returned mappings are copies", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		claims := k.Claims()
		require.NotNil(t, claims)
		claims["sub"] = "tampered"

		assert.Equal(t, "user-1", k.Claims().Subject())

		header := k.Header()
		require.NotNil(t, header)
		header["alg"] = "none"

		assert.Equal(t, "HS256", k.Header().Algorithm())
	})

	t.Run("user id falls back to unknown", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)
		issuer.setToken(makeTestToken(map[string]any{
			"exp": time.Now().Add(time.Hour).Unix(),
		}))

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		assert.Equal(t, "unknown", k.UserID())
	})

	t.Run("authorization value carries bearer scheme", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		defer k.Close()

		tok, err := k.Token(context.Background())
		require.NoError(t, err)

		value, err := k.AuthorizationValue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer "+tok, value)
	})
}

func TestKey_Close(t *testing.T) {
	t.Parallel()

	t.Run("stops the refresher and is idempotent", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer))
		require.NoError(t, err)
		require.True(t, k.IsRunning())

		require.NoError(t, k.Close())
		assert.False(t, k.IsRunning())

		require.NoError(t, k.Close())
	})

	t.Run("closed key rejects access but keeps accessors", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		k, err := New(context.Background(), serviceConfig(issuer), WithAlive(false))
		require.NoError(t, err)
		require.NoError(t, k.Close())

		_, err = k.Token(context.Background())
		assert.ErrorIs(t, err, ErrKeyClosed)
		assert.ErrorIs(t, k.Renew(context.Background()), ErrKeyClosed)

		_, err = k.AuthorizationValue(context.Background())
		assert.ErrorIs(t, err, ErrKeyClosed)

		assert.Equal(t, "user-1", k.UserID(), "decoded state outlives Close")
	})
}

func TestKey_SecretSource(t *testing.T) {
	t.Parallel()

	t.Run("resolves client secret at construction", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		cfg := serviceConfig(issuer)
		cfg.Grant = ClientCredentialsGrant{ClientID: "svc"}

		src := stubSecretSource{"issuer/secret": "from-source"}

		k, err := New(context.Background(), cfg,
			WithAlive(false), WithSecretSource(src, "issuer/secret"))
		require.NoError(t, err)
		defer k.Close()

		assert.Equal(t, "from-source", issuer.form().Get("client_secret"))
	})

	t.Run("fails construction when resolution fails", func(t *testing.T) {
		t.Parallel()

		issuer := newFakeIssuer(t)

		_, err := New(context.Background(), serviceConfig(issuer),
			WithAlive(false), WithSecretSource(stubSecretSource{}, "missing"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Equal(t, 0, issuer.count())
	})
}

// stubSecretSource is a map-backed secrets.Source.
type stubSecretSource map[string]string

func (s stubSecretSource) Name() string { return "stub" }

func (s stubSecretSource) Get(_ context.Context, key string) (string, error) {
	value, ok := s[key]
	if !ok {
		return "", errors.New("secret not found: " + key)
	}
	return value, nil
}

func (s stubSecretSource) Close() error { return nil }
