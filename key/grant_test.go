package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenGrant(t *testing.T) {
	t.Parallel()

	t.Run("type", func(t *testing.T) {
		t.Parallel()

		g := RefreshTokenGrant{ClientID: "c", RefreshToken: "r"}
		assert.Equal(t, GrantTypeRefreshToken, g.Type())
	})

	t.Run("form without secret", func(t *testing.T) {
		t.Parallel()

		g := RefreshTokenGrant{ClientID: "acme", RefreshToken: "api-key"}
		form := g.Form()

		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "acme", form.Get("client_id"))
		assert.Equal(t, "api-key", form.Get("refresh_token"))
		assert.False(t, form.Has("client_secret"))
		assert.Len(t, form, 3)
	})

	t.Run("form with secret", func(t *testing.T) {
		t.Parallel()

		g := RefreshTokenGrant{ClientID: "acme", RefreshToken: "api-key", ClientSecret: "s3cret"}
		form := g.Form()

		assert.Equal(t, "s3cret", form.Get("client_secret"))
		assert.Len(t, form, 4)
	})
}

func TestClientCredentialsGrant(t *testing.T) {
	t.Parallel()

	t.Run("type", func(t *testing.T) {
		t.Parallel()

		g := ClientCredentialsGrant{ClientID: "c", ClientSecret: "s"}
		assert.Equal(t, GrantTypeClientCredentials, g.Type())
	})

	t.Run("form", func(t *testing.T) {
		t.Parallel()

		g := ClientCredentialsGrant{ClientID: "svc", ClientSecret: "svc-secret"}
		form := g.Form()

		assert.Equal(t, "client_credentials", form.Get("grant_type"))
		assert.Equal(t, "svc", form.Get("client_id"))
		assert.Equal(t, "svc-secret", form.Get("client_secret"))
		assert.Len(t, form, 3)
	})

	t.Run("form always carries the secret field", func(t *testing.T) {
		t.Parallel()

		g := ClientCredentialsGrant{ClientID: "svc"}
		form := g.Form()

		assert.True(t, form.Has("client_secret"))
		assert.Empty(t, form.Get("client_secret"))
	})
}
