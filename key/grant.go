package key

import "net/url"

// OAuth2 grant type values sent in the issuance request body.
const (
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeClientCredentials = "client_credentials"
)

// Grant produces the request body for a token issuance call. The two
// concrete variants form a closed set chosen at construction; a Grant is
// an immutable value with no failure modes of its own. Invalid credentials
// surface only when the issuance endpoint rejects them.
type Grant interface {
	// Type returns the OAuth2 grant type this strategy requests.
	Type() string

	// Form returns the form-encoded request body fields.
	Form() url.Values
}

// RefreshTokenGrant exchanges a long-lived refresh token, typically an
// account API key, for short-lived access tokens. The client secret is
// optional and omitted from the body when empty.
type RefreshTokenGrant struct {
	ClientID     string
	RefreshToken string
	ClientSecret string
}

// Type returns the OAuth2 grant type.
func (g RefreshTokenGrant) Type() string {
	return GrantTypeRefreshToken
}

// Form returns the form-encoded request body fields.
func (g RefreshTokenGrant) Form() url.Values {
	data := url.Values{}
	data.Set("grant_type", g.Type())
	data.Set("client_id", g.ClientID)
	data.Set("refresh_token", g.RefreshToken)
	if g.ClientSecret != "" {
		data.Set("client_secret", g.ClientSecret)
	}
	return data
}

// ClientCredentialsGrant authenticates a service account with its client
// secret.
type ClientCredentialsGrant struct {
	ClientID     string
	ClientSecret string
}

// Type returns the OAuth2 grant type.
func (g ClientCredentialsGrant) Type() string {
	return GrantTypeClientCredentials
}

// Form returns the form-encoded request body fields.
func (g ClientCredentialsGrant) Form() url.Values {
	data := url.Values{}
	data.Set("grant_type", g.Type())
	data.Set("client_id", g.ClientID)
	data.Set("client_secret", g.ClientSecret)
	return data
}

// Compile-time interface checks.
var (
	_ Grant = RefreshTokenGrant{}
	_ Grant = ClientCredentialsGrant{}
)
