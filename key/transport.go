package key

import "net/http"

// Transport is an http.RoundTripper that attaches a bearer token from the
// key to every outgoing request. Requests are cloned before modification,
// per the RoundTripper contract.
type Transport struct {
	// Key supplies the token. Required.
	Key *Key

	// Base is the underlying round tripper. Nil means
	// http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper. A renewal failure aborts the
// request.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	value, err := t.Key.AuthorizationValue(req.Context())
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Header.Set("Authorization", value)

	return t.base().RoundTrip(out)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Client returns an http.Client whose requests carry tokens from the key.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// Ensure Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)
