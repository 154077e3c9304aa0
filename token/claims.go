package token

import (
	"encoding/json"
	"strconv"
	"time"
)

// Header is the decoded header mapping of a token.
type Header map[string]any

// Algorithm returns the "alg" header field, or an empty string.
func (h Header) Algorithm() string {
	return stringField(h, "alg")
}

// Type returns the "typ" header field, or an empty string.
func (h Header) Type() string {
	return stringField(h, "typ")
}

// KeyID returns the "kid" header field, or an empty string.
func (h Header) KeyID() string {
	return stringField(h, "kid")
}

// Claims is the decoded payload mapping of a token. Values carry
// JSON-native types: strings, float64 numbers, booleans, nested maps
// and slices.
type Claims map[string]any

// Subject returns the "sub" claim, or an empty string.
func (c Claims) Subject() string {
	return stringField(c, "sub")
}

// Issuer returns the "iss" claim, or an empty string.
func (c Claims) Issuer() string {
	return stringField(c, "iss")
}

// StringClaim returns the named claim if present and a string.
func (c Claims) StringClaim(name string) (string, bool) {
	v, ok := c[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ExpiresAt returns the "exp" claim as a wall-clock instant. The second
// return value reports whether a usable "exp" claim was present.
func (c Claims) ExpiresAt() (time.Time, bool) {
	return c.timeClaim("exp")
}

// IssuedAt returns the "iat" claim as a wall-clock instant.
func (c Claims) IssuedAt() (time.Time, bool) {
	return c.timeClaim("iat")
}

// timeClaim parses a numeric-date claim. JSON numbers decode as float64,
// but json.Number and numeric strings are tolerated as well.
func (c Claims) timeClaim(name string) (time.Time, bool) {
	v, ok := c[name]
	if !ok {
		return time.Time{}, false
	}

	switch val := v.(type) {
	case float64:
		return time.Unix(int64(val), 0), true
	case int64:
		return time.Unix(val, 0), true
	case int:
		return time.Unix(int64(val), 0), true
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return time.Unix(n, 0), true
		}
	case string:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return time.Unix(n, 0), true
		}
	}
	return time.Time{}, false
}

func stringField(m map[string]any, name string) string {
	if v, ok := m[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
