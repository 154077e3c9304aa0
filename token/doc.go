// Package token extracts header and claim fields from compact
// three-segment bearer tokens.
//
// Decoding is claims extraction, not verification: the signature segment
// is never inspected, so decoded values must not be used as a trust
// boundary. Both padded and unpadded base64url segments are accepted.
//
//	tok, err := token.Decode(raw)
//	if err != nil {
//		// errors.Is(err, token.ErrMalformed) == true
//	}
//	sub := tok.Claims.Subject()
package token
