package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// segmentCount is the number of period-separated segments in a compact token.
const segmentCount = 3

// Token holds the decoded header and claim mappings of a compact token.
// The signature segment is carried verbatim and never validated.
type Token struct {
	// Header contains the decoded header fields.
	Header Header

	// Claims contains the decoded payload fields.
	Claims Claims

	// Signature is the raw, still-encoded third segment.
	Signature string
}

// Decode parses a compact three-segment token string into its header and
// claim mappings without verifying the signature.
//
// The string must contain exactly three period-separated segments, and the
// first two must each be base64url-encoded JSON objects. Padded and
// unpadded encodings are both accepted. Any violation returns a
// *MalformedTokenError matching ErrMalformed.
func Decode(raw string) (*Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != segmentCount {
		return nil, newMalformedError(
			fmt.Sprintf("expected %d segments, got %d", segmentCount, len(parts)), nil)
	}

	header, err := decodeSegment(parts[0])
	if err != nil {
		return nil, newMalformedError("header segment", err)
	}

	claims, err := decodeSegment(parts[1])
	if err != nil {
		return nil, newMalformedError("payload segment", err)
	}

	return &Token{
		Header:    Header(header),
		Claims:    Claims(claims),
		Signature: parts[2],
	}, nil
}

// decodeSegment decodes one base64url JSON object segment. Trailing padding
// is stripped first so padded and unpadded inputs decode identically.
func decodeSegment(segment string) (map[string]any, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
