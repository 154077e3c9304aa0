package serializer

import (
	"encoding/json"
	"fmt"
)

// JSONSerializer serializes values as JSON.
type JSONSerializer struct{}

// NewJSONSerializer creates a JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Encode serializes v into JSON bytes.
func (s *JSONSerializer) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return data, nil
}

// EncodeString serializes v into a base64-encoded string.
func (s *JSONSerializer) EncodeString(v any) (string, error) {
	return encodeString(s, v)
}

// Decode deserializes JSON bytes into v.
func (s *JSONSerializer) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

// DecodeString deserializes a base64-encoded string into v.
func (s *JSONSerializer) DecodeString(encoded string, v any) error {
	return decodeString(s, encoded, v)
}

// ContentType returns the MIME type of the wire format.
func (s *JSONSerializer) ContentType() string {
	return "application/json"
}

// Ensure JSONSerializer implements Serializer.
var _ Serializer = (*JSONSerializer)(nil)
