package serializer

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Format identifies a serialization format.
type Format string

const (
	// FormatJSON serializes to JSON.
	FormatJSON Format = "json"
	// FormatMsgPack serializes to MessagePack.
	FormatMsgPack Format = "msgpack"
	// FormatLZ4 serializes to LZ4-compressed JSON.
	FormatLZ4 Format = "lz4"
)

// ErrInvalidFormat is returned for an unknown serialization format.
var ErrInvalidFormat = errors.New("invalid serialization format")

// Serializer converts values to and from a wire format. The string forms
// wrap the byte forms in standard base64 so serialized values can travel
// through text-only channels.
type Serializer interface {
	// Encode serializes v into bytes.
	Encode(v any) ([]byte, error)

	// EncodeString serializes v into a base64-encoded string.
	EncodeString(v any) (string, error)

	// Decode deserializes data into v, which must be a pointer.
	Decode(data []byte, v any) error

	// DecodeString deserializes a base64-encoded string into v.
	DecodeString(s string, v any) error

	// ContentType returns the MIME type of the wire format.
	ContentType() string
}

// New creates a Serializer for the given format. The LZ4 serializer is
// created at DefaultLZ4Level.
func New(format Format) (Serializer, error) {
	switch format {
	case FormatJSON:
		return NewJSONSerializer(), nil
	case FormatMsgPack:
		return NewMsgPackSerializer(), nil
	case FormatLZ4:
		return NewLZ4Serializer(DefaultLZ4Level), nil
	default:
		return nil, fmt.Errorf("%w: %q, must be one of: json, msgpack, lz4", ErrInvalidFormat, format)
	}
}

// encodeString is the shared base64 wrapping for EncodeString.
func encodeString(s Serializer, v any) (string, error) {
	data, err := s.Encode(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// decodeString is the shared base64 unwrapping for DecodeString.
func decodeString(s Serializer, encoded string, v any) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decoding base64: %w", err)
	}
	return s.Decode(data, v)
}
