package serializer

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgPackSerializer serializes values as MessagePack, which is faster and
// smaller than JSON for structured and numeric data.
type MsgPackSerializer struct{}

// NewMsgPackSerializer creates a MessagePack serializer.
func NewMsgPackSerializer() *MsgPackSerializer {
	return &MsgPackSerializer{}
}

// Encode serializes v into MessagePack bytes.
func (s *MsgPackSerializer) Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding msgpack: %w", err)
	}
	return data, nil
}

// EncodeString serializes v into a base64-encoded string.
func (s *MsgPackSerializer) EncodeString(v any) (string, error) {
	return encodeString(s, v)
}

// Decode deserializes MessagePack bytes into v.
func (s *MsgPackSerializer) Decode(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding msgpack: %w", err)
	}
	return nil
}

// DecodeString deserializes a base64-encoded string into v.
func (s *MsgPackSerializer) DecodeString(encoded string, v any) error {
	return decodeString(s, encoded, v)
}

// ContentType returns the MIME type of the wire format.
func (s *MsgPackSerializer) ContentType() string {
	return "application/msgpack"
}

// Ensure MsgPackSerializer implements Serializer.
var _ Serializer = (*MsgPackSerializer)(nil)
