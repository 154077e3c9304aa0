package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// DefaultLZ4Level is the default LZ4 compression level.
const DefaultLZ4Level = 1

// lz4Levels maps integer levels onto the lz4 level constants. Index 0 is
// the fast path without the high-compression match finder.
var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1,
	lz4.Level2,
	lz4.Level3,
	lz4.Level4,
	lz4.Level5,
	lz4.Level6,
	lz4.Level7,
	lz4.Level8,
	lz4.Level9,
}

// LZ4Serializer serializes values as LZ4-compressed JSON using the LZ4
// frame format. Suitable for large payloads such as embedding batches,
// where compression throughput matters more than ratio.
type LZ4Serializer struct {
	level int
}

// NewLZ4Serializer creates an LZ4 serializer with the given compression
// level. Levels are clamped to [0, 9]; higher levels compress more.
func NewLZ4Serializer(level int) *LZ4Serializer {
	if level < 0 {
		level = 0
	}
	if level >= len(lz4Levels) {
		level = len(lz4Levels) - 1
	}
	return &LZ4Serializer{level: level}
}

// Level returns the configured compression level.
func (s *LZ4Serializer) Level() int {
	return s.level
}

// Encode serializes v into an LZ4 frame of JSON bytes.
func (s *LZ4Serializer) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[s.level])); err != nil {
		return nil, fmt.Errorf("configuring lz4 writer: %w", err)
	}

	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compressing lz4: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing lz4 frame: %w", err)
	}

	return buf.Bytes(), nil
}

// EncodeString serializes v into a base64-encoded string.
func (s *LZ4Serializer) EncodeString(v any) (string, error) {
	return encodeString(s, v)
}

// Decode deserializes an LZ4 frame of JSON bytes into v.
func (s *LZ4Serializer) Decode(data []byte, v any) error {
	zr := lz4.NewReader(bytes.NewReader(data))

	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("decompressing lz4: %w", err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

// DecodeString deserializes a base64-encoded string into v.
func (s *LZ4Serializer) DecodeString(encoded string, v any) error {
	return decodeString(s, encoded, v)
}

// ContentType returns the MIME type of the wire format.
func (s *LZ4Serializer) ContentType() string {
	return "application/x-lz4"
}

// Ensure LZ4Serializer implements Serializer.
var _ Serializer = (*LZ4Serializer)(nil)
