package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsgPackSerializer_RoundTrip(t *testing.T) {
	s := NewMsgPackSerializer()

	original := testBatch()

	data, err := s.Encode(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var decoded embeddingBatch
	err = s.Decode(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestMsgPackSerializer_CompactNumericPayload(t *testing.T) {
	s := NewMsgPackSerializer()
	j := NewJSONSerializer()

	// Numeric vectors are the payloads msgpack exists for here. It stores
	// float64 in 9 bytes where JSON spells out the decimal digits.
	vectors := make([][]float64, 16)
	for i := range vectors {
		row := make([]float64, 64)
		for k := range row {
			row[k] = 0.123456789 * float64(i+1) * float64(k+1)
		}
		vectors[i] = row
	}

	packed, err := s.Encode(vectors)
	require.NoError(t, err)

	plain, err := j.Encode(vectors)
	require.NoError(t, err)

	assert.Less(t, len(packed), len(plain))
}

func TestMsgPackSerializer_DecodeInvalid(t *testing.T) {
	s := NewMsgPackSerializer()

	var out embeddingBatch
	// 0xc1 is the one code the msgpack spec reserves as never-used.
	err := s.Decode([]byte{0xc1}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding msgpack")
}

func TestMsgPackSerializer_ContentType(t *testing.T) {
	assert.Equal(t, "application/msgpack", NewMsgPackSerializer().ContentType())
}
