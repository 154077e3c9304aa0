// Package serializer provides pluggable value serialization.
package serializer

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingBatch is a representative payload: mixed strings and numeric
// vectors, the shape of data that travels through serializers here.
type embeddingBatch struct {
	Model   string      `json:"model" msgpack:"model"`
	Inputs  []string    `json:"inputs" msgpack:"inputs"`
	Vectors [][]float64 `json:"vectors" msgpack:"vectors"`
}

func testBatch() embeddingBatch {
	return embeddingBatch{
		Model:  "relevai-embed-v2",
		Inputs: []string{"first document", "second document"},
		Vectors: [][]float64{
			{0.125, -0.5, 0.75},
			{0.0625, 0.25, -1.0},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		want    Serializer
		wantErr bool
	}{
		{
			name:   "json",
			format: FormatJSON,
			want:   &JSONSerializer{},
		},
		{
			name:   "msgpack",
			format: FormatMsgPack,
			want:   &MsgPackSerializer{},
		},
		{
			name:   "lz4",
			format: FormatLZ4,
			want:   &LZ4Serializer{},
		},
		{
			name:    "unknown format",
			format:  Format("avro"),
			wantErr: true,
		},
		{
			name:    "empty format",
			format:  Format(""),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.format)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFormat)
				assert.Nil(t, s)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestNew_LZ4DefaultLevel(t *testing.T) {
	s, err := New(FormatLZ4)
	require.NoError(t, err)

	lz, ok := s.(*LZ4Serializer)
	require.True(t, ok)
	assert.Equal(t, DefaultLZ4Level, lz.Level())
}

func TestSerializer_StringForms(t *testing.T) {
	serializers := map[string]Serializer{
		"json":    NewJSONSerializer(),
		"msgpack": NewMsgPackSerializer(),
		"lz4":     NewLZ4Serializer(DefaultLZ4Level),
	}

	for name, s := range serializers {
		t.Run(name, func(t *testing.T) {
			original := testBatch()

			encoded, err := s.EncodeString(original)
			require.NoError(t, err)

			// The string form is the byte form in standard base64.
			raw, err := base64.StdEncoding.DecodeString(encoded)
			require.NoError(t, err)

			data, err := s.Encode(original)
			require.NoError(t, err)
			assert.Equal(t, data, raw)

			var decoded embeddingBatch
			err = s.DecodeString(encoded, &decoded)
			require.NoError(t, err)
			assert.Equal(t, original, decoded)
		})
	}
}

func TestSerializer_DecodeStringInvalidBase64(t *testing.T) {
	serializers := map[string]Serializer{
		"json":    NewJSONSerializer(),
		"msgpack": NewMsgPackSerializer(),
		"lz4":     NewLZ4Serializer(DefaultLZ4Level),
	}

	for name, s := range serializers {
		t.Run(name, func(t *testing.T) {
			var out embeddingBatch
			err := s.DecodeString("not valid base64 %%%", &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "decoding base64")
		})
	}
}
