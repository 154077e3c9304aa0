package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{
			name:  "seconds",
			input: `d: "30s"`,
			want:  30 * time.Second,
		},
		{
			name:  "compound",
			input: `d: "1h30m"`,
			want:  90 * time.Minute,
		},
		{
			name:  "milliseconds",
			input: `d: "300ms"`,
			want:  300 * time.Millisecond,
		},
		{
			name:  "empty string",
			input: `d: ""`,
			want:  0,
		},
		{
			name:    "not a duration",
			input:   `d: "soon"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &out)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.D.Duration())
		})
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{D: Duration(90 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, "d: 1m30s\n", string(out))
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{
			name:  "quoted duration",
			input: `{"d":"45s"}`,
			want:  45 * time.Second,
		},
		{
			name:  "null",
			input: `{"d":null}`,
			want:  0,
		},
		{
			name:  "empty string",
			input: `{"d":""}`,
			want:  0,
		},
		{
			name:    "not a duration",
			input:   `{"d":"whenever"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out struct {
				D Duration `json:"d"`
			}
			err := json.Unmarshal([]byte(tt.input), &out)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.D.Duration())
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(struct {
		D Duration `json:"d"`
	}{D: Duration(5 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, `{"d":"5m0s"}`, string(out))
}
