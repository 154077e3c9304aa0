package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{
			name:  "even split",
			items: []int{1, 2, 3, 4},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:  "uneven tail",
			items: []int{1, 2, 3, 4, 5},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:  "size larger than input",
			items: []int{1, 2},
			size:  10,
			want:  [][]int{{1, 2}},
		},
		{
			name:  "size one",
			items: []int{1, 2, 3},
			size:  1,
			want:  [][]int{{1}, {2}, {3}},
		},
		{
			name:  "zero size keeps everything together",
			items: []int{1, 2, 3},
			size:  0,
			want:  [][]int{{1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Chunk(tt.items, tt.size))
		})
	}
}

func TestChunk_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Chunk[string](nil, 3))
	assert.Nil(t, Chunk([]string{}, 3))
}

func TestChunk_PreservesOrder(t *testing.T) {
	t.Parallel()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var flat []int
	for _, batch := range Chunk(items, 7) {
		flat = append(flat, batch...)
	}
	require.Equal(t, items, flat)
}

func TestStripMonotonic(t *testing.T) {
	t.Parallel()

	now := time.Now()
	stripped := StripMonotonic(now)
	assert.True(t, stripped.Equal(now))
	assert.NotContains(t, stripped.String(), " m=+")
}

func TestElapsed(t *testing.T) {
	t.Parallel()

	start := time.Now().Add(-time.Second)
	assert.GreaterOrEqual(t, Elapsed(start), time.Second)
}
