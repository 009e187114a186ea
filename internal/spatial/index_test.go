package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIndex_Within(t *testing.T) {
	xs := []float64{0, 100, 0, -250, 600}
	ys := []float64{0, 0, 200, -100, 0}
	ix := NewPointIndex(xs, ys)
	require.Equal(t, 5, ix.Len())

	tests := []struct {
		name   string
		x, y   float64
		radius float64
		want   []int
	}{
		{"small radius", 0, 0, 150, []int{0, 1}},
		{"medium radius", 0, 0, 300, []int{0, 1, 2, 3}},
		{"all", 0, 0, 1000, []int{0, 1, 2, 3, 4}},
		{"exact boundary included", 0, 0, 100, []int{0, 1}},
		{"offset origin", 600, 0, 50, []int{4}},
		{"nothing nearby", 10000, 10000, 500, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.Within(tt.x, tt.y, tt.radius)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got, "indices must come back sorted")
		})
	}
}

func TestPointIndex_WithinDegenerate(t *testing.T) {
	ix := NewPointIndex(nil, nil)
	assert.Nil(t, ix.Within(0, 0, 100))

	ix = NewPointIndex([]float64{1}, []float64{1})
	assert.Nil(t, ix.Within(0, 0, 0), "non-positive radius matches nothing")
	assert.Nil(t, ix.Within(0, 0, -5))
}

func TestPointIndex_DenseGrid(t *testing.T) {
	// Enough points to force internal node splits, so insert and search run
	// through the full tree machinery rather than a single leaf.
	var xs, ys []float64
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			xs = append(xs, float64(i)*100)
			ys = append(ys, float64(j)*100)
		}
	}
	ix := NewPointIndex(xs, ys)
	require.Equal(t, 400, ix.Len())

	// Radius 150 around (1000, 1000) covers the center point, its four
	// axis-aligned neighbors at 100 m, and the four diagonals at ~141.4 m.
	got := ix.Within(1000, 1000, 150)
	assert.Len(t, got, 9)

	got = ix.Within(1000, 1000, 99)
	assert.Len(t, got, 1)

	assert.Len(t, ix.Within(0, 0, 5000), 400, "radius covering the whole grid returns every point")
}

func TestPointIndex_Distance(t *testing.T) {
	ix := NewPointIndex([]float64{3}, []float64{4})
	assert.InDelta(t, 5.0, ix.Distance(0, 0, 0), 1e-12)
	assert.InDelta(t, 0.0, ix.Distance(0, 3, 4), 1e-12)
}
