package spatial

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// pointExtent is the half-side of the degenerate rectangle each point is
// stored as; rtreego requires rectangles with positive extent.
const pointExtent = 1e-9

type pointEntry struct {
	rect rtreego.Rect
	idx  int
}

func (e *pointEntry) Bounds() rtreego.Rect { return e.rect }

var _ rtreego.Spatial = (*pointEntry)(nil)

// PointIndex answers "all points within radius r of (x, y)" range queries
// over a fixed set of planar points. It is built once and read-only after
// construction, so concurrent queries need no locking.
type PointIndex struct {
	tree *rtreego.Rtree
	xs   []float64
	ys   []float64
}

// NewPointIndex indexes the given planar coordinates. The slices are
// retained; callers must not mutate them afterwards.
func NewPointIndex(xs, ys []float64) *PointIndex {
	tree := rtreego.NewTree(2, 16, 64)
	for i := range xs {
		p := rtreego.Point{xs[i], ys[i]}
		tree.Insert(&pointEntry{rect: p.ToRect(pointExtent), idx: i})
	}
	return &PointIndex{tree: tree, xs: xs, ys: ys}
}

// Len returns the number of indexed points.
func (ix *PointIndex) Len() int { return len(ix.xs) }

// Within returns the indices of all points whose Euclidean distance from
// (x, y) is <= radius, in ascending index order. The R-tree narrows the
// search to a bounding box; exact distances filter the rest.
func (ix *PointIndex) Within(x, y, radius float64) []int {
	if len(ix.xs) == 0 || radius <= 0 {
		return nil
	}

	side := 2 * (radius + pointExtent)
	box, err := rtreego.NewRect(rtreego.Point{x - radius - pointExtent, y - radius - pointExtent}, []float64{side, side})
	if err != nil {
		return nil
	}

	hits := ix.tree.SearchIntersect(box)
	r2 := radius * radius
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		e := h.(*pointEntry)
		dx := ix.xs[e.idx] - x
		dy := ix.ys[e.idx] - y
		if dx*dx+dy*dy <= r2 {
			out = append(out, e.idx)
		}
	}
	sort.Ints(out)
	return out
}

// Distance returns the Euclidean distance from (x, y) to the indexed point i.
func (ix *PointIndex) Distance(i int, x, y float64) float64 {
	dx := ix.xs[i] - x
	dy := ix.ys[i] - y
	return math.Sqrt(dx*dx + dy*dy)
}
