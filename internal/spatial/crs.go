// Package spatial implements the local planar projection and the point-stop
// density join used by the accessibility scoring model.
//
// Distances are computed in a local equirectangular projection anchored at a
// single reference latitude per run. The approximation is only valid for
// short ranges (a few kilometers) around the reference latitude; it is not a
// general-purpose geodesic projection.
package spatial

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// EarthRadiusM is the mean Earth radius in meters (spherical approximation).
const EarthRadiusM = 6_371_000.0

// maxRefLatDeg bounds the reference latitude away from the poles, where
// cos(lat) approaches zero and the inverse projection blows up.
const maxRefLatDeg = 89.0

// ErrEmptyInput indicates that a reference latitude was requested from an
// empty set of latitude values.
var ErrEmptyInput = eris.New("spatial: no latitude values")

// RefLatStrategy selects how the reference latitude is derived from data.
type RefLatStrategy string

const (
	// RefLatMean averages all latitudes; smooth and stable across runs.
	RefLatMean RefLatStrategy = "mean"
	// RefLatMedian is more robust to outlier coordinates.
	RefLatMedian RefLatStrategy = "median"
)

// ChooseReferenceLat derives the projection anchor latitude from the given
// values. NaN entries are skipped. Strategies other than median fall back to
// mean, matching the historical behavior of config-driven strategy strings.
func ChooseReferenceLat(latDeg []float64, strategy RefLatStrategy) (float64, error) {
	vals := make([]float64, 0, len(latDeg))
	for _, v := range latDeg {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, eris.Wrap(ErrEmptyInput, "spatial: choose reference latitude")
	}

	if strategy == RefLatMedian {
		sort.Float64s(vals)
		n := len(vals)
		if n%2 == 1 {
			return vals[n/2], nil
		}
		return (vals[n/2-1] + vals[n/2]) / 2, nil
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), nil
}

// Projection converts WGS84 lat/lon degrees to local planar meters and back,
// using one shared reference latitude. The zero value is not usable; build
// one with NewProjection so the pole guard applies.
type Projection struct {
	refLatDeg float64
	cosRef    float64
}

// NewProjection builds a projection anchored at refLatDeg. Latitudes near the
// poles are rejected rather than silently producing Inf/NaN in the inverse.
func NewProjection(refLatDeg float64) (Projection, error) {
	if math.IsNaN(refLatDeg) || math.Abs(refLatDeg) >= maxRefLatDeg {
		return Projection{}, eris.Errorf("spatial: reference latitude %.4f is unusable for a planar projection", refLatDeg)
	}
	return Projection{
		refLatDeg: refLatDeg,
		cosRef:    math.Cos(refLatDeg * math.Pi / 180),
	}, nil
}

// ReferenceLat returns the anchor latitude in degrees.
func (p Projection) ReferenceLat() float64 { return p.refLatDeg }

// ToXY projects WGS84 degrees to planar meters:
// x = R*lon_rad*cos(ref_lat), y = R*lat_rad.
func (p Projection) ToXY(latDeg, lonDeg float64) (x, y float64) {
	x = EarthRadiusM * (lonDeg * math.Pi / 180) * p.cosRef
	y = EarthRadiusM * (latDeg * math.Pi / 180)
	return x, y
}

// ToLatLon inverts ToXY.
func (p Projection) ToLatLon(x, y float64) (latDeg, lonDeg float64) {
	latDeg = (y / EarthRadiusM) * 180 / math.Pi
	lonDeg = (x / (EarthRadiusM * p.cosRef)) * 180 / math.Pi
	return latDeg, lonDeg
}

// ProjectAll projects parallel lat/lon slices in one pass.
func (p Projection) ProjectAll(latDeg, lonDeg []float64) (xs, ys []float64) {
	xs = make([]float64, len(latDeg))
	ys = make([]float64, len(latDeg))
	for i := range latDeg {
		xs[i], ys[i] = p.ToXY(latDeg[i], lonDeg[i])
	}
	return xs, ys
}
