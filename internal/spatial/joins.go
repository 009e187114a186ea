package spatial

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/catalog"
)

// QueryPoint is a point whose surrounding stop density is being measured
// (a library branch or an outreach candidate).
type QueryPoint struct {
	ID  string
	Lat float64
	Lon float64
}

// RadiusMetrics holds stop counts and densities for one buffer radius.
type RadiusMetrics struct {
	StopCountTotal int
	StopCountBus   int
	StopCountMetro int
	DensityTotal   float64 // stops per km²
	DensityBus     float64
	DensityMetro   float64
}

// Density returns the per-km² density for a mode name. Unknown modes have no
// density column and score zero credit.
func (m RadiusMetrics) Density(mode string) float64 {
	switch mode {
	case catalog.ModeBus:
		return m.DensityBus
	case catalog.ModeMetro:
		return m.DensityMetro
	default:
		return 0
	}
}

// DensityRow is the per-point output of the density join. Points dropped for
// missing coordinates do not appear.
type DensityRow struct {
	ID              string
	ReferenceLatDeg float64
	ByRadius        map[int]RadiusMetrics
}

// DensityOptions tunes ComputePointStopDensity.
type DensityOptions struct {
	// ReferenceLatDeg fixes the projection anchor. When nil it is derived
	// from the union of point and stop latitudes using Strategy.
	ReferenceLatDeg *float64
	// Strategy selects the derivation method; default mean.
	Strategy RefLatStrategy
}

// ComputePointStopDensity counts transit stops within each configured radius
// of every query point and converts counts to stops/km². Rows with NaN
// coordinates are dropped from both inputs before projection. The returned
// reference latitude must be reused for any further distance math that will
// be compared against these metrics.
//
// Output is deterministic for fixed inputs: rows follow point input order and
// every qualifying stop is counted.
func ComputePointStopDensity(points []QueryPoint, stops []catalog.Stop, radiiM []int, opts DensityOptions) ([]DensityRow, float64, error) {
	radii, err := normalizeRadii(radiiM)
	if err != nil {
		return nil, 0, err
	}

	kept := make([]QueryPoint, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) {
			kept = append(kept, p)
		}
	}
	keptStops := make([]catalog.Stop, 0, len(stops))
	for _, s := range stops {
		if !math.IsNaN(s.Lat) && !math.IsNaN(s.Lon) {
			keptStops = append(keptStops, s)
		}
	}
	if dropped := len(points) - len(kept) + len(stops) - len(keptStops); dropped > 0 {
		zap.L().Debug("joins: dropped rows with missing coordinates", zap.Int("rows", dropped))
	}

	refLat, err := resolveReferenceLat(kept, keptStops, opts)
	if err != nil {
		return nil, 0, err
	}
	proj, err := NewProjection(refLat)
	if err != nil {
		return nil, 0, err
	}

	sxs := make([]float64, len(keptStops))
	sys := make([]float64, len(keptStops))
	for i, s := range keptStops {
		sxs[i], sys[i] = proj.ToXY(s.Lat, s.Lon)
	}
	index := NewPointIndex(sxs, sys)

	rows := make([]DensityRow, 0, len(kept))
	for _, p := range kept {
		px, py := proj.ToXY(p.Lat, p.Lon)
		row := DensityRow{
			ID:              p.ID,
			ReferenceLatDeg: refLat,
			ByRadius:        make(map[int]RadiusMetrics, len(radii)),
		}
		for _, r := range radii {
			var m RadiusMetrics
			for _, si := range index.Within(px, py, float64(r)) {
				m.StopCountTotal++
				switch keptStops[si].Mode {
				case catalog.ModeBus:
					m.StopCountBus++
				case catalog.ModeMetro:
					m.StopCountMetro++
				}
			}
			areaKm2 := math.Pi * math.Pow(float64(r)/1000, 2)
			m.DensityTotal = float64(m.StopCountTotal) / areaKm2
			m.DensityBus = float64(m.StopCountBus) / areaKm2
			m.DensityMetro = float64(m.StopCountMetro) / areaKm2
			row.ByRadius[r] = m
		}
		rows = append(rows, row)
	}

	return rows, refLat, nil
}

// normalizeRadii sorts, dedupes, and validates buffer radii.
func normalizeRadii(radiiM []int) ([]int, error) {
	seen := make(map[int]bool, len(radiiM))
	out := make([]int, 0, len(radiiM))
	for _, r := range radiiM {
		if r <= 0 {
			return nil, eris.Errorf("joins: radius must be > 0, got %d", r)
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out, nil
}

func resolveReferenceLat(points []QueryPoint, stops []catalog.Stop, opts DensityOptions) (float64, error) {
	if opts.ReferenceLatDeg != nil {
		return *opts.ReferenceLatDeg, nil
	}
	lats := make([]float64, 0, len(points)+len(stops))
	for _, p := range points {
		lats = append(lats, p.Lat)
	}
	for _, s := range stops {
		lats = append(lats, s.Lat)
	}
	refLat, err := ChooseReferenceLat(lats, opts.Strategy)
	if err != nil {
		return 0, eris.Wrap(err, "joins: derive reference latitude")
	}
	return refLat, nil
}
