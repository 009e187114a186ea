// Package planning implements the desert grid engine and outreach-site
// ranking on top of scored library branches.
package planning

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/libraryreach/reach-cli/internal/spatial"
)

// DecayPolicy names how a library's score fades with distance from a cell.
type DecayPolicy string

const (
	// DecayLinear fades linearly from 1.0 at d=0 to 0.0 at d>=zero_at_m.
	DecayLinear DecayPolicy = "linear"
	// DecayNone applies no decay; every reachable library counts at full score.
	DecayNone DecayPolicy = "none"
)

// ParseDecayPolicy converts a config string to a DecayPolicy. Unrecognized
// values are an error rather than a silent no-decay fallback.
func ParseDecayPolicy(s string) (DecayPolicy, error) {
	switch DecayPolicy(s) {
	case DecayLinear:
		return DecayLinear, nil
	case DecayNone:
		return DecayNone, nil
	default:
		return "", eris.Errorf("planning: unknown decay type %q (want %q or %q)", s, DecayLinear, DecayNone)
	}
}

// DesertConfig configures the desert grid engine.
type DesertConfig struct {
	CellSizeM            int
	LibrarySearchRadiusM int
	ThresholdScore       float64
	Decay                DecayPolicy
	DecayZeroAtM         int
}

// Validate fails fast on parameters that would corrupt the grid math.
func (c DesertConfig) Validate() error {
	if c.CellSizeM <= 0 {
		return eris.Errorf("planning: cell_size_m must be > 0, got %d", c.CellSizeM)
	}
	if c.LibrarySearchRadiusM <= 0 {
		return eris.Errorf("planning: library_search_radius_m must be > 0, got %d", c.LibrarySearchRadiusM)
	}
	if c.Decay == DecayLinear && c.DecayZeroAtM <= 0 {
		return eris.Errorf("planning: decay_zero_at_m must be > 0 for linear decay, got %d", c.DecayZeroAtM)
	}
	if _, err := ParseDecayPolicy(string(c.Decay)); err != nil {
		return err
	}
	return nil
}

// ScoredLibrary is a library branch with its accessibility score attached.
type ScoredLibrary struct {
	ID    string
	City  string
	Lat   float64
	Lon   float64
	Score float64
}

// SitePoint is a bare located point used to extend a city's area of interest
// (outreach candidates pad the AOI so boundary cells still see libraries).
type SitePoint struct {
	City string
	Lat  float64
	Lon  float64
}

// Cell is one grid cell of the desert analysis. Best-library fields are nil
// when no library lies within the search radius.
type Cell struct {
	City           string
	CellSizeM      int
	CellX0M        float64
	CellY0M        float64
	CentroidXM     float64
	CentroidYM     float64
	CentroidLat    float64
	CentroidLon    float64
	EffectiveScore float64
	IsDesert       bool
	GapToThreshold float64

	BestLibraryID        string
	BestLibraryDistanceM *float64
	BestLibraryBaseScore *float64
	DecayFactor          *float64
}

// ID returns the stable cell identity: city plus integer meter offsets of the
// cell origin. Stable across runs while the AOI and grid config are stable.
func (c Cell) ID() string {
	return fmt.Sprintf("%s-%d-%d", c.City, int(c.CellX0M), int(c.CellY0M))
}

// ComputeDeserts overlays a square grid over each city's padded AOI and
// computes, per cell, the best distance-decayed library score reachable from
// the cell centroid. Libraries from any city can serve a cell; the winner is
// the one maximizing score*decay, not the nearest one.
//
// Cities are processed concurrently but cells are returned in the given city
// order, row-major within each city, so output is deterministic.
func ComputeDeserts(cities []string, libraries []ScoredLibrary, candidates []SitePoint, refLatDeg float64, cfg DesertConfig) ([]Cell, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	proj, err := spatial.NewProjection(refLatDeg)
	if err != nil {
		return nil, err
	}

	// One shared library index for every city's cells.
	libs := make([]ScoredLibrary, 0, len(libraries))
	for _, l := range libraries {
		if !math.IsNaN(l.Lat) && !math.IsNaN(l.Lon) {
			libs = append(libs, l)
		}
	}
	lxs := make([]float64, len(libs))
	lys := make([]float64, len(libs))
	for i, l := range libs {
		lxs[i], lys[i] = proj.ToXY(l.Lat, l.Lon)
	}
	index := spatial.NewPointIndex(lxs, lys)

	results := make([][]Cell, len(cities))
	var g errgroup.Group
	for i, city := range cities {
		i, city := i, city
		g.Go(func() error {
			cells := cityCells(city, libs, candidates, proj, index, cfg)
			results[i] = cells
			zap.L().Debug("planning: city grid computed",
				zap.String("city", city),
				zap.Int("cells", len(cells)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Cell
	for _, cells := range results {
		out = append(out, cells...)
	}
	return out, nil
}

func cityCells(city string, libraries []ScoredLibrary, candidates []SitePoint, proj spatial.Projection, index *spatial.PointIndex, cfg DesertConfig) []Cell {
	var aoiX, aoiY []float64
	for _, l := range libraries {
		if l.City == city {
			x, y := proj.ToXY(l.Lat, l.Lon)
			aoiX = append(aoiX, x)
			aoiY = append(aoiY, y)
		}
	}
	for _, c := range candidates {
		if c.City == city && !math.IsNaN(c.Lat) && !math.IsNaN(c.Lon) {
			x, y := proj.ToXY(c.Lat, c.Lon)
			aoiX = append(aoiX, x)
			aoiY = append(aoiY, y)
		}
	}
	if len(aoiX) == 0 {
		return nil
	}

	pad := float64(cfg.LibrarySearchRadiusM)
	minX, maxX := minMax(aoiX)
	minY, maxY := minMax(aoiY)
	minX -= pad
	maxX += pad
	minY -= pad
	maxY += pad

	// Snap the grid origin to cell-size multiples so placement is stable
	// across runs with the same AOI.
	cs := float64(cfg.CellSizeM)
	x0 := math.Floor(minX/cs) * cs
	y0 := math.Floor(minY/cs) * cs
	x1 := math.Ceil(maxX/cs) * cs
	y1 := math.Ceil(maxY/cs) * cs

	searchRadius := float64(cfg.LibrarySearchRadiusM)
	var cells []Cell
	for cy := y0; cy < y1; cy += cs {
		for cx := x0; cx < x1; cx += cs {
			centX := cx + cs/2
			centY := cy + cs/2

			cell := Cell{
				City:       city,
				CellSizeM:  cfg.CellSizeM,
				CellX0M:    cx,
				CellY0M:    cy,
				CentroidXM: centX,
				CentroidYM: centY,
			}
			cell.CentroidLat, cell.CentroidLon = proj.ToLatLon(centX, centY)

			best := 0.0
			for _, li := range index.Within(centX, centY, searchRadius) {
				dist := index.Distance(li, centX, centY)
				decay := decayFactor(cfg.Decay, dist, float64(cfg.DecayZeroAtM))
				effective := libraries[li].Score * decay
				if cell.BestLibraryDistanceM == nil || effective > best {
					best = effective
					cell.BestLibraryID = libraries[li].ID
					cell.BestLibraryDistanceM = ptr(dist)
					cell.BestLibraryBaseScore = ptr(libraries[li].Score)
					cell.DecayFactor = ptr(decay)
				}
			}

			cell.EffectiveScore = best
			cell.IsDesert = best < cfg.ThresholdScore
			cell.GapToThreshold = math.Max(0, cfg.ThresholdScore-best)
			cells = append(cells, cell)
		}
	}
	return cells
}

// decayFactor is 1.0 at d=0, falling linearly to 0.0 at and beyond zeroAtM
// for the linear policy; the none policy always returns 1.0.
func decayFactor(policy DecayPolicy, distM, zeroAtM float64) float64 {
	if policy != DecayLinear {
		return 1.0
	}
	if distM <= 0 {
		return 1.0
	}
	if distM >= zeroAtM {
		return 0.0
	}
	return 1.0 - distM/zeroAtM
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func ptr[T any](v T) *T { return &v }
