package scoring

import (
	"github.com/libraryreach/reach-cli/internal/spatial"
)

// Component records one (mode, radius) contribution to a score.
type Component struct {
	Mode          string  `json:"mode"`
	RadiusM       int     `json:"radius_m"`
	DensityPerKm2 float64 `json:"density_per_km2"`
	TargetPerKm2  float64 `json:"target_per_km2"`
	Normalized    float64 `json:"normalized_0_1"`
	WeightMode    float64 `json:"weight_mode"`
	WeightRadius  float64 `json:"weight_radius"`
	Contribution  float64 `json:"contribution_0_1"`
}

// Explanation is the structured scoring breakdown for one point, retained so
// downstream consumers can render "top drivers" text and audit every term.
type Explanation struct {
	Method     string      `json:"method"`
	Score      float64     `json:"score_0_100"`
	Components []Component `json:"components"`
}

const scoringMethod = "transit_stop_density_buffer"

// Score converts one density row into a 0-100 accessibility score.
//
// For each (radius, mode) pair the density is normalized against its target
// as min(density/target, 1); a nonpositive or missing target yields zero
// credit rather than a division error. Contributions are weighted by the
// pre-normalized mode and radius weights, so the raw sum caps at 1.0.
//
// Pure function: no I/O, no shared state; safe for concurrent use on
// disjoint rows.
func Score(row spatial.DensityRow, cfg Config) (float64, Explanation) {
	var score01 float64
	components := make([]Component, 0, len(cfg.RadiiM)*len(cfg.modes))

	for _, r := range cfg.RadiiM {
		rWeight := cfg.RadiusWeights[r]
		metrics := row.ByRadius[r]
		for _, mode := range cfg.modes {
			mWeight := cfg.ModeWeights[mode]
			density := metrics.Density(mode)
			target := cfg.Target(mode, r)

			normalized := 0.0
			if target > 0 {
				normalized = density / target
				if normalized > 1 {
					normalized = 1
				}
			}
			contribution := mWeight * rWeight * normalized
			score01 += contribution

			components = append(components, Component{
				Mode:          mode,
				RadiusM:       r,
				DensityPerKm2: density,
				TargetPerKm2:  target,
				Normalized:    normalized,
				WeightMode:    mWeight,
				WeightRadius:  rWeight,
				Contribution:  contribution,
			})
		}
	}

	score := clip(score01*100, 0, 100)
	return score, Explanation{
		Method:     scoringMethod,
		Score:      score,
		Components: components,
	}
}

// ScoreAll scores every row, returning scores and explanations keyed by
// point ID.
func ScoreAll(rows []spatial.DensityRow, cfg Config) (map[string]float64, map[string]Explanation) {
	scores := make(map[string]float64, len(rows))
	explanations := make(map[string]Explanation, len(rows))
	for _, row := range rows {
		s, e := Score(row, cfg)
		scores[row.ID] = s
		explanations[row.ID] = e
	}
	return scores, explanations
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
