// Package scoring converts stop-density metrics into a normalized 0-100
// transit-accessibility score with a per-component explanation.
package scoring

import (
	"sort"

	"github.com/rotisserie/eris"
)

// ErrConfig indicates an invalid scoring configuration.
var ErrConfig = eris.New("scoring: invalid config")

// Settings is the raw scoring configuration as loaded from config files.
// Weight maps are keyed the way YAML represents them (radius keys as ints
// after config decoding); values are unnormalized.
type Settings struct {
	RadiiM               []int
	ModeWeights          map[string]float64
	RadiusWeights        map[int]float64
	DensityTargetsPerKm2 map[string]map[int]float64
}

// Config is the validated, weight-normalized scoring configuration. Mode and
// radius weights each sum to 1.0, so the maximum achievable raw score is 1.0.
// Construct with NewConfig; the zero value scores everything as zero.
type Config struct {
	RadiiM               []int
	ModeWeights          map[string]float64
	RadiusWeights        map[int]float64
	DensityTargetsPerKm2 map[string]map[int]float64

	// modes caches sorted mode names for deterministic iteration.
	modes []string
}

// NewConfig validates and normalizes raw settings. It fails fast on
// nonpositive radii, weight sums <= 0, and radii without a weight entry, so
// silently wrong normalized scores cannot reach the scorer.
func NewConfig(s Settings) (Config, error) {
	if len(s.RadiiM) == 0 {
		return Config{}, eris.Wrap(ErrConfig, "scoring: no radii configured")
	}
	radii := make([]int, 0, len(s.RadiiM))
	seen := make(map[int]bool, len(s.RadiiM))
	for _, r := range s.RadiiM {
		if r <= 0 {
			return Config{}, eris.Wrapf(ErrConfig, "scoring: radius must be > 0, got %d", r)
		}
		if !seen[r] {
			seen[r] = true
			radii = append(radii, r)
		}
	}
	sort.Ints(radii)

	modeWeights, err := normalizeWeights(s.ModeWeights)
	if err != nil {
		return Config{}, eris.Wrap(err, "scoring: mode weights")
	}

	rawRadius := make(map[int]float64, len(radii))
	for _, r := range radii {
		w, ok := s.RadiusWeights[r]
		if !ok {
			return Config{}, eris.Wrapf(ErrConfig, "scoring: missing radius weight for %dm", r)
		}
		rawRadius[r] = w
	}
	radiusWeights, err := normalizeIntWeights(rawRadius)
	if err != nil {
		return Config{}, eris.Wrap(err, "scoring: radius weights")
	}

	targets := make(map[string]map[int]float64, len(s.DensityTargetsPerKm2))
	for mode, byRadius := range s.DensityTargetsPerKm2 {
		copied := make(map[int]float64, len(byRadius))
		for _, r := range radii {
			if t, ok := byRadius[r]; ok {
				copied[r] = t
			}
		}
		targets[mode] = copied
	}

	modes := make([]string, 0, len(modeWeights))
	for mode := range modeWeights {
		modes = append(modes, mode)
	}
	sort.Strings(modes)

	return Config{
		RadiiM:               radii,
		ModeWeights:          modeWeights,
		RadiusWeights:        radiusWeights,
		DensityTargetsPerKm2: targets,
		modes:                modes,
	}, nil
}

// Target returns the configured density target for a (mode, radius) pair.
// A missing or nonpositive target means "no credit given", not an error.
func (c Config) Target(mode string, radiusM int) float64 {
	byRadius, ok := c.DensityTargetsPerKm2[mode]
	if !ok {
		return 0
	}
	return byRadius[radiusM]
}

// Modes returns the configured mode names in sorted order.
func (c Config) Modes() []string { return c.modes }

func normalizeWeights(raw map[string]float64) (map[string]float64, error) {
	var sum float64
	for _, w := range raw {
		sum += w
	}
	if sum <= 0 {
		return nil, eris.Wrap(ErrConfig, "weights must sum to a positive number")
	}
	out := make(map[string]float64, len(raw))
	for k, w := range raw {
		out[k] = w / sum
	}
	return out, nil
}

func normalizeIntWeights(raw map[int]float64) (map[int]float64, error) {
	var sum float64
	for _, w := range raw {
		sum += w
	}
	if sum <= 0 {
		return nil, eris.Wrap(ErrConfig, "weights must sum to a positive number")
	}
	out := make(map[int]float64, len(raw))
	for k, w := range raw {
		out[k] = w / sum
	}
	return out, nil
}
