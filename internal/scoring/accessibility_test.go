package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryreach/reach-cli/internal/spatial"
)

func singleRadiusConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig(Settings{
		RadiiM:        []int{500},
		ModeWeights:   map[string]float64{"bus": 0.6, "metro": 0.4},
		RadiusWeights: map[int]float64{500: 1},
		DensityTargetsPerKm2: map[string]map[int]float64{
			"bus":   {500: 20},
			"metro": {500: 2},
		},
	})
	require.NoError(t, err)
	return cfg
}

func TestScore_WeightedNormalization(t *testing.T) {
	cfg := singleRadiusConfig(t)

	// Bus at half target, metro at target: 0.6*0.5 + 0.4*1.0 = 0.7 -> 70.
	row := spatial.DensityRow{
		ID: "L1",
		ByRadius: map[int]spatial.RadiusMetrics{
			500: {DensityBus: 10, DensityMetro: 2},
		},
	}
	score, explain := Score(row, cfg)
	assert.InDelta(t, 70.0, score, 1e-9)
	assert.Equal(t, score, explain.Score)
	require.Len(t, explain.Components, 2)

	// Components come out in (radius, sorted mode) order.
	assert.Equal(t, "bus", explain.Components[0].Mode)
	assert.InDelta(t, 0.5, explain.Components[0].Normalized, 1e-9)
	assert.InDelta(t, 0.3, explain.Components[0].Contribution, 1e-9)
	assert.Equal(t, "metro", explain.Components[1].Mode)
	assert.InDelta(t, 1.0, explain.Components[1].Normalized, 1e-9)
}

func TestScore_Saturation(t *testing.T) {
	cfg := singleRadiusConfig(t)

	tests := []struct {
		name string
		row  spatial.DensityRow
		want float64
	}{
		{
			"all modes at or above target",
			spatial.DensityRow{ByRadius: map[int]spatial.RadiusMetrics{500: {DensityBus: 200, DensityMetro: 50}}},
			100,
		},
		{
			"no stops at all",
			spatial.DensityRow{ByRadius: map[int]spatial.RadiusMetrics{500: {}}},
			0,
		},
		{
			"missing radius metrics score zero",
			spatial.DensityRow{ByRadius: map[int]spatial.RadiusMetrics{}},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := Score(tt.row, cfg)
			assert.InDelta(t, tt.want, score, 1e-9)
		})
	}
}

func TestScore_ZeroTargetGivesNoCredit(t *testing.T) {
	cfg, err := NewConfig(Settings{
		RadiiM:        []int{500},
		ModeWeights:   map[string]float64{"bus": 1, "metro": 1},
		RadiusWeights: map[int]float64{500: 1},
		DensityTargetsPerKm2: map[string]map[int]float64{
			"bus": {500: 20},
			// metro deliberately has no target
		},
	})
	require.NoError(t, err)

	row := spatial.DensityRow{
		ByRadius: map[int]spatial.RadiusMetrics{
			500: {DensityBus: 20, DensityMetro: 1000},
		},
	}
	score, explain := Score(row, cfg)
	// Only the bus half can earn credit: 0.5*1.0 = 0.5 -> 50.
	assert.InDelta(t, 50.0, score, 1e-9)
	for _, c := range explain.Components {
		if c.Mode == "metro" {
			assert.Equal(t, 0.0, c.Normalized, "no target means no credit, not Inf")
		}
	}
}

func TestScoreAll(t *testing.T) {
	cfg := singleRadiusConfig(t)
	rows := []spatial.DensityRow{
		{ID: "a", ByRadius: map[int]spatial.RadiusMetrics{500: {DensityBus: 20, DensityMetro: 2}}},
		{ID: "b", ByRadius: map[int]spatial.RadiusMetrics{500: {}}},
	}

	scores, explanations := ScoreAll(rows, cfg)
	require.Len(t, scores, 2)
	assert.InDelta(t, 100.0, scores["a"], 1e-9)
	assert.InDelta(t, 0.0, scores["b"], 1e-9)
	assert.Equal(t, scoringMethod, explanations["a"].Method)
}

func TestExplanation_Text(t *testing.T) {
	cfg := singleRadiusConfig(t)
	row := spatial.DensityRow{
		ByRadius: map[int]spatial.RadiusMetrics{
			500: {DensityBus: 10, DensityMetro: 2},
		},
	}
	_, explain := Score(row, cfg)

	text := explain.Text()
	assert.True(t, strings.HasPrefix(text, "Score 70.0/100"), text)
	assert.Contains(t, text, "Top drivers:")
	assert.Contains(t, text, "metro@500m 2.0/km² vs 2.0/km²")

	empty := Explanation{Score: 0}
	assert.NotContains(t, empty.Text(), "Top drivers")
}
