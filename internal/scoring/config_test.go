package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	return Settings{
		RadiiM:        []int{500, 1000},
		ModeWeights:   map[string]float64{"bus": 0.6, "metro": 0.4},
		RadiusWeights: map[int]float64{500: 0.6, 1000: 0.4},
		DensityTargetsPerKm2: map[string]map[int]float64{
			"bus":   {500: 20, 1000: 10},
			"metro": {500: 2, 1000: 1},
		},
	}
}

func TestNewConfig_NormalizesWeights(t *testing.T) {
	s := validSettings()
	// Unnormalized inputs must come out summing to 1.
	s.ModeWeights = map[string]float64{"bus": 3, "metro": 1}
	s.RadiusWeights = map[int]float64{500: 2, 1000: 2}

	cfg, err := NewConfig(s)
	require.NoError(t, err)

	var modeSum float64
	for _, w := range cfg.ModeWeights {
		modeSum += w
	}
	assert.InDelta(t, 1.0, modeSum, 1e-9)
	assert.InDelta(t, 0.75, cfg.ModeWeights["bus"], 1e-9)

	var radiusSum float64
	for _, w := range cfg.RadiusWeights {
		radiusSum += w
	}
	assert.InDelta(t, 1.0, radiusSum, 1e-9)
	assert.InDelta(t, 0.5, cfg.RadiusWeights[500], 1e-9)

	assert.Equal(t, []string{"bus", "metro"}, cfg.Modes())
}

func TestNewConfig_SortsAndDedupesRadii(t *testing.T) {
	s := validSettings()
	s.RadiiM = []int{1000, 500, 1000}

	cfg, err := NewConfig(s)
	require.NoError(t, err)
	assert.Equal(t, []int{500, 1000}, cfg.RadiiM)
}

func TestNewConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"no radii", func(s *Settings) { s.RadiiM = nil }},
		{"nonpositive radius", func(s *Settings) { s.RadiiM = []int{0, 500} }},
		{"zero mode weight sum", func(s *Settings) { s.ModeWeights = map[string]float64{"bus": 0} }},
		{"negative radius weight sum", func(s *Settings) { s.RadiusWeights = map[int]float64{500: -1, 1000: 0} }},
		{"missing radius weight", func(s *Settings) { delete(s.RadiusWeights, 1000) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			_, err := NewConfig(s)
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestConfig_Target(t *testing.T) {
	cfg, err := NewConfig(validSettings())
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.Target("bus", 500))
	assert.Equal(t, 1.0, cfg.Target("metro", 1000))
	assert.Equal(t, 0.0, cfg.Target("tram", 500), "unknown mode has no target")
	assert.Equal(t, 0.0, cfg.Target("bus", 750), "unknown radius has no target")
}
