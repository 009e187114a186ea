package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryreach/reach-cli/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Buffers: config.BuffersConfig{RadiiM: []int{500, 1000}},
		Scoring: config.ScoringConfig{
			ModeWeights:   map[string]float64{"bus": 0.6, "metro": 0.4},
			RadiusWeights: map[string]float64{"500": 0.6, "1000": 0.4},
			DensityTargetsPerKm2: map[string]map[string]float64{
				"bus":   {"500": 20, "1000": 10},
				"metro": {"500": 2, "1000": 1},
			},
		},
		Spatial: config.SpatialConfig{
			Distance: config.DistanceConfig{ReferenceLatStrategy: "mean"},
			Grid:     config.GridConfig{CellSizeM: 1000},
		},
		Planning: config.PlanningConfig{
			Deserts: config.DesertsConfig{
				LibrarySearchRadiusM: 3000,
				ThresholdScore:       40,
				DistanceDecay:        config.DecayConfig{Type: "linear", ZeroAtM: 3000},
			},
			Outreach: config.OutreachConfig{
				CoverageRadiusM:  1500,
				TopNPerCity:      5,
				WeightCoverage:   0.7,
				WeightSiteAccess: 0.3,
			},
		},
	}
}

func writeTestCatalogs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("libraries.csv",
		"id,name,city,lat,lon\n"+
			"L1,Central,metropolis,25.0000,121.5000\n"+
			"L2,North Branch,metropolis,25.0300,121.5000\n")
	write("candidates.csv",
		"id,name,city,type,lat,lon\n"+
			"C1,Community Center,metropolis,community_center,25.0150,121.5200\n"+
			"C2,School Hall,metropolis,school,25.0010,121.5010\n")
	write("stops.csv",
		"stop_id,lat,lon,mode\n"+
			"S1,25.0005,121.5000,bus\n"+
			"S2,25.0010,121.5005,bus\n"+
			"S3,24.9995,121.4995,bus\n"+
			"S4,25.0000,121.5050,metro\n")
	return dir
}

func TestLoadCatalogs(t *testing.T) {
	dir := writeTestCatalogs(t)
	cats, err := LoadCatalogs(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, cats.Libraries, 2)
	assert.Len(t, cats.Candidates, 2)
	assert.Len(t, cats.Stops, 4)
}

func TestCompute_EndToEnd(t *testing.T) {
	dir := writeTestCatalogs(t)
	cats, err := LoadCatalogs(context.Background(), dir)
	require.NoError(t, err)

	out, err := Compute(context.Background(), testConfig(), cats)
	require.NoError(t, err)

	assert.Equal(t, []string{"metropolis"}, out.Cities, "cities derived from catalog when unconfigured")
	require.Len(t, out.Libraries, 2)
	assert.NotEmpty(t, out.Cells)

	// L1 sits in the stop cluster and must outscore the stopless L2.
	var l1, l2 float64
	for _, row := range out.Libraries {
		switch row.Library.ID {
		case "L1":
			l1 = row.Score
		case "L2":
			l2 = row.Score
		}
	}
	assert.Greater(t, l1, l2)
	assert.Equal(t, 0.0, l2, "no stops within any radius")

	// Per-city summary plus overall, consistent with each other.
	require.Contains(t, out.SummariesByCity, "metropolis")
	assert.Equal(t, out.Overall.Metrics.LibrariesCount, out.SummariesByCity["metropolis"].Metrics.LibrariesCount)

	for _, row := range out.Libraries {
		assert.Equal(t, out.ReferenceLatDeg, row.Metrics.ReferenceLatDeg)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	dir := writeTestCatalogs(t)
	cats, err := LoadCatalogs(context.Background(), dir)
	require.NoError(t, err)

	cfg := testConfig()
	first, err := Compute(context.Background(), cfg, cats)
	require.NoError(t, err)
	second, err := Compute(context.Background(), cfg, cats)
	require.NoError(t, err)

	assert.Equal(t, first.Cells, second.Cells)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.ReferenceLatDeg, second.ReferenceLatDeg)
}

func TestCompute_CandidateTypeFilter(t *testing.T) {
	dir := writeTestCatalogs(t)
	cats, err := LoadCatalogs(context.Background(), dir)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Planning.Outreach.AllowedCandidateTypes = []string{"school"}
	out, err := Compute(context.Background(), cfg, cats)
	require.NoError(t, err)

	for _, r := range out.Recommendations {
		assert.Equal(t, "C2", r.CandidateID, "only school-typed candidates may be ranked")
	}
}

func TestCompute_UnknownDecayFails(t *testing.T) {
	dir := writeTestCatalogs(t)
	cats, err := LoadCatalogs(context.Background(), dir)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Planning.Deserts.DistanceDecay.Type = "exponential"
	_, err = Compute(context.Background(), cfg, cats)
	require.Error(t, err)
}

func TestBuildScoringConfig_BadRadiusKey(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.RadiusWeights = map[string]float64{"near": 1}
	_, err := BuildScoringConfig(cfg)
	require.Error(t, err)
}

func TestWriteArtifacts(t *testing.T) {
	dir := writeTestCatalogs(t)
	cats, err := LoadCatalogs(context.Background(), dir)
	require.NoError(t, err)

	cfg := testConfig()
	out, err := Compute(context.Background(), cfg, cats)
	require.NoError(t, err)

	processed := filepath.Join(t.TempDir(), "processed")
	files, err := WriteArtifacts(out, cfg.Buffers.RadiiM, processed)
	require.NoError(t, err)
	assert.Contains(t, files, LibrariesFile)
	assert.Contains(t, files, DesertsGeoJSONFile)

	for _, name := range files {
		info, err := os.Stat(filepath.Join(processed, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}

	meta := NewRunMeta("baseline", out, files)
	require.NoError(t, meta.WriteJSON(processed))
	_, err = os.Stat(filepath.Join(processed, RunMetaFile))
	require.NoError(t, err)
	assert.NotEmpty(t, meta.RunID)
	assert.Equal(t, out.Cities, meta.Cities)
}
