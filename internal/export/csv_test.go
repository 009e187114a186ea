package export

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryreach/reach-cli/internal/catalog"
	"github.com/libraryreach/reach-cli/internal/planning"
	"github.com/libraryreach/reach-cli/internal/spatial"
)

func sampleCells() []planning.Cell {
	dist := 850.5
	base := 72.0
	decay := 0.75
	return []planning.Cell{
		{
			City: "taipei", CellSizeM: 1000,
			CellX0M: 12000, CellY0M: -3000,
			CentroidXM: 12500, CentroidYM: -2500,
			CentroidLat: 25.01, CentroidLon: 121.52,
			EffectiveScore: 54.0, IsDesert: false, GapToThreshold: 0,
			BestLibraryID: "L1", BestLibraryDistanceM: &dist,
			BestLibraryBaseScore: &base, DecayFactor: &decay,
		},
		{
			City: "taipei", CellSizeM: 1000,
			CellX0M: 13000, CellY0M: -3000,
			CentroidXM: 13500, CentroidYM: -2500,
			CentroidLat: 25.01, CentroidLon: 121.53,
			EffectiveScore: 0, IsDesert: true, GapToThreshold: 40,
		},
	}
}

func TestWriteReadCellsCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.csv")
	cells := sampleCells()
	require.NoError(t, WriteCellsCSV(path, cells))

	got, err := ReadCellsCSV(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, cells[0].ID(), got[0].ID())
	assert.Equal(t, "taipei", got[0].City)
	assert.Equal(t, 1000, got[0].CellSizeM)
	assert.Equal(t, 54.0, got[0].EffectiveScore)
	assert.False(t, got[0].IsDesert)
	require.NotNil(t, got[0].BestLibraryDistanceM)
	assert.Equal(t, 850.5, *got[0].BestLibraryDistanceM)
	require.NotNil(t, got[0].DecayFactor)
	assert.Equal(t, 0.75, *got[0].DecayFactor)

	// Cell with no library in range keeps nil pointers, not zeros.
	assert.True(t, got[1].IsDesert)
	assert.Nil(t, got[1].BestLibraryDistanceM)
	assert.Nil(t, got[1].BestLibraryBaseScore)
	assert.Nil(t, got[1].DecayFactor)
	assert.Empty(t, got[1].BestLibraryID)
}

func TestWriteLibrariesCSV_ColumnLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libraries.csv")
	rows := []LibraryRow{
		{
			Library: catalog.Library{ID: "L1", Name: "Central", City: "taipei", Lat: 25.03, Lon: 121.52},
			Metrics: spatial.DensityRow{
				ID:              "L1",
				ReferenceLatDeg: 25.0,
				ByRadius: map[int]spatial.RadiusMetrics{
					500:  {StopCountTotal: 3, StopCountBus: 3, DensityTotal: 3.82, DensityBus: 3.82},
					1000: {StopCountTotal: 4, StopCountBus: 3, StopCountMetro: 1, DensityTotal: 1.27},
				},
			},
			Score:   70.5,
			Explain: "Score 70.5/100",
		},
	}
	require.NoError(t, WriteLibrariesCSV(path, rows, []int{500, 1000}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Contains(t, header, "stop_count_total_500m")
	assert.Contains(t, header, "stop_density_metro_per_km2_1000m")
	assert.Contains(t, header, "reference_lat_deg")
	assert.Contains(t, header, "accessibility_score")
	assert.Equal(t, "L1", records[1][0])
	assert.Equal(t, "70.5", records[1][len(records[1])-2])
}

func TestWriteRecommendationsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recs.csv")
	recs := []planning.Recommendation{
		{
			CandidateID: "C1", Name: "Hub", City: "taipei",
			CoveredDesertCells: 3, CoveredGapSum: 60,
			CoverageScore: 100, SiteAccessScore: 50, OutreachScore: 85,
			WeightCoverage: 0.7, WeightSiteAccess: 0.3,
			Explain: "OutreachScore 85.0.",
		},
	}
	require.NoError(t, WriteRecommendationsCSV(path, recs))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "candidate_id", records[0][0])
	assert.Equal(t, "C1", records[1][0])
	assert.Equal(t, "85", records[1][7])
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.5", formatFloat(1.5))
	assert.Equal(t, "1", formatFloat(1.0))
	assert.Equal(t, "", formatFloat(math.NaN()), "NaN renders as an empty cell")
	assert.Equal(t, "0.1", formatFloat(0.1), "shortest exact representation")
}
