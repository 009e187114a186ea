package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/libraryreach/reach-cli/internal/catalog"
	"github.com/libraryreach/reach-cli/internal/planning"
	"github.com/libraryreach/reach-cli/internal/spatial"
)

// LibraryRow is one row of the scored-libraries output table.
type LibraryRow struct {
	Library catalog.Library
	Metrics spatial.DensityRow
	Score   float64
	Explain string
}

// WriteLibrariesCSV writes the scored-libraries table. Column order is fixed:
// identity, coordinates, per-radius counts and densities, then the score.
func WriteLibrariesCSV(path string, rows []LibraryRow, radiiM []int) error {
	header := []string{"id", "name", "city", "district", "lat", "lon", "reference_lat_deg"}
	for _, r := range radiiM {
		header = append(header,
			fmt.Sprintf("stop_count_total_%dm", r),
			fmt.Sprintf("stop_count_bus_%dm", r),
			fmt.Sprintf("stop_count_metro_%dm", r),
			fmt.Sprintf("stop_density_total_per_km2_%dm", r),
			fmt.Sprintf("stop_density_bus_per_km2_%dm", r),
			fmt.Sprintf("stop_density_metro_per_km2_%dm", r),
		)
	}
	header = append(header, "accessibility_score", "accessibility_explain")

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := []string{
			row.Library.ID,
			row.Library.Name,
			row.Library.City,
			row.Library.District,
			formatFloat(row.Library.Lat),
			formatFloat(row.Library.Lon),
			formatFloat(row.Metrics.ReferenceLatDeg),
		}
		for _, r := range radiiM {
			m := row.Metrics.ByRadius[r]
			rec = append(rec,
				strconv.Itoa(m.StopCountTotal),
				strconv.Itoa(m.StopCountBus),
				strconv.Itoa(m.StopCountMetro),
				formatFloat(m.DensityTotal),
				formatFloat(m.DensityBus),
				formatFloat(m.DensityMetro),
			)
		}
		rec = append(rec, formatFloat(row.Score), row.Explain)
		records = append(records, rec)
	}

	return writeCSV(path, header, records)
}

var cellColumns = []string{
	"cell_id", "city", "cell_size_m", "cell_x0_m", "cell_y0_m",
	"centroid_x_m", "centroid_y_m", "centroid_lat", "centroid_lon",
	"effective_score_0_100", "is_desert", "gap_to_threshold",
	"best_library_id", "best_library_distance_m", "best_library_base_score",
	"distance_decay_factor",
}

// WriteCellsCSV writes the desert grid-cell table.
func WriteCellsCSV(path string, cells []planning.Cell) error {
	records := make([][]string, 0, len(cells))
	for _, c := range cells {
		records = append(records, []string{
			c.ID(),
			c.City,
			strconv.Itoa(c.CellSizeM),
			formatFloat(c.CellX0M),
			formatFloat(c.CellY0M),
			formatFloat(c.CentroidXM),
			formatFloat(c.CentroidYM),
			formatFloat(c.CentroidLat),
			formatFloat(c.CentroidLon),
			formatFloat(c.EffectiveScore),
			strconv.FormatBool(c.IsDesert),
			formatFloat(c.GapToThreshold),
			c.BestLibraryID,
			formatFloatPtr(c.BestLibraryDistanceM),
			formatFloatPtr(c.BestLibraryBaseScore),
			formatFloatPtr(c.DecayFactor),
		})
	}
	return writeCSV(path, cellColumns, records)
}

// ReadCellsCSV loads a previously written grid-cell table, for commands that
// re-export processed artifacts without recomputing the grid.
func ReadCellsCSV(ctx context.Context, path string) ([]planning.Cell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer f.Close()

	headerCh := make(chan []string, 1)
	rowCh, errCh := catalog.StreamCSV(ctx, f, catalog.CSVOptions{HasHeader: true, HeaderCh: headerCh, TrimSpace: true})

	col := map[string]int{}
	var cells []planning.Cell
	for row := range rowCh {
		if len(col) == 0 {
			select {
			case cols := <-headerCh:
				for i, c := range cols {
					col[c] = i
				}
			default:
				return nil, eris.Errorf("export: %s has no header row", path)
			}
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		cell := planning.Cell{
			City:           get("city"),
			CellSizeM:      parseInt(get("cell_size_m")),
			CellX0M:        parseFloat(get("cell_x0_m")),
			CellY0M:        parseFloat(get("cell_y0_m")),
			CentroidXM:     parseFloat(get("centroid_x_m")),
			CentroidYM:     parseFloat(get("centroid_y_m")),
			CentroidLat:    parseFloat(get("centroid_lat")),
			CentroidLon:    parseFloat(get("centroid_lon")),
			EffectiveScore: parseFloat(get("effective_score_0_100")),
			IsDesert:       get("is_desert") == "true",
			GapToThreshold: parseFloat(get("gap_to_threshold")),
			BestLibraryID:  get("best_library_id"),
		}
		if v := get("best_library_distance_m"); v != "" {
			f := parseFloat(v)
			cell.BestLibraryDistanceM = &f
		}
		if v := get("best_library_base_score"); v != "" {
			f := parseFloat(v)
			cell.BestLibraryBaseScore = &f
		}
		if v := get("distance_decay_factor"); v != "" {
			f := parseFloat(v)
			cell.DecayFactor = &f
		}
		cells = append(cells, cell)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "export: read %s", path)
	}
	return cells, nil
}

// WriteRecommendationsCSV writes the outreach recommendation table.
func WriteRecommendationsCSV(path string, recs []planning.Recommendation) error {
	header := []string{
		"candidate_id", "name", "city", "covered_desert_cells", "covered_gap_sum",
		"coverage_score_0_100", "site_access_score", "outreach_score",
		"weight_coverage", "weight_site_access", "recommendation_explain",
	}
	records := make([][]string, 0, len(recs))
	for _, r := range recs {
		records = append(records, []string{
			r.CandidateID,
			r.Name,
			r.City,
			strconv.Itoa(r.CoveredDesertCells),
			formatFloat(r.CoveredGapSum),
			formatFloat(r.CoverageScore),
			formatFloat(r.SiteAccessScore),
			formatFloat(r.OutreachScore),
			formatFloat(r.WeightCoverage),
			formatFloat(r.WeightSiteAccess),
			r.Explain,
		})
	}
	return writeCSV(path, header, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "export: write header %s", path)
	}
	if err := w.WriteAll(records); err != nil {
		return eris.Wrapf(err, "export: write rows %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "export: flush %s", path)
	}
	return nil
}

// formatFloat renders floats with the shortest exact decimal representation
// so artifacts are byte-identical across runs. NaN renders empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
