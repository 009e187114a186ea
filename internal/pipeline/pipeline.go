// Package pipeline orchestrates the full accessibility run: load catalogs,
// score libraries, detect deserts, rank outreach sites, and summarize.
package pipeline

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/catalog"
	"github.com/libraryreach/reach-cli/internal/config"
	"github.com/libraryreach/reach-cli/internal/export"
	"github.com/libraryreach/reach-cli/internal/planning"
	"github.com/libraryreach/reach-cli/internal/scoring"
	"github.com/libraryreach/reach-cli/internal/spatial"
	"github.com/libraryreach/reach-cli/internal/summary"
)

// Catalogs holds the three loaded input tables.
type Catalogs struct {
	Libraries  []catalog.Library
	Candidates []catalog.Candidate
	Stops      []catalog.Stop
}

// LoadCatalogs reads libraries.csv, candidates.csv, and stops.csv from dir.
func LoadCatalogs(ctx context.Context, dir string) (*Catalogs, error) {
	libraries, err := catalog.LoadLibraries(ctx, filepath.Join(dir, "libraries.csv"))
	if err != nil {
		return nil, err
	}
	candidates, err := catalog.LoadCandidates(ctx, filepath.Join(dir, "candidates.csv"))
	if err != nil {
		return nil, err
	}
	stops, err := catalog.LoadStops(ctx, filepath.Join(dir, "stops.csv"))
	if err != nil {
		return nil, err
	}

	zap.L().Info("catalogs loaded",
		zap.String("dir", dir),
		zap.Int("libraries", len(libraries)),
		zap.Int("candidates", len(candidates)),
		zap.Int("stops", len(stops)),
	)
	return &Catalogs{Libraries: libraries, Candidates: candidates, Stops: stops}, nil
}

// Outputs is everything one run produces.
type Outputs struct {
	Libraries       []export.LibraryRow
	Explanations    map[string]scoring.Explanation
	Cells           []planning.Cell
	Recommendations []planning.Recommendation
	SummariesByCity map[string]summary.Summary
	Overall         summary.Summary
	ReferenceLatDeg float64
	Cities          []string
}

// Compute runs the full engine over the loaded catalogs.
func Compute(ctx context.Context, cfg *config.Config, cats *Catalogs) (*Outputs, error) {
	scoringCfg, err := BuildScoringConfig(cfg)
	if err != nil {
		return nil, err
	}
	desertCfg, err := buildDesertConfig(cfg)
	if err != nil {
		return nil, err
	}
	outreachCfg := planning.OutreachConfig{
		CoverageRadiusM:  cfg.Planning.Outreach.CoverageRadiusM,
		TopNPerCity:      cfg.Planning.Outreach.TopNPerCity,
		WeightCoverage:   cfg.Planning.Outreach.WeightCoverage,
		WeightSiteAccess: cfg.Planning.Outreach.WeightSiteAccess,
	}

	cities := resolveCities(cfg.AOI.Cities, cats.Libraries)
	libraries := filterLibraries(cats.Libraries, cities)
	candidates := filterCandidates(cats.Candidates, cities, cfg.Planning.Outreach.AllowedCandidateTypes)

	// Score libraries.
	points := make([]spatial.QueryPoint, 0, len(libraries))
	for _, l := range libraries {
		points = append(points, spatial.QueryPoint{ID: l.ID, Lat: l.Lat, Lon: l.Lon})
	}
	rows, refLat, err := spatial.ComputePointStopDensity(points, cats.Stops, scoringCfg.RadiiM, spatial.DensityOptions{
		Strategy: spatial.RefLatStrategy(cfg.Spatial.Distance.ReferenceLatStrategy),
	})
	if err != nil {
		return nil, err
	}
	scores, explanations := scoring.ScoreAll(rows, scoringCfg)

	rowByID := make(map[string]spatial.DensityRow, len(rows))
	for _, r := range rows {
		rowByID[r.ID] = r
	}

	libraryRows := make([]export.LibraryRow, 0, len(libraries))
	scored := make([]planning.ScoredLibrary, 0, len(libraries))
	for _, l := range libraries {
		metrics, ok := rowByID[l.ID]
		if !ok {
			// Dropped for NaN coordinates; excluded from planning too.
			continue
		}
		libraryRows = append(libraryRows, export.LibraryRow{
			Library: l,
			Metrics: metrics,
			Score:   scores[l.ID],
			Explain: explanations[l.ID].Text(),
		})
		scored = append(scored, planning.ScoredLibrary{
			ID:    l.ID,
			City:  l.City,
			Lat:   l.Lat,
			Lon:   l.Lon,
			Score: scores[l.ID],
		})
	}

	// Desert grid.
	sites := make([]planning.SitePoint, 0, len(candidates))
	for _, c := range candidates {
		sites = append(sites, planning.SitePoint{City: c.City, Lat: c.Lat, Lon: c.Lon})
	}
	cells, err := planning.ComputeDeserts(cities, scored, sites, refLat, desertCfg)
	if err != nil {
		return nil, err
	}

	// Outreach ranking.
	recommendations, err := planning.RecommendOutreachSites(candidates, cells, cats.Stops, refLat, scoringCfg.RadiiM, scoringCfg, outreachCfg)
	if err != nil {
		return nil, err
	}

	// Summaries: one per city plus the overall rollup.
	byCity := make(map[string]summary.Summary, len(cities))
	for _, city := range cities {
		byCity[city] = summary.Summarize(scored, cells, recommendations, []string{city}, outreachCfg.TopNPerCity)
	}
	overall := summary.Summarize(scored, cells, recommendations, nil, outreachCfg.TopNPerCity)

	zap.L().Info("run computed",
		zap.Int("libraries_scored", len(libraryRows)),
		zap.Int("cells", len(cells)),
		zap.Int("recommendations", len(recommendations)),
		zap.Float64("reference_lat_deg", refLat),
		zap.Strings("cities", cities),
	)

	return &Outputs{
		Libraries:       libraryRows,
		Explanations:    explanations,
		Cells:           cells,
		Recommendations: recommendations,
		SummariesByCity: byCity,
		Overall:         overall,
		ReferenceLatDeg: refLat,
		Cities:          cities,
	}, nil
}

// BuildScoringConfig parses the string-keyed config maps into validated,
// normalized scoring settings.
func BuildScoringConfig(cfg *config.Config) (scoring.Config, error) {
	radiusWeights, err := parseRadiusKeys(cfg.Scoring.RadiusWeights)
	if err != nil {
		return scoring.Config{}, err
	}
	targets := make(map[string]map[int]float64, len(cfg.Scoring.DensityTargetsPerKm2))
	for mode, byRadius := range cfg.Scoring.DensityTargetsPerKm2 {
		parsed, err := parseRadiusKeys(byRadius)
		if err != nil {
			return scoring.Config{}, err
		}
		targets[mode] = parsed
	}
	return scoring.NewConfig(scoring.Settings{
		RadiiM:               cfg.Buffers.RadiiM,
		ModeWeights:          cfg.Scoring.ModeWeights,
		RadiusWeights:        radiusWeights,
		DensityTargetsPerKm2: targets,
	})
}

func buildDesertConfig(cfg *config.Config) (planning.DesertConfig, error) {
	decay, err := planning.ParseDecayPolicy(cfg.Planning.Deserts.DistanceDecay.Type)
	if err != nil {
		return planning.DesertConfig{}, err
	}
	out := planning.DesertConfig{
		CellSizeM:            cfg.Spatial.Grid.CellSizeM,
		LibrarySearchRadiusM: cfg.Planning.Deserts.LibrarySearchRadiusM,
		ThresholdScore:       cfg.Planning.Deserts.ThresholdScore,
		Decay:                decay,
		DecayZeroAtM:         cfg.Planning.Deserts.DistanceDecay.ZeroAtM,
	}
	return out, out.Validate()
}

func parseRadiusKeys(raw map[string]float64) (map[int]float64, error) {
	out := make(map[int]float64, len(raw))
	for k, v := range raw {
		r, err := strconv.Atoi(k)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: radius key %q is not an integer", k)
		}
		out[r] = v
	}
	return out, nil
}

// resolveCities returns the configured city list, or every distinct city in
// the library catalog sorted ascending when none is configured.
func resolveCities(configured []string, libraries []catalog.Library) []string {
	if len(configured) > 0 {
		return configured
	}
	seen := map[string]bool{}
	var cities []string
	for _, l := range libraries {
		if l.City != "" && !seen[l.City] {
			seen[l.City] = true
			cities = append(cities, l.City)
		}
	}
	sort.Strings(cities)
	return cities
}

func filterLibraries(libraries []catalog.Library, cities []string) []catalog.Library {
	allowed := map[string]bool{}
	for _, c := range cities {
		allowed[c] = true
	}
	out := make([]catalog.Library, 0, len(libraries))
	for _, l := range libraries {
		if allowed[l.City] {
			out = append(out, l)
		}
	}
	return out
}

func filterCandidates(candidates []catalog.Candidate, cities []string, allowedTypes []string) []catalog.Candidate {
	allowedCity := map[string]bool{}
	for _, c := range cities {
		allowedCity[c] = true
	}
	var allowedType map[string]bool
	if len(allowedTypes) > 0 {
		allowedType = map[string]bool{}
		for _, t := range allowedTypes {
			allowedType[t] = true
		}
	}
	out := make([]catalog.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !allowedCity[c.City] {
			continue
		}
		if allowedType != nil && !allowedType[c.Type] {
			continue
		}
		out = append(out, c)
	}
	return out
}
