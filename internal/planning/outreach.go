package planning

import (
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/catalog"
	"github.com/libraryreach/reach-cli/internal/scoring"
	"github.com/libraryreach/reach-cli/internal/spatial"
)

// OutreachConfig configures outreach-site ranking.
type OutreachConfig struct {
	CoverageRadiusM  int
	TopNPerCity      int
	WeightCoverage   float64
	WeightSiteAccess float64
}

// Validate fails fast on parameters that would corrupt the ranking.
func (c OutreachConfig) Validate() error {
	if c.CoverageRadiusM <= 0 {
		return eris.Errorf("planning: coverage_radius_m must be > 0, got %d", c.CoverageRadiusM)
	}
	if c.TopNPerCity <= 0 {
		return eris.Errorf("planning: top_n_per_city must be > 0, got %d", c.TopNPerCity)
	}
	return nil
}

// Recommendation is one ranked outreach site. OutreachScore combines desert
// coverage and the candidate's own transit access; its range depends on the
// configured weights, which deliberately need not sum to 1 (it is a ranking
// metric, not a calibrated score).
type Recommendation struct {
	CandidateID        string  `json:"candidate_id"`
	Name               string  `json:"name"`
	City               string  `json:"city"`
	CoveredDesertCells int     `json:"covered_desert_cells"`
	CoveredGapSum      float64 `json:"covered_gap_sum"`
	CoverageScore      float64 `json:"coverage_score_0_100"`
	SiteAccessScore    float64 `json:"site_access_score"`
	OutreachScore      float64 `json:"outreach_score"`
	WeightCoverage     float64 `json:"weight_coverage"`
	WeightSiteAccess   float64 `json:"weight_site_access"`
	Explain            string  `json:"recommendation_explain"`
}

// RecommendOutreachSites ranks candidate sites by how much desert-cell score
// gap they would cover within the coverage radius, blended with their own
// transit-accessibility score (computed with the same model as libraries).
//
// Returns nil when there are no desert cells: nothing to recommend for.
// Candidates are ranked per city; ties on outreach score break by ascending
// candidate ID so rankings do not depend on catalog row order.
func RecommendOutreachSites(
	candidates []catalog.Candidate,
	cells []Cell,
	stops []catalog.Stop,
	refLatDeg float64,
	radiiM []int,
	scoringCfg scoring.Config,
	cfg OutreachConfig,
) ([]Recommendation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var deserts []Cell
	for _, c := range cells {
		if c.IsDesert {
			deserts = append(deserts, c)
		}
	}
	if len(deserts) == 0 {
		zap.L().Info("outreach: no desert cells, nothing to recommend")
		return nil, nil
	}

	proj, err := spatial.NewProjection(refLatDeg)
	if err != nil {
		return nil, err
	}

	// Site access: score candidates with the library scoring model.
	points := make([]spatial.QueryPoint, 0, len(candidates))
	for _, c := range candidates {
		points = append(points, spatial.QueryPoint{ID: c.ID, Lat: c.Lat, Lon: c.Lon})
	}
	metricRows, _, err := spatial.ComputePointStopDensity(points, stops, radiiM, spatial.DensityOptions{
		ReferenceLatDeg: &refLatDeg,
	})
	if err != nil {
		return nil, eris.Wrap(err, "outreach: candidate site access metrics")
	}
	siteAccess, _ := scoring.ScoreAll(metricRows, scoringCfg)

	// Coverage: desert cells reachable from each candidate.
	dxs := make([]float64, len(deserts))
	dys := make([]float64, len(deserts))
	for i, d := range deserts {
		dxs[i], dys[i] = proj.ToXY(d.CentroidLat, d.CentroidLon)
	}
	index := spatial.NewPointIndex(dxs, dys)

	byCity := make(map[string][]Recommendation)
	for _, cand := range candidates {
		if math.IsNaN(cand.Lat) || math.IsNaN(cand.Lon) {
			continue
		}
		cx, cy := proj.ToXY(cand.Lat, cand.Lon)

		var covered int
		var gapSum float64
		for _, di := range index.Within(cx, cy, float64(cfg.CoverageRadiusM)) {
			covered++
			gapSum += deserts[di].GapToThreshold
		}

		byCity[cand.City] = append(byCity[cand.City], Recommendation{
			CandidateID:        cand.ID,
			Name:               cand.Name,
			City:               cand.City,
			CoveredDesertCells: covered,
			CoveredGapSum:      gapSum,
			SiteAccessScore:    siteAccess[cand.ID],
			WeightCoverage:     cfg.WeightCoverage,
			WeightSiteAccess:   cfg.WeightSiteAccess,
		})
	}

	cityNames := make([]string, 0, len(byCity))
	for city := range byCity {
		cityNames = append(cityNames, city)
	}
	sort.Strings(cityNames)

	var out []Recommendation
	for _, city := range cityNames {
		group := byCity[city]

		// Per-city normalization: the best-covering candidate defines 100.
		var maxGap float64
		for _, r := range group {
			if r.CoveredGapSum > maxGap {
				maxGap = r.CoveredGapSum
			}
		}
		for i := range group {
			if maxGap > 0 {
				group[i].CoverageScore = group[i].CoveredGapSum / maxGap * 100
			}
			group[i].OutreachScore = cfg.WeightCoverage*group[i].CoverageScore +
				cfg.WeightSiteAccess*group[i].SiteAccessScore
		}

		sort.SliceStable(group, func(i, j int) bool {
			if group[i].OutreachScore != group[j].OutreachScore {
				return group[i].OutreachScore > group[j].OutreachScore
			}
			return group[i].CandidateID < group[j].CandidateID
		})
		if len(group) > cfg.TopNPerCity {
			group = group[:cfg.TopNPerCity]
		}

		for i := range group {
			group[i].Explain = explainRecommendation(group[i], cfg)
		}
		out = append(out, group...)
	}

	return out, nil
}

func explainRecommendation(r Recommendation, cfg OutreachConfig) string {
	return fmt.Sprintf(
		"OutreachScore %.1f. Covers %d desert cells within %dm; coverage %.1f/100 (w=%.2f) + site access %.1f/100 (w=%.2f).",
		r.OutreachScore, r.CoveredDesertCells, cfg.CoverageRadiusM,
		r.CoverageScore, cfg.WeightCoverage, r.SiteAccessScore, cfg.WeightSiteAccess,
	)
}
