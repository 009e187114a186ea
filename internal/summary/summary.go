// Package summary aggregates scored outputs into histograms, bucket counts,
// per-city desert counts, and baseline-vs-scenario deltas.
package summary

import (
	"math"
	"sort"

	"github.com/libraryreach/reach-cli/internal/planning"
)

// Default bin edges, matching the processed artifacts consumed by dashboards.
var (
	ScoreBins    = []float64{0, 20, 40, 60, 80, 100}
	GapBins      = []float64{0, 5, 10, 20, 30, 50, 100}
	DistanceBins = []float64{0, 500, 1000, 2000, 3000, 5000, 10000}
)

// Histogram is a binned count of numeric values.
type Histogram struct {
	Bins   []float64 `json:"bins"`
	Counts []int     `json:"counts"`
}

// NewHistogram bins values into right-closed intervals (bins[i], bins[i+1]],
// with the lowest edge included in the first bin. NaN and out-of-range
// values are dropped.
func NewHistogram(values []float64, bins []float64) Histogram {
	counts := make([]int, len(bins)-1)
	for _, v := range values {
		if math.IsNaN(v) || v < bins[0] || v > bins[len(bins)-1] {
			continue
		}
		if v == bins[0] {
			counts[0]++
			continue
		}
		for i := 0; i < len(bins)-1; i++ {
			if v > bins[i] && v <= bins[i+1] {
				counts[i]++
				break
			}
		}
	}
	return Histogram{Bins: bins, Counts: counts}
}

// Buckets counts scores in the low (<40), mid (40-70), and high (>=70) bands.
type Buckets struct {
	Low  int `json:"low"`
	Mid  int `json:"mid"`
	High int `json:"high"`
}

// ScoreBuckets buckets 0-100 scores; NaN values are dropped.
func ScoreBuckets(scores []float64) Buckets {
	var b Buckets
	for _, s := range scores {
		switch {
		case math.IsNaN(s):
		case s < 40:
			b.Low++
		case s < 70:
			b.Mid++
		default:
			b.High++
		}
	}
	return b
}

// CityDeserts is the desert-cell count for one city.
type CityDeserts struct {
	City        string `json:"city"`
	DesertCount int    `json:"desert_count"`
}

// Metrics is the headline metric block of a summary.
type Metrics struct {
	LibrariesCount        int      `json:"libraries_count"`
	AvgAccessibilityScore *float64 `json:"avg_accessibility_score"`
	ScoreBuckets          Buckets  `json:"score_buckets"`
	DesertsCount          int      `json:"deserts_count"`
	OutreachCount         int      `json:"outreach_count"`
}

// DesertDistributions holds histograms over desert cells only.
type DesertDistributions struct {
	EffectiveScoreHist Histogram `json:"effective_score_hist"`
	GapHist            Histogram `json:"gap_hist"`
	BestDistanceHistM  Histogram `json:"best_distance_hist_m"`
}

// OutreachDistributions holds histograms over outreach recommendations.
type OutreachDistributions struct {
	OutreachScoreHist   Histogram `json:"outreach_score_hist"`
	CoverageScoreHist   Histogram `json:"coverage_score_hist"`
	SiteAccessScoreHist Histogram `json:"site_access_score_hist"`
}

// Summary is the full aggregation of one run (or one city of a run).
type Summary struct {
	Metrics               Metrics                   `json:"metrics"`
	ScoreHistogram        Histogram                 `json:"score_histogram"`
	DesertsDistributions  DesertDistributions       `json:"deserts_distributions"`
	DesertsByCity         []CityDeserts             `json:"deserts_by_city"`
	OutreachDistributions OutreachDistributions     `json:"outreach_distributions"`
	OutreachTop           []planning.Recommendation `json:"outreach_top"`
}

// Summarize aggregates scored libraries, grid cells, and recommendations,
// optionally restricted to a set of cities (nil or empty means all).
func Summarize(
	libraries []planning.ScoredLibrary,
	cells []planning.Cell,
	recommendations []planning.Recommendation,
	cities []string,
	topNOutreach int,
) Summary {
	cityFilter := citySet(cities)

	var scores []float64
	for _, l := range libraries {
		if cityFilter == nil || cityFilter[l.City] {
			scores = append(scores, l.Score)
		}
	}

	var (
		desertCount   int
		effScores     []float64
		gaps          []float64
		bestDistances []float64
		byCity        = map[string]int{}
	)
	for _, c := range cells {
		if cityFilter != nil && !cityFilter[c.City] {
			continue
		}
		if !c.IsDesert {
			continue
		}
		desertCount++
		byCity[c.City]++
		effScores = append(effScores, c.EffectiveScore)
		gaps = append(gaps, c.GapToThreshold)
		if c.BestLibraryDistanceM != nil {
			bestDistances = append(bestDistances, *c.BestLibraryDistanceM)
		}
	}

	var recs []planning.Recommendation
	for _, r := range recommendations {
		if cityFilter == nil || cityFilter[r.City] {
			recs = append(recs, r)
		}
	}

	var outreachScores, coverageScores, siteScores []float64
	for _, r := range recs {
		outreachScores = append(outreachScores, r.OutreachScore)
		coverageScores = append(coverageScores, r.CoverageScore)
		siteScores = append(siteScores, r.SiteAccessScore)
	}

	return Summary{
		Metrics: Metrics{
			LibrariesCount:        len(scores),
			AvgAccessibilityScore: mean(scores),
			ScoreBuckets:          ScoreBuckets(scores),
			DesertsCount:          desertCount,
			OutreachCount:         len(recs),
		},
		ScoreHistogram: NewHistogram(scores, ScoreBins),
		DesertsDistributions: DesertDistributions{
			EffectiveScoreHist: NewHistogram(effScores, ScoreBins),
			GapHist:            NewHistogram(gaps, GapBins),
			BestDistanceHistM:  NewHistogram(bestDistances, DistanceBins),
		},
		DesertsByCity:         sortedCityDeserts(byCity),
		OutreachDistributions: OutreachDistributions{
			OutreachScoreHist:   NewHistogram(outreachScores, ScoreBins),
			CoverageScoreHist:   NewHistogram(coverageScores, ScoreBins),
			SiteAccessScoreHist: NewHistogram(siteScores, ScoreBins),
		},
		OutreachTop: topRecommendations(recs, topNOutreach),
	}
}

func citySet(cities []string) map[string]bool {
	if len(cities) == 0 {
		return nil
	}
	set := make(map[string]bool, len(cities))
	for _, c := range cities {
		set[c] = true
	}
	return set
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

// sortedCityDeserts orders by desert count descending, city ascending on ties.
func sortedCityDeserts(byCity map[string]int) []CityDeserts {
	out := make([]CityDeserts, 0, len(byCity))
	for city, n := range byCity {
		out = append(out, CityDeserts{City: city, DesertCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DesertCount != out[j].DesertCount {
			return out[i].DesertCount > out[j].DesertCount
		}
		return out[i].City < out[j].City
	})
	return out
}

func topRecommendations(recs []planning.Recommendation, n int) []planning.Recommendation {
	sorted := make([]planning.Recommendation, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OutreachScore > sorted[j].OutreachScore
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
