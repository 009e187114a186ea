package summary

import (
	"sort"

	"github.com/libraryreach/reach-cli/internal/planning"
)

// Aggregate recombines cached per-city summaries for a subset of cities
// without recomputing from raw tables: counts and histogram bins are summed,
// averages are library-count weighted, and the outreach top list is re-ranked
// from the per-city pools.
//
// Histograms are added bin-wise only when edges match; the first city's edges
// win otherwise.
func Aggregate(byCity map[string]Summary, cities []string, topNOutreach int) Summary {
	var (
		out           Summary
		sumScore      float64
		scoreWeight   int
		haveScoreHist bool
		desertsByCity []CityDeserts
		outreachPool  []planning.Recommendation
	)

	for _, city := range cities {
		s, ok := byCity[city]
		if !ok {
			continue
		}

		out.Metrics.LibrariesCount += s.Metrics.LibrariesCount
		out.Metrics.DesertsCount += s.Metrics.DesertsCount
		out.Metrics.OutreachCount += s.Metrics.OutreachCount
		out.Metrics.ScoreBuckets.Low += s.Metrics.ScoreBuckets.Low
		out.Metrics.ScoreBuckets.Mid += s.Metrics.ScoreBuckets.Mid
		out.Metrics.ScoreBuckets.High += s.Metrics.ScoreBuckets.High

		if s.Metrics.AvgAccessibilityScore != nil && s.Metrics.LibrariesCount > 0 {
			sumScore += *s.Metrics.AvgAccessibilityScore * float64(s.Metrics.LibrariesCount)
			scoreWeight += s.Metrics.LibrariesCount
		}

		if !haveScoreHist {
			out.ScoreHistogram = cloneHistogram(s.ScoreHistogram)
			out.DesertsDistributions = DesertDistributions{
				EffectiveScoreHist: cloneHistogram(s.DesertsDistributions.EffectiveScoreHist),
				GapHist:            cloneHistogram(s.DesertsDistributions.GapHist),
				BestDistanceHistM:  cloneHistogram(s.DesertsDistributions.BestDistanceHistM),
			}
			out.OutreachDistributions = OutreachDistributions{
				OutreachScoreHist:   cloneHistogram(s.OutreachDistributions.OutreachScoreHist),
				CoverageScoreHist:   cloneHistogram(s.OutreachDistributions.CoverageScoreHist),
				SiteAccessScoreHist: cloneHistogram(s.OutreachDistributions.SiteAccessScoreHist),
			}
			haveScoreHist = true
		} else {
			addHistogram(&out.ScoreHistogram, s.ScoreHistogram)
			addHistogram(&out.DesertsDistributions.EffectiveScoreHist, s.DesertsDistributions.EffectiveScoreHist)
			addHistogram(&out.DesertsDistributions.GapHist, s.DesertsDistributions.GapHist)
			addHistogram(&out.DesertsDistributions.BestDistanceHistM, s.DesertsDistributions.BestDistanceHistM)
			addHistogram(&out.OutreachDistributions.OutreachScoreHist, s.OutreachDistributions.OutreachScoreHist)
			addHistogram(&out.OutreachDistributions.CoverageScoreHist, s.OutreachDistributions.CoverageScoreHist)
			addHistogram(&out.OutreachDistributions.SiteAccessScoreHist, s.OutreachDistributions.SiteAccessScoreHist)
		}

		desertsByCity = append(desertsByCity, s.DesertsByCity...)
		outreachPool = append(outreachPool, s.OutreachTop...)
	}

	if scoreWeight > 0 {
		avg := sumScore / float64(scoreWeight)
		out.Metrics.AvgAccessibilityScore = &avg
	}
	if !haveScoreHist {
		out.ScoreHistogram = NewHistogram(nil, ScoreBins)
		out.DesertsDistributions = DesertDistributions{
			EffectiveScoreHist: NewHistogram(nil, ScoreBins),
			GapHist:            NewHistogram(nil, GapBins),
			BestDistanceHistM:  NewHistogram(nil, DistanceBins),
		}
		out.OutreachDistributions = OutreachDistributions{
			OutreachScoreHist:   NewHistogram(nil, ScoreBins),
			CoverageScoreHist:   NewHistogram(nil, ScoreBins),
			SiteAccessScoreHist: NewHistogram(nil, ScoreBins),
		}
	}

	out.DesertsByCity = dedupeCityDeserts(desertsByCity)
	out.OutreachTop = topRecommendations(outreachPool, topNOutreach)
	return out
}

func cloneHistogram(h Histogram) Histogram {
	out := Histogram{Bins: make([]float64, len(h.Bins)), Counts: make([]int, len(h.Counts))}
	copy(out.Bins, h.Bins)
	copy(out.Counts, h.Counts)
	return out
}

func addHistogram(dst *Histogram, src Histogram) {
	if len(dst.Bins) != len(src.Bins) || len(dst.Counts) != len(src.Counts) {
		return
	}
	for i := range dst.Bins {
		if dst.Bins[i] != src.Bins[i] {
			return
		}
	}
	for i := range dst.Counts {
		dst.Counts[i] += src.Counts[i]
	}
}

// dedupeCityDeserts keeps the first entry per city (each per-city summary
// contributes one city anyway) and re-sorts by count descending.
func dedupeCityDeserts(entries []CityDeserts) []CityDeserts {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DesertCount != entries[j].DesertCount {
			return entries[i].DesertCount > entries[j].DesertCount
		}
		return entries[i].City < entries[j].City
	})
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.City] {
			continue
		}
		seen[e.City] = true
		out = append(out, e)
	}
	return out
}
