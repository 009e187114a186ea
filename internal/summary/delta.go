package summary

// Delta holds what-if metrics minus baseline metrics. A nil field means the
// metric was absent on one side and no delta is defined.
type Delta struct {
	AvgAccessibilityScore *float64 `json:"avg_accessibility_score"`
	DesertsCount          *int     `json:"deserts_count"`
	OutreachCount         *int     `json:"outreach_count"`
	LibrariesCount        *int     `json:"libraries_count"`
}

// SummarizeDelta computes per-metric differences between a baseline summary
// and a what-if scenario summary.
func SummarizeDelta(baseline, whatif Summary) Delta {
	d := Delta{
		DesertsCount:   intDelta(baseline.Metrics.DesertsCount, whatif.Metrics.DesertsCount),
		OutreachCount:  intDelta(baseline.Metrics.OutreachCount, whatif.Metrics.OutreachCount),
		LibrariesCount: intDelta(baseline.Metrics.LibrariesCount, whatif.Metrics.LibrariesCount),
	}
	if baseline.Metrics.AvgAccessibilityScore != nil && whatif.Metrics.AvgAccessibilityScore != nil {
		v := *whatif.Metrics.AvgAccessibilityScore - *baseline.Metrics.AvgAccessibilityScore
		d.AvgAccessibilityScore = &v
	}
	return d
}

func intDelta(baseline, whatif int) *int {
	v := whatif - baseline
	return &v
}
