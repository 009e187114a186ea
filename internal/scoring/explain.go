package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// topDrivers is how many components the explanation text names.
const topDrivers = 3

// Text renders a short human-readable explanation: the score followed by the
// highest-contributing (mode, radius) components in descending order.
func (e Explanation) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score %.1f/100 (baseline stop-density model).", e.Score)

	sorted := make([]Component, len(e.Components))
	copy(sorted, e.Components)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Contribution > sorted[j].Contribution
	})
	if len(sorted) > topDrivers {
		sorted = sorted[:topDrivers]
	}
	if len(sorted) == 0 {
		return b.String()
	}

	drivers := make([]string, 0, len(sorted))
	for _, c := range sorted {
		drivers = append(drivers, fmt.Sprintf("%s@%dm %.1f/km² vs %.1f/km²", c.Mode, c.RadiusM, c.DensityPerKm2, c.TargetPerKm2))
	}
	b.WriteString(" Top drivers: ")
	b.WriteString(strings.Join(drivers, "; "))
	b.WriteString(".")
	return b.String()
}
