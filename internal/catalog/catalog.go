// Package catalog models and loads the library, outreach candidate, and
// transit stop tables consumed by the accessibility engine.
package catalog

import "github.com/rotisserie/eris"

// ErrSchema indicates that required columns are missing from an input table.
var ErrSchema = eris.New("catalog: missing required columns")

// Recognized transit modes. Stops with any other mode still count toward
// totals in the density join but earn no mode-specific credit.
const (
	ModeBus   = "bus"
	ModeMetro = "metro"
)

// Library is one library branch row. Lat/Lon are NaN when the source row had
// missing or unparseable coordinates; the spatial layer drops such rows.
type Library struct {
	ID       string
	Name     string
	City     string
	District string
	Lat      float64
	Lon      float64
}

// Candidate is one outreach candidate site row.
type Candidate struct {
	ID       string
	Name     string
	City     string
	District string
	Type     string
	Lat      float64
	Lon      float64
}

// Stop is one transit stop row.
type Stop struct {
	StopID string
	Lat    float64
	Lon    float64
	Mode   string
}
