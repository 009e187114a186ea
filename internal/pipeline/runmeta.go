package pipeline

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RunMeta records provenance for one set of written artifacts.
type RunMeta struct {
	RunID           string    `json:"run_id"`
	Scenario        string    `json:"scenario"`
	GeneratedAt     time.Time `json:"generated_at"`
	Cities          []string  `json:"cities"`
	ReferenceLatDeg float64   `json:"reference_lat_deg"`
	Outputs         []string  `json:"outputs"`
}

// NewRunMeta stamps a fresh run ID and timestamp over the given outputs.
func NewRunMeta(scenario string, out *Outputs, files []string) RunMeta {
	return RunMeta{
		RunID:           uuid.New().String(),
		Scenario:        scenario,
		GeneratedAt:     time.Now().UTC(),
		Cities:          out.Cities,
		ReferenceLatDeg: out.ReferenceLatDeg,
		Outputs:         files,
	}
}

// WriteJSON writes the run metadata next to the other artifacts.
func (m RunMeta) WriteJSON(processedDir string) error {
	return writeJSON(filepath.Join(processedDir, RunMetaFile), m)
}
