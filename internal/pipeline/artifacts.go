package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/export"
)

// Artifact file names under the processed directory.
const (
	LibrariesFile       = "libraries_scored.csv"
	CellsFile           = "desert_cells.csv"
	RecommendationsFile = "outreach_recommendations.csv"
	DesertsGeoJSONFile  = "deserts.geojson"
	ExplanationsFile    = "score_explanations.json"
	RunMetaFile         = "run_meta.json"
)

// WriteArtifacts writes every output table and map layer for a run under
// processedDir, creating it if needed, and returns the file names written.
func WriteArtifacts(out *Outputs, radiiM []int, processedDir string) ([]string, error) {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: create %s", processedDir)
	}

	path := func(name string) string { return filepath.Join(processedDir, name) }

	if err := export.WriteLibrariesCSV(path(LibrariesFile), out.Libraries, radiiM); err != nil {
		return nil, err
	}
	if err := export.WriteCellsCSV(path(CellsFile), out.Cells); err != nil {
		return nil, err
	}
	if err := export.WriteRecommendationsCSV(path(RecommendationsFile), out.Recommendations); err != nil {
		return nil, err
	}

	fc := export.CellsFeatureCollection(out.Cells)
	if err := writeJSON(path(DesertsGeoJSONFile), fc); err != nil {
		return nil, err
	}
	if err := writeJSON(path(ExplanationsFile), out.Explanations); err != nil {
		return nil, err
	}

	files := []string{LibrariesFile, CellsFile, RecommendationsFile, DesertsGeoJSONFile, ExplanationsFile}
	zap.L().Info("artifacts written", zap.String("dir", processedDir), zap.Strings("files", files))
	return files, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "pipeline: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", path)
	}
	return nil
}
