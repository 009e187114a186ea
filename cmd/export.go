package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/catalog"
	"github.com/libraryreach/reach-cli/internal/export"
	"github.com/libraryreach/reach-cli/internal/pipeline"
	"github.com/libraryreach/reach-cli/internal/spatial"
)

var (
	exportFormat  string
	exportBuffers bool
	exportRadiusM int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export processed artifacts as GIS layers",
	Long:  "Reads the desert grid-cell table from the processed directory and writes it as a shapefile or GeoJSON, without recomputing the grid. With --buffers it instead writes catchment rings around library branches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := ensureProcessedDir(); err != nil {
			return err
		}

		if exportBuffers {
			return exportLibraryBuffers(ctx)
		}

		cellsPath := filepath.Join(cfg.Paths.ProcessedDir, pipeline.CellsFile)
		cells, err := export.ReadCellsCSV(ctx, cellsPath)
		if err != nil {
			return err
		}

		switch exportFormat {
		case "shapefile":
			out := filepath.Join(cfg.Paths.ProcessedDir, "desert_cells.shp")
			if err := export.WriteCellsShapefile(out, cells); err != nil {
				return err
			}
			zap.L().Info("shapefile written", zap.String("path", out), zap.Int("cells", len(cells)))
		case "geojson":
			out := filepath.Join(cfg.Paths.ProcessedDir, pipeline.DesertsGeoJSONFile)
			if err := writeFeatureCollection(out, export.CellsFeatureCollection(cells)); err != nil {
				return err
			}
			zap.L().Info("geojson written", zap.String("path", out), zap.Int("cells", len(cells)))
		default:
			return eris.Errorf("unknown export format %q (want shapefile or geojson)", exportFormat)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "geojson", "output format: geojson or shapefile")
	exportCmd.Flags().BoolVar(&exportBuffers, "buffers", false, "export library catchment rings instead of grid cells")
	exportCmd.Flags().IntVar(&exportRadiusM, "radius", 0, "buffer radius in meters (default: largest configured radius)")
	rootCmd.AddCommand(exportCmd)
}

// exportLibraryBuffers writes catchment rings around every library branch at
// the requested radius, anchored at the same reference latitude the scoring
// run would use for these libraries.
func exportLibraryBuffers(ctx context.Context) error {
	libraries, err := catalog.LoadLibraries(ctx, filepath.Join(cfg.Paths.CatalogsDir, "libraries.csv"))
	if err != nil {
		return err
	}

	radius := exportRadiusM
	if radius <= 0 {
		for _, r := range cfg.Buffers.RadiiM {
			if r > radius {
				radius = r
			}
		}
	}
	if radius <= 0 {
		return eris.New("no buffer radius configured")
	}

	lats := make([]float64, 0, len(libraries))
	points := make([]spatial.QueryPoint, 0, len(libraries))
	for _, l := range libraries {
		lats = append(lats, l.Lat)
		points = append(points, spatial.QueryPoint{ID: l.ID, Lat: l.Lat, Lon: l.Lon})
	}
	refLat, err := spatial.ChooseReferenceLat(lats, spatial.RefLatStrategy(cfg.Spatial.Distance.ReferenceLatStrategy))
	if err != nil {
		return err
	}

	fc, err := export.BuffersFeatureCollection(points, float64(radius), refLat)
	if err != nil {
		return err
	}
	out := filepath.Join(cfg.Paths.ProcessedDir, "library_buffers.geojson")
	if err := writeFeatureCollection(out, fc); err != nil {
		return err
	}
	zap.L().Info("buffers written",
		zap.String("path", out),
		zap.Int("libraries", len(points)),
		zap.Int("radius_m", radius),
	)
	return nil
}

func writeFeatureCollection(path string, fc interface{}) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}
