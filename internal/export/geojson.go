// Package export serializes engine outputs to GeoJSON, shapefile, and CSV
// artifacts for downstream map UIs and GIS tooling.
package export

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/libraryreach/reach-cli/internal/planning"
	"github.com/libraryreach/reach-cli/internal/spatial"
)

// CellsFeatureCollection converts grid cells to a FeatureCollection of Points
// at cell centroids. Best-library properties are null for cells with no
// library in range.
func CellsFeatureCollection(cells []planning.Cell) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(cells))
	for _, c := range cells {
		props := map[string]interface{}{
			"cell_id":                 c.ID(),
			"city":                    c.City,
			"effective_score_0_100":   c.EffectiveScore,
			"is_desert":               c.IsDesert,
			"gap_to_threshold":        c.GapToThreshold,
			"best_library_id":         nullableString(c.BestLibraryID),
			"best_library_distance_m": nullableFloat(c.BestLibraryDistanceM),
			"best_library_base_score": nullableFloat(c.BestLibraryBaseScore),
			"distance_decay_factor":   nullableFloat(c.DecayFactor),
		}
		features = append(features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{c.CentroidLon, c.CentroidLat}),
			Properties: props,
		})
	}
	return &geojson.FeatureCollection{Features: features}
}

// circleVertices is the default polygon resolution for buffer rings.
const circleVertices = 64

// BuffersFeatureCollection approximates circular buffers around points as
// lon/lat polygons, generated in the same local projection used for distance
// math so map display matches the counting geometry. These polygons are for
// UI/explainability only, not exact GIS overlay.
func BuffersFeatureCollection(points []spatial.QueryPoint, radiusM float64, refLatDeg float64) (*geojson.FeatureCollection, error) {
	if radiusM <= 0 {
		return nil, eris.Errorf("export: buffer radius must be > 0, got %f", radiusM)
	}
	proj, err := spatial.NewProjection(refLatDeg)
	if err != nil {
		return nil, err
	}

	features := make([]*geojson.Feature, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
			continue
		}
		x0, y0 := proj.ToXY(p.Lat, p.Lon)

		// Closed ring: first vertex repeated at the end per GeoJSON.
		coords := make([]geom.Coord, 0, circleVertices+1)
		for i := 0; i < circleVertices; i++ {
			angle := 2 * math.Pi * float64(i) / circleVertices
			lat, lon := proj.ToLatLon(x0+radiusM*math.Cos(angle), y0+radiusM*math.Sin(angle))
			coords = append(coords, geom.Coord{lon, lat})
		}
		coords = append(coords, coords[0])

		polygon := geom.NewPolygon(geom.XY)
		if _, err := polygon.SetCoords([][]geom.Coord{coords}); err != nil {
			return nil, eris.Wrapf(err, "export: buffer ring for %s", p.ID)
		}
		features = append(features, &geojson.Feature{
			Geometry: polygon,
			Properties: map[string]interface{}{
				"id":       p.ID,
				"radius_m": radiusM,
			},
		})
	}
	return &geojson.FeatureCollection{Features: features}, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
