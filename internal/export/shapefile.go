package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/libraryreach/reach-cli/internal/planning"
)

// WriteCellsShapefile writes grid cells as a point shapefile (centroids in
// WGS84 lon/lat) with the same attributes carried by the GeoJSON output.
// Shapefile field names are capped at 10 characters by the DBF format.
func WriteCellsShapefile(path string, cells []planning.Cell) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := []shp.Field{
		shp.StringField("CELL_ID", 64),
		shp.StringField("CITY", 32),
		shp.FloatField("EFF_SCORE", 12, 3),
		shp.NumberField("IS_DESERT", 1),
		shp.FloatField("GAP", 12, 3),
		shp.StringField("BEST_LIB", 32),
		shp.FloatField("BEST_DIST", 12, 2),
	}
	w.SetFields(fields)

	for i, c := range cells {
		w.Write(&shp.Point{X: c.CentroidLon, Y: c.CentroidLat})

		desert := 0
		if c.IsDesert {
			desert = 1
		}
		bestDist := 0.0
		if c.BestLibraryDistanceM != nil {
			bestDist = *c.BestLibraryDistanceM
		}

		attrs := []interface{}{
			c.ID(),
			c.City,
			c.EffectiveScore,
			desert,
			c.GapToThreshold,
			c.BestLibraryID,
			bestDist,
		}
		for col, v := range attrs {
			if err := w.WriteAttribute(i, col, v); err != nil {
				return eris.Wrapf(err, "export: write shapefile attribute row %d col %d", i, col)
			}
		}
	}
	return nil
}
