package geo

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadShapefileClassifier reads land polygons from a shapefile (e.g. Natural
// Earth land masses) and returns a PolygonClassifier over them. Records that
// are not polygons are skipped.
func LoadShapefileClassifier(path string) (*PolygonClassifier, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var polygons []*geom.Polygon
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}
		for _, g := range polygonToGeoms(poly) {
			polygons = append(polygons, g)
		}
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(polygons) == 0 {
		return nil, eris.Errorf("geo: no polygons in shapefile %s", path)
	}

	zap.L().Info("geo: loaded land polygons",
		zap.String("path", path),
		zap.Int("polygons", len(polygons)),
	)
	return NewPolygonClassifier(polygons), nil
}

// polygonToGeoms converts a shapefile polygon's parts into go-geom polygons.
// Shapefile rings carry no explicit hole marker here; each part becomes its
// own single-ring polygon, which is sufficient for land-mass coverage tests.
func polygonToGeoms(p *shp.Polygon) []*geom.Polygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var out []*geom.Polygon
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 3 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for _, pt := range p.Points[start:end] {
			flat = append(flat, pt.X, pt.Y)
		}

		poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)
		out = append(out, poly)
	}
	return out
}
