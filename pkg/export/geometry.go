package export

import (
	"errors"
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// GeometryColumns are the header names recognised as WKT geometry, case-insensitively.
var GeometryColumns = []string{"shape", "sp_geometry"}

var (
	errEmptyGeometry  = errors.New("empty geometry")
	errDegenerateRing = errors.New("polygon ring needs at least 4 points")
)

// GeometryColumn returns the index of the first geometry column in headers, or -1.
func GeometryColumn(headers []string) int {
	for i, h := range headers {
		for _, g := range GeometryColumns {
			if strings.EqualFold(strings.TrimSpace(h), g) {
				return i
			}
		}
	}
	return -1
}

// ParseWKT parses a WKT string into a geometry.
func ParseWKT(s string) (orb.Geometry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyGeometry
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// toShape converts a geometry into a shapefile record and reports its layer type.
func toShape(g orb.Geometry) (shp.Shape, shp.ShapeType, error) {
	switch geom := g.(type) {
	case orb.Point:
		return &shp.Point{X: geom[0], Y: geom[1]}, shp.POINT, nil

	case orb.MultiPoint:
		if len(geom) == 0 {
			return nil, shp.NULL, errEmptyGeometry
		}
		return newMultiPoint(toPoints(geom)), shp.MULTIPOINT, nil

	case orb.LineString:
		if len(geom) == 0 {
			return nil, shp.NULL, errEmptyGeometry
		}
		return shp.NewPolyLine([][]shp.Point{toPoints(geom)}), shp.POLYLINE, nil

	case orb.MultiLineString:
		parts := make([][]shp.Point, 0, len(geom))
		for _, ls := range geom {
			if len(ls) > 0 {
				parts = append(parts, toPoints(ls))
			}
		}
		if len(parts) == 0 {
			return nil, shp.NULL, errEmptyGeometry
		}
		return shp.NewPolyLine(parts), shp.POLYLINE, nil

	case orb.Polygon:
		parts, err := polygonParts(geom)
		if err != nil {
			return nil, shp.NULL, err
		}
		if len(parts) == 0 {
			return nil, shp.NULL, errEmptyGeometry
		}
		return newPolygon(parts), shp.POLYGON, nil

	case orb.MultiPolygon:
		var parts [][]shp.Point
		for _, p := range geom {
			pp, err := polygonParts(p)
			if err != nil {
				return nil, shp.NULL, err
			}
			parts = append(parts, pp...)
		}
		if len(parts) == 0 {
			return nil, shp.NULL, errEmptyGeometry
		}
		return newPolygon(parts), shp.POLYGON, nil

	default:
		return nil, shp.NULL, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}

func toPoints[P ~[]orb.Point](points P) []shp.Point {
	out := make([]shp.Point, len(points))
	for i, p := range points {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

// polygonParts orients outer rings clockwise and holes counter-clockwise.
// A ring needs at least four points once closed.
func polygonParts(p orb.Polygon) ([][]shp.Point, error) {
	parts := make([][]shp.Point, 0, len(p))
	for i, ring := range p {
		if len(ring) == 0 {
			continue
		}
		r := ring.Clone()
		if !r.Closed() {
			r = append(r, r[0])
		}
		if len(r) < 4 {
			return nil, fmt.Errorf("%w: ring %d has %d points", errDegenerateRing, i+1, len(r))
		}
		o := r.Orientation()
		if (i == 0 && o == orb.CCW) || (i > 0 && o == orb.CW) {
			r.Reverse()
		}
		parts = append(parts, toPoints(r))
	}
	return parts, nil
}

func newPolygon(parts [][]shp.Point) *shp.Polygon {
	p := shp.Polygon(*shp.NewPolyLine(parts))
	return &p
}

func newMultiPoint(points []shp.Point) *shp.MultiPoint {
	return &shp.MultiPoint{
		Box:       shp.BBoxFromPoints(points),
		NumPoints: int32(len(points)),
		Points:    points,
	}
}

// emptyShape is the null record of a layer. It reports the layer box so the
// file header keeps the extent of the real features.
func emptyShape(layer shp.ShapeType, box shp.Box) shp.Shape {
	switch layer {
	case shp.MULTIPOINT:
		return boxedShape{Shape: &shp.MultiPoint{Box: box, Points: []shp.Point{}}, box: box}
	case shp.POLYLINE:
		return boxedShape{Shape: &shp.PolyLine{Box: box, Parts: []int32{}, Points: []shp.Point{}}, box: box}
	case shp.POLYGON:
		return boxedShape{Shape: &shp.Polygon{Box: box, Parts: []int32{}, Points: []shp.Point{}}, box: box}
	default:
		return &shp.Null{}
	}
}

// boxedShape overrides the bounding box the writer folds into the file header.
type boxedShape struct {
	shp.Shape
	box shp.Box
}

func (b boxedShape) BBox() shp.Box { return b.box }

// asMultiPoint wraps a point record for a promoted point layer.
func asMultiPoint(s shp.Shape) shp.Shape {
	if p, ok := s.(*shp.Point); ok {
		return newMultiPoint([]shp.Point{*p})
	}
	return s
}
