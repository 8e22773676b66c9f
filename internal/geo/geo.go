package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/ringline/racecore/pkg/core"
)

// Track space is metres with Y up. Geometries live in the ground plane:
// track X maps to easting (X) and track Z to northing (Y).

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrShortTrace is returned when a trace has fewer than two points.
var ErrShortTrace = errors.New("trace needs at least 2 points")

// PointFromPosition projects a track position onto the ground plane.
func PointFromPosition(p core.Position3D) geom.Point {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.X, Y: p.Z}})
}

// PositionFromPoint is the inverse of PointFromPosition. Height is lost.
func PositionFromPoint(pt geom.Point) (core.Position3D, bool) {
	c, ok := pt.Coordinates()
	if !ok {
		return core.Position3D{}, false
	}
	return core.Position3D{X: c.X, Z: c.Y}, true
}

// Trace builds the ground-plane path through points.
func Trace(points []core.Position3D) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, ErrShortTrace
	}
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Z)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY)), nil
}

// TraceLength is the ground distance along points, 0 for short traces.
func TraceLength(points []core.Position3D) float64 {
	ls, err := Trace(points)
	if err != nil {
		return 0
	}
	return ls.Length()
}

// TracePositions unpacks a stored trace.
func TracePositions(ls geom.LineString) []core.Position3D {
	seq := ls.Coordinates()
	out := make([]core.Position3D, seq.Length())
	for i := range out {
		xy := seq.GetXY(i)
		out[i] = core.Position3D{X: xy.X, Z: xy.Y}
	}
	return out
}

// Anchor places the track origin on the globe so traces can be drawn on a map.
type Anchor struct {
	origin geom.XY // EPSG:3857
	scale  float64 // mercator metres per ground metre
	toGeo  func(a, b, c float64) (float64, float64, float64)
}

// NewAnchor pins the track origin at longitude/latitude (EPSG:4326).
func NewAnchor(a core.GeoAnchor) (*Anchor, error) {
	if a.Latitude <= -85 || a.Latitude >= 85 || a.Longitude < -180 || a.Longitude > 180 {
		return nil, ErrInvalidCoordinates
	}
	epsg := wgs84.EPSG()
	x, y, _ := epsg.Transform(4326, 3857)(a.Longitude, a.Latitude, 0)
	return &Anchor{
		origin: geom.XY{X: x, Y: y},
		scale:  1 / math.Cos(a.Latitude*math.Pi/180),
		toGeo:  epsg.Transform(3857, 4326),
	}, nil
}

// LonLat converts a track position to longitude and latitude.
func (an *Anchor) LonLat(p core.Position3D) (lon, lat float64) {
	lon, lat, _ = an.toGeo(an.origin.X+p.X*an.scale, an.origin.Y+p.Z*an.scale, 0)
	return lon, lat
}

// GeoTrace converts a trace to an EPSG:4326 line string.
func (an *Anchor) GeoTrace(points []core.Position3D) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, ErrShortTrace
	}
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		lon, lat := an.LonLat(p)
		flat = append(flat, lon, lat)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY)), nil
}
