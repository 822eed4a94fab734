package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/cadastral-search/internal/pkg/utils"
)

const (
	kmPerDegreeLon = 111.32
	kmPerDegreeLat = 110.574
	minRadiusKm    = 0.5
)

// GeometryKind - тип GeoJSON геометрии
type GeometryKind string

const (
	KindPolygon      GeometryKind = "Polygon"
	KindMultiPolygon GeometryKind = "MultiPolygon"
)

// Position - точка [lon, lat]
type Position [2]float64

func (p Position) Lon() float64 { return p[0] }
func (p Position) Lat() float64 { return p[1] }

// Ring - замкнутое кольцо полигона
type Ring []Position

func (r Ring) points() [][2]float64 {
	out := make([][2]float64, len(r))
	for i, p := range r {
		out[i] = p
	}
	return out
}

func (r Ring) toOrb() orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[i] = orb.Point(p)
	}
	return out
}

// GeometryInput - геометрия, как она пришла в запросе
type GeometryInput struct {
	Type        string      `json:"type" validate:"required,oneof=Polygon MultiPolygon"`
	Coordinates interface{} `json:"coordinates" validate:"required"`
}

// Contour - провалидированный контур поиска
type Contour struct {
	Kind GeometryKind
	// Polygons[i][0] - внешнее кольцо, остальные - дырки
	Polygons [][]Ring
}

// OuterRings возвращает внешние кольца всех полигонов
func (c *Contour) OuterRings() []Ring {
	rings := make([]Ring, 0, len(c.Polygons))
	for _, p := range c.Polygons {
		if len(p) > 0 {
			rings = append(rings, p[0])
		}
	}
	return rings
}

// IsAreal - контур является Polygon или MultiPolygon
func (c *Contour) IsAreal() bool {
	return c != nil && (c.Kind == KindPolygon || c.Kind == KindMultiPolygon)
}

// Geometry возвращает контур в виде GeoJSON геометрии
func (c *Contour) Geometry() Geometry {
	toCoords := func(rings []Ring) [][][2]float64 {
		out := make([][][2]float64, len(rings))
		for i, r := range rings {
			out[i] = r.points()
		}
		return out
	}

	if c.Kind == KindMultiPolygon {
		coords := make([][][][2]float64, len(c.Polygons))
		for i, p := range c.Polygons {
			coords[i] = toCoords(p)
		}
		return Geometry{Type: string(KindMultiPolygon), Coordinates: coords}
	}
	return Geometry{Type: string(KindPolygon), Coordinates: toCoords(c.Polygons[0])}
}

// ParseContour разбирает и проверяет геометрию из запроса.
// Любая ошибка оборачивает ErrInvalidGeometry.
func ParseContour(in GeometryInput) (*Contour, error) {
	switch GeometryKind(in.Type) {
	case KindPolygon:
		rings, err := parsePolygon(in.Coordinates)
		if err != nil {
			return nil, err
		}
		return &Contour{Kind: KindPolygon, Polygons: [][]Ring{rings}}, nil

	case KindMultiPolygon:
		items, ok := in.Coordinates.([]interface{})
		if !ok || len(items) == 0 {
			return nil, fmt.Errorf("%w: multipolygon coordinates must be a non-empty array", ErrInvalidGeometry)
		}
		polygons := make([][]Ring, 0, len(items))
		for i, item := range items {
			rings, err := parsePolygon(item)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			polygons = append(polygons, rings)
		}
		if err := validateParts(polygons); err != nil {
			return nil, err
		}
		return &Contour{Kind: KindMultiPolygon, Polygons: polygons}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %q", ErrInvalidGeometry, in.Type)
	}
}

func parsePolygon(raw interface{}) ([]Ring, error) {
	items, ok := raw.([]interface{})
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("%w: polygon must contain at least one ring", ErrInvalidGeometry)
	}

	rings := make([]Ring, 0, len(items))
	for i, item := range items {
		ring, err := parseRing(item)
		if err != nil {
			return nil, fmt.Errorf("ring %d: %w", i, err)
		}
		if err := validateRing(ring); err != nil {
			return nil, fmt.Errorf("ring %d: %w", i, err)
		}
		rings = append(rings, ring)
	}
	if err := validateHoles(rings); err != nil {
		return nil, err
	}
	return rings, nil
}

// validateHoles - дырки лежат внутри внешнего кольца и не перекрывают друг друга
func validateHoles(rings []Ring) error {
	shell := rings[0].toOrb()
	holes := make([]orb.Ring, 0, len(rings)-1)
	for i, r := range rings[1:] {
		hole := r.toOrb()
		if !utils.RingWithin(hole, shell) {
			return fmt.Errorf("%w: ring %d is not inside the outer ring", ErrInvalidGeometry, i+1)
		}
		for j, prev := range holes {
			if utils.RingsOverlap(hole, prev) {
				return fmt.Errorf("%w: rings %d and %d overlap", ErrInvalidGeometry, j+1, i+1)
			}
		}
		holes = append(holes, hole)
	}
	return nil
}

// validateParts - полигоны мультиполигона касаются не более чем в отдельных точках.
// Часть, лежащая в дырке другой части, допустима.
func validateParts(polygons [][]Ring) error {
	for i := 0; i < len(polygons); i++ {
		for j := i + 1; j < len(polygons); j++ {
			if partsOverlap(polygons[i], polygons[j]) {
				return fmt.Errorf("%w: polygons %d and %d overlap", ErrInvalidGeometry, i, j)
			}
		}
	}
	return nil
}

func partsOverlap(a, b []Ring) bool {
	shellA, shellB := a[0].toOrb(), b[0].toOrb()
	if !utils.RingsOverlap(shellA, shellB) {
		return false
	}
	return !insideHole(shellA, b) && !insideHole(shellB, a)
}

// insideHole - кольцо целиком лежит в одной из дырок полигона
func insideHole(ring orb.Ring, polygon []Ring) bool {
	for _, hole := range polygon[1:] {
		if utils.RingWithin(ring, hole.toOrb()) {
			return true
		}
	}
	return false
}

func parseRing(raw interface{}) (Ring, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: ring must be an array of positions", ErrInvalidGeometry)
	}

	ring := make(Ring, 0, len(items))
	for i, item := range items {
		pair, ok := item.([]interface{})
		if !ok || len(pair) < 2 {
			return nil, fmt.Errorf("%w: position %d must be [lon, lat]", ErrInvalidGeometry, i)
		}
		lon, okLon := toFloat(pair[0])
		lat, okLat := toFloat(pair[1])
		if !okLon || !okLat {
			return nil, fmt.Errorf("%w: position %d is not numeric", ErrInvalidGeometry, i)
		}
		if !utils.ValidateCoordinates(lat, lon) {
			return nil, fmt.Errorf("%w: position %d is out of range", ErrInvalidGeometry, i)
		}
		ring = append(ring, Position{lon, lat})
	}
	return ring, nil
}

func validateRing(ring Ring) error {
	if len(ring) < 4 {
		return fmt.Errorf("%w: ring needs at least 4 positions", ErrInvalidGeometry)
	}
	if ring[0] != ring[len(ring)-1] {
		return fmt.Errorf("%w: ring is not closed", ErrInvalidGeometry)
	}

	distinct := make(map[Position]struct{}, len(ring))
	for _, p := range ring {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return fmt.Errorf("%w: ring needs at least 3 distinct points", ErrInvalidGeometry)
	}

	pts := ring.toOrb()
	if !utils.RingHasArea(pts) {
		return fmt.Errorf("%w: ring has zero area", ErrInvalidGeometry)
	}
	if utils.RingSelfIntersects(pts) {
		return fmt.Errorf("%w: ring is self-intersecting", ErrInvalidGeometry)
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// BBox - прямоугольник в градусах
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Intersects - прямоугольники пересекаются или касаются
func (b BBox) Intersects(o BBox) bool {
	return b.Bound().Intersects(o.Bound())
}

// Bound - прямоугольник в виде orb.Bound
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// BBoxFromBound - обратное преобразование из orb.Bound
func BBoxFromBound(b orb.Bound) BBox {
	return BBox{MinLon: b.Left(), MinLat: b.Bottom(), MaxLon: b.Right(), MaxLat: b.Top()}
}

// BoundingExtent - охват контура для поиска по прямоугольнику и радиусу
type BoundingExtent struct {
	BBox
	Center   Position `json:"center"`
	RadiusKm float64  `json:"radius_km"`
}

func (e BoundingExtent) SouthWest() Position { return Position{e.MinLon, e.MinLat} }
func (e BoundingExtent) NorthEast() Position { return Position{e.MaxLon, e.MaxLat} }

// NewBoundingExtent считает охват по кольцам. Радиус - половина диагонали
// в плоском приближении (долгота с поправкой на cos средней широты), не меньше 500 м.
func NewBoundingExtent(rings ...Ring) BoundingExtent {
	var bound orb.Bound
	first := true
	for _, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		rb := ring.toOrb().Bound()
		if first {
			bound = rb
			first = false
			continue
		}
		bound = bound.Union(rb)
	}
	box := BBoxFromBound(bound)

	meanLat := (box.MinLat + box.MaxLat) / 2
	dx := (box.MaxLon - box.MinLon) * kmPerDegreeLon * math.Cos(meanLat*math.Pi/180)
	dy := (box.MaxLat - box.MinLat) * kmPerDegreeLat

	return BoundingExtent{
		BBox:     box,
		Center:   Position{(box.MinLon + box.MaxLon) / 2, meanLat},
		RadiusKm: math.Max(math.Sqrt(dx*dx+dy*dy)/2, minRadiusKm),
	}
}
