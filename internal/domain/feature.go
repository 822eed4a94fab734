package domain

import "github.com/paulmach/orb"

// Layer - категория объектов кадастра
type Layer string

const (
	LayerLandPlot  Layer = "land_plot"
	LayerStructure Layer = "structure"
)

// Geometry - GeoJSON геометрия с произвольной вложенностью координат
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// PlaceholderGeometry подставляется, когда геометрию объекта извлечь не удалось
func PlaceholderGeometry() Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{0, 0}}
}

// CanonicalFeature - объект в нормализованном виде, независимо от того,
// какой метод поиска его вернул
type CanonicalFeature struct {
	ID         string                 `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// RawGeometry - геометрия в том виде, в каком её отдал источник.
// Реализации: GeometryDump, GeoInterface, LooseGeometry.
type RawGeometry interface {
	isRawGeometry()
}

// GeometryDump - структурированная геометрия, уже разобранная в Geometry
type GeometryDump struct {
	Geometry Geometry
}

// GeoInterface - геометрия как GeoJSON-словарь
type GeoInterface struct {
	Mapping map[string]interface{}
}

// LooseGeometry - отдельные поля type/coordinates, каждое может отсутствовать
type LooseGeometry struct {
	Type        *string
	Coordinates interface{}
}

func (GeometryDump) isRawGeometry()  {}
func (GeoInterface) isRawGeometry()  {}
func (LooseGeometry) isRawGeometry() {}

// Attribute - одно поле объекта, когда свойства пришли списком
type Attribute struct {
	Name  string
	Value interface{}
}

// RawResult - ответ поиска до нормализации. Набор форм закрыт:
// OptionsFeature, AttributeFeature, PlainFeature, OpaqueFeature.
type RawResult interface {
	RawGeometry() RawGeometry
	isRawResult()
}

// OptionsFeature - объект НСПД со структурированным блоком options
type OptionsFeature struct {
	Options  map[string]interface{}
	Geometry RawGeometry
}

// AttributeFeature - объект, у которого options пришли списком атрибутов
type AttributeFeature struct {
	Attributes []Attribute
	Geometry   RawGeometry
}

// PlainFeature - объект без options, только плоские properties
type PlainFeature struct {
	Properties map[string]interface{}
	Geometry   RawGeometry
}

// OpaqueFeature - объект, свойства которого разобрать не удалось
type OpaqueFeature struct {
	Reason   string
	Geometry RawGeometry
}

func (f OptionsFeature) RawGeometry() RawGeometry   { return f.Geometry }
func (f AttributeFeature) RawGeometry() RawGeometry { return f.Geometry }
func (f PlainFeature) RawGeometry() RawGeometry     { return f.Geometry }
func (f OpaqueFeature) RawGeometry() RawGeometry    { return f.Geometry }

func (OptionsFeature) isRawResult()   {}
func (AttributeFeature) isRawResult() {}
func (PlainFeature) isRawResult()     {}
func (OpaqueFeature) isRawResult()    {}

// ResolveGeometry достаёт {type, coordinates} из сырой геометрии.
// ok=false, если ни одна форма не дала обоих полей.
func ResolveGeometry(raw RawGeometry) (Geometry, bool) {
	switch g := raw.(type) {
	case GeometryDump:
		if g.Geometry.Type != "" && g.Geometry.Coordinates != nil {
			return g.Geometry, true
		}
	case *GeometryDump:
		if g != nil {
			return ResolveGeometry(*g)
		}
	case GeoInterface:
		typ, _ := g.Mapping["type"].(string)
		coords, ok := g.Mapping["coordinates"]
		if typ != "" && ok && coords != nil {
			return Geometry{Type: typ, Coordinates: coords}, true
		}
	case LooseGeometry:
		if g.Type != nil && *g.Type != "" && g.Coordinates != nil {
			return Geometry{Type: *g.Type, Coordinates: g.Coordinates}, true
		}
	}
	return Geometry{}, false
}

// Bounds считает прямоугольник геометрии объекта
func Bounds(raw RawGeometry) (BBox, bool) {
	geom, ok := ResolveGeometry(raw)
	if !ok {
		return BBox{}, false
	}

	var bound orb.Bound
	found := false
	visit := func(lon, lat float64) {
		p := orb.Point{lon, lat}
		if !found {
			bound = p.Bound()
			found = true
			return
		}
		bound = bound.Extend(p)
	}
	walkPositions(geom.Coordinates, visit)
	return BBoxFromBound(bound), found
}

// walkPositions обходит вложенные массивы координат и вызывает visit для каждой пары
func walkPositions(coords interface{}, visit func(lon, lat float64)) {
	switch c := coords.(type) {
	case []interface{}:
		if len(c) >= 2 {
			lon, okLon := toFloat(c[0])
			lat, okLat := toFloat(c[1])
			if okLon && okLat {
				visit(lon, lat)
				return
			}
		}
		for _, item := range c {
			walkPositions(item, visit)
		}
	case []float64:
		if len(c) >= 2 {
			visit(c[0], c[1])
		}
	case [2]float64:
		visit(c[0], c[1])
	case Position:
		visit(c[0], c[1])
	case [][]float64:
		for _, p := range c {
			walkPositions(p, visit)
		}
	case [][][]float64:
		for _, r := range c {
			walkPositions(r, visit)
		}
	case [][][][]float64:
		for _, p := range c {
			walkPositions(p, visit)
		}
	case [][2]float64:
		for _, p := range c {
			visit(p[0], p[1])
		}
	case [][][2]float64:
		for _, r := range c {
			walkPositions(r, visit)
		}
	case [][][][2]float64:
		for _, p := range c {
			walkPositions(p, visit)
		}
	}
}
