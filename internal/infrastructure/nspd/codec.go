package nspd

import (
	"math"
	"strings"

	"github.com/cadastral-search/internal/domain"
)

const mercatorCRS = "EPSG:3857"

type crs struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

func newMercatorCRS() *crs {
	c := &crs{Type: "name"}
	c.Properties.Name = mercatorCRS
	return c
}

// Запрос пересечения: категория слоя и контур FeatureCollection в EPSG:3857
type intersectsRequest struct {
	Categories []category        `json:"categories"`
	Geom       requestCollection `json:"geom"`
}

type category struct {
	ID int `json:"id"`
}

type requestCollection struct {
	Type     string           `json:"type"`
	Features []requestFeature `json:"features"`
}

type requestFeature struct {
	Type       string                 `json:"type"`
	Geometry   requestGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type requestGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
	CRS         *crs        `json:"crs"`
}

func newIntersectsRequest(categoryID int, contour *domain.Contour) intersectsRequest {
	var coords interface{}
	switch contour.Kind {
	case domain.KindMultiPolygon:
		polygons := make([][][][2]float64, 0, len(contour.Polygons))
		for _, polygon := range contour.Polygons {
			polygons = append(polygons, ringsToMercator(polygon))
		}
		coords = polygons
	default:
		var rings []domain.Ring
		if len(contour.Polygons) > 0 {
			rings = contour.Polygons[0]
		}
		coords = ringsToMercator(rings)
	}

	return intersectsRequest{
		Categories: []category{{ID: categoryID}},
		Geom: requestCollection{
			Type: "FeatureCollection",
			Features: []requestFeature{{
				Type: "Feature",
				Geometry: requestGeometry{
					Type:        string(contour.Kind),
					Coordinates: coords,
					CRS:         newMercatorCRS(),
				},
				Properties: map[string]interface{}{},
			}},
		},
	}
}

// boxContour - прямоугольник охвата как полигон
func boxContour(sw, ne domain.Position) *domain.Contour {
	ring := domain.Ring{
		{sw.Lon(), sw.Lat()},
		{sw.Lon(), ne.Lat()},
		{ne.Lon(), ne.Lat()},
		{ne.Lon(), sw.Lat()},
		{sw.Lon(), sw.Lat()},
	}
	return &domain.Contour{Kind: domain.KindPolygon, Polygons: [][]domain.Ring{{ring}}}
}

// Ответы геопортала: intersects отдаёт features в корне, поиск - внутри data
type featureCollection struct {
	Features []feature `json:"features"`
	Data     *struct {
		Features []feature `json:"features"`
	} `json:"data"`
}

func (fc featureCollection) all() []feature {
	if len(fc.Features) > 0 || fc.Data == nil {
		return fc.Features
	}
	return fc.Data.Features
}

type feature struct {
	ID         interface{}            `json:"id"`
	Geometry   *geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geometry struct {
	Type        *string     `json:"type"`
	Coordinates interface{} `json:"coordinates"`
	CRS         *crs        `json:"crs"`
}

// errorBody - тело ответа с ошибкой
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// toRawResult раскладывает объект геопортала по формам RawResult
func toRawResult(f feature) domain.RawResult {
	geom := toRawGeometry(f.Geometry)

	if options, ok := f.Properties["options"].(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(options)+1)
		for k, v := range options {
			out[k] = v
		}
		// в НСПД номер лежит в cad_num
		if _, has := out["cn"]; !has {
			if cadNum, ok := out["cad_num"].(string); ok && cadNum != "" {
				out["cn"] = cadNum
			}
		}
		return domain.OptionsFeature{Options: out, Geometry: geom}
	}

	if f.Properties != nil {
		props := make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			if k == "options" {
				continue
			}
			props[k] = v
		}
		return domain.PlainFeature{Properties: props, Geometry: geom}
	}

	return domain.OpaqueFeature{Reason: "feature without properties", Geometry: geom}
}

func toRawGeometry(g *geometry) domain.RawGeometry {
	if g == nil {
		return nil
	}

	coords := g.Coordinates
	if coords != nil && isMercator(g) {
		coords = coordsFromMercator(coords)
	}

	if g.Type != nil && *g.Type != "" && coords != nil {
		return domain.GeometryDump{Geometry: domain.Geometry{Type: *g.Type, Coordinates: coords}}
	}
	return domain.LooseGeometry{Type: g.Type, Coordinates: coords}
}

// isMercator: по crs, а без него - по величине координат
func isMercator(g *geometry) bool {
	if g.CRS != nil && g.CRS.Properties.Name != "" {
		return strings.Contains(g.CRS.Properties.Name, "3857")
	}

	typ := "Point"
	box, ok := domain.Bounds(domain.LooseGeometry{Type: &typ, Coordinates: g.Coordinates})
	if !ok {
		return false
	}
	return math.Abs(box.MinLon) > 180 || math.Abs(box.MaxLon) > 180 ||
		math.Abs(box.MinLat) > 90 || math.Abs(box.MaxLat) > 90
}

// numberOf достаёт номер объекта из options
func numberOf(raw domain.RawResult) string {
	f, ok := raw.(domain.OptionsFeature)
	if !ok {
		return ""
	}
	cn, _ := f.Options["cn"].(string)
	return strings.TrimSpace(cn)
}
