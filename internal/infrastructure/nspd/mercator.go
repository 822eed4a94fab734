package nspd

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/cadastral-search/internal/domain"
)

// Геопортал работает в EPSG:3857, сервис - в EPSG:4326

// maxMercatorLat - широта, на которой проекция уходит в бесконечность
const maxMercatorLat = 85.05112878

func toMercator(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p[0], p[1]
}

func fromMercator(x, y float64) (float64, float64) {
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p[0], p[1]
}

// ringsToMercator переводит кольца контура в [][][2]float64 для запроса
func ringsToMercator(rings []domain.Ring) [][][2]float64 {
	out := make([][][2]float64, 0, len(rings))
	for _, ring := range rings {
		r := make([][2]float64, 0, len(ring))
		for _, p := range ring {
			x, y := toMercator(p.Lon(), p.Lat())
			r = append(r, [2]float64{x, y})
		}
		out = append(out, r)
	}
	return out
}

// coordsFromMercator рекурсивно переводит координаты ответа в градусы.
// Пара чисел на любом уровне вложенности считается позицией.
func coordsFromMercator(coords interface{}) interface{} {
	items, ok := coords.([]interface{})
	if !ok {
		return coords
	}

	if len(items) >= 2 {
		x, okX := items[0].(float64)
		y, okY := items[1].(float64)
		if okX && okY {
			lon, lat := fromMercator(x, y)
			return []interface{}{lon, lat}
		}
	}

	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = coordsFromMercator(item)
	}
	return out
}
