package utils

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// areaEpsilon - площадь кольца (в квадратных градусах), ниже которой полигон считается вырожденным
const areaEpsilon = 1e-14

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// RingHasArea - у кольца ненулевая площадь
func RingHasArea(ring orb.Ring) bool {
	return math.Abs(planar.Area(ring)) > areaEpsilon
}

// DedupeConsecutive убирает подряд идущие одинаковые точки
func DedupeConsecutive(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring))
	for i, p := range ring {
		if i > 0 && p == ring[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RingSelfIntersects проверяет замкнутое кольцо на самопересечения.
// Соседние рёбра могут касаться только в общей вершине, несоседние не касаются вовсе.
func RingSelfIntersects(ring orb.Ring) bool {
	pts := DedupeConsecutive(ring)
	n := len(pts) - 1 // количество рёбер
	if n < 3 {
		return false
	}

	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[i+1]
		for j := i + 1; j < n; j++ {
			b1, b2 := pts[j], pts[j+1]

			adjacent := j == i+1 || (i == 0 && j == n-1)
			if adjacent {
				// общая вершина допустима, наложение рёбер - нет
				if collinearOverlap(a1, a2, b1, b2) {
					return true
				}
				continue
			}

			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}

	// повторный проход через одну и ту же вершину (кольцо "восьмёрка" с касанием)
	seen := make(map[orb.Point]struct{}, n)
	for i := 0; i < n; i++ {
		if _, ok := seen[pts[i]]; ok {
			return true
		}
		seen[pts[i]] = struct{}{}
	}

	return false
}

// RingsInteract - рёбра двух колец пересекаются крест-накрест или накладываются.
// Касание в отдельных точках допустимо.
func RingsInteract(a, b orb.Ring) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsCross(a[i], a[i+1], b[j], b[j+1]) || collinearOverlap(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

// RingWithin - inner целиком лежит в outer, касание границы допустимо
func RingWithin(inner, outer orb.Ring) bool {
	if RingsInteract(inner, outer) {
		return false
	}
	for _, p := range samplePoints(inner) {
		if !PointOnRing(outer, p) && !planar.RingContains(outer, p) {
			return false
		}
	}
	return true
}

// RingsOverlap - внутренние области колец пересекаются
func RingsOverlap(a, b orb.Ring) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	if RingsInteract(a, b) {
		return true
	}
	return anyStrictlyInside(a, b) || anyStrictlyInside(b, a)
}

// PointOnRing - точка лежит на одном из рёбер кольца
func PointOnRing(ring orb.Ring, p orb.Point) bool {
	for i := 0; i+1 < len(ring); i++ {
		if orientation(ring[i], ring[i+1], p) == 0 && onSegment(ring[i], p, ring[i+1]) {
			return true
		}
	}
	return false
}

// PointInRing - точка внутри кольца, граница не считается
func PointInRing(ring orb.Ring, p orb.Point) bool {
	return !PointOnRing(ring, p) && planar.RingContains(ring, p)
}

func anyStrictlyInside(a, b orb.Ring) bool {
	for _, p := range samplePoints(a) {
		if PointInRing(b, p) {
			return true
		}
	}
	return false
}

// samplePoints - вершины кольца и середины его рёбер
func samplePoints(ring orb.Ring) []orb.Point {
	out := make([]orb.Point, 0, 2*len(ring))
	for i, p := range ring {
		out = append(out, p)
		if i+1 < len(ring) {
			q := ring[i+1]
			out = append(out, orb.Point{(p[0] + q[0]) / 2, (p[1] + q[1]) / 2})
		}
	}
	return out
}

func orientation(p, q, r orb.Point) int {
	v := (q[1]-p[1])*(r[0]-q[0]) - (q[0]-p[0])*(r[1]-q[1])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func onSegment(p, q, r orb.Point) bool {
	return q[0] <= math.Max(p[0], r[0]) && q[0] >= math.Min(p[0], r[0]) &&
		q[1] <= math.Max(p[1], r[1]) && q[1] >= math.Min(p[1], r[1])
}

func segmentsIntersect(p1, q1, p2, q2 orb.Point) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}

	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

// segmentsCross - отрезки пересекаются во внутренней точке обоих
func segmentsCross(p1, q1, p2, q2 orb.Point) bool {
	return orientation(p1, q1, p2)*orientation(p1, q1, q2) < 0 &&
		orientation(p2, q2, p1)*orientation(p2, q2, q1) < 0
}

// collinearOverlap - два ребра лежат на одной прямой и перекрываются больше чем в точке
func collinearOverlap(a1, a2, b1, b2 orb.Point) bool {
	if orientation(a1, a2, b1) != 0 || orientation(a1, a2, b2) != 0 {
		return false
	}

	// проекция на ось с наибольшим разбросом
	axis := 0
	if math.Abs(a2[0]-a1[0]) < math.Abs(a2[1]-a1[1]) {
		axis = 1
	}
	aMin, aMax := math.Min(a1[axis], a2[axis]), math.Max(a1[axis], a2[axis])
	bMin, bMax := math.Min(b1[axis], b2[axis]), math.Max(b1[axis], b2[axis])

	return math.Min(aMax, bMax)-math.Max(aMin, bMin) > 0
}
