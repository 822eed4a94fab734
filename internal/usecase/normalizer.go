package usecase

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cadastral-search/internal/domain"
)

const (
	noteProperty         = "note"
	extractionFailedNote = "Не удалось извлечь свойства объекта"
)

// identifierKeys - поля с кадастровым номером в порядке приоритета
var identifierKeys = []string{"cn", "cadastral_number"}

// Normalize приводит сырой результат любой формы к CanonicalFeature.
// Ошибка (ErrNormalization) означает, что объект нужно отбросить; паника внутри
// разбора одного объекта тоже превращается в ошибку и не роняет пачку.
func Normalize(raw domain.RawResult) (feature domain.CanonicalFeature, err error) {
	defer func() {
		if r := recover(); r != nil {
			feature = domain.CanonicalFeature{}
			err = fmt.Errorf("%w: panic: %v", domain.ErrNormalization, r)
		}
	}()

	if raw == nil {
		return domain.CanonicalFeature{}, fmt.Errorf("%w: nil result", domain.ErrNormalization)
	}

	geometry := extractGeometry(raw.RawGeometry())
	if geometry.Type == "" || geometry.Coordinates == nil {
		return domain.CanonicalFeature{}, fmt.Errorf("%w: geometry without type or coordinates", domain.ErrNormalization)
	}

	return domain.CanonicalFeature{
		ID:         extractIdentifier(raw),
		Properties: extractProperties(raw),
		Geometry:   geometry,
	}, nil
}

// NormalizeAll нормализует пачку; по каждому отброшенному объекту возвращается ошибка
func NormalizeAll(raws []domain.RawResult) ([]domain.CanonicalFeature, []error) {
	features := make([]domain.CanonicalFeature, 0, len(raws))
	var dropped []error
	for i, raw := range raws {
		feature, err := Normalize(raw)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("object %d: %w", i+1, err))
			continue
		}
		features = append(features, feature)
	}
	return features, dropped
}

func extractProperties(raw domain.RawResult) map[string]interface{} {
	switch f := raw.(type) {
	case domain.OptionsFeature:
		if f.Options != nil {
			return copyProperties(f.Options)
		}
	case domain.AttributeFeature:
		if f.Attributes != nil {
			return collectAttributes(f.Attributes)
		}
	case domain.PlainFeature:
		if f.Properties != nil {
			return copyProperties(f.Properties)
		}
	}
	return map[string]interface{}{noteProperty: extractionFailedNote}
}

func copyProperties(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// collectAttributes пропускает служебные поля ("_" в начале) и значения-функции
func collectAttributes(attrs []domain.Attribute) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		if !isPublicAttribute(a) {
			continue
		}
		out[a.Name] = a.Value
	}
	return out
}

func isPublicAttribute(a domain.Attribute) bool {
	if a.Name == "" || strings.HasPrefix(a.Name, "_") {
		return false
	}
	return a.Value == nil || reflect.TypeOf(a.Value).Kind() != reflect.Func
}

func extractIdentifier(raw domain.RawResult) string {
	switch f := raw.(type) {
	case domain.OptionsFeature:
		for _, key := range identifierKeys {
			if id := identifierValue(f.Options[key]); id != "" {
				return id
			}
		}
	case domain.AttributeFeature:
		for _, key := range identifierKeys {
			for _, a := range f.Attributes {
				if a.Name != key || !isPublicAttribute(a) {
					continue
				}
				if id := identifierValue(a.Value); id != "" {
					return id
				}
			}
		}
	}
	return ""
}

func identifierValue(v interface{}) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case fmt.Stringer:
		return strings.TrimSpace(id.String())
	default:
		return ""
	}
}

// extractGeometry: структурированная геометрия, GeoJSON-словарь, отдельные
// type/coordinates, иначе заглушка Point [0, 0]
func extractGeometry(raw domain.RawGeometry) domain.Geometry {
	if geometry, ok := domain.ResolveGeometry(raw); ok {
		return geometry
	}
	return domain.PlaceholderGeometry()
}
