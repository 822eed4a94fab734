package dto

import "github.com/cadastral-search/internal/domain"

const (
	// NotFoundMessage - пояснение к пустому результату поиска
	NotFoundMessage = "Объекты не найдены в указанном контуре"

	// DefaultObjectType - тип объекта, если в свойствах нет land_record_type
	DefaultObjectType = "Объект капитального строительства"
)

// Feature - GeoJSON Feature
type Feature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   domain.Geometry        `json:"geometry"`
}

// FeatureCollection - ответ поиска в контуре. Пустой результат - это
// features: [] и message, без type.
type FeatureCollection struct {
	Type     string              `json:"type,omitempty"`
	Features []Feature           `json:"features"`
	Message  string              `json:"message,omitempty"`
	Trace    *domain.SearchTrace `json:"trace,omitempty"`
}

// NewFeatureCollection собирает итоговый конверт из нормализованных объектов
func NewFeatureCollection(features []domain.CanonicalFeature) *FeatureCollection {
	if len(features) == 0 {
		return &FeatureCollection{
			Features: []Feature{},
			Message:  NotFoundMessage,
		}
	}

	out := make([]Feature, 0, len(features))
	for _, f := range features {
		out = append(out, NewFeature(f))
	}
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: out,
	}
}

// NewFeature оборачивает канонический объект в GeoJSON Feature
func NewFeature(f domain.CanonicalFeature) Feature {
	props := f.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	return Feature{
		Type:       "Feature",
		ID:         f.ID,
		Properties: props,
		Geometry:   f.Geometry,
	}
}

// ObjectResponse - один объект кадастра с типом
type ObjectResponse struct {
	Feature
	ObjectType string `json:"objectType"`
}

// NewObjectResponse определяет тип объекта по land_record_type
func NewObjectResponse(f domain.CanonicalFeature) *ObjectResponse {
	objectType := DefaultObjectType
	if v, ok := f.Properties["land_record_type"].(string); ok && v != "" {
		objectType = v
	}
	return &ObjectResponse{
		Feature:    NewFeature(f),
		ObjectType: objectType,
	}
}
