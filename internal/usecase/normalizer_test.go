package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadastral-search/internal/domain"
	"github.com/cadastral-search/internal/usecase"
)

type cadNumber string

func (c cadNumber) String() string { return string(c) }

// panicky is a Stringer that blows up when the identifier is read
type panicky struct{}

func (panicky) String() string { panic("broken attribute") }

func strPtr(s string) *string { return &s }

func TestNormalize_Properties(t *testing.T) {
	geom := domain.GeometryDump{Geometry: squarePolygon(0, 0, 1)}

	tests := []struct {
		name     string
		raw      domain.RawResult
		expected map[string]interface{}
	}{
		{
			name:     "structured options",
			raw:      domain.OptionsFeature{Options: map[string]interface{}{"cn": "1", "area": 100.0}, Geometry: geom},
			expected: map[string]interface{}{"cn": "1", "area": 100.0},
		},
		{
			name: "attribute list skips private and callable values",
			raw: domain.AttributeFeature{
				Attributes: []domain.Attribute{
					{Name: "cn", Value: "69:10:0000001:23"},
					{Name: "_raw", Value: "secret"},
					{Name: "model_dump", Value: func() map[string]interface{} { return nil }},
					{Name: "address", Value: nil},
					{Name: "", Value: "nameless"},
				},
				Geometry: geom,
			},
			expected: map[string]interface{}{"cn": "69:10:0000001:23", "address": nil},
		},
		{
			name:     "plain properties",
			raw:      domain.PlainFeature{Properties: map[string]interface{}{"descr": "ЗУ"}, Geometry: geom},
			expected: map[string]interface{}{"descr": "ЗУ"},
		},
		{
			name:     "options missing",
			raw:      domain.OptionsFeature{Geometry: geom},
			expected: map[string]interface{}{"note": "Не удалось извлечь свойства объекта"},
		},
		{
			name:     "opaque",
			raw:      domain.OpaqueFeature{Reason: "unknown payload", Geometry: geom},
			expected: map[string]interface{}{"note": "Не удалось извлечь свойства объекта"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature, err := usecase.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, feature.Properties)
		})
	}
}

func TestNormalize_PropertiesAreCopied(t *testing.T) {
	options := map[string]interface{}{"cn": "1"}
	feature, err := usecase.Normalize(domain.OptionsFeature{Options: options, Geometry: domain.GeometryDump{Geometry: squarePolygon(0, 0, 1)}})
	require.NoError(t, err)

	feature.Properties["extra"] = true
	assert.NotContains(t, options, "extra")
}

func TestNormalize_Identifier(t *testing.T) {
	geom := domain.GeometryDump{Geometry: squarePolygon(0, 0, 1)}

	tests := []struct {
		name     string
		raw      domain.RawResult
		expected string
	}{
		{
			name:     "cn wins over cadastral_number",
			raw:      domain.OptionsFeature{Options: map[string]interface{}{"cn": "A", "cadastral_number": "B"}, Geometry: geom},
			expected: "A",
		},
		{
			name:     "cadastral_number when cn is absent",
			raw:      domain.OptionsFeature{Options: map[string]interface{}{"cadastral_number": "B"}, Geometry: geom},
			expected: "B",
		},
		{
			name:     "empty cn falls through",
			raw:      domain.OptionsFeature{Options: map[string]interface{}{"cn": " ", "cadastral_number": "B"}, Geometry: geom},
			expected: "B",
		},
		{
			name:     "non-string cn is ignored",
			raw:      domain.OptionsFeature{Options: map[string]interface{}{"cn": 42}, Geometry: geom},
			expected: "",
		},
		{
			name: "attribute identifier via Stringer",
			raw: domain.AttributeFeature{
				Attributes: []domain.Attribute{{Name: "cadastral_number", Value: cadNumber("69:10:0000001:9")}},
				Geometry:   geom,
			},
			expected: "69:10:0000001:9",
		},
		{
			name:     "plain properties carry no identifier",
			raw:      domain.PlainFeature{Properties: map[string]interface{}{"cn": "C"}, Geometry: geom},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature, err := usecase.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, feature.ID)
		})
	}
}

func TestNormalize_Geometry(t *testing.T) {
	point := domain.Geometry{Type: "Point", Coordinates: []interface{}{37.6, 55.7}}
	props := map[string]interface{}{"cn": "1"}

	tests := []struct {
		name     string
		geometry domain.RawGeometry
		expected domain.Geometry
	}{
		{
			name:     "structured dump",
			geometry: domain.GeometryDump{Geometry: point},
			expected: point,
		},
		{
			name:     "geo interface mapping",
			geometry: domain.GeoInterface{Mapping: map[string]interface{}{"type": "Point", "coordinates": []interface{}{37.6, 55.7}}},
			expected: point,
		},
		{
			name:     "loose type and coordinates",
			geometry: domain.LooseGeometry{Type: strPtr("Point"), Coordinates: []interface{}{37.6, 55.7}},
			expected: point,
		},
		{
			name:     "loose geometry missing coordinates gets placeholder",
			geometry: domain.LooseGeometry{Type: strPtr("Point")},
			expected: domain.PlaceholderGeometry(),
		},
		{
			name:     "geo interface without type gets placeholder",
			geometry: domain.GeoInterface{Mapping: map[string]interface{}{"coordinates": []interface{}{1.0, 2.0}}},
			expected: domain.PlaceholderGeometry(),
		},
		{
			name:     "no geometry at all gets placeholder",
			geometry: nil,
			expected: domain.PlaceholderGeometry(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature, err := usecase.Normalize(domain.OptionsFeature{Options: props, Geometry: tt.geometry})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, feature.Geometry)
			assert.Equal(t, "1", feature.ID, "placeholder geometry keeps the feature")
		})
	}
}

func TestNormalize_NeverPanics(t *testing.T) {
	t.Run("nil result is dropped", func(t *testing.T) {
		_, err := usecase.Normalize(nil)
		assert.ErrorIs(t, err, domain.ErrNormalization)
	})

	t.Run("panic while reading an attribute is dropped", func(t *testing.T) {
		raw := domain.AttributeFeature{Attributes: []domain.Attribute{{Name: "cn", Value: panicky{}}}}
		assert.NotPanics(t, func() {
			_, err := usecase.Normalize(raw)
			assert.ErrorIs(t, err, domain.ErrNormalization)
		})
	})

	t.Run("batch keeps going past a broken item", func(t *testing.T) {
		batch := []domain.RawResult{
			parcel("1", 0, 0),
			domain.AttributeFeature{Attributes: []domain.Attribute{{Name: "cn", Value: panicky{}}}},
			nil,
			domain.OpaqueFeature{},
			parcel("2", 0, 0),
		}

		features, dropped := usecase.NormalizeAll(batch)
		require.Len(t, features, 3)
		assert.Len(t, dropped, 2)
		assert.Equal(t, "1", features[0].ID)
		assert.Equal(t, "", features[1].ID)
		assert.Equal(t, domain.PlaceholderGeometry(), features[1].Geometry)
		assert.Equal(t, "2", features[2].ID)
	})
}
