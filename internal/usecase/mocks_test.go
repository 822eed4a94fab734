package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cadastral-search/internal/domain"
	"github.com/cadastral-search/internal/domain/repository"
)

// MockCadastralRepository is a mock of CadastralRepository without optional capabilities
type MockCadastralRepository struct {
	mock.Mock
}

func (m *MockCadastralRepository) SearchInContour(ctx context.Context, layer domain.Layer, contour *domain.Contour) ([]domain.RawResult, error) {
	args := m.Called(ctx, layer, contour)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawResult), args.Error(1)
}

func (m *MockCadastralRepository) Search(ctx context.Context, query string) ([]domain.RawResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawResult), args.Error(1)
}

func (m *MockCadastralRepository) Find(ctx context.Context, cadastralNumber string) (domain.RawResult, error) {
	args := m.Called(ctx, cadastralNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RawResult), args.Error(1)
}

func (m *MockCadastralRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockLayerBoxRepository additionally offers per-category box search
type MockLayerBoxRepository struct {
	MockCadastralRepository
}

func (m *MockLayerBoxRepository) SearchLayerInBox(ctx context.Context, layer domain.Layer, sw, ne domain.Position) ([]domain.RawResult, error) {
	args := m.Called(ctx, layer, sw, ne)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawResult), args.Error(1)
}

// MockFullRepository offers both combined and per-category box search
type MockFullRepository struct {
	MockLayerBoxRepository
}

func (m *MockFullRepository) SearchInBox(ctx context.Context, sw, ne domain.Position) ([]domain.RawResult, error) {
	args := m.Called(ctx, sw, ne)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawResult), args.Error(1)
}

// MockSessionFactory hands out a prepared session
type MockSessionFactory struct {
	mock.Mock
}

func (m *MockSessionFactory) Open(ctx context.Context) (repository.CadastralRepository, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.CadastralRepository), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func squarePolygon(lon, lat, size float64) domain.Geometry {
	return domain.Geometry{
		Type: "Polygon",
		Coordinates: []interface{}{[]interface{}{
			[]interface{}{lon, lat},
			[]interface{}{lon, lat + size},
			[]interface{}{lon + size, lat + size},
			[]interface{}{lon + size, lat},
			[]interface{}{lon, lat},
		}},
	}
}

func parcel(cn string, lon, lat float64) domain.RawResult {
	options := map[string]interface{}{"land_record_type": "Земельный участок"}
	if cn != "" {
		options["cn"] = cn
	}
	return domain.OptionsFeature{
		Options:  options,
		Geometry: domain.GeometryDump{Geometry: squarePolygon(lon, lat, 0.01)},
	}
}

func structure(cn string, lon, lat float64) domain.RawResult {
	return domain.OptionsFeature{
		Options:  map[string]interface{}{"cn": cn, "purpose": "Жилой дом"},
		Geometry: domain.GeometryDump{Geometry: squarePolygon(lon, lat, 0.001)},
	}
}

func results(items ...domain.RawResult) []domain.RawResult {
	return items
}

func unitSquare() *domain.Contour {
	return &domain.Contour{
		Kind:     domain.KindPolygon,
		Polygons: [][]domain.Ring{{{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}}},
	}
}

func unitSquareInput() *domain.GeometryInput {
	return &domain.GeometryInput{
		Type: "Polygon",
		Coordinates: []interface{}{[]interface{}{
			[]interface{}{0.0, 0.0},
			[]interface{}{0.0, 1.0},
			[]interface{}{1.0, 1.0},
			[]interface{}{1.0, 0.0},
			[]interface{}{0.0, 0.0},
		}},
	}
}
