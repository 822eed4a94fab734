package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cadastral-search/internal/domain"
	"github.com/cadastral-search/internal/usecase"
	"github.com/cadastral-search/internal/usecase/dto"
)

func newContourUseCase(factory *MockSessionFactory, cache *MockCacheRepository) *usecase.ContourSearchUseCase {
	chain := usecase.NewSearchChain([]string{"69:18:0070104"})
	if cache == nil {
		return usecase.NewContourSearchUseCase(factory, chain, nil, zap.NewNop(), 0)
	}
	return usecase.NewContourSearchUseCase(factory, chain, cache, zap.NewNop(), 0)
}

func sessionFactory(session interface{ Close() error }) *MockSessionFactory {
	factory := new(MockSessionFactory)
	factory.On("Open", mock.Anything).Return(session, nil)
	return factory
}

func TestContourSearch_ContourHit(t *testing.T) {
	repo := new(MockCadastralRepository)
	repo.On("SearchInContour", mock.Anything, domain.LayerLandPlot, mock.Anything).
		Return(results(parcel("69:10:0000001:1", 0.1, 0.1)), nil)
	repo.On("SearchInContour", mock.Anything, domain.LayerStructure, mock.Anything).
		Return(results(structure("69:10:0000001:50", 0.2, 0.2)), nil)
	repo.On("Close").Return(nil).Once()

	uc := newContourUseCase(sessionFactory(repo), nil)

	resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
	require.NoError(t, err)

	assert.Equal(t, "FeatureCollection", resp.Type)
	assert.Empty(t, resp.Message)
	assert.Nil(t, resp.Trace)
	require.Len(t, resp.Features, 2)
	assert.Equal(t, "69:10:0000001:1", resp.Features[0].ID)
	assert.Equal(t, "Feature", resp.Features[0].Type)
	assert.Equal(t, "69:10:0000001:50", resp.Features[1].ID)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestContourSearch_BoxFallbackDeduplicates(t *testing.T) {
	repo := new(MockLayerBoxRepository)
	repo.On("SearchInContour", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("SearchLayerInBox", mock.Anything, domain.LayerLandPlot, mock.Anything, mock.Anything).
		Return(results(parcel("A", 0.1, 0.1), parcel("A", 0.1, 0.1)), nil)
	repo.On("SearchLayerInBox", mock.Anything, domain.LayerStructure, mock.Anything, mock.Anything).
		Return(results(structure("B", 0.3, 0.3)), nil)
	repo.On("Close").Return(nil).Once()

	uc := newContourUseCase(sessionFactory(repo), nil)

	resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
	require.NoError(t, err)

	require.Len(t, resp.Features, 2)
	assert.Equal(t, "A", resp.Features[0].ID)
	assert.Equal(t, "B", resp.Features[1].ID)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestContourSearch_NothingFound(t *testing.T) {
	repo := new(MockCadastralRepository)
	repo.On("SearchInContour", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Search", mock.Anything, "69:18:0070104").Return(nil, nil)
	repo.On("Close").Return(nil).Once()

	uc := newContourUseCase(sessionFactory(repo), nil)

	resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
	require.NoError(t, err)

	assert.Empty(t, resp.Type)
	assert.NotNil(t, resp.Features)
	assert.Empty(t, resp.Features)
	assert.Equal(t, dto.NotFoundMessage, resp.Message)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"features":[],"message":"Объекты не найдены в указанном контуре"}`, string(body))
	repo.AssertExpectations(t)
}

func TestContourSearch_AllCallsFailedIsStillEmpty(t *testing.T) {
	remote := errors.New("connection reset")
	repo := new(MockCadastralRepository)
	repo.On("SearchInContour", mock.Anything, mock.Anything, mock.Anything).Return(nil, remote)
	repo.On("Search", mock.Anything, mock.Anything).Return(nil, remote)
	repo.On("Close").Return(nil).Once()

	uc := newContourUseCase(sessionFactory(repo), nil)

	resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput(), Debug: true})
	require.NoError(t, err)

	assert.Empty(t, resp.Features)
	assert.Equal(t, dto.NotFoundMessage, resp.Message)
	require.NotNil(t, resp.Trace)
	assert.Equal(t, resp.Trace.Calls(), resp.Trace.Failures())
	repo.AssertExpectations(t)
}

func TestContourSearch_InvalidGeometry(t *testing.T) {
	factory := new(MockSessionFactory)
	uc := newContourUseCase(factory, nil)

	tests := []struct {
		name    string
		request dto.ContourSearchRequest
	}{
		{
			name:    "missing geometry",
			request: dto.ContourSearchRequest{},
		},
		{
			name: "self-intersecting ring",
			request: dto.ContourSearchRequest{Geometry: &domain.GeometryInput{
				Type: "Polygon",
				Coordinates: []interface{}{[]interface{}{
					[]interface{}{0.0, 0.0},
					[]interface{}{2.0, 2.0},
					[]interface{}{2.0, 0.0},
					[]interface{}{0.0, 1.0},
					[]interface{}{0.0, 0.0},
				}},
			}},
		},
		{
			name: "unsupported type",
			request: dto.ContourSearchRequest{Geometry: &domain.GeometryInput{
				Type:        "Point",
				Coordinates: []interface{}{37.6, 55.7},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := uc.SearchInContour(context.Background(), tt.request)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
		})
	}

	factory.AssertNotCalled(t, "Open", mock.Anything)
}

func TestContourSearch_ContourTooLarge(t *testing.T) {
	repo := new(MockLayerBoxRepository)
	repo.On("SearchInContour", mock.Anything, domain.LayerLandPlot, mock.Anything).
		Return(nil, errors.New("remote: TooBigContour"))
	repo.On("Close").Return(nil).Once()

	uc := newContourUseCase(sessionFactory(repo), nil)

	resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrContourTooLarge)
	assert.True(t, domain.IsContourTooLarge(err))

	repo.AssertNotCalled(t, "SearchInContour", mock.Anything, domain.LayerStructure, mock.Anything)
	repo.AssertNotCalled(t, "SearchLayerInBox", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestContourSearch_SessionOpenFails(t *testing.T) {
	factory := new(MockSessionFactory)
	factory.On("Open", mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	uc := newContourUseCase(factory, nil)

	resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidGeometry)
}

func TestContourSearch_CloseErrorIsNotFatal(t *testing.T) {
	repo := new(MockCadastralRepository)
	repo.On("SearchInContour", mock.Anything, mock.Anything, mock.Anything).
		Return(results(parcel("1", 0.1, 0.1)), nil)
	repo.On("Close").Return(errors.New("already closed")).Once()

	uc := newContourUseCase(sessionFactory(repo), nil)

	resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
	require.NoError(t, err)
	assert.Len(t, resp.Features, 1)
	repo.AssertExpectations(t)
}

func TestContourSearch_Cache(t *testing.T) {
	isContourKey := mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "contour:") })

	t.Run("miss stores non-empty result", func(t *testing.T) {
		repo := new(MockCadastralRepository)
		repo.On("SearchInContour", mock.Anything, mock.Anything, mock.Anything).
			Return(results(parcel("1", 0.1, 0.1)), nil)
		repo.On("Close").Return(nil).Once()

		cache := new(MockCacheRepository)
		cache.On("Get", mock.Anything, isContourKey).Return(nil, nil).Once()
		cache.On("Set", mock.Anything, isContourKey, mock.Anything, mock.Anything).Return(nil).Once()

		uc := newContourUseCase(sessionFactory(repo), cache)

		resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
		require.NoError(t, err)
		assert.Len(t, resp.Features, 1)
		cache.AssertExpectations(t)
	})

	t.Run("hit skips the remote source", func(t *testing.T) {
		cached, err := json.Marshal(dto.FeatureCollection{
			Type:     "FeatureCollection",
			Features: []dto.Feature{{Type: "Feature", ID: "cached", Properties: map[string]interface{}{}, Geometry: domain.PlaceholderGeometry()}},
		})
		require.NoError(t, err)

		cache := new(MockCacheRepository)
		cache.On("Get", mock.Anything, isContourKey).Return(cached, nil).Once()
		factory := new(MockSessionFactory)

		uc := newContourUseCase(factory, cache)

		resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
		require.NoError(t, err)
		require.Len(t, resp.Features, 1)
		assert.Equal(t, "cached", resp.Features[0].ID)
		factory.AssertNotCalled(t, "Open", mock.Anything)
	})

	t.Run("empty result is not stored", func(t *testing.T) {
		repo := new(MockCadastralRepository)
		repo.On("SearchInContour", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		repo.On("Search", mock.Anything, mock.Anything).Return(nil, nil)
		repo.On("Close").Return(nil).Once()

		cache := new(MockCacheRepository)
		cache.On("Get", mock.Anything, isContourKey).Return(nil, nil).Once()

		uc := newContourUseCase(sessionFactory(repo), cache)

		resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput()})
		require.NoError(t, err)
		assert.Empty(t, resp.Features)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("debug bypasses cached result and returns trace", func(t *testing.T) {
		repo := new(MockCadastralRepository)
		repo.On("SearchInContour", mock.Anything, mock.Anything, mock.Anything).
			Return(results(parcel("1", 0.1, 0.1)), nil)
		repo.On("Close").Return(nil).Once()

		cache := new(MockCacheRepository)
		cache.On("Set", mock.Anything, isContourKey, mock.Anything, mock.Anything).Return(nil).Once()

		uc := newContourUseCase(sessionFactory(repo), cache)

		resp, err := uc.SearchInContour(context.Background(), dto.ContourSearchRequest{Geometry: unitSquareInput(), Debug: true})
		require.NoError(t, err)
		require.NotNil(t, resp.Trace)
		assert.Equal(t, usecase.StrategyContour, resp.Trace.StoppedAfter)
		cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}
