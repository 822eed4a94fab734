package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cadastral-search/internal/domain"
	"github.com/cadastral-search/internal/domain/repository"
	"github.com/cadastral-search/internal/pkg/metrics"
	"github.com/cadastral-search/internal/usecase/dto"
)

// ContourSearchUseCase - поиск участков и ОКС в контуре, нарисованном на карте
type ContourSearchUseCase struct {
	sessions  repository.CadastralSessionFactory
	chain     *SearchChain
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewContourSearchUseCase - создание нового ContourSearchUseCase.
// cacheRepo может быть nil, тогда кеш не используется.
func NewContourSearchUseCase(
	sessions repository.CadastralSessionFactory,
	chain *SearchChain,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *ContourSearchUseCase {
	return &ContourSearchUseCase{
		sessions:  sessions,
		chain:     chain,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// SearchInContour - валидация контура, цепочка стратегий, нормализация,
// дедупликация и сборка FeatureCollection
func (uc *ContourSearchUseCase) SearchInContour(ctx context.Context, req dto.ContourSearchRequest) (*dto.FeatureCollection, error) {
	if req.Geometry == nil {
		return nil, fmt.Errorf("%w: geometry is required", domain.ErrInvalidGeometry)
	}

	contour, err := domain.ParseContour(*req.Geometry)
	if err != nil {
		return nil, err
	}

	cacheKey := contourCacheKey(contour)
	if !req.Debug {
		if cached := uc.fromCache(ctx, cacheKey); cached != nil {
			return cached, nil
		}
	}

	session, err := uc.sessions.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open cadastral session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			uc.logger.Warn("Failed to close cadastral session", zap.Error(err))
		}
	}()

	chainRes, err := uc.chain.Run(ctx, session, contour)
	uc.logTrace(chainRes.Trace)
	observeTrace(chainRes.Trace)
	if err != nil {
		return nil, err
	}

	features, dropped := NormalizeAll(chainRes.Results)
	for _, e := range dropped {
		uc.logger.Error("Failed to normalize object", zap.Error(e))
	}
	metrics.DroppedFeatures.WithLabelValues("normalize").Add(float64(len(dropped)))

	unique, keys := deduplicateKeyed(features)
	metrics.DroppedFeatures.WithLabelValues("dedupe").Add(float64(len(features) - len(unique)))
	metrics.FeaturesReturned.Observe(float64(len(unique)))

	uc.logger.Info("Contour search completed",
		zap.Int("raw", len(chainRes.Results)),
		zap.Int("normalized", len(features)),
		zap.Int("unique", len(unique)),
		zap.String("stopped_after", chainRes.Trace.StoppedAfter))
	uc.logger.Debug("Deduplicated keys", zap.Strings("keys", keys))

	resp := dto.NewFeatureCollection(unique)
	if len(unique) > 0 {
		uc.toCache(ctx, cacheKey, resp)
	}
	if req.Debug {
		resp.Trace = chainRes.Trace
	}
	return resp, nil
}

// logTrace выводит журнал решений цепочки; сама цепочка не логирует
func (uc *ContourSearchUseCase) logTrace(trace *domain.SearchTrace) {
	if trace == nil {
		return
	}

	sw, ne := trace.Extent.SouthWest(), trace.Extent.NorthEast()
	uc.logger.Info("Search extent",
		zap.Float64s("sw", sw[:]),
		zap.Float64s("ne", ne[:]),
		zap.Float64s("center", trace.Extent.Center[:]),
		zap.Float64("radius_km", trace.Extent.RadiusKm))

	for _, e := range trace.Entries {
		fields := []zap.Field{
			zap.String("strategy", e.Strategy),
			zap.String("method", e.Method),
			zap.Stringer("status", e.Status),
			zap.Int("found", e.Found),
			zap.Int("kept", e.Kept),
		}
		if e.Note != "" {
			fields = append(fields, zap.String("note", e.Note))
		}

		switch e.Status {
		case domain.CallFailed, domain.CallUnsupported:
			uc.logger.Warn("Search step failed", append(fields, zap.String("error", e.Error))...)
		default:
			uc.logger.Info("Search step", fields...)
		}
	}

	if calls := trace.Calls(); calls > 0 && trace.Failures() == calls {
		uc.logger.Warn("Every remote search call failed",
			zap.Int("calls", calls),
			zap.Strings("skipped", trace.Skipped))
	}
}

// observeTrace переносит журнал в метрики
func observeTrace(trace *domain.SearchTrace) {
	if trace == nil {
		return
	}

	ran := make([]string, 0, 4)
	for _, e := range trace.Entries {
		if e.Method != "" {
			metrics.SubSearchCalls.WithLabelValues(e.Method, e.Status.String()).Inc()
		}
		if len(ran) == 0 || ran[len(ran)-1] != e.Strategy {
			ran = append(ran, e.Strategy)
		}
	}

	for _, name := range ran {
		outcome := "empty"
		if name == trace.StoppedAfter {
			outcome = "found"
			if trace.Aborted {
				outcome = "aborted"
			}
		}
		metrics.StrategyRuns.WithLabelValues(name, outcome).Inc()
	}
}

func (uc *ContourSearchUseCase) fromCache(ctx context.Context, key string) *dto.FeatureCollection {
	if uc.cacheRepo == nil {
		return nil
	}

	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var resp dto.FeatureCollection
	if err := json.Unmarshal(data, &resp); err != nil {
		uc.logger.Warn("Failed to unmarshal cached search result", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &resp
}

func (uc *ContourSearchUseCase) toCache(ctx context.Context, key string, resp *dto.FeatureCollection) {
	if uc.cacheRepo == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		uc.logger.Warn("Failed to marshal search result", zap.Error(err))
		return
	}
	if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to cache search result", zap.String("key", key), zap.Error(err))
	}
}

// contourCacheKey - fnv-хеш координат контура
func contourCacheKey(contour *domain.Contour) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(contour.Kind))
	for _, polygon := range contour.Polygons {
		_, _ = h.Write([]byte{'|'})
		for _, ring := range polygon {
			_, _ = h.Write([]byte{';'})
			for _, p := range ring {
				_, _ = h.Write([]byte(strconv.FormatFloat(p.Lon(), 'f', -1, 64)))
				_, _ = h.Write([]byte{','})
				_, _ = h.Write([]byte(strconv.FormatFloat(p.Lat(), 'f', -1, 64)))
				_, _ = h.Write([]byte{' '})
			}
		}
	}
	return "contour:" + strconv.FormatUint(h.Sum64(), 16)
}
