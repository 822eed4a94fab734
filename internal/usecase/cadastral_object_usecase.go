package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cadastral-search/internal/domain"
	"github.com/cadastral-search/internal/domain/repository"
	"github.com/cadastral-search/internal/usecase/dto"
)

// CadastralObjectUseCase - получение одного объекта по кадастровому номеру
type CadastralObjectUseCase struct {
	sessions  repository.CadastralSessionFactory
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
	cacheTTL  time.Duration
}

func NewCadastralObjectUseCase(
	sessions repository.CadastralSessionFactory,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *CadastralObjectUseCase {
	return &CadastralObjectUseCase{
		sessions:  sessions,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// GetObject возвращает объект или domain.ErrObjectNotFound
func (uc *CadastralObjectUseCase) GetObject(ctx context.Context, req dto.ObjectRequest) (*dto.ObjectResponse, error) {
	cn := strings.TrimSpace(req.CadastralNumber)
	key := "object:" + cn

	if uc.cacheRepo != nil {
		if data, err := uc.cacheRepo.Get(ctx, key); err == nil && data != nil {
			var cached dto.ObjectResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
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

	raw, err := session.Find(ctx, cn)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", cn, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, cn)
	}

	feature, err := Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", cn, err)
	}

	resp := dto.NewObjectResponse(feature)

	if uc.cacheRepo != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("Failed to cache object", zap.String("cn", cn), zap.Error(err))
			}
		}
	}

	return resp, nil
}
