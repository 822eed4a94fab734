package repository

import (
	"context"

	"github.com/cadastral-search/internal/domain"
)

// CadastralRepository - сессия работы с кадастровым источником (НСПД).
// Каждый вызов может вернуть данные, пустой результат или ошибку независимо от остальных.
type CadastralRepository interface {
	// SearchInContour ищет объекты категории, пересекающие контур
	SearchInContour(ctx context.Context, layer domain.Layer, contour *domain.Contour) ([]domain.RawResult, error)

	// Search выполняет поиск по строке: кадастровый номер объекта или квартала
	Search(ctx context.Context, query string) ([]domain.RawResult, error)

	// Find возвращает объект по кадастровому номеру, nil если не найден
	Find(ctx context.Context, cadastralNumber string) (domain.RawResult, error)

	// Close освобождает соединение сессии
	Close() error
}

// BoxSearcher - поиск всех категорий в прямоугольнике одним запросом.
// Необязательная возможность источника.
type BoxSearcher interface {
	SearchInBox(ctx context.Context, sw, ne domain.Position) ([]domain.RawResult, error)
}

// LayerBoxSearcher - поиск одной категории в прямоугольнике.
// Необязательная возможность источника.
type LayerBoxSearcher interface {
	SearchLayerInBox(ctx context.Context, layer domain.Layer, sw, ne domain.Position) ([]domain.RawResult, error)
}

// CadastralSessionFactory открывает отдельную сессию на каждый запрос
type CadastralSessionFactory interface {
	Open(ctx context.Context) (CadastralRepository, error)
}
