package dto

import "github.com/cadastral-search/internal/domain"

// ContourSearchRequest - запрос на поиск объектов в нарисованном контуре
type ContourSearchRequest struct {
	Geometry *domain.GeometryInput `json:"geometry" validate:"required"`
	// Debug - вернуть журнал решений цепочки поиска в ответе
	Debug bool `json:"-"`
}

// ObjectRequest - запрос объекта по кадастровому номеру
type ObjectRequest struct {
	CadastralNumber string `query:"cadastral_number" validate:"required"`
}
