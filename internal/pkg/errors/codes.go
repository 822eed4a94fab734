package errors

import "net/http"

var (
	ErrMissingGeometry = New(
		"MISSING_GEOMETRY",
		"Не указана геометрия контура",
		http.StatusBadRequest,
	)

	ErrInvalidGeometry = New(
		"INVALID_GEOMETRY",
		"Предоставлена невалидная геометрия. Пожалуйста, нарисуйте корректный полигон.",
		http.StatusBadRequest,
	)

	ErrContourTooLarge = New(
		"CONTOUR_TOO_LARGE",
		"Выбранная область слишком большая",
		http.StatusBadRequest,
	)

	ErrMissingCadastralNumber = New(
		"MISSING_CADASTRAL_NUMBER",
		"Кадастровый номер не указан",
		http.StatusBadRequest,
	)

	ErrObjectNotFound = New(
		"OBJECT_NOT_FOUND",
		"Объект не найден",
		http.StatusNotFound,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
