package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidGeometry - контур не разбирается или топологически невалиден
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrMissingCapability - источник не поддерживает метод поиска
	ErrMissingCapability = errors.New("search capability not supported")

	// ErrSubSearchFailure - отдельный вызов поиска внутри стратегии упал
	ErrSubSearchFailure = errors.New("sub-search failed")

	// ErrContourTooLarge - источник отказал из-за слишком большой площади
	ErrContourTooLarge = errors.New("contour too large")

	// ErrNormalization - объект не удалось привести к каноническому виду
	ErrNormalization = errors.New("feature normalization failed")
)

// TooBigContourMarker - маркер в тексте ошибки НСПД для слишком большого контура
const TooBigContourMarker = "TooBigContour"

// IsContourTooLarge распознаёт отказ по размеру области: по цепочке ошибок или по маркеру в тексте
func IsContourTooLarge(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrContourTooLarge) || strings.Contains(err.Error(), TooBigContourMarker)
}

// ErrObjectNotFound - объект с таким кадастровым номером не найден
var ErrObjectNotFound = errors.New("cadastral object not found")
