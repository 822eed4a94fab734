package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cadastral-search/internal/delivery/http/middleware"
	"github.com/cadastral-search/internal/domain"
	apperrors "github.com/cadastral-search/internal/pkg/errors"
	"github.com/cadastral-search/internal/pkg/utils"
	"github.com/cadastral-search/internal/pkg/validator"
	"github.com/cadastral-search/internal/usecase"
	"github.com/cadastral-search/internal/usecase/dto"
)

// CadastralHandler - обработчик запросов к кадастровой карте
type CadastralHandler struct {
	contourUC *usecase.ContourSearchUseCase
	objectUC  *usecase.CadastralObjectUseCase
	logger    *zap.Logger
}

// NewCadastralHandler - создание нового CadastralHandler
func NewCadastralHandler(
	contourUC *usecase.ContourSearchUseCase,
	objectUC *usecase.CadastralObjectUseCase,
	logger *zap.Logger,
) *CadastralHandler {
	return &CadastralHandler{
		contourUC: contourUC,
		objectUC:  objectUC,
		logger:    logger,
	}
}

// SearchInContour godoc
// @Summary Поиск объектов в контуре
// @Description Ищет земельные участки и объекты капитального строительства внутри нарисованного полигона. Если точный поиск ничего не дал, последовательно пробует поиск по прямоугольнику охвата, повторный поиск по контуру и поиск по кадастровым кварталам.
// @Tags Cadastral
// @Accept json
// @Produce json
// @Param request body dto.ContourSearchRequest true "Контур (Polygon или MultiPolygon, EPSG:4326)"
// @Param debug query bool false "Вернуть журнал решений поиска"
// @Success 200 {object} dto.FeatureCollection
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/cadastral/search_in_contour [post]
func (h *CadastralHandler) SearchInContour(c *fiber.Ctx) error {
	var req dto.ContourSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Некорректное тело запроса"))
	}

	if req.Geometry == nil {
		return utils.SendError(c, apperrors.ErrMissingGeometry)
	}

	if err := validator.Validate(&req); err != nil {
		fields := validator.FailedFields(err)
		h.logger.Info("Contour rejected by validation",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Strings("fields", fields))
		return utils.SendError(c, apperrors.ErrInvalidGeometry.WithDetails(map[string]interface{}{
			"fields": fields,
		}))
	}

	req.Debug = c.QueryBool("debug")

	result, err := h.contourUC.SearchInContour(c.Context(), req)
	if err != nil {
		return h.sendError(c, err)
	}

	return c.JSON(result)
}

// GetObject godoc
// @Summary Объект по кадастровому номеру
// @Description Возвращает один объект кадастра в виде GeoJSON Feature с полем objectType
// @Tags Cadastral
// @Produce json
// @Param cadastral_number query string true "Кадастровый номер"
// @Success 200 {object} dto.ObjectResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/cadastral [get]
func (h *CadastralHandler) GetObject(c *fiber.Ctx) error {
	req := dto.ObjectRequest{
		CadastralNumber: strings.TrimSpace(c.Query("cadastral_number")),
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, apperrors.ErrMissingCadastralNumber)
	}

	result, err := h.objectUC.GetObject(c.Context(), req)
	if err != nil {
		return h.sendError(c, err)
	}

	return c.JSON(result)
}

// MapData godoc
// @Summary Данные для карты
// @Description Служебный эндпоинт фронтенда карты
// @Tags Cadastral
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/map-data [get]
func (h *CadastralHandler) MapData(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success"})
}

// sendError переводит ошибки домена в ответ API
func (h *CadastralHandler) sendError(c *fiber.Ctx, err error) error {
	requestID := middleware.GetRequestID(c)

	switch {
	case errors.Is(err, domain.ErrInvalidGeometry):
		h.logger.Info("Invalid contour", zap.String("request_id", requestID), zap.Error(err))
		return utils.SendError(c, apperrors.ErrInvalidGeometry.WithDetails(map[string]interface{}{
			"reason": err.Error(),
		}))
	case domain.IsContourTooLarge(err):
		h.logger.Warn("Contour too large", zap.String("request_id", requestID), zap.Error(err))
		return utils.SendError(c, apperrors.ErrContourTooLarge)
	case errors.Is(err, domain.ErrObjectNotFound):
		return utils.SendError(c, apperrors.ErrObjectNotFound)
	default:
		h.logger.Error("Unexpected error",
			zap.String("request_id", requestID),
			zap.String("path", c.Path()),
			zap.Error(err),
			zap.Stack("stack"))
		return utils.SendError(c, err)
	}
}
