package utils

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cadastral-search/internal/pkg/errors"
)

// ErrorResponse - плоский конверт ошибки, который ждёт фронтенд карты
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SendError пишет AppError с его статусом; любая другая ошибка - 500 с текстом ошибки
func SendError(c *fiber.Ctx, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: err.Error(),
		Code:  errors.ErrInternalServer.Code,
	})
}
