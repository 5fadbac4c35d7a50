package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/evidenta-api/internal/application/dto"
	"github.com/jhoicas/evidenta-api/internal/domain"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

// statusFor código HTTP por código de error de dominio.
func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeLoginRequired:
		return fiber.StatusUnauthorized
	case domain.CodePermissionRequired:
		return fiber.StatusForbidden
	case domain.CodeObjectNotFound:
		return fiber.StatusNotFound
	case domain.CodeUnexpectedError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// ErrorHandler traduce cualquier error devuelto por un handler al cuerpo
// {error_code, message, error_data}. Los errores de fiber (404 de ruta, 429 del
// limiter, cuerpo demasiado grande) conservan su estado.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{
				ErrorCode: fiberCode(fe.Code),
				Message:   fe.Message,
				ErrorData: fiber.Map{},
			})
		}

		de, ok := domain.AsError(err)
		if !ok {
			de = domain.Unexpected(c.Method()+" "+c.Route().Path, nil, "", err)
		}
		status := statusFor(de.Code)
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error inesperado")
		}
		data := de.Data
		if data == nil {
			data = fiber.Map{}
		}
		return c.Status(status).JSON(dto.ErrorResponse{
			ErrorCode: string(de.Code),
			Message:   de.Message,
			ErrorData: data,
		})
	}
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "route_not_found"
	case fiber.StatusTooManyRequests:
		return "too_many_requests"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "http_error"
	}
}

// invalidBody cuerpo JSON ilegible.
func invalidBody(err error) error {
	return &domain.Error{
		Code:    domain.CodeInvalidValues,
		Message: "Invalid request body.",
		Data:    []domain.FieldError{},
		Err:     err,
	}
}
