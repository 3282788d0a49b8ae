package api

import (
	"errors"
	"fmt"

	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NewErrorHandler maps handler errors to the JSON error body. Widget
// sentinel errors get their own status codes.
func NewErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr Error
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.Code).JSON(apiErr)
		}
		var valErr ValidationError
		if errors.As(err, &valErr) {
			return c.Status(valErr.Status).JSON(valErr)
		}

		apiErr = fromError(err)
		if apiErr.Code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("code", apiErr.Code),
				zap.Error(err),
			)
		} else {
			logger.Debug("request rejected", zap.String("path", c.Path()), zap.Int("code", apiErr.Code), zap.Error(err))
		}
		return c.Status(apiErr.Code).JSON(apiErr)
	}
}

func fromError(err error) Error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return NewError(fe.Code, fe.Message)
	case errors.Is(err, widget.ErrBusy):
		return NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, widget.ErrStaleReply):
		return NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, widget.ErrEmptyMessage), errors.Is(err, widget.ErrUnknownLanguage):
		return NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, widget.ErrNotFound):
		return NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, widget.ErrAttachmentTooLarge):
		return NewError(fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, widget.ErrAttachmentType):
		return NewError(fiber.StatusUnsupportedMediaType, err.Error())
	}
	return NewError(fiber.StatusInternalServerError, "internal server error")
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrInvalidID() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid id given",
	}
}

func ErrNotFound[T any](arg T, resource string) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with %v not found", resource, arg),
	}
}
