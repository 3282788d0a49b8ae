package api

import (
	"chatwidget/app/middleware"
	"chatwidget/types"
	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
)

// ConfigHandler serves the per-session language settings.
type ConfigHandler struct {
	registry *widget.Registry
}

func NewConfigHandler(registry *widget.Registry) *ConfigHandler {
	return &ConfigHandler{
		registry: registry,
	}
}

func (h *ConfigHandler) HandleLanguages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"languages": h.registry.Languages()})
}

func (h *ConfigHandler) HandleSetLanguage(c *fiber.Ctx) error {
	var params types.LanguageParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	lang, err := h.registry.SetLanguage(c.UserContext(), middleware.Session(c), params.Language)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"language": lang})
}
