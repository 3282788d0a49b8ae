package api

import (
	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
)

type CheckHandler struct {
	registry *widget.Registry
}

func NewCheckHandler(registry *widget.Registry) *CheckHandler {
	return &CheckHandler{registry: registry}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok", "sessions": h.registry.Len()})
}
