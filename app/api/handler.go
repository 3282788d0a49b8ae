package api

import (
	"chatwidget/app/middleware"
	"chatwidget/types"
	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionCounter tracks how many sessions are open.
type SessionCounter interface {
	SessionOpened()
	SessionClosed()
}

type SessionHandler struct {
	registry *widget.Registry
	counter  SessionCounter
	logger   *zap.Logger
}

func NewSessionHandler(registry *widget.Registry, counter SessionCounter, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		counter:  counter,
		logger:   logger,
	}
}

func (h *SessionHandler) HandleCreate(c *fiber.Ctx) error {
	var params types.SessionParams
	if len(c.Body()) > 0 {
		if c.BodyParser(&params) != nil {
			return ErrBadRequest()
		}
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	s := h.registry.Create(c.UserContext(), params.ClientID)
	if h.counter != nil {
		h.counter.SessionOpened()
	}
	return c.Status(fiber.StatusCreated).JSON(s.View())
}

func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	return c.JSON(middleware.Session(c).View())
}

func (h *SessionHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.registry.Delete(c.Params("id")); err != nil {
		return err
	}
	if h.counter != nil {
		h.counter.SessionClosed()
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) HandleClear(c *fiber.Ctx) error {
	s := middleware.Session(c)
	s.Clear()
	return c.JSON(s.View())
}

type MessageHandler struct {
	logger *zap.Logger
}

func NewMessageHandler(logger *zap.Logger) *MessageHandler {
	return &MessageHandler{logger: logger}
}

type turnResponse struct {
	*widget.Turn
	PanelHTML string `json:"panel_html,omitempty"`
}

func (h *MessageHandler) HandleSend(c *fiber.Ctx) error {
	var params types.MessageParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	s := middleware.Session(c)
	turn, err := s.Send(c.UserContext(), params.Message)
	if err != nil {
		return err
	}
	return c.JSON(h.withPanel(s, turn))
}

func (h *MessageHandler) HandleRetry(c *fiber.Ctx) error {
	id, err := c.ParamsInt("mid")
	if err != nil || id <= 0 {
		return ErrInvalidID()
	}

	s := middleware.Session(c)
	turn, err := s.Retry(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(h.withPanel(s, turn))
}

func (h *MessageHandler) HandleList(c *fiber.Ctx) error {
	return c.JSON(middleware.Session(c).Messages())
}

// withPanel attaches the refreshed panel. A panel that fails to render
// never costs the reply.
func (h *MessageHandler) withPanel(s *widget.Session, turn *widget.Turn) turnResponse {
	html, err := s.PanelHTML()
	if err != nil {
		h.logger.Warn("panel render failed", zap.String("session", s.ID), zap.Error(err))
	}
	return turnResponse{Turn: turn, PanelHTML: html}
}
