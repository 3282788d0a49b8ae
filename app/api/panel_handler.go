package api

import (
	"chatwidget/app/middleware"
	"chatwidget/types"
	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
)

type PanelHandler struct{}

func NewPanelHandler() *PanelHandler {
	return &PanelHandler{}
}

type panelResponse struct {
	Panel   widget.PanelSnapshot `json:"panel"`
	Sources []types.Source       `json:"sources"`
	HTML    string               `json:"html"`
}

func panelOf(s *widget.Session) (panelResponse, error) {
	html, err := s.PanelHTML()
	if err != nil {
		return panelResponse{}, err
	}
	v := s.View()
	return panelResponse{Panel: v.Panel, Sources: v.Sources, HTML: html}, nil
}

func (h *PanelHandler) HandleSources(c *fiber.Ctx) error {
	resp, err := panelOf(middleware.Session(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *PanelHandler) HandleOpen(c *fiber.Ctx) error {
	s := middleware.Session(c)
	s.OpenPanel()
	return c.JSON(s.View().Panel)
}

func (h *PanelHandler) HandleClose(c *fiber.Ctx) error {
	s := middleware.Session(c)
	s.ClosePanel()
	return c.JSON(s.View().Panel)
}

func (h *PanelHandler) HandleToggle(c *fiber.Ctx) error {
	s := middleware.Session(c)
	s.TogglePanel()
	return c.JSON(s.View().Panel)
}

func (h *PanelHandler) HandleTransitionEnd(c *fiber.Ctx) error {
	var params types.TransitionParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	s := middleware.Session(c)
	s.TransitionEnd(params.Phase)
	return c.JSON(s.View().Panel)
}

// HandleIntent applies a gesture on a panel item or an inline footnote.
func (h *PanelHandler) HandleIntent(c *fiber.Ctx) error {
	var params types.IntentParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	in := widget.Intent{
		Action:      params.Action,
		SourceIndex: -1,
		MessageID:   params.MessageID,
		Number:      params.Number,
		URI:         params.URI,
	}
	if params.SourceIndex != nil {
		in.SourceIndex = *params.SourceIndex
	}

	out, err := middleware.Session(c).Dispatch(in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
