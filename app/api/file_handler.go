package api

import (
	"fmt"
	"io"

	"chatwidget/app/middleware"
	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
)

type FileHandler struct{}

func NewFileHandler() *FileHandler {
	return &FileHandler{}
}

func (h *FileHandler) HandleAttach(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	s := middleware.Session(c)
	if fileHeader.Size > widget.MaxAttachmentSize {
		err := fmt.Errorf("%w: %d bytes", widget.ErrAttachmentTooLarge, fileHeader.Size)
		s.RejectAttachment(fileHeader.Filename, int(fileHeader.Size), err)
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, widget.MaxAttachmentSize+1))
	if err != nil {
		return err
	}

	att, err := s.Attach(fileHeader.Filename, data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(att)
}

func (h *FileHandler) HandleDetach(c *fiber.Ctx) error {
	middleware.Session(c).Detach()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FileHandler) HandleDismissStatus(c *fiber.Ctx) error {
	middleware.Session(c).DismissStatus()
	return c.SendStatus(fiber.StatusNoContent)
}
