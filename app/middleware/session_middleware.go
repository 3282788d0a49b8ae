package middleware

import (
	"chatwidget/widget"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// LoadSession resolves the :id route parameter to an open session and
// stores it on the request.
func LoadSession(registry *widget.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := registry.Get(c.Params("id"))
		if err != nil {
			return err
		}
		c.Locals(sessionKey, s)
		return c.Next()
	}
}

// Session returns the session LoadSession stored, or nil.
func Session(c *fiber.Ctx) *widget.Session {
	s, _ := c.Locals(sessionKey).(*widget.Session)
	return s
}
