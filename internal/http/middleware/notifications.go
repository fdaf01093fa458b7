package middleware

import (
	"github.com/gofiber/fiber/v2"

	"doceditor/internal/notify"
)

// Notifications attaches a fresh notify.Buffer to the request's user context so that
// handlers can return the messages raised while serving the request.
func Notifications() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, _ := notify.WithBuffer(c.UserContext())
		c.SetUserContext(ctx)
		return c.Next()
	}
}
