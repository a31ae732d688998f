package middleware

import "github.com/gofiber/fiber/v2"

// Preflight answers every OPTIONS request with 200 and an empty body.
// It must be installed before the CORS middleware so the CORS headers survive.
func Preflight() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodOptions {
			return c.Next()
		}
		if err := c.Next(); err != nil {
			return err
		}
		c.Status(fiber.StatusOK)
		c.Response().ResetBody()
		return nil
	}
}
