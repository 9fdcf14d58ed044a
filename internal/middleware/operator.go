package middleware

import (
	"crypto/subtle"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// OperatorUserID is recorded as the caller of operator-only routes.
const OperatorUserID = "operator"

// OperatorMiddleware admits requests carrying the static operator token as a
// Bearer credential.
func OperatorMiddleware(token string) fiber.Handler {
	expected := []byte(token)
	return func(c fiber.Ctx) error {
		got := bearerToken(c.Get("Authorization"))
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization",
			})
		}
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid operator token",
			})
		}

		c.Locals("user", &domain.UserContext{UserID: OperatorUserID})
		return c.Next()
	}
}
