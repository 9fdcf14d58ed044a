package middleware

import (
	"strings"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/port"
	"github.com/gofiber/fiber/v3"
)

// ChatTokenMiddleware requires a valid chat token and injects the caller's
// UserContext into the request.
func ChatTokenMiddleware(verifier port.TokenSigner) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := bearerToken(c.Get("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization",
			})
		}

		userID, err := verifier.VerifyToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid chat token",
			})
		}

		c.Locals("user", &domain.UserContext{UserID: userID})
		return c.Next()
	}
}

// GetUserContext extracts the UserContext from Fiber locals.
func GetUserContext(c fiber.Ctx) *domain.UserContext {
	u, ok := c.Locals("user").(*domain.UserContext)
	if !ok {
		return nil
	}
	return u
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
