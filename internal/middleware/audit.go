package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/port"
	"github.com/gofiber/fiber/v3"
)

// AuditMiddleware records every request as an http_request audit entry.
func AuditMiddleware(writer port.AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Fiber reuses the context, so capture request data up front.
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()

		userID := "anonymous"
		if uc := GetUserContext(c); uc != nil {
			userID = uc.UserID
		}

		entry := domain.AuditEntry{
			UserID:     userID,
			Action:     domain.AuditActionHTTPRequest,
			Resource:   domain.AuditResourceAPI,
			ResourceID: path,
			Details: map[string]any{
				"method":      method,
				"path":        path,
				"status":      c.Response().StatusCode(),
				"duration_ms": time.Since(start).Milliseconds(),
			},
			IP:        ip,
			UserAgent: userAgent,
		}

		go func() {
			if writeErr := writer.WriteAudit(context.Background(), entry); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}
