package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and the state of optional backends.
type HealthHandler struct {
	app    string
	checks map[string]Pinger
}

// NewHealthHandler creates a health handler. checks may be empty.
func NewHealthHandler(app string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{app: app, checks: checks}
}

// Register sets up health routes.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/api/v1/health", h.Health)
	router.Get("/health", h.Health)
}

// Health answers 200 when every configured backend responds, 503 otherwise.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	ok := true
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			ok = false
			results[name] = "down"
			continue
		}
		results[name] = "up"
	}

	code, status := fiber.StatusOK, "ok"
	if !ok {
		code, status = fiber.StatusServiceUnavailable, "degraded"
	}
	return c.Status(code).JSON(fiber.Map{
		"ok":     ok,
		"status": status,
		"app":    h.app,
		"checks": results,
	})
}
