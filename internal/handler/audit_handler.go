package handler

import (
	"context"
	"strconv"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/gofiber/fiber/v3"
)

const maxAuditLimit = 1000

// AuditLister reads back persisted audit logs.
type AuditLister interface {
	ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error)
}

// AuditHandler handles audit log endpoints.
type AuditHandler struct {
	store AuditLister
	guard fiber.Handler
}

// NewAuditHandler creates a new audit handler. guard authenticates every
// audit route and must not be nil.
func NewAuditHandler(store AuditLister, guard fiber.Handler) *AuditHandler {
	return &AuditHandler{store: store, guard: guard}
}

// Register sets up audit routes behind the guard.
func (h *AuditHandler) Register(router fiber.Router) {
	audit := router.Group("/api/v1/audit", h.guard)
	audit.Get("/logs", h.ListLogs)
}

// ListLogs returns audit logs with optional filtering.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	action := c.Query("action", "")

	logs, err := h.store.ListAuditLogs(c.Context(), limit, action)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list audit logs"})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}
