package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/port"
)

// withTimeout scopes a single provider call.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// recordAudit writes e and only logs on failure; audit must never fail a request.
func recordAudit(ctx context.Context, w port.AuditWriter, logger *slog.Logger, e domain.AuditEntry) {
	if w == nil {
		return
	}
	if err := w.WriteAudit(context.WithoutCancel(ctx), e); err != nil {
		logger.Error("failed to write audit log", "action", e.Action, "error", err)
	}
}
