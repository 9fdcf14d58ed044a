package store

import (
	"context"
	"log/slog"

	"github.com/arturoeanton/reliefchat/internal/domain"
)

// LogAuditWriter writes audit entries to the structured log. It is used when
// no database is configured.
type LogAuditWriter struct {
	logger *slog.Logger
}

// NewLogAuditWriter creates a log-backed audit writer.
func NewLogAuditWriter(logger *slog.Logger) *LogAuditWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAuditWriter{logger: logger.With(slog.String("component", "audit"))}
}

// WriteAudit implements port.AuditWriter.
func (w *LogAuditWriter) WriteAudit(ctx context.Context, e domain.AuditEntry) error {
	level := slog.LevelDebug
	if e.Action != domain.AuditActionHTTPRequest {
		level = slog.LevelInfo
	}
	w.logger.Log(ctx, level, e.Action,
		"user_id", e.UserID,
		"resource", e.Resource,
		"resource_id", e.ResourceID,
		"details", e.Details,
	)
	return nil
}
