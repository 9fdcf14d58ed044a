package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/port"
)

// ChannelJoiner resolves a channel on behalf of a user.
type ChannelJoiner interface {
	Resolve(ctx context.Context, req domain.ChannelRequest) (*domain.ChannelHandle, error)
}

// IdentityConfig configures the IdentityService.
type IdentityConfig struct {
	APIKey  string        // public chat provider key returned to clients
	Timeout time.Duration // per provider call

	// AutoJoin, when set, joins every freshly bridged user to the public channel.
	AutoJoin ChannelJoiner
}

// IdentityService bridges a verified external identity to a chat provider
// user and its access token.
type IdentityService struct {
	chat     port.ChatProvider
	signer   port.TokenSigner
	audit    port.AuditWriter
	apiKey   string
	timeout  time.Duration
	autoJoin ChannelJoiner
	logger   *slog.Logger
}

// NewIdentityService creates a new identity bridge.
func NewIdentityService(chat port.ChatProvider, signer port.TokenSigner, audit port.AuditWriter, cfg IdentityConfig, logger *slog.Logger) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		chat:     chat,
		signer:   signer,
		audit:    audit,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		autoJoin: cfg.AutoJoin,
		logger:   logger.With(slog.String("service", "identity")),
	}
}

// IssueToken upserts the chat user for verifiedID and returns a token for it.
// No token is returned when the upsert fails.
func (s *IdentityService) IssueToken(ctx context.Context, verifiedID, displayName string) (*domain.ChatUserToken, error) {
	userID := strings.TrimSpace(verifiedID)
	if userID == "" {
		return nil, port.InvalidArgument("verifiedId is required")
	}

	user := domain.ChatUser{
		ID:   userID,
		Name: domain.EffectiveDisplayName(userID, displayName),
		Role: domain.RoleUser,
	}

	upsertCtx, cancel := withTimeout(ctx, s.timeout)
	err := s.chat.UpsertUser(upsertCtx, user)
	cancel()
	if err != nil {
		s.logger.Error("chat user upsert failed", "user_id", userID, "error", err)
		return nil, port.Upstream("upsert user", err)
	}

	token, err := s.signer.CreateToken(userID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	recordAudit(ctx, s.audit, s.logger, domain.AuditEntry{
		UserID:     userID,
		Action:     domain.AuditActionTokenIssued,
		Resource:   domain.AuditResourceUser,
		ResourceID: userID,
		Details:    map[string]any{"name": user.Name},
	})
	s.logger.Info("token issued", "user_id", userID)

	if s.autoJoin != nil {
		s.joinPublic(ctx, userID)
	}

	return &domain.ChatUserToken{UserID: userID, APIKey: s.apiKey, Token: token}, nil
}

// joinPublic is best effort: the user record and token are already valid.
func (s *IdentityService) joinPublic(ctx context.Context, userID string) {
	if _, err := s.autoJoin.Resolve(ctx, domain.PublicRequest(userID)); err != nil {
		s.logger.Warn("public channel auto-join failed", "user_id", userID, "error", err)
		recordAudit(ctx, s.audit, s.logger, domain.AuditEntry{
			UserID:     userID,
			Action:     domain.AuditActionAutoJoinFailed,
			Resource:   domain.AuditResourceChannel,
			ResourceID: domain.PublicChannelID,
			Details:    map[string]any{"error": err.Error()},
		})
	}
}
