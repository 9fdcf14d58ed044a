package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/port"
)

// ChannelConfig configures the ChannelService.
type ChannelConfig struct {
	ChannelType string           // provider channel type, "messaging" when empty
	Timeout     time.Duration    // per provider call
	Now         func() time.Time // clock for group ids, time.Now when nil
}

// ChannelService derives canonical channel ids and makes sure the desired
// members belong to them. It holds no state of its own; the provider is
// trusted to arbitrate concurrent creates of the same id.
type ChannelService struct {
	chat        port.ChatProvider
	cache       port.MembershipCache
	audit       port.AuditWriter
	channelType string
	timeout     time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu        sync.Mutex
	lastGroup time.Time
}

// NewChannelService creates a channel resolver. cache and audit may be nil.
func NewChannelService(chat port.ChatProvider, cache port.MembershipCache, audit port.AuditWriter, cfg ChannelConfig, logger *slog.Logger) *ChannelService {
	if logger == nil {
		logger = slog.Default()
	}
	channelType := cfg.ChannelType
	if channelType == "" {
		channelType = domain.DefaultChannelType
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ChannelService{
		chat:        chat,
		cache:       cache,
		audit:       audit,
		channelType: channelType,
		timeout:     cfg.Timeout,
		now:         now,
		logger:      logger.With(slog.String("service", "channel")),
	}
}

// GroupRequest builds a group request stamped with the service clock. Stamps
// strictly increase by at least a millisecond, so two groups created by this
// service never share an id.
func (s *ChannelService) GroupRequest(creator, name string, members []string) domain.ChannelRequest {
	return domain.GroupRequest(creator, name, members, s.groupStamp())
}

func (s *ChannelService) groupStamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().Truncate(time.Millisecond)
	if !t.After(s.lastGroup) {
		t = s.lastGroup.Add(time.Millisecond)
	}
	s.lastGroup = t
	return t
}

// Resolve creates the channel described by req if needed and ensures its
// members. An existing channel with the same id counts as success. Membership
// failures are logged and audited but do not fail the resolve: the provider
// already counts the members passed at creation.
func (s *ChannelService) Resolve(ctx context.Context, req domain.ChannelRequest) (*domain.ChannelHandle, error) {
	if msg, ok := req.Validate(); !ok {
		return nil, port.InvalidArgument(msg)
	}
	h := req.Handle(s.channelType)

	if err := s.create(ctx, h); err != nil {
		return nil, err
	}
	if err := s.EnsureMembers(ctx, h, h.Members); err != nil {
		s.logger.Warn("channel resolved with membership failures", "channel_id", h.ID, "error", err)
	}

	recordAudit(ctx, s.audit, s.logger, domain.AuditEntry{
		UserID:     h.CreatedBy,
		Action:     domain.AuditActionChannelResolved,
		Resource:   domain.AuditResourceChannel,
		ResourceID: h.ID,
		Details:    map[string]any{"kind": string(h.Kind), "members": len(h.Members)},
	})
	s.logger.Info("channel ready", "channel_id", h.ID, "kind", h.Kind, "members", len(h.Members))
	return &h, nil
}

func (s *ChannelService) create(ctx context.Context, h domain.ChannelHandle) error {
	createCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.chat.CreateChannel(createCtx, h)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, port.ErrAlreadyExists):
		s.logger.Debug("channel already exists", "channel_id", h.ID)
		return nil
	}
	s.logger.Error("channel create failed", "channel_id", h.ID, "error", err)
	return port.Upstream("create channel "+h.ID, err)
}

// EnsureMembers adds every member of members to h, one provider call each.
// Redundant adds are skipped and audited; any other failure is audited and
// reported after all members were attempted.
func (s *ChannelService) EnsureMembers(ctx context.Context, h domain.ChannelHandle, members domain.MemberSet) error {
	if h.ID == "" {
		return port.InvalidArgument("channel id is required")
	}
	channelType := h.Type
	if channelType == "" {
		channelType = s.channelType
	}

	var failures []error
	for _, member := range domain.NewMemberSet(members...) {
		if s.seen(ctx, h.ID, member) {
			continue
		}

		addCtx, cancel := withTimeout(ctx, s.timeout)
		err := s.chat.AddMembers(addCtx, channelType, h.ID, []string{member})
		cancel()

		switch {
		case err == nil:
			s.remember(ctx, h.ID, member)
		case errors.Is(err, port.ErrAlreadyMember):
			s.logger.Debug("membership already present", "channel_id", h.ID, "user_id", member)
			recordAudit(ctx, s.audit, s.logger, domain.AuditEntry{
				UserID:     member,
				Action:     domain.AuditActionMembershipSkipped,
				Resource:   domain.AuditResourceChannel,
				ResourceID: h.ID,
			})
			s.remember(ctx, h.ID, member)
		default:
			s.logger.Warn("membership add failed", "channel_id", h.ID, "user_id", member, "error", err)
			recordAudit(ctx, s.audit, s.logger, domain.AuditEntry{
				UserID:     member,
				Action:     domain.AuditActionMembershipFailed,
				Resource:   domain.AuditResourceChannel,
				ResourceID: h.ID,
				Details:    map[string]any{"error": err.Error()},
			})
			failures = append(failures, fmt.Errorf("add %s: %w", member, err))
		}
	}

	if len(failures) > 0 {
		return port.Upstream("ensure members of "+h.ID, errors.Join(failures...))
	}
	return nil
}

func (s *ChannelService) seen(ctx context.Context, channelID, userID string) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Seen(ctx, channelID, userID)
	if err != nil {
		s.logger.Warn("membership cache lookup failed", "channel_id", channelID, "error", err)
		return false
	}
	return ok
}

func (s *ChannelService) remember(ctx context.Context, channelID, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Remember(ctx, channelID, userID); err != nil {
		s.logger.Warn("membership cache write failed", "channel_id", channelID, "error", err)
	}
}
