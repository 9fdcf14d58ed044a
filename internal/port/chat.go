package port

import (
	"context"

	"github.com/arturoeanton/reliefchat/internal/domain"
)

// ChatProvider abstracts the hosted chat service.
// Implementations own message transport, persistence and channel storage.
type ChatProvider interface {
	// UpsertUser creates or updates a user record by id.
	UpsertUser(ctx context.Context, user domain.ChatUser) error

	// CreateChannel creates the channel described by h with its members.
	// It returns an error wrapping ErrAlreadyExists when the id is taken.
	CreateChannel(ctx context.Context, h domain.ChannelHandle) error

	// AddMembers adds users to an existing channel. It returns an error
	// wrapping ErrAlreadyMember when the provider reports a redundant add.
	AddMembers(ctx context.Context, channelType, channelID string, userIDs []string) error
}

// MembershipCache remembers (channel, user) pairs that were recently ensured
// so repeated resolves skip redundant provider calls.
type MembershipCache interface {
	Seen(ctx context.Context, channelID, userID string) (bool, error)
	Remember(ctx context.Context, channelID, userID string) error
}

// AuditWriter persists audit entries.
type AuditWriter interface {
	WriteAudit(ctx context.Context, entry domain.AuditEntry) error
}
