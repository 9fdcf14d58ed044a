package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/port"
)

// fakeChat behaves like the hosted provider: upserts are idempotent, creates
// report ErrAlreadyExists and redundant member adds report ErrAlreadyMember.
type fakeChat struct {
	mu       sync.Mutex
	users    map[string]domain.ChatUser
	channels map[string]map[string]bool
	upserts  int
	creates  int
	adds     int

	upsertErr error
	createErr error
	addErr    map[string]error // by user id
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		users:    map[string]domain.ChatUser{},
		channels: map[string]map[string]bool{},
		addErr:   map[string]error{},
	}
}

func (f *fakeChat) UpsertUser(_ context.Context, u domain.ChatUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeChat) CreateChannel(_ context.Context, h domain.ChannelHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.channels[h.ID]; ok {
		return fmt.Errorf("channel %s: %w", h.ID, port.ErrAlreadyExists)
	}
	members := map[string]bool{}
	for _, m := range h.Members {
		members[m] = true
	}
	f.channels[h.ID] = members
	return nil
}

func (f *fakeChat) AddMembers(_ context.Context, _ string, channelID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	members, ok := f.channels[channelID]
	if !ok {
		return errors.New("channel does not exist")
	}
	for _, id := range userIDs {
		if err := f.addErr[id]; err != nil {
			return err
		}
		if members[id] {
			return fmt.Errorf("user %s: %w", id, port.ErrAlreadyMember)
		}
		members[id] = true
	}
	return nil
}

func (f *fakeChat) memberCount(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels[channelID])
}

type fakeSigner struct{}

func (fakeSigner) CreateToken(userID string) (string, error) { return "token-for-" + userID, nil }

func (fakeSigner) VerifyToken(token string) (string, error) { return token, nil }

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *fakeAudit) WriteAudit(_ context.Context, e domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeCache struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeCache() *fakeCache { return &fakeCache{seen: map[string]bool{}} }

func (c *fakeCache) Seen(_ context.Context, channelID, userID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	return c.seen[channelID+"/"+userID], nil
}

func (c *fakeCache) Remember(_ context.Context, channelID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.seen[channelID+"/"+userID] = true
	return nil
}
