package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ChannelKind is the kind of conversation a channel represents.
type ChannelKind string

const (
	ChannelKindPublic ChannelKind = "public"
	ChannelKindDirect ChannelKind = "direct"
	ChannelKindGroup  ChannelKind = "group"
)

const (
	// PublicChannelID is the single well-known room shared by every user.
	PublicChannelID = "global-public-chat"
	// PublicChannelName is the display name of the public room.
	PublicChannelName = "🌍 Global Public Chat"
	// DefaultChannelType is the provider channel type used for all channels.
	DefaultChannelType = "messaging"

	directPrefix = "dm-"
	groupPrefix  = "group-"
	slugFallback = "group"
)

// MemberSet is a sorted, duplicate-free list of user ids.
type MemberSet []string

// NewMemberSet trims, deduplicates and sorts ids. Blank ids are dropped.
func NewMemberSet(ids ...string) MemberSet {
	seen := make(map[string]struct{}, len(ids))
	set := make(MemberSet, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}
	sort.Strings(set)
	return set
}

// Union returns a new set holding the members of s and other.
func (s MemberSet) Union(other MemberSet) MemberSet {
	all := make([]string, 0, len(s)+len(other))
	all = append(all, s...)
	all = append(all, other...)
	return NewMemberSet(all...)
}

// Contains reports whether id is in the set.
func (s MemberSet) Contains(id string) bool {
	i := sort.SearchStrings(s, id)
	return i < len(s) && s[i] == id
}

// ChannelRequest describes the channel a caller wants to join or create.
// Build it with PublicRequest, DirectRequest or GroupRequest.
type ChannelRequest struct {
	Kind ChannelKind

	// Public
	Requester string

	// Direct
	UserA string
	UserB string

	// Group
	Creator   string
	Name      string
	Members   MemberSet
	CreatedAt time.Time
}

// PublicRequest asks for the shared public channel on behalf of requester.
func PublicRequest(requester string) ChannelRequest {
	return ChannelRequest{Kind: ChannelKindPublic, Requester: strings.TrimSpace(requester)}
}

// DirectRequest asks for the one-to-one channel between a and b.
func DirectRequest(a, b string) ChannelRequest {
	return ChannelRequest{Kind: ChannelKindDirect, UserA: strings.TrimSpace(a), UserB: strings.TrimSpace(b)}
}

// GroupRequest asks for a new group channel created at createdAt.
func GroupRequest(creator, name string, members []string, createdAt time.Time) ChannelRequest {
	return ChannelRequest{
		Kind:      ChannelKindGroup,
		Creator:   strings.TrimSpace(creator),
		Name:      strings.TrimSpace(name),
		Members:   NewMemberSet(members...),
		CreatedAt: createdAt,
	}
}

// ChannelHandle is the canonical identity and desired member set of a channel.
type ChannelHandle struct {
	ID        string      `json:"channelId"`
	Type      string      `json:"type"`
	Kind      ChannelKind `json:"kind"`
	Name      string      `json:"name"`
	CreatedBy string      `json:"createdBy"`
	Members   MemberSet   `json:"members"`
}

// Validate checks the request shape. The returned message is safe to show to
// callers.
func (r ChannelRequest) Validate() (string, bool) {
	switch r.Kind {
	case ChannelKindPublic:
		if r.Requester == "" {
			return "userId is required", false
		}
	case ChannelKindDirect:
		if r.UserA == "" || r.UserB == "" {
			return "userId and targetUserId are required", false
		}
		if r.UserA == r.UserB {
			return "cannot open a direct channel with yourself", false
		}
	case ChannelKindGroup:
		if r.Creator == "" || r.Name == "" {
			return "userId and groupName are required", false
		}
		if len(r.Members) == 0 {
			return "members must not be empty", false
		}
		if r.CreatedAt.IsZero() {
			return "group creation time is required", false
		}
	default:
		return "unknown channel kind", false
	}
	return "", true
}

// Handle derives the channel handle for r. It is a pure function of r, so two
// callers describing the same logical channel land on the same id. The request
// must be valid.
func (r ChannelRequest) Handle(channelType string) ChannelHandle {
	if channelType == "" {
		channelType = DefaultChannelType
	}
	h := ChannelHandle{Type: channelType, Kind: r.Kind}

	switch r.Kind {
	case ChannelKindPublic:
		h.ID = PublicChannelID
		h.Name = PublicChannelName
		h.CreatedBy = r.Requester
		h.Members = NewMemberSet(r.Requester)
	case ChannelKindDirect:
		h.Members = NewMemberSet(r.UserA, r.UserB)
		h.ID = DirectChannelID(r.UserA, r.UserB)
		h.Name = "DM: " + strings.Join(h.Members, " & ")
		h.CreatedBy = r.UserA
	case ChannelKindGroup:
		h.ID = GroupChannelID(r.Name, r.CreatedAt)
		h.Name = r.Name
		h.CreatedBy = r.Creator
		h.Members = NewMemberSet(r.Creator).Union(r.Members)
	}
	return h
}

// DirectChannelID returns "dm-" followed by both ids in sorted order, so the
// id does not depend on who opens the conversation.
func DirectChannelID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return directPrefix + strings.Join(pair, "-")
}

// GroupChannelID returns "group-<slug>-<unix millis>". Groups are never
// deduplicated by name.
func GroupChannelID(name string, createdAt time.Time) string {
	return groupPrefix + Slug(name) + "-" + strconv.FormatInt(createdAt.UnixMilli(), 10)
}

// Slug lowercases name and replaces every rune outside [a-z0-9_] with "_".
// When nothing alphanumeric survives it returns "group".
func Slug(name string) string {
	var b strings.Builder
	alnum := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			alnum = true
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if !alnum {
		return slugFallback
	}
	return b.String()
}
