package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectChannelIDIsOrderIndependent(t *testing.T) {
	ab := DirectRequest("alice", "bob").Handle("")
	ba := DirectRequest("bob", "alice").Handle("")

	assert.Equal(t, "dm-alice-bob", ab.ID)
	assert.Equal(t, ab.ID, ba.ID)
	assert.Equal(t, MemberSet{"alice", "bob"}, ba.Members)
	assert.Equal(t, "DM: alice & bob", ba.Name)
	assert.Equal(t, DefaultChannelType, ab.Type)
}

func TestDirectRequestRejectsSelf(t *testing.T) {
	msg, ok := DirectRequest("alice", " alice ").Validate()
	assert.False(t, ok)
	assert.NotEmpty(t, msg)

	_, ok = DirectRequest("alice", "").Validate()
	assert.False(t, ok)
}

func TestGroupHandleIncludesCreator(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	req := GroupRequest("alice", "Relief Team!", []string{"bob"}, at)

	_, ok := req.Validate()
	require.True(t, ok)

	h := req.Handle("messaging")
	assert.Equal(t, "group-relief_team_-1700000000123", h.ID)
	assert.Equal(t, MemberSet{"alice", "bob"}, h.Members)
	assert.Equal(t, "Relief Team!", h.Name)
	assert.Equal(t, "alice", h.CreatedBy)
}

func TestGroupHandleCollapsesDuplicateCreator(t *testing.T) {
	at := time.UnixMilli(1)
	h := GroupRequest("alice", "ops", []string{"alice", "bob", "alice", " "}, at).Handle("")
	assert.Equal(t, MemberSet{"alice", "bob"}, h.Members)
}

func TestGroupIDsDifferByTimestamp(t *testing.T) {
	first := GroupChannelID("Relief", time.UnixMilli(1000))
	second := GroupChannelID("Relief", time.UnixMilli(1001))
	assert.NotEqual(t, first, second)
}

func TestGroupRequestValidation(t *testing.T) {
	at := time.UnixMilli(1)
	cases := []struct {
		name string
		req  ChannelRequest
	}{
		{"missing creator", GroupRequest("", "ops", []string{"bob"}, at)},
		{"missing name", GroupRequest("alice", "  ", []string{"bob"}, at)},
		{"no members", GroupRequest("alice", "ops", nil, at)},
		{"blank members", GroupRequest("alice", "ops", []string{" ", ""}, at)},
		{"zero time", GroupRequest("alice", "ops", []string{"bob"}, time.Time{})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := tc.req.Validate()
			assert.False(t, ok)
		})
	}
}

func TestPublicHandle(t *testing.T) {
	h := PublicRequest(" carol ").Handle("")
	assert.Equal(t, PublicChannelID, h.ID)
	assert.Equal(t, ChannelKindPublic, h.Kind)
	assert.Equal(t, MemberSet{"carol"}, h.Members)

	_, ok := PublicRequest("").Validate()
	assert.False(t, ok)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Relief Team!", "relief_team_"},
		{"ops_2024", "ops_2024"},
		{"", "group"},
		{"!!!", "group"},
		{"___", "group"},
		{"Ünïcode", "_n_code"},
	}
	for _, tt := range tests {
		if got := Slug(tt.input); got != tt.expected {
			t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMemberSet(t *testing.T) {
	s := NewMemberSet("bob", "alice", "bob")
	assert.Equal(t, MemberSet{"alice", "bob"}, s)
	assert.True(t, s.Contains("alice"))
	assert.False(t, s.Contains("carol"))
	assert.Equal(t, MemberSet{"alice", "bob", "carol"}, s.Union(NewMemberSet("carol", "alice")))
}
