package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arturoeanton/reliefchat/internal/adapter/auth"
	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/middleware"
	"github.com/arturoeanton/reliefchat/internal/port"
	"github.com/arturoeanton/reliefchat/internal/service"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type memChat struct {
	mu       sync.Mutex
	users    map[string]domain.ChatUser
	channels map[string]map[string]bool
	fail     error
}

func newMemChat() *memChat {
	return &memChat{users: map[string]domain.ChatUser{}, channels: map[string]map[string]bool{}}
}

func (m *memChat) UpsertUser(_ context.Context, u domain.ChatUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.users[u.ID] = u
	return nil
}

func (m *memChat) CreateChannel(_ context.Context, h domain.ChannelHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.channels[h.ID]; ok {
		return port.ErrAlreadyExists
	}
	m.channels[h.ID] = map[string]bool{}
	for _, id := range h.Members {
		m.channels[h.ID][id] = true
	}
	return nil
}

func (m *memChat) AddMembers(_ context.Context, _, channelID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if m.channels[channelID][id] {
			return fmt.Errorf("%s: %w", id, port.ErrAlreadyMember)
		}
		m.channels[channelID][id] = true
	}
	return nil
}

func (m *memChat) members(channelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels[channelID])
}

type testEnv struct {
	app    *fiber.App
	chat   *memChat
	signer *auth.StreamTokenSigner
}

func newTestEnv(t *testing.T, requireToken bool) *testEnv {
	t.Helper()
	chat := newMemChat()
	signer := auth.NewStreamTokenSigner(testSecret, 0)
	now := time.UnixMilli(1700000000000)

	channels := service.NewChannelService(chat, nil, nil, service.ChannelConfig{
		Timeout: time.Second,
		Now:     func() time.Time { return now },
	}, nil)
	identity := service.NewIdentityService(chat, signer, nil, service.IdentityConfig{
		APIKey:  "public-key",
		Timeout: time.Second,
	}, nil)

	var guard fiber.Handler
	if requireToken {
		guard = middleware.ChatTokenMiddleware(signer)
	}

	app := fiber.New()
	NewTokenHandler(identity, nil).Register(app)
	NewChannelHandler(channels, guard, nil).Register(app)
	NewHealthHandler("test", nil).Register(app)
	return &testEnv{app: app, chat: chat, signer: signer}
}

func (e *testEnv) post(t *testing.T, path, body, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestIssueToken(t *testing.T) {
	env := newTestEnv(t, false)

	status, body := env.post(t, "/api/v1/token", `{"verifiedId":"ada@example.com"}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada@example.com", body["userId"])
	assert.Equal(t, "public-key", body["apiKey"])
	assert.Equal(t, body["token"], body["streamToken"])

	uid, err := env.signer.VerifyToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", uid)
	assert.Equal(t, "ada", env.chat.users["ada@example.com"].Name)
}

func TestIssueTokenLegacyAlias(t *testing.T) {
	env := newTestEnv(t, false)

	status, body := env.post(t, "/getToken", `{"username":"bob","displayName":"Bobby"}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bob", body["userId"])
	assert.Equal(t, "Bobby", env.chat.users["bob"].Name)
}

func TestIssueTokenRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, false)

	cases := map[string]string{
		"missing id":    `{"displayName":"x"}`,
		"blank id":      `{"verifiedId":"   "}`,
		"unknown field": `{"verifiedId":"a","admin":true}`,
		"malformed":     `{"verifiedId":`,
		"wrong type":    `{"verifiedId":42}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, out := env.post(t, "/api/v1/token", body, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, out["error"])
		})
	}
	assert.Empty(t, env.chat.users)
}

func TestIssueTokenUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, false)
	env.chat.fail = errors.New("provider exploded: secret detail")

	status, body := env.post(t, "/api/v1/token", `{"verifiedId":"ada"}`, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Token generation failed", body["error"])
	assert.Nil(t, body["token"])
}

func TestDirectChannel(t *testing.T) {
	env := newTestEnv(t, false)

	status, a := env.post(t, "/api/v1/channels/direct", `{"userId":"bob","targetUserId":"alice"}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dm-alice-bob", a["channelId"])
	assert.Equal(t, "direct", a["kind"])

	status, b := env.post(t, "/createDM", `{"userId":"alice","targetUserId":"bob"}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, a["channelId"], b["channelId"])
	assert.Equal(t, 2, env.chat.members("dm-alice-bob"))
}

func TestDirectChannelWithSelf(t *testing.T) {
	env := newTestEnv(t, false)

	status, _ := env.post(t, "/api/v1/channels/direct", `{"userId":"alice","targetUserId":"alice"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, env.chat.channels)
}

func TestGroupChannel(t *testing.T) {
	env := newTestEnv(t, false)

	status, body := env.post(t, "/api/v1/channels/group",
		`{"userId":"alice","groupName":"Relief Team!","members":["bob","carol","bob"]}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "group-relief_team_-1700000000000", body["channelId"])
	assert.Equal(t, []any{"alice", "bob", "carol"}, body["members"])
}

func TestGroupChannelValidation(t *testing.T) {
	env := newTestEnv(t, false)

	cases := map[string]string{
		"no members":     `{"userId":"alice","groupName":"x","members":[]}`,
		"no name":        `{"userId":"alice","members":["bob"]}`,
		"member not str": `{"userId":"alice","groupName":"x","members":[1]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, _ := env.post(t, "/createGroup", body, "")
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestPublicChannel(t *testing.T) {
	env := newTestEnv(t, false)

	for _, user := range []string{"alice", "bob", "alice"} {
		status, body := env.post(t, "/createPublicChannel", `{"userId":"`+user+`"}`, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, domain.PublicChannelID, body["channelId"])
	}
	assert.Equal(t, 2, env.chat.members(domain.PublicChannelID))
}

func TestChannelRequiresMatchingToken(t *testing.T) {
	env := newTestEnv(t, true)

	aliceToken, err := env.signer.CreateToken("alice")
	require.NoError(t, err)

	status, _ := env.post(t, "/api/v1/channels/public", `{"userId":"alice"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.post(t, "/api/v1/channels/public", `{"userId":"alice"}`, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.post(t, "/api/v1/channels/direct", `{"userId":"mallory","targetUserId":"bob"}`, aliceToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.post(t, "/api/v1/channels/direct", `{"userId":"alice","targetUserId":"bob"}`, aliceToken)
	assert.Equal(t, http.StatusOK, status)

	// token issuance stays open
	status, _ = env.post(t, "/api/v1/token", `{"verifiedId":"carol"}`, "")
	assert.Equal(t, http.StatusOK, status)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["app"])

	app := fiber.New()
	NewHealthHandler("test", map[string]Pinger{"redis": downPinger{}}).Register(app)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"redis": "down"}, body["checks"])
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type fakeLister struct {
	limit  int
	action string
}

func (f *fakeLister) ListAuditLogs(_ context.Context, limit int, action string) ([]domain.AuditLog, error) {
	f.limit, f.action = limit, action
	return []domain.AuditLog{{Action: action}}, nil
}

const operatorToken = "ops-secret"

func newAuditApp(lister AuditLister) *fiber.App {
	app := fiber.New()
	NewAuditHandler(lister, middleware.OperatorMiddleware(operatorToken)).Register(app)
	return app
}

func TestAuditListClampsLimit(t *testing.T) {
	lister := &fakeLister{}
	app := newAuditApp(lister)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs?limit=50000&action=token_issued", nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, maxAuditLimit, lister.limit)
	assert.Equal(t, "token_issued", lister.action)
}

func TestAuditListRequiresOperatorToken(t *testing.T) {
	lister := &fakeLister{}
	app := newAuditApp(lister)

	cases := map[string]string{
		"no credential": "",
		"wrong token":   "Bearer nope",
		"chat token":    "Bearer " + mustChatToken(t, "alice"),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/logs", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.Zero(t, lister.limit, "store must not be queried")
}

func mustChatToken(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.NewStreamTokenSigner(testSecret, 0).CreateToken(userID)
	require.NoError(t, err)
	return tok
}
