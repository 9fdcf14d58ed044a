package handler

import (
	"log/slog"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/service"
	"github.com/gofiber/fiber/v3"
)

// PublicChannelRequest is the body of the public channel endpoint.
type PublicChannelRequest struct {
	UserID string `json:"userId"`
}

// DirectChannelRequest is the body of the direct channel endpoint.
type DirectChannelRequest struct {
	UserID       string `json:"userId"`
	TargetUserID string `json:"targetUserId"`
}

// GroupChannelRequest is the body of the group channel endpoint.
type GroupChannelRequest struct {
	UserID    string   `json:"userId"`
	GroupName string   `json:"groupName"`
	Members   []string `json:"members"`
}

// ChannelResponse describes a ready channel.
type ChannelResponse struct {
	Message   string             `json:"message"`
	ChannelID string             `json:"channelId"`
	Kind      domain.ChannelKind `json:"kind"`
	Members   domain.MemberSet   `json:"members"`
}

// ChannelHandler handles channel resolution endpoints.
type ChannelHandler struct {
	channels *service.ChannelService
	auth     fiber.Handler
	logger   *slog.Logger
}

// NewChannelHandler creates a new channel handler. auth, when non-nil, runs
// before every channel route.
func NewChannelHandler(channels *service.ChannelService, auth fiber.Handler, logger *slog.Logger) *ChannelHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelHandler{channels: channels, auth: auth, logger: logger.With(slog.String("handler", "channel"))}
}

// Register sets up channel routes, including the original unversioned paths.
func (h *ChannelHandler) Register(router fiber.Router) {
	h.post(router, "/api/v1/channels/public", h.Public)
	h.post(router, "/api/v1/channels/direct", h.Direct)
	h.post(router, "/api/v1/channels/group", h.Group)

	h.post(router, "/createPublicChannel", h.Public)
	h.post(router, "/createDM", h.Direct)
	h.post(router, "/createGroup", h.Group)
}

func (h *ChannelHandler) post(router fiber.Router, path string, handler fiber.Handler) {
	if h.auth != nil {
		router.Post(path, h.auth, handler)
		return
	}
	router.Post(path, handler)
}

// Public joins the caller to the shared public channel.
func (h *ChannelHandler) Public(c fiber.Ctx) error {
	var req PublicChannelRequest
	if err := decodeStrict(c, &req); err != nil {
		return writeError(c, err, "")
	}
	return h.resolve(c, req.UserID, domain.PublicRequest(req.UserID), "Public channel ready", "Failed to create/join public chat")
}

// Direct opens the one-to-one channel between the caller and targetUserId.
func (h *ChannelHandler) Direct(c fiber.Ctx) error {
	var req DirectChannelRequest
	if err := decodeStrict(c, &req); err != nil {
		return writeError(c, err, "")
	}
	return h.resolve(c, req.UserID, domain.DirectRequest(req.UserID, req.TargetUserID), "DM ready", "Failed to create DM")
}

// Group creates a new group channel owned by the caller.
func (h *ChannelHandler) Group(c fiber.Ctx) error {
	var req GroupChannelRequest
	if err := decodeStrict(c, &req); err != nil {
		return writeError(c, err, "")
	}
	return h.resolve(c, req.UserID, h.channels.GroupRequest(req.UserID, req.GroupName, req.Members), "Group chat created", "Failed to create group")
}

func (h *ChannelHandler) resolve(c fiber.Ctx, userID string, req domain.ChannelRequest, okMsg, failMsg string) error {
	if msg, ok := req.Validate(); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	if err := requireCaller(c, userIDOf(req)); err != nil {
		return writeError(c, err, failMsg)
	}

	ch, err := h.channels.Resolve(c.Context(), req)
	if err != nil {
		h.logger.Error("channel resolve failed", "kind", req.Kind, "user_id", userID, "error", err)
		return writeError(c, err, failMsg)
	}

	return c.JSON(ChannelResponse{
		Message:   okMsg,
		ChannelID: ch.ID,
		Kind:      ch.Kind,
		Members:   ch.Members,
	})
}

// userIDOf returns the trimmed requesting user of req.
func userIDOf(req domain.ChannelRequest) string {
	switch req.Kind {
	case domain.ChannelKindDirect:
		return req.UserA
	case domain.ChannelKindGroup:
		return req.Creator
	}
	return req.Requester
}
