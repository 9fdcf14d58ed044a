package handler

import (
	"log/slog"
	"strings"

	"github.com/arturoeanton/reliefchat/internal/port"
	"github.com/arturoeanton/reliefchat/internal/service"
	"github.com/gofiber/fiber/v3"
)

// TokenRequest is the body of the token endpoint.
type TokenRequest struct {
	VerifiedID  string `json:"verifiedId"`
	Username    string `json:"username"` // legacy alias of verifiedId
	DisplayName string `json:"displayName"`
}

// TokenResponse carries everything the client needs to connect.
type TokenResponse struct {
	UserID      string `json:"userId"`
	APIKey      string `json:"apiKey"`
	Token       string `json:"token"`
	StreamToken string `json:"streamToken"`
}

// TokenHandler handles chat token issuance.
type TokenHandler struct {
	identity *service.IdentityService
	logger   *slog.Logger
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(identity *service.IdentityService, logger *slog.Logger) *TokenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenHandler{identity: identity, logger: logger.With(slog.String("handler", "token"))}
}

// Register sets up token routes.
func (h *TokenHandler) Register(router fiber.Router) {
	router.Post("/api/v1/token", h.IssueToken)
	router.Post("/getToken", h.IssueToken)
}

// IssueToken upserts the chat user for a verified identity and returns its token.
func (h *TokenHandler) IssueToken(c fiber.Ctx) error {
	var req TokenRequest
	if err := decodeStrict(c, &req); err != nil {
		return writeError(c, err, "")
	}

	verifiedID := strings.TrimSpace(req.VerifiedID)
	if verifiedID == "" {
		verifiedID = strings.TrimSpace(req.Username)
	}
	if verifiedID == "" {
		return writeError(c, port.InvalidArgument("verifiedId is required"), "")
	}

	tok, err := h.identity.IssueToken(c.Context(), verifiedID, req.DisplayName)
	if err != nil {
		h.logger.Error("token generation failed", "user_id", verifiedID, "error", err)
		return writeError(c, err, "Token generation failed")
	}

	return c.JSON(TokenResponse{
		UserID:      tok.UserID,
		APIKey:      tok.APIKey,
		Token:       tok.Token,
		StreamToken: tok.Token,
	})
}
