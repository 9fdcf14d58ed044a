package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/arturoeanton/reliefchat/internal/port"
)

// TokenIssuer issues chat tokens for verified identities.
type TokenIssuer interface {
	IssueToken(ctx context.Context, verifiedID, displayName string) (*domain.ChatUserToken, error)
}

// ChannelResolver resolves channels.
type ChannelResolver interface {
	Resolve(ctx context.Context, req domain.ChannelRequest) (*domain.ChannelHandle, error)
	GroupRequest(creator, name string, members []string) domain.ChannelRequest
}

// Server implements the Model Context Protocol (MCP) server.
// It exposes the chat bridge as tools for operator agents.
type Server struct {
	tokens   TokenIssuer
	channels ChannelResolver
	port     string
	logger   *slog.Logger
}

// NewServer creates a new MCP server.
func NewServer(tokens TokenIssuer, channels ChannelResolver, port string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tokens:   tokens,
		channels: channels,
		port:     port,
		logger:   logger.With(slog.String("component", "mcp")),
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
)

// Handler returns the MCP HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	return mux
}

// Start serves MCP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("MCP server starting", "port", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, codeParseError, "parse error")
		return
	}

	var result any
	var err error

	switch req.Method {
	case "tools/list":
		result = map[string]any{"tools": tools}
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "reliefchat",
				"version": "1.0.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, codeMethodNotFound, "method not found")
		return
	}

	if err != nil {
		code := codeInternal
		msg := "tool call failed"
		if errors.Is(err, port.ErrInvalidArgument) {
			code, msg = codeInvalidParams, err.Error()
		}
		s.logger.Warn("tool call failed", "error", err)
		writeError(w, req.ID, code, msg)
		return
	}

	writeResult(w, req.ID, result)
}

var tools = []Tool{
	{
		Name:        "issue_chat_token",
		Description: "Create or update the chat user for a verified identity and return its token",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"verified_id": {"type": "string", "description": "Verified identity id"},
				"display_name": {"type": "string", "description": "Optional display name"}
			},
			"required": ["verified_id"]
		}`),
	},
	{
		Name:        "join_public_channel",
		Description: "Add a user to the global public channel",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"user_id": {"type": "string", "description": "Chat user id"}
			},
			"required": ["user_id"]
		}`),
	},
	{
		Name:        "open_direct_channel",
		Description: "Open the direct channel between two users",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"user_id": {"type": "string", "description": "Requesting user id"},
				"target_user_id": {"type": "string", "description": "Other participant"}
			},
			"required": ["user_id", "target_user_id"]
		}`),
	},
	{
		Name:        "create_group_channel",
		Description: "Create a new group channel",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"user_id": {"type": "string", "description": "Creator user id"},
				"group_name": {"type": "string", "description": "Group display name"},
				"members": {"type": "array", "items": {"type": "string"}, "description": "Member user ids"}
			},
			"required": ["user_id", "group_name", "members"]
		}`),
	},
}

type toolArgs struct {
	VerifiedID   string   `json:"verified_id"`
	DisplayName  string   `json:"display_name"`
	UserID       string   `json:"user_id"`
	TargetUserID string   `json:"target_user_id"`
	GroupName    string   `json:"group_name"`
	Members      []string `json:"members"`
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, port.InvalidArgument("invalid params")
	}
	var args toolArgs
	if len(req.Arguments) > 0 {
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, port.InvalidArgument("invalid arguments")
		}
	}

	switch req.Name {
	case "issue_chat_token":
		tok, err := s.tokens.IssueToken(ctx, args.VerifiedID, args.DisplayName)
		if err != nil {
			return nil, err
		}
		return textResult(fmt.Sprintf("token issued for %s", tok.UserID), tok), nil

	case "join_public_channel":
		return s.resolve(ctx, domain.PublicRequest(args.UserID))

	case "open_direct_channel":
		return s.resolve(ctx, domain.DirectRequest(args.UserID, args.TargetUserID))

	case "create_group_channel":
		return s.resolve(ctx, s.channels.GroupRequest(args.UserID, args.GroupName, args.Members))

	default:
		return nil, port.InvalidArgument("unknown tool: " + req.Name)
	}
}

func (s *Server) resolve(ctx context.Context, req domain.ChannelRequest) (any, error) {
	ch, err := s.channels.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("channel %s ready with %d members", ch.ID, len(ch.Members)), ch), nil
}

func textResult(text string, structured any) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"structuredContent": structured,
	}
}

func writeResult(w http.ResponseWriter, id any, result any) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
