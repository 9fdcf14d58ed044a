package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arturoeanton/reliefchat/internal/handler"
	"github.com/arturoeanton/reliefchat/internal/mcp"
	"github.com/arturoeanton/reliefchat/internal/middleware"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("🚀 Starting "+cfg.AppName,
		"port", cfg.Port,
		"stream_base_url", cfg.StreamBaseURL,
		"auto_join_public", cfg.AutoJoinPublic,
		"require_chat_token", cfg.RequireChatToken,
		"audit_db", cfg.DatabaseURL != "",
		"membership_cache", cfg.RedisURL != "",
	)

	a, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// ── Fiber App ────────────────────────────────────────────────────────
	srv := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	srv.Use(recover.New())
	srv.Use(fiberlogger.New())
	srv.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))
	srv.Use(middleware.AuditMiddleware(a.audit))

	// ── Routes ───────────────────────────────────────────────────────────
	handler.NewHealthHandler(cfg.AppName, a.checks).Register(srv)
	handler.NewTokenHandler(a.identity, log).Register(srv)

	var guard fiber.Handler
	if cfg.RequireChatToken {
		guard = middleware.ChatTokenMiddleware(a.signer)
	}
	handler.NewChannelHandler(a.channels, guard, log).Register(srv)

	switch {
	case a.pg == nil:
	case cfg.OperatorToken == "":
		log.Warn("audit routes disabled: OPERATOR_TOKEN is not set")
	default:
		handler.NewAuditHandler(a.pg, middleware.OperatorMiddleware(cfg.OperatorToken)).Register(srv)
	}

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(a.identity, a.channels, cfg.MCPPort, log)
		go func() {
			if err := mcpServer.Start(ctx); err != nil {
				log.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("🌐 Fiber listening", "port", cfg.Port)
		errCh <- srv.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := srv.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Error("shutdown failed", "error", err)
	}
	return nil
}
