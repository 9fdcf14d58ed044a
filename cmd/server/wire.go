package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/reliefchat/internal/adapter/auth"
	"github.com/arturoeanton/reliefchat/internal/adapter/store"
	"github.com/arturoeanton/reliefchat/internal/adapter/stream"
	"github.com/arturoeanton/reliefchat/internal/handler"
	"github.com/arturoeanton/reliefchat/internal/port"
	"github.com/arturoeanton/reliefchat/internal/service"
	"github.com/arturoeanton/reliefchat/pkg/config"

	_ "github.com/lib/pq"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      *config.Config
	signer   *auth.StreamTokenSigner
	identity *service.IdentityService
	channels *service.ChannelService
	audit    port.AuditWriter
	pg       *store.PostgresStore // nil without DATABASE_URL
	checks   map[string]handler.Pinger
	closers  []func() error
}

func wire(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, checks: map[string]handler.Pinger{}}

	// ── Audit ────────────────────────────────────────────────────────────
	a.audit = store.NewLogAuditWriter(log)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.pg = pg
		a.audit = pg
		a.checks["postgres"] = pg
		a.closers = append(a.closers, pg.Close)
	}

	// ── Membership cache ────────────────────────────────────────────────
	var cache port.MembershipCache
	if cfg.RedisURL != "" {
		rc, err := store.NewRedisMembershipCache(cfg.RedisURL, cfg.MembershipCacheTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		cache = rc
		a.checks["redis"] = rc
		a.closers = append(a.closers, rc.Close)
	}

	// ── Chat provider ───────────────────────────────────────────────────
	a.signer = auth.NewStreamTokenSigner(cfg.StreamAPISecret, cfg.ChatTokenTTL)
	chat, err := stream.NewClient(stream.Config{
		APIKey:        cfg.StreamAPIKey,
		BaseURL:       cfg.StreamBaseURL,
		MaxRetries:    cfg.ProviderMaxRetries,
		RatePerSecond: cfg.ProviderRatePerSecond,
	}, a.signer, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("stream client: %w", err)
	}

	// ── Services ─────────────────────────────────────────────────────────
	a.channels = service.NewChannelService(chat, cache, a.audit, service.ChannelConfig{
		ChannelType: cfg.ChannelType,
		Timeout:     cfg.ProviderTimeout,
	}, log)

	identityCfg := service.IdentityConfig{
		APIKey:  cfg.StreamAPIKey,
		Timeout: cfg.ProviderTimeout,
	}
	if cfg.AutoJoinPublic {
		identityCfg.AutoJoin = a.channels
	}
	a.identity = service.NewIdentityService(chat, a.signer, a.audit, identityCfg, log)

	return a, nil
}

// Close releases backends in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
