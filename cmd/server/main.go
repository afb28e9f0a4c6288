// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

// Package main is the entry point for the Fireline server.
//
// Fireline is a fire-incident dispatch backend: REST CRUD over incidents,
// stations, vehicles, users and settings, plus a realtime WebSocket
// gateway that pushes incident events to dispatch consoles grouped by
// station, role and user.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered loading (defaults, config.yaml, env)
//  2. Store: embedded BadgerDB document store
//  3. Admin seeding: the first start creates the configured admin account
//  4. WebSocket hub, publisher and keepalive loop
//  5. HTTP server: Chi router with JWT auth
//  6. Supervisor tree: storage, messaging and api layers under suture
//
// # Configuration
//
// Environment variables override the config file; see config.yaml for the
// full list. The important ones:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=chief
//	export ADMIN_PASSWORD=secure-password
//	export BADGER_PATH=/var/lib/fireline
//	./fireline
//
// Leaving BADGER_PATH empty runs the store in memory, which is handy for
// development but loses all data on restart.
//
// # Signal handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server drains
// in-flight requests (10s timeout), the hub closes every WebSocket client
// with a close frame, and the store is flushed and closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firelinehq/fireline/internal/api"
	"github.com/firelinehq/fireline/internal/auth"
	"github.com/firelinehq/fireline/internal/config"
	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/models"
	"github.com/firelinehq/fireline/internal/store"
	"github.com/firelinehq/fireline/internal/supervisor"
	"github.com/firelinehq/fireline/internal/supervisor/services"
	ws "github.com/firelinehq/fireline/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet, so this uses the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Msg("Starting Fireline")

	st, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Store close failed")
		}
	}()

	if err := seedAdminUser(context.Background(), st, &cfg.Security); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	hub := ws.NewHub(cfg.Realtime.SendBuffer)
	publisher := ws.NewPublisher(hub)
	keepalive := ws.NewKeepalive(hub, cfg.Realtime.KeepaliveInterval)

	handler := api.NewHandler(st, cfg, hub, publisher, jwtManager)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// No WriteTimeout: WebSocket connections are long-lived.
		IdleTimeout: 120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddStorageService(services.NewStoreGCService(st, 0))
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewKeepaliveService(keepalive))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Fireline stopped gracefully")
}

// seedAdminUser creates the configured admin account when the user store
// is empty, so a fresh install has a way to log in.
func seedAdminUser(ctx context.Context, st *store.Store, sec *config.SecurityConfig) error {
	count, err := st.Users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if sec.AdminUsername == "" || sec.AdminPassword == "" {
		logging.Warn().Msg("User store is empty and no admin credentials configured; set ADMIN_USERNAME and ADMIN_PASSWORD")
		return nil
	}

	hash, err := auth.HashPassword(sec.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     sec.AdminUsername,
		DisplayName:  "Administrator",
		Role:         models.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
	}
	if err := st.Users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logging.Info().Str("username", admin.Username).Msg("Seeded initial admin user")
	return nil
}
