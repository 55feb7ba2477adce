package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/api/routes"
	"github.com/ArowuTest/fastest-finger-pot/internal/config"
	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/ArowuTest/fastest-finger-pot/internal/storage"
	"github.com/ArowuTest/fastest-finger-pot/internal/workers"
	"github.com/ArowuTest/fastest-finger-pot/pkg/jwt"
	"github.com/ArowuTest/fastest-finger-pot/pkg/payrail"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server exiting")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the history store
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()
	log.Info("Storage ready", "driver", cfg.Storage.Driver)

	// Payment rail, audited into the payout repository
	rail := payrail.NewClient(payrail.Config{
		BaseURL:  cfg.Payments.BaseURL,
		APIKey:   cfg.Payments.APIKey,
		Timeout:  cfg.Payments.Timeout,
		MockAPI:  cfg.Payments.Mode == "mock",
		FailRate: cfg.Payments.MockFailRate,
		Seed:     time.Now().UnixNano(),
	})
	audited := services.NewAuditedRail(rail, store.Payouts, log)

	// Engine and services
	notifications := services.NewNotificationService(store.Events, log, 0)
	engine, err := game.New(
		game.Config{RoundDuration: cfg.Game.RoundDuration, InactivityThreshold: cfg.Game.InactivityThreshold},
		audited,
		game.WithEventSink(notifications),
		game.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	gameService := services.NewGameService(engine, store, cfg.Game, log)
	if err := gameService.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore round state: %w", err)
	}
	tokens := jwt.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authService := services.NewAuthService(tokens, gameService, cfg.Auth.DevTokens)
	worker := workers.NewRoundWorker(gameService, cfg.Workers, log)

	router := routes.SetupRouter(cfg, routes.Dependencies{
		Game:    gameService,
		History: services.NewHistoryService(store),
		Auth:    authService,
		Events:  notifications,
		Tokens:  tokens,
		Log:     log,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Info("Server starting", "port", cfg.Server.Port, "round", gameService.CurrentRoundNumber())
	return serve(ctx, srv, ln, worker, notifications, cfg.Server.ShutdownTimeout, log)
}

type runner interface {
	Run(ctx context.Context) error
}

// serve runs the HTTP server and worker until ctx ends. The notifier keeps
// draining until the server and worker have stopped, so events published by
// in-flight requests are still persisted.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, worker, notifier runner, shutdownTimeout time.Duration, log *slog.Logger) error {
	notifyCtx, stopNotify := context.WithCancel(context.WithoutCancel(ctx))
	defer stopNotify()
	notifyDone := make(chan error, 1)
	go func() { notifyDone <- notifier.Run(notifyCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err := g.Wait()

	stopNotify()
	return errors.Join(err, <-notifyDone)
}
