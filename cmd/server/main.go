package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/drumline-app/drumline/internal/auth"
	"github.com/drumline-app/drumline/internal/config"
	"github.com/drumline-app/drumline/internal/guard"
	"github.com/drumline-app/drumline/internal/httpserver"
	"github.com/drumline-app/drumline/internal/identity"
	"github.com/drumline-app/drumline/internal/logging"
	"github.com/drumline-app/drumline/internal/postgres"
	"github.com/drumline-app/drumline/internal/realtime"
	"github.com/drumline-app/drumline/internal/redis"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupPolicy(cfg *config.Config) *config.Policy {
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		slog.Error("Failed to load access policy", "error", err, "path", cfg.PolicyFile)
		os.Exit(1)
	}
	return policy
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server, monitor *realtime.Monitor, hub *realtime.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Stop the sweeper before the hub so no sweep lands on a closed
		// command channel.
		monitor.Stop()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	policy := setupPolicy(cfg)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	// Repositories
	membershipRepo := postgres.NewMembershipRepo(pool)
	resourceRepo := postgres.NewResourceRepo(pool)
	lessonRepo := postgres.NewLessonRepo(pool)
	sessionRepo := redis.NewSessionRepo(redisClient, cfg.SessionTTL)

	// Authorization core
	resolver := identity.NewResolver(membershipRepo, policy.RoleRanks)
	resourceGuard := guard.NewResourceGuard(resourceRepo, policy.Resources)
	verifier := auth.NewTokenVerifier(cfg.TokenSecret, clock)

	// Realtime core: single hub goroutine plus the liveness sweeper
	hub := realtime.NewHub(clock, cfg.MaxConnections, cfg.MaxClientsPerRoom)
	table := realtime.NewRoutingTable(policy.Routing)
	dispatcher := realtime.NewDispatcher(hub, table, clock)

	monitor := realtime.NewMonitor(hub, clock, cfg.SweepInterval)
	monitor.Start()

	srv := httpserver.NewServer(cfg, verifier, sessionRepo, resolver, resourceGuard,
		lessonRepo, hub, dispatcher, pool, redisClient)

	done := runGracefulShutdown(srv, monitor, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
