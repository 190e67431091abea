// Package main is the entry point for the threadline API server.
// It loads configuration, connects to the configured backends, wires the
// services and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"threadline/internal/background"
	"threadline/internal/cache"
	"threadline/internal/config"
	"threadline/internal/database"
	"threadline/internal/events"
	"threadline/internal/handlers"
	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/router"
	"threadline/internal/service"
	"threadline/internal/slug"
	"threadline/internal/store"
	"threadline/internal/store/memstore"
	"threadline/internal/users"
)

// repositories is the persistence the services run on, backed by either
// Postgres or the in-memory store.
type repositories struct {
	users    service.UserRepository
	topics   service.TopicRepository
	flows    service.FlowRepository
	posts    service.PostRepository
	contacts service.ContactRepository
	close    func() error
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreDriver,
		"cache", cfg.CacheDriver,
	)

	ctx := context.Background()

	repos, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	// Detached side effects: stats recounts, view increments, notifications.
	runner := background.New(cfg.TaskTimeout)

	var (
		views     cache.ViewRecorder
		publisher events.Publisher
		limiter   middleware.Limiter
	)
	logPublisher := events.NewLogPublisher(logger)

	switch cfg.CacheDriver {
	case config.DriverValkey:
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()

		views = cache.NewViewCache(valkeyClient, cfg.ViewTTL)
		publisher = events.Fanout{
			events.NewRedisPublisher(valkeyClient, cfg.EventsChannelPrefix),
			logPublisher,
		}
		limiter = newRedisLimiter(valkeyClient, cfg)
	default:
		views = cache.NewMemoryViewCache(cfg.ViewTTL, nil)
		publisher = logPublisher
		memLimiter := middleware.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	bridge := events.NewBridge(publisher, runner, events.WithExcerptLen(cfg.ExcerptLen))
	dir := users.NewDirectory(repos.users)
	slugOpts := []slug.Option{slug.WithMaxAttempts(cfg.SlugMaxAttempts)}

	flowService := service.NewFlowService(repos.flows, dir, bridge, slugOpts...)
	postService := service.NewPostService(repos.posts, repos.topics, dir, views, bridge, runner, slugOpts...)
	contactService := service.NewContactService(repos.contacts, slugOpts...)
	adminService := service.NewAdminService(postService, flowService, contactService, repos.topics, repos.users, runner)

	r := router.New(dir, limiter, router.Handlers{
		Flows:   handlers.NewFlows(flowService),
		Posts:   handlers.NewPosts(postService),
		Contact: handlers.NewContact(contactService),
		Admin:   handlers.NewAdmin(adminService, contactService),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections
	// and pending background tasks.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		slog.Warn("background tasks abandoned", "error", err)
	}

	slog.Info("server stopped gracefully")
}

func newRedisLimiter(client *redis.Client, cfg *config.Config) middleware.Limiter {
	return middleware.NewRedisLimiter(client, "threadline:ratelimit:", cfg.RateLimit, cfg.RateWindow)
}

// openStore connects the configured store. Postgres is migrated on start
// and seeded in development.
func openStore(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.StoreDriver == config.DriverMemory {
		db := memstore.New()
		repos := &repositories{
			users:    memstore.NewUserStore(db),
			topics:   memstore.NewTopicStore(db),
			flows:    memstore.NewFlowStore(db),
			posts:    memstore.NewPostStore(db),
			contacts: memstore.NewContactStore(db),
			close:    func() error { return nil },
		}
		if cfg.IsDev() {
			if err := seedMemory(ctx, db); err != nil {
				return nil, err
			}
		}
		slog.Warn("using in-memory store, data is lost on exit")
		return repos, nil
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return postgresRepositories(db), nil
}

func postgresRepositories(db *sql.DB) *repositories {
	return &repositories{
		users:    store.NewUserStore(db),
		topics:   store.NewTopicStore(db),
		flows:    store.NewFlowStore(db),
		posts:    store.NewPostStore(db),
		contacts: store.NewContactStore(db),
		close:    db.Close,
	}
}

// seedMemory mirrors database.Seed for the in-memory store.
func seedMemory(ctx context.Context, db *memstore.DB) error {
	admin, err := memstore.NewUserStore(db).Create(ctx, &models.User{
		Username: database.SeedAdminUsername,
		Nickname: "Administrator",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return err
	}
	_, err = memstore.NewTopicStore(db).Create(ctx, &models.Topic{
		Title:  "General",
		Slug:   database.SeedTopicSlug,
		UserID: admin.ID,
		Status: true,
	})
	if err != nil {
		return err
	}
	slog.Info("memory store seeded", "admin_id", admin.ID)
	return nil
}
