package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/ilmihal/internal/adapter/http"
	"github.com/Strob0t/ilmihal/internal/adapter/litellm"
	"github.com/Strob0t/ilmihal/internal/adapter/mcp"
	cfnats "github.com/Strob0t/ilmihal/internal/adapter/nats"
	"github.com/Strob0t/ilmihal/internal/adapter/natskv"
	cfotel "github.com/Strob0t/ilmihal/internal/adapter/otel"
	"github.com/Strob0t/ilmihal/internal/adapter/postgres"
	cfredis "github.com/Strob0t/ilmihal/internal/adapter/redis"
	"github.com/Strob0t/ilmihal/internal/adapter/ristretto"
	"github.com/Strob0t/ilmihal/internal/adapter/tiered"
	"github.com/Strob0t/ilmihal/internal/config"
	"github.com/Strob0t/ilmihal/internal/middleware"
	"github.com/Strob0t/ilmihal/internal/port/cache"
	"github.com/Strob0t/ilmihal/internal/port/counter"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
	"github.com/Strob0t/ilmihal/internal/port/notifier"
	"github.com/Strob0t/ilmihal/internal/resilience"
	"github.com/Strob0t/ilmihal/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	requestTimeout  = 30 * time.Second
	// l1Backfill bounds how long an L2 hit stays in the in-process tier.
	l1Backfill     = 30 * time.Second
	idempotencyKV  = "ilmihal-idempotency"
	serviceVersion = cfhttp.Version
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the MCP endpoint when enabled)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logCloser, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")
	store := postgres.NewStore(pool)

	// NATS
	queue, err := cfnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	rowCache, closeCache, err := buildRowCache(ctx, cfg.Cache, queue)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeCache()

	quota, closeQuota, err := buildCounter(ctx, cfg, queue)
	if err != nil {
		return fmt.Errorf("chat counter: %w", err)
	}
	defer closeQuota()

	// LiteLLM
	chatBreaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	llmClient := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey, cfg.LiteLLM.Model, cfg.LiteLLM.Timeout)
	llmClient.SetBreaker(chatBreaker)
	if ok, err := llmClient.Health(ctx); !ok {
		slog.Warn("litellm not reachable, chat requests will fail until it is", "url", cfg.LiteLLM.URL, "error", err)
	}

	// --- Services ---

	contentSvc := service.NewCatechismService(store)
	contentSvc.SetMetrics(metrics)
	if rowCache != nil {
		contentSvc.SetCache(rowCache, cfg.Cache.TTL)
	}
	messageSvc := service.NewMessageService(store, queue)
	messageSvc.SetMetrics(metrics)
	notifiers, err := buildNotifiers(cfg.Notify)
	if err != nil {
		return fmt.Errorf("notifiers: %w", err)
	}
	messageSvc.SetNotifiers(notifiers...)
	chatSvc := service.NewChatService(quota, llmClient, cfg.Chat)
	chatSvc.SetMetrics(metrics)
	importSvc := service.NewImportService(store, contentSvc, queue, cfg.Import.MaxChunkChars)
	importSvc.SetMetrics(metrics)

	// Subscribers. Every instance adopts a new cache generation; one
	// instance sends each inbox notification.
	cancelImported, err := queue.Subscribe(ctx, messagequeue.SubjectContentImported, contentSvc.HandleContentImported)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", messagequeue.SubjectContentImported, err)
	}
	defer cancelImported()
	cancelCreated, err := queue.SubscribeShared(ctx, messagequeue.SubjectMessageCreated, messagequeue.GroupNotify, messageSvc.HandleCreated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", messagequeue.SubjectMessageCreated, err)
	}
	defer cancelCreated()

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	limiter.OnReject = metrics.RateLimited
	limiter.StartCleanup(ctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)

	routes := cfhttp.RouteConfig{
		CORSOrigin: cfg.Server.CORSOrigin,
		RateLimit:  limiter.Handler,
	}
	if cfg.Server.IdempotencyTTL > 0 {
		kv, err := queue.KeyValue(ctx, idempotencyKV, cfg.Server.IdempotencyTTL)
		if err != nil {
			return fmt.Errorf("idempotency bucket: %w", err)
		}
		routes.Idempotency = middleware.Idempotency(natskv.New(kv), cfg.Server.IdempotencyTTL)
	}

	handlers := &cfhttp.Handlers{
		Content:        contentSvc,
		Messages:       messageSvc,
		Chat:           chatSvc,
		Import:         importSvc,
		MaxUploadBytes: cfg.Import.MaxUploadMB << 20,
	}

	r := chi.NewRouter()

	// RequestID must precede Logger so request lines carry the id.
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", cfhttp.HealthHandler(cfhttp.HealthDeps{
		Postgres:    store,
		NATS:        queue,
		ChatBreaker: chatBreaker,
	}))
	cfhttp.MountRoutes(r, handlers, routes)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var mcpSrv *mcp.Server
	if cfg.MCP.Enabled {
		mcpSrv = mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    cfg.Logging.Service,
			Version: serviceVersion,
			APIKey:  cfg.MCP.APIKey,
		}, mcp.ServerDeps{Content: contentSvc})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		slog.Info("mcp server started", "addr", mcpSrv.Addr().String(), "auth", cfg.MCP.APIKey != "")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		errs := []error{srv.Shutdown(sctx)}
		if mcpSrv != nil {
			errs = append(errs, mcpSrv.Stop(sctx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// buildRowCache returns the content row cache: ristretto alone, or
// ristretto in front of a NATS KV bucket shared by all instances. A zero
// TTL disables caching and returns a nil cache.
func buildRowCache(ctx context.Context, cfg config.Cache, queue *cfnats.Queue) (cache.Cache, func(), error) {
	if cfg.TTL <= 0 {
		slog.Info("content cache disabled")
		return nil, func() {}, nil
	}

	l1, err := ristretto.New(cfg.L1MaxSizeMB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.L2Bucket == "" {
		slog.Info("content cache ready", "tiers", "l1", "ttl", cfg.TTL)
		return l1, l1.Close, nil
	}

	kv, err := queue.KeyValue(ctx, cfg.L2Bucket, cfg.TTL)
	if err != nil {
		l1.Close()
		return nil, nil, fmt.Errorf("l2 bucket: %w", err)
	}
	slog.Info("content cache ready", "tiers", "l1+l2", "bucket", cfg.L2Bucket, "ttl", cfg.TTL)
	return tiered.New(l1, natskv.New(kv), min(l1Backfill, cfg.TTL)), l1.Close, nil
}

// buildNotifiers creates the configured inbox notifiers in name order.
func buildNotifiers(cfg config.Notify) ([]notifier.Notifier, error) {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]notifier.Notifier, 0, len(names))
	for _, name := range names {
		n, err := notifier.New(name, cfg.Providers[name])
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	slog.Info("inbox notifiers ready", "providers", names, "available", notifier.Available())
	return out, nil
}

// buildCounter returns the chat allowance counter for the configured backend.
func buildCounter(ctx context.Context, cfg *config.Config, queue *cfnats.Queue) (counter.Counter, func(), error) {
	switch cfg.Chat.CounterBackend {
	case "redis":
		c, err := cfredis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("chat counter ready", "backend", "redis", "addr", cfg.Redis.Addr)
		return c, func() { _ = c.Close() }, nil
	default:
		// The bucket TTL only collects idle keys; windows live in the value.
		kv, err := queue.KeyValue(ctx, cfg.Chat.CounterBucket, 2*cfg.Chat.Window)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("chat counter ready", "backend", "nats", "bucket", cfg.Chat.CounterBucket)
		return natskv.NewCounter(kv), func() {}, nil
	}
}
