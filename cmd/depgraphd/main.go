// Command depgraphd runs the dependency graph engine: an HTTP API over a
// multi-tenant work-item dependency graph, backed by PostgreSQL for
// storage and NATS JetStream for lifecycle events.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cfhttp "github.com/depgraph-io/engine/internal/adapter/http"
	cfnats "github.com/depgraph-io/engine/internal/adapter/nats"
	"github.com/depgraph-io/engine/internal/adapter/postgres"
	"github.com/depgraph-io/engine/internal/adapter/ws"
	"github.com/depgraph-io/engine/internal/config"
	"github.com/depgraph-io/engine/internal/logger"
	"github.com/depgraph-io/engine/internal/middleware"
	"github.com/depgraph-io/engine/internal/resilience"
	"github.com/depgraph-io/engine/internal/secrets"
	"github.com/depgraph-io/engine/internal/service"
	otel "github.com/depgraph-io/engine/internal/telemetry"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg, path, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)
	slog.Info("config loaded",
		"path", path,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"cycle_probe_max_depth", cfg.Graph.CycleProbeMaxDepth,
	)

	holder := config.NewHolder(cfg, path)

	credVault, err := secrets.NewVault(secrets.EnvLoader("DEPGRAPH_PG_DSN", "DEPGRAPH_NATS_URL"))
	if err != nil {
		return fmt.Errorf("secrets vault: %w", err)
	}
	if v := credVault.Get("DEPGRAPH_PG_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := credVault.Get("DEPGRAPH_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}

	watchReloadSignal(holder, credVault)

	ctx := context.Background()

	shutdownTelemetry, err := otel.Init(ctx, otel.Config{
		Enabled:        cfg.Telemetry.Enabled,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ExportInterval: cfg.Telemetry.ExportInterval,
	})
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	var metrics *otel.Metrics
	if cfg.Telemetry.Enabled {
		metrics, err = otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("telemetry metrics: %w", err)
		}
	}

	// --- Infrastructure ---

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

	bus, err := cfnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = bus.Close() }()

	// --- Services ---

	store := postgres.NewStore(pool, cfg.Graph.CycleProbeMaxDepth)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	edgeSvc := service.NewEdgeService(store.Edges(), bus, breaker)
	graphSvc := service.NewGraphService(store.WorkItems(), store.Edges(), metrics)

	hub := ws.NewHub()
	cancelRelay, err := ws.RelayRecalculations(ctx, bus, hub)
	if err != nil {
		return fmt.Errorf("websocket relay: %w", err)
	}
	defer cancelRelay()

	// --- HTTP ---

	handlers := &cfhttp.Handlers{Edges: edgeSvc, Graph: graphSvc}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(otel.HTTPMiddleware(cfg.Telemetry.ServiceName))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.TenantID)
	r.Use(middleware.PrincipalFromHeaders)
	r.Use(middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst).Handler)

	r.Get("/health", cfhttp.HealthHandler(bus.IsConnected))
	r.Get("/ws", hub.HandleWS)
	cfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)

	pool.Close()
	if drainErr := bus.Drain(); drainErr != nil {
		slog.Error("nats drain failed", "error", drainErr)
	}

	return err
}

// watchReloadSignal reloads the config holder and credential vault on
// SIGHUP, without restarting the process. Nothing already built reads the
// reloaded values: the middleware chain (rate limits), the breaker, the
// postgres pool and the NATS connection keep the settings and credentials
// they were created with until the next process start.
func watchReloadSignal(holder *config.Holder, credVault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			if err := credVault.Reload(); err != nil {
				slog.Error("credential reload failed", "error", err)
				continue
			}
			slog.Info("config and credentials reloaded", "port", holder.Get().Server.Port)
		}
	}()
}
