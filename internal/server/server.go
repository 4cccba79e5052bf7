// Package server orchestrates all components: NATS client, DB, catalog, factory, dispatcher, HTTP health.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morezero/content-actions/internal/config"
	"github.com/morezero/content-actions/pkg/actions"
	"github.com/morezero/content-actions/pkg/catalog"
	"github.com/morezero/content-actions/pkg/commsutil"
	"github.com/morezero/content-actions/pkg/db"
	"github.com/morezero/content-actions/pkg/dispatcher"
	"github.com/morezero/content-actions/pkg/events"
)

const logPrefix = "server:server"

// healthReporter is the part of the dispatcher the HTTP endpoints need.
type healthReporter interface {
	Health(ctx context.Context) *dispatcher.HealthOutput
}

// SetupLogging installs the default slog text handler at cfg's level.
func SetupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg)
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting content-actions", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subject := cfg.ActionsSubject
	if subject == "" {
		subject = commsutil.SubjectActions
	}

	// Step 1: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	defer nc.Close()

	// Step 2: Connect to database, optionally migrate and seed
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.WithApplicationName(cfg.COMMSName))
	if err != nil {
		return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		if err := db.Seed(ctx, pool, cfg.SeedFile); err != nil {
			return fmt.Errorf("%s - failed to seed: %w", logPrefix, err)
		}
	}

	// Step 3: Wire catalog, factory, publisher and dispatcher
	repo := db.NewRepository(pool)
	apps := catalog.NewCached(repo, cfg.ApplicationCacheTTL)
	factory := actions.NewFactory(actions.NewFactoryParams{
		Config: actions.Config{DefaultActionType: cfg.DefaultActionType},
	})
	publisher := events.NewCommsPublisher(nc, &events.CommsPublisherOpts{EventSubject: cfg.EventSubject})
	disp := dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Factory:   factory,
		Contents:  repo,
		Catalog:   apps,
		Publisher: publisher,
		Health:    repo,
	})
	slog.Info(fmt.Sprintf("%s - %d action types registered", logPrefix, len(factory.Registry().Names())))

	// Step 4: Subscribe
	sub, err := nc.QueueSubscribe(subject, cfg.COMMSName, newMessageHandler(ctx, disp, cfg.RequestTimeout))
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s (queue %s)", logPrefix, subject, cfg.COMMSName))

	// Step 5: Start HTTP health server
	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           newHTTPMux(disp, cfg.HealthCheckTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - content-actions is ready", logPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	sub.Unsubscribe()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
	}
	if err := nc.Drain(); err != nil {
		slog.Warn(fmt.Sprintf("%s - COMMS drain: %v", logPrefix, err))
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// newMessageHandler adapts the dispatcher to a COMMS subscription.
func newMessageHandler(ctx context.Context, disp *dispatcher.Dispatcher, timeout time.Duration) comms.MsgHandler {
	return func(msg *comms.Msg) {
		data := handleRequest(ctx, disp, timeout, msg.Data)
		if data == nil {
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
		}
	}
}

// handleRequest decodes one request, dispatches it under a per-request
// timeout and returns the encoded response. A request without an id gets a
// generated one, which also becomes its request id.
func handleRequest(ctx context.Context, disp *dispatcher.Dispatcher, timeout time.Duration, data []byte) []byte {
	var req dispatcher.ActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
		return mustEncode(&dispatcher.ActionResponse{
			Ok: false,
			Error: &dispatcher.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "Failed to decode request",
			},
		})
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Ctx == nil {
		req.Ctx = &dispatcher.InvocationContext{}
	}
	if req.Ctx.RequestID == "" {
		req.Ctx.RequestID = req.ID
	}

	// Respect a client deadline shorter than the server timeout.
	if ms := req.Ctx.DeadlineMs; ms > 0 || req.Ctx.TimeoutMs > 0 {
		if ms <= 0 {
			ms = req.Ctx.TimeoutMs
		}
		if d := time.Duration(ms) * time.Millisecond; d < timeout {
			timeout = d
		}
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return mustEncode(disp.Dispatch(reqCtx, &req))
}

func mustEncode(resp *dispatcher.ActionResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		return nil
	}
	return data
}

// newHTTPMux serves /health, /ready and /metrics.
func newHTTPMux(health healthReporter, healthTimeout time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthCtx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		h := health.Health(healthCtx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
