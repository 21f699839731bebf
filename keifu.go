// Package keifu is the public API for embedding the Keifu decision ledger server.
//
// Consumers import this package to construct and run the server without
// forking it:
//
//	app, err := keifu.New(
//	    keifu.WithVersion(version),
//	    keifu.WithLogger(logger),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: keifu (root) imports
// internal/*, but internal/* never imports keifu (root). Public types
// (Record, Alternative, Status) are standalone structs with no internal
// imports; conversion helpers live in types.go because the root package is
// the only one that sees both sides of the boundary.
package keifu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/keifu/internal/auth"
	"github.com/ashita-ai/keifu/internal/config"
	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/mcp"
	"github.com/ashita-ai/keifu/internal/ratelimit"
	"github.com/ashita-ai/keifu/internal/server"
	"github.com/ashita-ai/keifu/internal/storage"
	"github.com/ashita-ai/keifu/internal/telemetry"
)

// App is the Keifu server lifecycle. Construct with New(), run with Run().
// App has no public fields; configure it through New() options.
type App struct {
	cfg          config.Config
	store        *ledger.Store
	snapshots    *storage.SnapshotStore // nil when persistence is disabled
	srv          *server.Server
	limiter      ratelimit.Limiter
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New initialises the Keifu server. It loads configuration, restores the
// latest snapshot when persistence is configured, and wires all subsystems.
// It does NOT start any goroutines or accept HTTP connections; call Run().
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.idPrefix != "" {
		cfg.IDPrefix = o.idPrefix
	}
	if o.snapshotPath != "" {
		cfg.SnapshotPath = o.snapshotPath
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("keifu starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, true)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Create the ledger store.
	store := ledger.New(cfg.IDPrefix, o.clock)

	// Open the snapshot database and restore the latest snapshot.
	var snapshots *storage.SnapshotStore
	if cfg.SnapshotPath != "" {
		snapshots, err = storage.Open(context.Background(), cfg.SnapshotPath, logger)
		if err != nil {
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("storage: %w", err)
		}
		records, err := snapshots.Load(context.Background())
		if err != nil {
			_ = snapshots.Close()
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("storage: restore snapshot: %w", err)
		}
		if len(records) > 0 {
			store.Import(records)
			logger.Info("snapshot restored", "records", len(records), "path", cfg.SnapshotPath)
		}
	} else {
		logger.Info("snapshot persistence: disabled (no KEIFU_SNAPSHOT_PATH)")
	}

	// Create JWT manager and API keyring.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		if snapshots != nil {
			_ = snapshots.Close()
		}
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("auth: %w", err)
	}
	keyring, err := auth.NewKeyring(cfg.AdminAPIKey, cfg.EditorAPIKey, cfg.ReaderAPIKey)
	if err != nil {
		if snapshots != nil {
			_ = snapshots.Close()
		}
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("auth: %w", err)
	}
	if keyring.Empty() {
		logger.Warn("no API keys configured, token issuance is disabled; set KEIFU_ADMIN_API_KEY to bootstrap access")
	}

	// Create rate limiter.
	var limiter ratelimit.Limiter
	if cfg.RateLimitRPM > 0 {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst)
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rpm", cfg.RateLimitRPM, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	// Create MCP server.
	mcpSrv := mcp.New(store, version, logger)

	// Create HTTP server (MCP mounted at /mcp).
	srv := server.New(server.ServerConfig{
		Store:               store,
		JWTMgr:              jwtMgr,
		Keyring:             keyring,
		Logger:              logger,
		Limiter:             limiter,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		SnapshotEnabled:     snapshots != nil,
	})

	return &App{
		cfg:          cfg,
		store:        store,
		snapshots:    snapshots,
		srv:          srv,
		limiter:      limiter,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Handler returns the root HTTP handler with the full middleware chain
// applied. Embedding consumers can mount it on their own server or drive it
// with httptest.
func (a *App) Handler() http.Handler {
	return a.srv.Handler()
}

// Records returns every ledger entry in creation order.
func (a *App) Records() []Record {
	all := a.store.All()
	out := make([]Record, len(all))
	for i, r := range all {
		out[i] = recordFromModel(r)
	}
	return out
}

// Record returns a single ledger entry by ID. Returns ledger.ErrNotFound
// (via errors.Is) when no entry has that ID.
func (a *App) Record(id string) (Record, error) {
	r, err := a.store.Get(id)
	if err != nil {
		return Record{}, err
	}
	return recordFromModel(r), nil
}

// Lineage returns the full supersession chain containing the given entry,
// oldest first. The result is empty when the ID is unknown.
func (a *App) Lineage(id string) []Record {
	chain := a.store.Lineage(id)
	out := make([]Record, len(chain))
	for i, r := range chain {
		out[i] = recordFromModel(r)
	}
	return out
}

// Run starts the HTTP server and the background snapshot loop, then blocks
// until ctx is cancelled or a subsystem fails. On return the app has shut
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.snapshots != nil {
		g.Go(func() error {
			a.snapshotLoop(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown performs a graceful shutdown: stop accepting HTTP requests and
// drain in-flight ones, write a final snapshot, then release resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("keifu shutting down")

	httpCtx, httpCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := a.srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}
	httpCancel()

	if a.snapshots != nil {
		snapCtx, snapCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.snapshots.Save(snapCtx, a.store.Export()); err != nil {
			a.logger.Error("final snapshot failed", "error", err)
		}
		snapCancel()
		_ = a.snapshots.Close()
	}

	_ = a.limiter.Close()
	_ = a.otelShutdown(context.Background())

	a.logger.Info("keifu stopped")
	return nil
}

// snapshotLoop persists the ledger at the configured interval until ctx is
// cancelled. Ticks with no mutations since the last save are skipped. The
// final snapshot is written by Shutdown.
func (a *App) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SnapshotInterval)
	defer ticker.Stop()

	savedGen := a.store.Generation()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gen := a.store.Generation()
			if gen == savedGen {
				continue
			}
			opCtx, cancel := context.WithTimeout(ctx, a.cfg.SnapshotInterval)
			err := a.snapshots.Save(opCtx, a.store.Export())
			cancel()
			if err != nil {
				a.logger.Warn("snapshot failed", "error", err)
				continue
			}
			savedGen = gen
		}
	}
}
