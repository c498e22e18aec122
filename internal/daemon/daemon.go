package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/workstake-network/workstake/internal/api"
	"github.com/workstake-network/workstake/internal/app/authz"
	"github.com/workstake-network/workstake/internal/app/ledger"
	"github.com/workstake-network/workstake/internal/app/market"
	"github.com/workstake-network/workstake/internal/app/params"
	"github.com/workstake-network/workstake/internal/domain"
	"github.com/workstake-network/workstake/internal/infra/sqlite"
)

// Daemon is the core Workstake runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Params *params.Store
	Auth   *authz.Service
	Ledger *ledger.Ledger
	Engine *market.Engine
	Server *api.Server

	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New(version string) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, version)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, version string) (*Daemon, error) {
	store, err := params.NewStore(cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("market params: %w", err)
	}

	privileged := make([]domain.Identity, 0, len(cfg.Node.Privileged))
	for _, p := range cfg.Node.Privileged {
		privileged = append(privileged, domain.Identity(p))
	}
	auth := authz.New(domain.Identity(cfg.Node.Owner), privileged)

	// The external settlement boundary. The daemon records outgoing
	// transfers; an operator integration replaces this hook.
	led := ledger.New(func(to domain.Identity, amount int64) error {
		log.Printf("[ledger] transfer %d units to %s", amount, to)
		return nil
	})

	d := &Daemon{
		Config: cfg,
		Params: store,
		Auth:   auth,
		Ledger: led,
	}

	var marketStore domain.MarketStore
	if !cfg.Storage.Ephemeral {
		dir := cfg.Storage.Dir
		if dir == "" {
			dir = workstakeHome()
		}
		db, err := sqlite.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.DB = db
		marketStore = db
	}

	engine, err := market.NewEngine(market.Config{
		Params:   store,
		Auth:     auth,
		Ledger:   led,
		Store:    marketStore,
		Treasury: domain.Identity(cfg.Node.Treasury),
	})
	if err != nil {
		if d.DB != nil {
			_ = d.DB.Close()
		}
		return nil, err
	}
	d.Engine = engine

	srv := api.NewServer(engine, version)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	engine.SetEventSink(srv.Hub().Broadcast)
	d.Server = srv

	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long for SSE
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		if d.DB != nil {
			_ = d.DB.Close()
		}
	}()

	fmt.Printf("Workstake serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
