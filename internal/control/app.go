package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/jackpot/internal/core/config"
	"github.com/vietddude/jackpot/internal/dashboard"
	"github.com/vietddude/jackpot/internal/health"
	redisclient "github.com/vietddude/jackpot/internal/infra/redis"
	"github.com/vietddude/jackpot/internal/infra/storage"
	"github.com/vietddude/jackpot/internal/infra/storage/memory"
	"github.com/vietddude/jackpot/internal/infra/storage/postgres"
	"github.com/vietddude/jackpot/internal/jackpot"
)

// App runs the dashboard server together with the round recorder and the
// snapshot publisher.
type App struct {
	cfg  *config.AppConfig
	core *Core
	log  *slog.Logger

	repo      storage.WinnerRepository
	db        *postgres.DB
	redis     *redisclient.Client
	board     *dashboard.Board
	recorder  *jackpot.Recorder
	publisher *Publisher
	server    *dashboard.Server

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewApp creates an App with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	core, err := NewCore(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, core: core, log: log}

	// 1. Storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			_ = core.Close()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			_ = core.Close()
			return nil, err
		}
		a.db = db
		a.repo = postgres.NewWinnerRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		a.repo = memory.NewWinnerRepo()
		log.Info("Using Memory storage")
	}

	// 2. Board and recorder
	a.board = core.Mount(a.repo)
	a.recorder = jackpot.NewRecorder(core.Client, core.Queries, a.repo, core.ChainID, log)

	// 3. Redis snapshots
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, snapshot publishing disabled", "error", err)
		} else {
			a.redis = rc
			a.publisher = NewPublisher(a.board, rc, core.ChainID, cfg.Redis.PublishInterval, cfg.Redis.SnapshotTTL, log)
		}
	}

	// 4. HTTP
	monitor := health.NewMonitor(core.ChainID, core.Gateway, core.RPC, core.Client, clock.New())
	server, err := dashboard.NewServer(
		dashboard.ServerConfig{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			RenderTimeout:  cfg.Server.RenderTimeout,
			EnableWithdraw: cfg.Server.EnableWithdraw,
		},
		dashboard.ServerDeps{
			Client:  core.Client,
			Queries: core.Queries,
			Board:   a.board,
			History: a.repo,
			ChainID: core.ChainID,
			Health:  monitor,
			Logger:  log,
		},
	)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.server = server

	return a, nil
}

// Start launches the background components. It returns once they are running.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	a.group = g

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("dashboard server: %w", err)
		}
		return nil
	})

	g.Go(func() error { return a.recorder.Run(gctx) })

	g.Go(func() error {
		added, err := jackpot.Backfill(gctx, a.core.Gateway, a.repo, a.core.ChainID,
			a.cfg.Contract.LogLookbackBlocks, a.cfg.Contract.LogChunkBlocks)
		if err != nil {
			a.log.Warn("Backfill failed", "error", err)
			return nil
		}
		a.log.Info("Backfill complete", "rounds", added)
		return nil
	})

	if a.publisher != nil {
		g.Go(func() error { return a.publisher.Run(gctx) })
	}

	if a.db != nil {
		a.db.StartMetricsCollector(gctx)
	}

	a.log.Info("Jackpot dashboard started", "port", a.cfg.Server.Port)
	return nil
}

// Wait blocks until a component fails or the app is stopped.
func (a *App) Wait() error {
	if a.group == nil {
		return nil
	}
	return a.group.Wait()
}

// Stop shuts everything down.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping jackpot dashboard...")

	var errs []error
	if err := a.server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop server: %w", err))
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.group != nil {
		if err := a.group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	a.closeResources()
	return errors.Join(errs...)
}

func (a *App) closeResources() {
	if a.board != nil {
		a.board.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close storage", "error", err)
		}
	}
	if err := a.core.Close(); err != nil {
		a.log.Warn("Failed to close RPC client", "error", err)
	}
}
