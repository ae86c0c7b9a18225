package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/statengine/internal/config"
	"github.com/udisondev/statengine/internal/db"
	"github.com/udisondev/statengine/internal/effect"
	"github.com/udisondev/statengine/internal/eventbus"
	"github.com/udisondev/statengine/internal/metrics"
	"github.com/udisondev/statengine/internal/profile"
	"github.com/udisondev/statengine/internal/stat"
	"github.com/udisondev/statengine/internal/tick"
)

const ConfigPath = "config/statengine.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("STATENGINE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadEngine(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("statengine starting",
		"log_level", cfg.LogLevel,
		"init", cfg.Registry.Init,
		"auto_recompute", cfg.Registry.AutoRecompute,
		"tick", cfg.TickInterval)

	reg := stat.NewRegistry(append(cfg.Registry.Options(), stat.WithLogger(logger))...)
	effects := effect.NewManager(reg)

	if cfg.Profile != "" {
		if err := profile.ApplyNamed(cfg.Profile, reg, effects); err != nil {
			return fmt.Errorf("applying profile: %w", err)
		}
	}

	var repo *db.StatRepository
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		repo = db.NewStatRepository(database.Pool())
		n, err := repo.ApplyTo(ctx, cfg.OwnerID, reg)
		if err != nil {
			return fmt.Errorf("loading stat scalars: %w", err)
		}
		slog.Info("stat scalars loaded", "ownerID", cfg.OwnerID, "count", n)
	}

	// Initial values are visible before the first tick.
	reg.RecomputeAll()

	bus := eventbus.New[stat.Change](cfg.QueueSize * 4)
	bus.Subscribe(func(c stat.Change) {
		slog.Debug("stat changed",
			"kind", c.Kind,
			"layer", c.Layer,
			"old", c.Old,
			"new", c.New)
	})

	loop := tick.NewLoop(reg, cfg.TickInterval, cfg.QueueSize, tick.WithBus(bus))
	loop.AddSystem(effects.Advance)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		rec := metrics.NewRecorder()
		rec.Attach(reg, loop)
		rec.ObserveTotals(reg.Snapshot())

		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		srv := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			slog.Info("metrics server listening", "addr", cfg.Metrics.Address)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		if err := loop.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick loop: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Loop goroutine has exited: the registry is ours again.
	if repo != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.SaveRegistry(saveCtx, cfg.OwnerID, reg); err != nil {
			return fmt.Errorf("saving stat scalars: %w", err)
		}
		slog.Info("stat scalars saved", "ownerID", cfg.OwnerID)
	}

	slog.Info("statengine stopped", "ticks", loop.Ticks())
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
