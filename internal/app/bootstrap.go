package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"coinranking_go/internal/catalog"
	"coinranking_go/internal/detail"
	"coinranking_go/internal/domain"
	"coinranking_go/internal/favorites"
	"coinranking_go/internal/infra"
	"coinranking_go/internal/infra/coinranking"
	"coinranking_go/internal/storage"
	"coinranking_go/internal/watchlist"
)

// Bootstrap wires config, logging, storage, the favorites store and the API
// client. Controllers are created on demand and share the one store.
type Bootstrap struct {
	Config    *infra.Config
	WorkDir   string
	Persister storage.Persister
	Favorites *favorites.Store
	Client    *coinranking.Client
	Snapshots *storage.SnapshotManager

	// Stderr receives logs; defaults to os.Stderr.
	Stderr io.Writer

	closers []func() error
}

// NewBootstrap creates an empty Bootstrap.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config from path (or the resolved default) and wires
// everything. Missing credentials fail here.
func (b *Bootstrap) Initialize(ctx context.Context, path string, verbose bool) error {
	if path == "" {
		path = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return b.InitializeWithConfig(ctx, cfg, infra.GetWorkspaceDir())
}

// InitializeWithConfig wires from an already validated config.
func (b *Bootstrap) InitializeWithConfig(ctx context.Context, cfg *infra.Config, workDir string) error {
	b.Config = cfg
	b.WorkDir = workDir

	if err := infra.EnsureDir(workDir); err != nil {
		return fmt.Errorf("failed to create workspace dir: %w", err)
	}
	if cfg.Logging.File {
		if err := infra.EnsureDir(filepath.Dir(infra.LogPath(workDir))); err != nil {
			return fmt.Errorf("failed to create log dir: %w", err)
		}
	}

	logger, closeLog := infra.NewLogger(cfg, workDir, b.Stderr)
	slog.SetDefault(logger)
	b.closers = append(b.closers, closeLog)

	p, err := storage.Open(ctx, cfg, workDir)
	if err != nil {
		b.Shutdown()
		return err
	}
	b.Persister = p
	b.closers = append(b.closers, p.Close)
	slog.Info("Storage ready", slog.String("driver", cfg.Storage.Driver))

	fav, err := favorites.NewStore(ctx, p)
	if err != nil {
		b.Shutdown()
		return err
	}
	b.Favorites = fav
	b.closers = append(b.closers, func() error { fav.Close(); return nil })

	client, err := coinranking.NewClientFromConfig(cfg)
	if err != nil {
		b.Shutdown()
		return err
	}
	b.Client = client
	b.Snapshots = storage.NewSnapshotManager(filepath.Join(workDir, "snapshots"))

	slog.Debug("Bootstrap complete",
		slog.String("workdir", workDir),
		slog.Int("favorites", fav.Len()))
	return nil
}

// AcquireLock takes the workspace lock for operations that rewrite the
// whole favorites set or the snapshot directory. Per-id favorite writes
// commute and run without it, so several processes can share a workspace.
// The lock is released by Shutdown.
func (b *Bootstrap) AcquireLock() error {
	unlock, err := infra.CreateLockFile(b.WorkDir)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() error { unlock(); return nil })
	return nil
}

// NewCatalog builds a catalog controller from config.
func (b *Bootstrap) NewCatalog() (*catalog.Controller, error) {
	opts := []catalog.Option{
		catalog.WithPageSize(b.Config.Catalog.PageSize),
		catalog.WithMaxItems(b.Config.Catalog.MaxItems),
	}
	if b.Config.Catalog.Sort != "" {
		sc, err := domain.ParseSortCriterion(b.Config.Catalog.Sort)
		if err != nil {
			return nil, err
		}
		opts = append(opts, catalog.WithCriterion(sc))
	}
	return catalog.NewController(b.Client, b.Favorites, opts...), nil
}

// NewDetail builds a detail controller for one coin.
func (b *Bootstrap) NewDetail(coinUUID string) (*detail.Controller, error) {
	period, err := domain.ParseTimePeriod(b.Config.Detail.DefaultPeriod)
	if err != nil {
		return nil, err
	}
	return detail.NewController(coinUUID, b.Client, b.Favorites, detail.WithDefaultPeriod(period)), nil
}

// NewWatchlist builds an aggregator subscribed to the shared store.
func (b *Bootstrap) NewWatchlist() *watchlist.Aggregator {
	return watchlist.NewAggregator(b.Client, b.Favorites, watchlist.WithWindow(b.Config.Watchlist.Window))
}

// Shutdown releases resources in reverse order.
func (b *Bootstrap) Shutdown() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// stderr is the log and banner writer.
func (b *Bootstrap) stderr() io.Writer {
	if b.Stderr != nil {
		return b.Stderr
	}
	return os.Stderr
}

// PrintBanner writes the startup banner.
func (b *Bootstrap) PrintBanner() {
	infra.PrintBanner(b.stderr(), b.Config)
}
