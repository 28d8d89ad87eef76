// Package app initializes and holds the long-lived services of one harvest
// run, acting as a small dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/clock/system"
	"github.com/JakeFAU/inat-harvester/internal/config"
	"github.com/JakeFAU/inat-harvester/internal/export"
	collyfetcher "github.com/JakeFAU/inat-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/inat-harvester/internal/harvest"
	"github.com/JakeFAU/inat-harvester/internal/id/uuid"
	"github.com/JakeFAU/inat-harvester/internal/inat"
	"github.com/JakeFAU/inat-harvester/internal/logging"
	"github.com/JakeFAU/inat-harvester/internal/metrics"
	"github.com/JakeFAU/inat-harvester/internal/normalize"
	"github.com/JakeFAU/inat-harvester/internal/photos"
	"github.com/JakeFAU/inat-harvester/internal/pipeline"
	"github.com/JakeFAU/inat-harvester/internal/policy/ratelimit"
	"github.com/JakeFAU/inat-harvester/internal/storage/local"
)

// Options overrides collaborators; zero values select the production ones.
type Options struct {
	Fetcher harvest.Fetcher
	Clock   harvest.Clock
	IDs     harvest.IDGenerator
}

// App holds the services shared by a run.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	outputStore *local.BlobStore
	photoStore  *local.BlobStore
	runner      *pipeline.Runner
}

// New builds every service for cfg. The output and photo directories are
// created before anything touches the network.
func New(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	logger = logging.OrNop(logger)
	metrics.Init()

	outputStore, err := local.New(local.Config{BaseDir: cfg.OutputDir})
	if err != nil {
		return nil, fmt.Errorf("prepare output directory: %w", err)
	}
	photoStore, err := local.New(local.Config{BaseDir: cfg.PhotosDir()})
	if err != nil {
		return nil, fmt.Errorf("prepare photo directory: %w", err)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.RequestTimeout(),
		})
	}
	clock := opts.Clock
	if clock == nil {
		clock = system.New()
	}
	ids := opts.IDs
	if ids == nil {
		ids = uuid.New()
	}

	client, err := inat.NewClient(inat.Config{
		BaseURL: cfg.API.BaseURL,
		Fetcher: fetcher,
		Limiter: ratelimit.New(ratelimit.Config{
			Delay: ratelimit.FromSeconds(cfg.RateLimitSeconds),
			Name:  "api",
		}),
		Logger: logger.Named("inat"),
	})
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	acquirer, err := photos.New(photos.Config{
		Fetcher: fetcher,
		Store:   photoStore,
		Logger:  logger.Named("photos"),
	})
	if err != nil {
		return nil, fmt.Errorf("init photo acquirer: %w", err)
	}

	normalizer, err := normalize.New(normalize.Config{
		Photos:      acquirer,
		IDs:         ids,
		Clock:       clock,
		SiteURL:     cfg.API.SiteURL,
		LocationID:  cfg.LocationID,
		SubmitterID: cfg.SubmitterID,
		SocialSplit: cfg.SocialSplit,
		Logger:      logger.Named("normalize"),
	})
	if err != nil {
		return nil, fmt.Errorf("init normalizer: %w", err)
	}

	photoDir, err := filepath.Rel(cfg.OutputDir, cfg.PhotosDir())
	if err != nil {
		return nil, fmt.Errorf("resolve photo directory: %w", err)
	}
	exporter, err := export.NewExporter(export.Config{
		Store:    outputStore,
		Clock:    clock,
		PhotoDir: filepath.ToSlash(photoDir),
		Logger:   logger.Named("export"),
	})
	if err != nil {
		return nil, fmt.Errorf("init exporter: %w", err)
	}

	runner, err := pipeline.NewRunner(pipeline.Config{
		Species:    cfg.Species,
		Days:       cfg.Days,
		Place:      cfg.Place,
		Format:     cfg.Format,
		Source:     client,
		Normalizer: normalizer,
		Exporter:   exporter,
		Clock:      clock,
		Logger:     logger.Named("pipeline"),
	})
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	logger.Info("application services initialized",
		zap.String("output_dir", outputStore.BaseDir()),
		zap.String("photos_dir", photoStore.BaseDir()),
		zap.Float64("rate_limit_seconds", cfg.RateLimitSeconds))

	return &App{
		cfg:         cfg,
		logger:      logger,
		outputStore: outputStore,
		photoStore:  photoStore,
		runner:      runner,
	}, nil
}

// PhotosDir is where photos are cached.
func (a *App) PhotosDir() string {
	return a.photoStore.BaseDir()
}

// Run executes the harvest.
func (a *App) Run(ctx context.Context) (pipeline.Result, error) {
	return a.runner.Run(ctx)
}

// Close writes the metrics textfile when configured and flushes the logger.
func (a *App) Close() error {
	var errs []error
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		} else {
			a.logger.Info("metrics written", zap.String("path", path))
		}
	}
	// Syncing stderr returns EINVAL on Linux.
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
