package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/analytics"
	"github.com/ternarybob/govspend/internal/common"
	"github.com/ternarybob/govspend/internal/handlers"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/services/analysis"
	"github.com/ternarybob/govspend/internal/services/scheduler"
	"github.com/ternarybob/govspend/internal/storage"
	"github.com/ternarybob/govspend/internal/usaspending"
)

const (
	// Scheduled job names
	JobSnapshotRefresh = "snapshot_refresh"
	JobHistoryPurge    = "history_purge"
	JobSnapshotPrune   = "snapshot_prune"
	JobStorageCompact  = "storage_compact"

	historyPurgeSchedule   = "15 * * * *"
	snapshotPruneSchedule  = "0 3 * * *"
	storageCompactSchedule = "30 3 * * *"

	// refreshJobTimeout bounds one scheduled upstream fetch
	refreshJobTimeout = 10 * time.Minute
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Upstream source and analysis
	Source          *usaspending.Client
	Analyzer        *analytics.Analyzer
	AnalysisService *analysis.Service

	// Background jobs
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AnalysisHandler  *handlers.AnalysisHandler
	SchedulerHandler *handlers.SchedulerHandler

	// Cancelled on Close so running jobs abandon upstream calls
	ctx       context.Context
	cancelCtx context.CancelFunc
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	logger.Info().
		Str("risk_strategy", string(cfg.Analysis.Risk.Strategy)).
		Bool("enrichment_enabled", cfg.Enrichment.Enabled).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Str("upstream", cfg.USAspending.BaseURL).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices builds the upstream client, the analyzer and the services in dependency order
func (a *App) initServices() error {
	var err error

	a.Source = NewSource(&a.Config.USAspending, a.Logger)

	a.Analyzer, err = analytics.NewAnalyzer(a.Config.Analysis)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	a.AnalysisService = analysis.NewService(a.Analyzer, a.Source, a.StorageManager, a.Config, a.Logger)

	a.SchedulerService = scheduler.NewService(a.Logger)
	if !a.Config.Scheduler.Enabled {
		a.Logger.Debug().Msg("Scheduler disabled, snapshots refresh on demand only")
		return nil
	}

	if err := a.registerJobs(); err != nil {
		return err
	}
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return nil
}

// registerJobs registers the background maintenance jobs
func (a *App) registerJobs() error {
	jobs := []struct {
		name        string
		schedule    string
		description string
		handler     func() error
	}{
		{JobSnapshotRefresh, a.Config.Scheduler.RefreshSchedule, "Refresh the cached award snapshot from USAspending", a.refreshSnapshotJob},
		{JobHistoryPurge, historyPurgeSchedule, "Drop agency histories older than the cache TTL", a.purgeHistoryJob},
		{JobSnapshotPrune, snapshotPruneSchedule, "Delete snapshots left by earlier recipient searches", a.pruneSnapshotsJob},
		{JobStorageCompact, storageCompactSchedule, "Reclaim Badger value log space", a.StorageManager.Compact},
	}

	for _, job := range jobs {
		if err := a.SchedulerService.RegisterJob(job.name, job.schedule, job.description, job.handler); err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.name, err)
		}
	}
	return nil
}

func (a *App) refreshSnapshotJob() error {
	ctx, cancel := context.WithTimeout(a.ctx, refreshJobTimeout)
	defer cancel()

	_, err := a.AnalysisService.RefreshSnapshot(ctx)
	return err
}

func (a *App) purgeHistoryJob() error {
	ctx, cancel := context.WithTimeout(a.ctx, time.Minute)
	defer cancel()

	removed, err := a.StorageManager.AgencyHistoryStorage().PurgeOlderThan(ctx, a.Config.Enrichment.CacheTTLDuration())
	if err != nil {
		return err
	}
	a.Logger.Debug().Int("removed", removed).Msg("Purged expired agency histories")
	return nil
}

func (a *App) pruneSnapshotsJob() error {
	ctx, cancel := context.WithTimeout(a.ctx, time.Minute)
	defer cancel()

	_, err := a.AnalysisService.PruneSnapshots(ctx)
	return err
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.AnalysisService, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)
}

// NewSource builds the USAspending client from config
func NewSource(config *common.USAspendingConfig, logger arbor.ILogger) *usaspending.Client {
	return usaspending.NewClient(
		usaspending.WithBaseURL(config.BaseURL),
		usaspending.WithHTTPClient(&http.Client{Timeout: config.TimeoutDuration()}),
		usaspending.WithLogger(logger),
		usaspending.WithRateLimit(config.RateLimit),
		usaspending.WithPageSize(config.PageSize),
		usaspending.WithMaxPages(config.MaxPages),
		usaspending.WithLookbackYears(config.LookbackYears),
	)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	// Stop scheduler service
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.StorageManager = nil
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
