package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/clients/redis"
	"github.com/yungbote/cytorepo-backend/internal/data/db"
	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	apphttp "github.com/yungbote/cytorepo-backend/internal/http"
	httpMW "github.com/yungbote/cytorepo-backend/internal/http/middleware"
	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Repos    repos.Set
	Services Services
	Server   *apphttp.Server
	Metrics  *observability.Metrics

	store        *db.PostgresService
	bus          redis.EventBus
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(serviceName, cfg.Environment))
	metrics := observability.Init(log)

	store, err := db.NewPostgresService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init job store: %w", err)
	}
	if err := db.Prepare(store.DB()); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("prepare job store: %w", err)
	}

	blobs, err := blobstore.New(ctx, cfg.Storage, log)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("init event store: %w", err)
	}
	log.Info("event store ready", "mode", cfg.Storage.Mode, "mode_source", cfg.Storage.ModeSource())

	var (
		bus      redis.EventBus
		notifier services.Notifier = services.NopNotifier{}
	)
	if cfg.Redis.Addr != "" {
		bus, err = redis.NewEventBus(ctx, log, cfg.Redis)
		if err != nil {
			_ = store.Close()
			log.Sync()
			return nil, fmt.Errorf("init event bus: %w", err)
		}
		notifier = services.NewNotifier(log, bus, metrics)
	} else {
		log.Warn("REDIS_ADDR not set; lifecycle events are not published")
	}

	set := repos.NewSet(store.DB(), log)
	aggs := wireAggregates(store.DB(), cfg.DB.LockTimeout, log, set, blobs, metrics)
	svcs := wireServices(log, cfg, set, aggs, blobs, notifier, metrics)
	hs := wireHandlers(log, svcs, pingDB(store.DB()))

	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:                   log,
		Metrics:               metrics,
		ServiceName:           serviceName,
		TracingEnabled:        otelShutdown != nil,
		CORSOrigins:           cfg.CORSOrigins,
		AuthMiddleware:        httpMW.NewAuthMiddleware(log, svcs.Auth),
		ProcessRequestHandler: hs.ProcessRequest,
		AssignmentHandler:     hs.Assignment,
		ResultsHandler:        hs.Results,
		ClusterLabelHandler:   hs.ClusterLabel,
		WorkerHandler:         hs.Worker,
		CatalogHandler:        hs.Catalog,
		HealthHandler:         hs.Health,
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           store.DB(),
		Repos:        set,
		Services:     svcs,
		Server:       server,
		Metrics:      metrics,
		store:        store,
		bus:          bus,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and the background loops until ctx is done or one of them
// fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
	a.Metrics.StartDBCollector(gctx, a.Log, a.DB)
	if a.Cfg.Redis.Addr != "" {
		a.Metrics.StartRedisCollector(gctx, a.Log, a.Cfg.Redis.Addr)
	}

	g.Go(func() error {
		a.Log.Info("http server listening", "addr", a.Cfg.Addr())
		return a.Server.Run(gctx, a.Cfg.Addr())
	})
	g.Go(func() error {
		return a.Metrics.RunQueueCollector(gctx, a.Log, statusLabels(), queueCounter(a.Repos.ProcessRequest))
	})
	if a.Services.LeaseSweeper.Enabled() {
		g.Go(func() error { return a.Services.LeaseSweeper.Run(gctx) })
	} else {
		a.Log.Info("lease sweeper disabled", "hint", "set LEASE_TIMEOUT to enable")
	}
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("close job store", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func statusLabels() []string {
	return []string{
		string(processing.StatusPending),
		string(processing.StatusWorking),
		string(processing.StatusError),
		string(processing.StatusCompleted),
	}
}
