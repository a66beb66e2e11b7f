// Package app wires the daemon together: storage, event bus, the player
// module on a shared watermill router, the geo enrichment service and the
// ops HTTP server, with ordered startup and shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/fragstats/fragstatsd/app/eventbus"
	"github.com/fragstats/fragstatsd/app/modules/geoip"
	"github.com/fragstats/fragstatsd/app/modules/match"
	"github.com/fragstats/fragstatsd/app/modules/notify"
	"github.com/fragstats/fragstatsd/app/modules/player"
	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	"github.com/fragstats/fragstatsd/app/modules/ranking"
	"github.com/fragstats/fragstatsd/app/modules/session"
	"github.com/fragstats/fragstatsd/config"
	"github.com/fragstats/fragstatsd/db/bundb"
	"github.com/fragstats/fragstatsd/internal/attr"
	"github.com/fragstats/fragstatsd/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// App holds the assembled daemon.
type App struct {
	Config          *config.Config
	Observability   *observability.Observability
	DB              *bundb.DBService
	EventBus        eventbus.EventBus
	WatermillRouter *message.Router
	PlayerModule    *player.Module
	GeoService      *geoip.Service
	Notifier        *notify.Publisher
	Sessions        *session.InMemoryStore

	opsServer  *observability.OpsServer
	cancelFunc context.CancelFunc
}

// NewApp initializes every component in dependency order. Components opened
// before a failure are closed again, so a non-nil error leaves nothing
// running.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.Init(observability.Config{
		ServiceName: "fragstatsd",
		Environment: cfg.Observability.Environment,
		Debug:       cfg.Observability.Debug,
	})
	logger := obs.Logger

	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	bus, err := eventbus.New(ctx, eventbus.Config{
		URL:          cfg.NATS.URL,
		NKeySeedFile: cfg.NATS.NKeySeedFile,
	}, logger)
	if err != nil {
		closeQuietly(logger, "database", dbService.Close)
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	if err := eventbus.ProvisionStreams(ctx, bus); err != nil {
		closeQuietly(logger, "event bus", bus.Close)
		closeQuietly(logger, "database", dbService.Close)
		return nil, fmt.Errorf("failed to provision streams: %w", err)
	}

	sessions := session.NewInMemoryStore()

	geoService, err := geoip.NewService(ctx, logger, cfg.Postgres.DSN,
		dbService.PlayerDB, dbService.ServerDB, sessions, obs.Metrics,
		geoip.Config{
			Client: geoip.ClientConfig{
				Endpoint:          cfg.GeoIP.Endpoint,
				Timeout:           cfg.GeoIP.Timeout,
				RequestsPerSecond: cfg.GeoIP.RequestsPerSecond,
			},
			CacheTTL:      cfg.GeoIP.CacheTTL,
			BatchSize:     cfg.GeoIP.BatchSize,
			DefaultGame:   cfg.Daemon.DefaultGame,
			SessionMaxAge: cfg.Daemon.SessionMaxAge,
			SweepInterval: cfg.Daemon.SweepInterval,
		})
	if err != nil {
		closeQuietly(logger, "event bus", bus.Close)
		closeQuietly(logger, "database", dbService.Close)
		return nil, fmt.Errorf("failed to initialize geo enrichment service: %w", err)
	}

	stopGeo := func() error { return geoService.Stop(ctx) }

	notifier, err := notify.NewPublisher(bus, logger, obs.Metrics, cfg.Notify.Events)
	if err != nil {
		closeQuietly(logger, "geo service", stopGeo)
		closeQuietly(logger, "event bus", bus.Close)
		closeQuietly(logger, "database", dbService.Close)
		return nil, fmt.Errorf("failed to initialize notification publisher: %w", err)
	}

	watermillRouter, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		closeQuietly(logger, "geo service", stopGeo)
		closeQuietly(logger, "event bus", bus.Close)
		closeQuietly(logger, "database", dbService.Close)
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	matchState := match.NewInMemoryState()
	engine := ranking.NewEloEngine(ranking.Config{})

	deps := playerservice.Deps{
		Repo:       dbService.PlayerDB,
		ServerRepo: dbService.ServerDB,
		Sessions:   sessions,
		Ranking:    engine,
		Match:      matchState,
		Maps:       matchState,
		GeoIP:      geoService,
		Notifier:   notifier,
	}

	playerModule, err := player.NewPlayerModule(ctx, cfg, obs, deps, bus, watermillRouter, ctx)
	if err != nil {
		closeQuietly(logger, "watermill router", watermillRouter.Close)
		closeQuietly(logger, "geo service", stopGeo)
		closeQuietly(logger, "event bus", bus.Close)
		closeQuietly(logger, "database", dbService.Close)
		return nil, fmt.Errorf("failed to initialize player module: %w", err)
	}

	var opsServer *observability.OpsServer
	if cfg.Observability.MetricsAddress != "" {
		opsServer = observability.NewOpsServer(cfg.Observability.MetricsAddress, obs.Registry, logger,
			map[string]observability.HealthCheck{
				"database": dbService.Ping,
				"eventbus": bus.HealthCheck,
			})
	}

	logger.InfoContext(ctx, "Application initialized",
		attr.String("environment", cfg.Observability.Environment),
		attr.String("default_game", cfg.Daemon.DefaultGame),
	)

	return &App{
		Config:          cfg,
		Observability:   obs,
		DB:              dbService,
		EventBus:        bus,
		WatermillRouter: watermillRouter,
		PlayerModule:    playerModule,
		GeoService:      geoService,
		Notifier:        notifier,
		Sessions:        sessions,
		opsServer:       opsServer,
	}, nil
}

// Run starts the components and blocks until the context is canceled or the
// router dies. It always shuts the app down before returning.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	runCtx, cancel := context.WithCancel(ctx)
	app.cancelFunc = cancel
	defer cancel()

	if err := app.GeoService.Start(runCtx); err != nil {
		closeErr := app.Close()
		return errors.Join(fmt.Errorf("failed to start geo enrichment service: %w", err), closeErr)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go app.PlayerModule.Run(runCtx, &wg)

	if app.opsServer != nil {
		go func() {
			if err := app.opsServer.Start(); err != nil {
				logger.Error("Ops server stopped with error", attr.Error(err))
			}
		}()
	}

	routerErrors := make(chan error, 1)
	go func() {
		routerErrors <- app.WatermillRouter.Run(runCtx)
	}()

	select {
	case <-app.WatermillRouter.Running():
		logger.InfoContext(runCtx, "Event router running")
	case err := <-routerErrors:
		cancel()
		wg.Wait()
		closeErr := app.Close()
		if err == nil {
			err = errors.New("router stopped before running")
		}
		return errors.Join(fmt.Errorf("event router failed to start: %w", err), closeErr)
	}

	logger.InfoContext(runCtx, "fragstatsd running")

	var runErr error
	select {
	case <-runCtx.Done():
		logger.Info("Shutdown requested")
	case err := <-routerErrors:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event router stopped unexpectedly", attr.Error(err))
			runErr = fmt.Errorf("event router stopped: %w", err)
		}
	}

	cancel()
	wg.Wait()

	return errors.Join(runErr, app.Close())
}

// Close shuts components down in reverse dependency order: ops server,
// player module (router registrations), geo service, bus, database.
func (app *App) Close() error {
	logger := app.Observability.Logger
	logger.Info("Shutting down fragstatsd")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if app.opsServer != nil {
		if err := app.opsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down ops server", attr.Error(err))
			errs = append(errs, fmt.Errorf("ops server shutdown: %w", err))
		}
	}

	if app.PlayerModule != nil {
		if err := app.PlayerModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("player module close: %w", err))
		}
	}

	if app.GeoService != nil {
		if err := app.GeoService.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping geo enrichment service", attr.Error(err))
			errs = append(errs, fmt.Errorf("geo service stop: %w", err))
		}
	}

	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus close: %w", err))
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("fragstatsd shut down cleanly")
	return nil
}

// closeQuietly releases a component during setup rollback, logging instead
// of propagating so the original error stays primary.
func closeQuietly(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("Error closing component during setup rollback",
			attr.String("component", name),
			attr.Error(err),
		)
	}
}
