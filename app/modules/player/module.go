// Package player assembles the stat-processing module: service, handlers
// and router registrations.
package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fragstats/fragstatsd/app/eventbus"
	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	playerrouter "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/router"
	"github.com/fragstats/fragstatsd/config"
	"github.com/fragstats/fragstatsd/internal/observability"
)

// Module represents the player module.
type Module struct {
	EventBus           eventbus.EventBus
	PlayerService      playerservice.Service
	PlayerRouter       *playerrouter.PlayerRouter
	config             *config.Config
	cancelFunc         context.CancelFunc
	observability      *observability.Observability
	prometheusRegistry *prometheus.Registry
}

// NewPlayerModule creates the player module. The caller supplies the service
// collaborators through deps; the module builds the service, wraps the
// shared watermill router and registers every event handler on it.
func NewPlayerModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	deps playerservice.Deps,
	eventBus eventbus.EventBus,
	router *message.Router,
	routerCtx context.Context,
) (*Module, error) {
	logger := obs.Logger
	metrics := obs.Metrics
	tracer := obs.Tracer

	logger.InfoContext(ctx, "player.NewPlayerModule called")

	serviceCfg := playerservice.Config{
		DefaultGame:     cfg.Daemon.DefaultGame,
		ConnectWindow:   cfg.Daemon.ConnectWindow,
		FallbackPenalty: cfg.Daemon.FallbackPenalty,
	}
	playerService := playerservice.NewPlayerService(deps, serviceCfg, logger, metrics, tracer)

	playerRouter := playerrouter.NewPlayerRouter(logger, router, eventBus, eventBus, tracer, obs.Registry)
	if err := playerRouter.Configure(routerCtx, playerService, metrics); err != nil {
		return nil, fmt.Errorf("failed to configure player router: %w", err)
	}

	return &Module{
		EventBus:           eventBus,
		PlayerService:      playerService,
		PlayerRouter:       playerRouter,
		config:             cfg,
		observability:      obs,
		prometheusRegistry: obs.Registry,
	}, nil
}

// Run keeps the module alive until the context is canceled. The actual work
// happens on the shared router, which the app runs.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting player module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Player module goroutine stopped")
}

// Close stops the player module and its router registrations.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping player module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.PlayerRouter != nil {
		if err := m.PlayerRouter.Close(); err != nil {
			logger.Error("Error closing player router", "error", err)
			return fmt.Errorf("error closing player router: %w", err)
		}
	}

	logger.Info("Player module stopped")
	return nil
}
