// Package playerrouter subscribes the player handlers to their game event
// subjects on the watermill router.
package playerrouter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/fragstats/fragstatsd/app/eventbus"
	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	playerhandlers "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/handlers"
	"github.com/fragstats/fragstatsd/internal/attr"
	"github.com/fragstats/fragstatsd/internal/handlerwrapper"
)

const (
	// TestEnvironmentFlag is the env var checked to detect a test run.
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// PlayerRouter owns the handler registrations for the player module.
type PlayerRouter struct {
	logger             *slog.Logger
	Router             *message.Router
	subscriber         eventbus.EventBus
	publisher          eventbus.EventBus
	tracer             trace.Tracer
	metricsBuilder     *metrics.PrometheusMetricsBuilder
	prometheusRegistry *prometheus.Registry
	metricsEnabled     bool
}

// NewPlayerRouter creates a new PlayerRouter. Router-level prometheus
// metrics are skipped when no registry is given or APP_ENV=test, so tests
// never register collectors twice.
func NewPlayerRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	prometheusRegistry *prometheus.Registry,
) *PlayerRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}

	return &PlayerRouter{
		logger:             logger,
		Router:             router,
		subscriber:         subscriber,
		publisher:          publisher,
		tracer:             tracer,
		metricsBuilder:     metricsBuilder,
		prometheusRegistry: prometheusRegistry,
		metricsEnabled:     prometheusRegistry != nil && !inTestEnv,
	}
}

// Configure adds middleware and registers one handler per supported event
// type. The publish topic stays empty: player handlers produce no outbound
// messages, so the publisher is plumbing the router never exercises.
func (r *PlayerRouter) Configure(ctx context.Context, service playerservice.Service, handlerMetrics handlerwrapper.Metrics) error {
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.logger.InfoContext(ctx, "Adding Prometheus router metrics middleware for Player")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3}.Middleware,
	)

	registry, err := playerhandlers.NewRegistry(service, r.logger, r.tracer, handlerMetrics)
	if err != nil {
		return fmt.Errorf("failed to build handler registry: %w", err)
	}

	for _, eventType := range registry.Supported() {
		handlerFunc, ok := registry.Get(eventType)
		if !ok {
			return fmt.Errorf("handler registry has no entry for %s", eventType)
		}

		r.Router.AddHandler(
			playerhandlers.HandlerName(eventType),
			eventType.Subject(),
			r.subscriber,
			"", // no publish topic, handlers return nothing to forward
			r.publisher,
			handlerFunc,
		)
	}

	r.logger.InfoContext(ctx, "Player handlers registered",
		attr.Int("handlers", len(registry.Supported())),
	)
	return nil
}

// Close stops the router and the decorated subscribers added via AddHandler.
func (r *PlayerRouter) Close() error {
	return r.Router.Close()
}
