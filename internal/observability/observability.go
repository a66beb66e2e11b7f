// Package observability bundles the logger, tracer, prometheus registry and
// domain metrics handed to every module, plus the ops HTTP server.
package observability

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config selects the service identity and log verbosity.
type Config struct {
	ServiceName string
	Environment string
	Debug       bool
}

// Observability is the shared observability bundle.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
	Metrics  *Metrics
}

// Init builds the bundle. The tracer comes from the global otel provider so
// a collector can be wired externally without touching call sites.
func Init(cfg Config) *Observability {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("service", cfg.ServiceName), slog.String("env", cfg.Environment))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(cfg.ServiceName),
		Registry: registry,
		Metrics:  NewMetrics(registry),
	}
}
