package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns every domain counter the daemon exposes. Handler metrics
// satisfy the handlerwrapper contract; operation metrics back the service
// telemetry wrapper.
type Metrics struct {
	handlerAttempts  *prometheus.CounterVec
	handlerSuccesses *prometheus.CounterVec
	handlerFailures  *prometheus.CounterVec
	handlerDuration  *prometheus.HistogramVec

	operationAttempts  *prometheus.CounterVec
	operationSuccesses *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec

	eventsProcessed *prometheus.CounterVec
	eventsSkipped   *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec
	eventsDiscarded *prometheus.CounterVec

	geoLookups           *prometheus.CounterVec
	notificationsDropped *prometheus.CounterVec
	sessionsActive       prometheus.Gauge
	sessionsSwept        prometheus.Counter
}

// NewMetrics registers all collectors on the given registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		handlerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_handler_attempts_total",
			Help: "Messages received per handler.",
		}, []string{"handler"}),
		handlerSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_handler_successes_total",
			Help: "Messages handled without transport error per handler.",
		}, []string{"handler"}),
		handlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_handler_failures_total",
			Help: "Messages that errored per handler.",
		}, []string{"handler"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fragstatsd_handler_duration_seconds",
			Help:    "Handler execution time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),

		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_operation_attempts_total",
			Help: "Service operations started.",
		}, []string{"operation"}),
		operationSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_operation_successes_total",
			Help: "Service operations completed without error.",
		}, []string{"operation"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_operation_failures_total",
			Help: "Service operations that returned an error or panicked.",
		}, []string{"operation"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fragstatsd_operation_duration_seconds",
			Help:    "Service operation execution time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_events_processed_total",
			Help: "Events that mutated at least one record.",
		}, []string{"event_type"}),
		eventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_events_skipped_total",
			Help: "Events accepted but skipped (unresolved identity, missing stats).",
		}, []string{"event_type"}),
		eventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_events_failed_total",
			Help: "Events that ended in a business failure.",
		}, []string{"event_type"}),
		eventsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_events_discarded_total",
			Help: "Events discarded before processing (wrong tag, malformed data).",
		}, []string{"event_type"}),

		geoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_geoip_lookups_total",
			Help: "GeoIP lookups by outcome.",
		}, []string{"outcome"}),
		notificationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fragstatsd_notifications_dropped_total",
			Help: "Notifications that could not be published.",
		}, []string{"kind"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fragstatsd_sessions_active",
			Help: "Live sessions tracked in memory.",
		}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fragstatsd_sessions_swept_total",
			Help: "Idle sessions evicted by the sweep job.",
		}),
	}

	registry.MustRegister(
		m.handlerAttempts, m.handlerSuccesses, m.handlerFailures, m.handlerDuration,
		m.operationAttempts, m.operationSuccesses, m.operationFailures, m.operationDuration,
		m.eventsProcessed, m.eventsSkipped, m.eventsFailed, m.eventsDiscarded,
		m.geoLookups, m.notificationsDropped, m.sessionsActive, m.sessionsSwept,
	)
	return m
}

func (m *Metrics) RecordHandlerAttempt(handlerName string) {
	m.handlerAttempts.WithLabelValues(handlerName).Inc()
}

func (m *Metrics) RecordHandlerSuccess(handlerName string) {
	m.handlerSuccesses.WithLabelValues(handlerName).Inc()
}

func (m *Metrics) RecordHandlerFailure(handlerName string) {
	m.handlerFailures.WithLabelValues(handlerName).Inc()
}

func (m *Metrics) RecordHandlerDuration(handlerName string, seconds float64) {
	m.handlerDuration.WithLabelValues(handlerName).Observe(seconds)
}

func (m *Metrics) RecordOperationAttempt(operation string) {
	m.operationAttempts.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordOperationSuccess(operation string) {
	m.operationSuccesses.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordOperationFailure(operation string) {
	m.operationFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordOperationDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) RecordEventProcessed(eventType string) {
	m.eventsProcessed.WithLabelValues(eventType).Inc()
}

func (m *Metrics) RecordEventSkipped(eventType string) {
	m.eventsSkipped.WithLabelValues(eventType).Inc()
}

func (m *Metrics) RecordEventFailed(eventType string) {
	m.eventsFailed.WithLabelValues(eventType).Inc()
}

func (m *Metrics) RecordEventDiscarded(eventType string) {
	m.eventsDiscarded.WithLabelValues(eventType).Inc()
}

func (m *Metrics) RecordGeoLookup(outcome string) {
	m.geoLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordNotificationDropped(kind string) {
	m.notificationsDropped.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) RecordSessionsSwept(n int) {
	m.sessionsSwept.Add(float64(n))
}
