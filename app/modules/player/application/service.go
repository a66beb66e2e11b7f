package playerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fragstats/fragstatsd/app/modules/geoip"
	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/ranking"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/session"
	"github.com/fragstats/fragstatsd/internal/attr"
	"github.com/fragstats/fragstatsd/internal/results"
)

// TeamTracker records team assignments in the per-server match state.
type TeamTracker interface {
	SetPlayerTeam(serverID, playerID int64, team string)
	ClearPlayer(serverID, playerID int64)
}

// MapLookup reports the current map for event-log enrichment.
type MapLookup interface {
	CurrentMap(serverID int64) string
}

// GeoEnricher feeds connect candidates into the enrichment pipeline.
type GeoEnricher interface {
	RequestEnrichment(ctx context.Context, serverID int64, candidates []geoip.Candidate) error
}

// Notifier publishes informational event notifications. Implementations
// must treat delivery as best-effort; the service never fails an event over
// a notification.
type Notifier interface {
	IsEventTypeEnabled(kind gameevents.NotificationKind) bool
	NotifyConnect(ctx context.Context, payload *gameevents.PlayerConnectedPayload) error
	NotifyDisconnect(ctx context.Context, payload *gameevents.PlayerDisconnectedPayload) error
	NotifySuicide(ctx context.Context, payload *gameevents.PlayerSuicidePayload) error
	NotifyTeamkill(ctx context.Context, payload *gameevents.PlayerTeamkilledPayload) error
	NotifyKill(ctx context.Context, payload *gameevents.PlayerKilledPayload) error
}

// OperationMetrics is the observability slice the service records.
type OperationMetrics interface {
	RecordOperationAttempt(operation string)
	RecordOperationSuccess(operation string)
	RecordOperationFailure(operation string)
	RecordOperationDuration(operation string, seconds float64)
	RecordEventProcessed(eventType string)
	RecordEventSkipped(eventType string)
	RecordEventFailed(eventType string)
	RecordEventDiscarded(eventType string)
	SetActiveSessions(n int)
}

// Deps carries the service collaborators. Repo, ServerRepo and Sessions are
// required; the nil-able fields degrade the related behavior instead of
// failing events (no ranking => fallback penalties, no match state => empty
// map and team columns, no geoip/notifier => those side effects are skipped).
type Deps struct {
	Repo       playerdb.Repository
	ServerRepo serverdb.Repository
	Sessions   session.Store

	Ranking  ranking.Engine
	Match    TeamTracker
	Maps     MapLookup
	GeoIP    GeoEnricher
	Notifier Notifier
}

// Config tunes the event-processing policies.
type Config struct {
	// DefaultGame is used when the server record is unknown.
	DefaultGame string
	// ConnectWindow bounds the connect-event dedup check.
	ConnectWindow time.Duration
	// FallbackPenalty applies to suicides and teamkills when no ranking
	// engine is configured.
	FallbackPenalty int
}

const (
	defaultGame            = "cstrike"
	defaultConnectWindow   = 120 * time.Second
	defaultFallbackPenalty = -5
)

func (c Config) withDefaults() Config {
	if c.DefaultGame == "" {
		c.DefaultGame = defaultGame
	}
	if c.ConnectWindow <= 0 {
		c.ConnectWindow = defaultConnectWindow
	}
	if c.FallbackPenalty == 0 {
		c.FallbackPenalty = defaultFallbackPenalty
	}
	return c
}

// PlayerService implements the Service interface.
type PlayerService struct {
	deps    Deps
	cfg     Config
	logger  *slog.Logger
	metrics OperationMetrics
	tracer  trace.Tracer
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(deps Deps, cfg Config, logger *slog.Logger, metrics OperationMetrics, tracer trace.Tracer) *PlayerService {
	return &PlayerService{
		deps:    deps,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery. Free function because methods cannot carry type parameters.
func withTelemetry[S any](
	ctx context.Context,
	s *PlayerService,
	operationName string,
	event *gameevents.GameEvent,
	op func(ctx context.Context) (results.OperationResult[S, gameevents.EventProcessingFailedPayload], error),
) (result results.OperationResult[S, gameevents.EventProcessingFailedPayload], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("event_type", event.EventType.String()),
		attribute.Int64("server_id", event.ServerID),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(operationName, time.Since(startTime).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.EventType(event.EventType.String()),
				attr.ServerID(event.ServerID),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(operationName)
			span.RecordError(err)
			result = results.OperationResult[S, gameevents.EventProcessingFailedPayload]{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.EventType(event.EventType.String()),
			attr.ServerID(event.ServerID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.Failure != nil {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.EventType(event.EventType.String()),
			attr.ServerID(event.ServerID),
			attr.String("reason", result.Failure.Reason),
		)
	}

	s.metrics.RecordOperationSuccess(operationName)
	return result, nil
}

// success wraps an operation success payload.
func success[S any](payload *S) results.OperationResult[S, gameevents.EventProcessingFailedPayload] {
	return results.SuccessResult[S, gameevents.EventProcessingFailedPayload](payload)
}

// failure builds the uniform business failure result for an event.
func failure[S any](event *gameevents.GameEvent, reason string) results.OperationResult[S, gameevents.EventProcessingFailedPayload] {
	return results.FailureResult[S](&gameevents.EventProcessingFailedPayload{
		EventType: event.EventType,
		ServerID:  event.ServerID,
		Reason:    reason,
	})
}

// bestEffort runs an auxiliary side effect, logging failure at Warn and
// never propagating it.
func (s *PlayerService) bestEffort(ctx context.Context, sideEffect string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.WarnContext(ctx, "Auxiliary side effect failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("side_effect", sideEffect),
			attr.Error(err),
		)
	}
}

// serverGame returns the game code a server runs, falling back to the
// configured default when the server is unregistered.
func (s *PlayerService) serverGame(ctx context.Context, serverID int64) string {
	game, err := s.deps.ServerRepo.GetServerGame(ctx, serverID)
	if err != nil {
		if !errors.Is(err, serverdb.ErrServerNotFound) {
			s.logger.WarnContext(ctx, "Server game lookup failed",
				attr.ExtractCorrelationID(ctx),
				attr.ServerID(serverID),
				attr.Error(err),
			)
		}
		return s.cfg.DefaultGame
	}
	return game
}

// serverConfig returns the processing flags, defaulting to geoip on and
// bots ignored when the server is unregistered.
func (s *PlayerService) serverConfig(ctx context.Context, serverID int64) *serverdb.Config {
	cfg, err := s.deps.ServerRepo.GetServerConfig(ctx, serverID)
	if err != nil {
		if !errors.Is(err, serverdb.ErrServerNotFound) {
			s.logger.WarnContext(ctx, "Server config lookup failed",
				attr.ExtractCorrelationID(ctx),
				attr.ServerID(serverID),
				attr.Error(err),
			)
		}
		return &serverdb.Config{GeoIPEnabled: true, IgnoreBots: true}
	}
	return cfg
}

// suicidePenalty asks the engine, or falls back to the fixed penalty when
// no engine is wired (degraded mode).
func (s *PlayerService) suicidePenalty(ctx context.Context) int {
	if s.deps.Ranking == nil {
		s.logger.WarnContext(ctx, "No ranking engine configured, applying fallback penalty",
			attr.ExtractCorrelationID(ctx),
			attr.Int("penalty", s.cfg.FallbackPenalty),
		)
		return s.cfg.FallbackPenalty
	}
	return s.deps.Ranking.SuicidePenalty()
}

// teamkillPenalty mirrors suicidePenalty for team kills.
func (s *PlayerService) teamkillPenalty(ctx context.Context) int {
	if s.deps.Ranking == nil {
		s.logger.WarnContext(ctx, "No ranking engine configured, applying fallback penalty",
			attr.ExtractCorrelationID(ctx),
			attr.Int("penalty", s.cfg.FallbackPenalty),
		)
		return s.cfg.FallbackPenalty
	}
	return s.deps.Ranking.TeamkillPenalty()
}

// currentMap reads the match state when wired, empty otherwise.
func (s *PlayerService) currentMap(serverID int64) string {
	if s.deps.Maps == nil {
		return ""
	}
	return s.deps.Maps.CurrentMap(serverID)
}

// playerMeta returns the single-actor identity hints, when present.
func playerMeta(event *gameevents.GameEvent) *gameevents.PlayerMeta {
	if event.Meta == nil {
		return nil
	}
	return event.Meta.Player
}

// killerMeta returns the attacker-side hints of a dual-actor event,
// falling back to the single-actor slot.
func killerMeta(event *gameevents.GameEvent) *gameevents.PlayerMeta {
	if event.Meta == nil {
		return nil
	}
	if event.Meta.Killer != nil {
		return event.Meta.Killer
	}
	return event.Meta.Player
}

// victimMeta returns the victim-side hints of a dual-actor event.
func victimMeta(event *gameevents.GameEvent) *gameevents.PlayerMeta {
	if event.Meta == nil {
		return nil
	}
	return event.Meta.Victim
}

// actorName prefers the name the feed reported over the stored last name.
func actorName(meta *gameevents.PlayerMeta, stats *playerdomain.PlayerStats) string {
	if meta != nil && meta.PlayerName != "" {
		return meta.PlayerName
	}
	if stats != nil {
		return stats.Name
	}
	return ""
}
