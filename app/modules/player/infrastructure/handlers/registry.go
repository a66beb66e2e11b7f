package playerhandlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	"github.com/fragstats/fragstatsd/internal/handlerwrapper"
)

// Registry maps every inbound event type to its wrapped watermill handler.
// Construction walks the closed event-type set and fails when a type has no
// handler, so a missing registration surfaces at startup instead of as a
// silently dead subject.
type Registry struct {
	handlers map[gameevents.EventType]message.HandlerFunc
	order    []gameevents.EventType
}

// NewRegistry wires one handler per event type. EventPlayerChangeRole is the
// single type intentionally left out, so asking for it answers false.
func NewRegistry(
	service playerservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics handlerwrapper.Metrics,
) (*Registry, error) {
	h := NewPlayerHandlers(service)

	typed := map[gameevents.EventType]func(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error){
		gameevents.EventPlayerConnect:    h.HandlePlayerConnect,
		gameevents.EventPlayerDisconnect: h.HandlePlayerDisconnect,
		gameevents.EventPlayerEntry:      h.HandlePlayerEntry,
		gameevents.EventPlayerChangeTeam: h.HandlePlayerChangeTeam,
		gameevents.EventPlayerChangeName: h.HandlePlayerChangeName,
		gameevents.EventPlayerSuicide:    h.HandlePlayerSuicide,
		gameevents.EventPlayerDamage:     h.HandlePlayerDamage,
		gameevents.EventPlayerTeamkill:   h.HandlePlayerTeamkill,
		gameevents.EventPlayerChat:       h.HandlePlayerChat,
		gameevents.EventPlayerKill:       h.HandlePlayerKill,
	}

	r := &Registry{
		handlers: make(map[gameevents.EventType]message.HandlerFunc, len(typed)),
		order:    make([]gameevents.EventType, 0, len(typed)),
	}
	for _, eventType := range gameevents.AllEventTypes() {
		fn, ok := typed[eventType]
		if !ok {
			return nil, fmt.Errorf("no handler registered for event type %s", eventType)
		}
		r.handlers[eventType] = handlerwrapper.WrapTyped(HandlerName(eventType), logger, tracer, metrics, fn)
		r.order = append(r.order, eventType)
	}
	return r, nil
}

// HandlerName returns the watermill handler name for an event type,
// e.g. player.game.events.kill.v1.
func HandlerName(eventType gameevents.EventType) string {
	return "player." + eventType.Subject()
}

// Get returns the wrapped handler for an event type.
func (r *Registry) Get(eventType gameevents.EventType) (message.HandlerFunc, bool) {
	fn, ok := r.handlers[eventType]
	return fn, ok
}

// Has reports whether a handler exists for an event type.
func (r *Registry) Has(eventType gameevents.EventType) bool {
	_, ok := r.handlers[eventType]
	return ok
}

// Supported returns the handled event types in registration order.
func (r *Registry) Supported() []gameevents.EventType {
	out := make([]gameevents.EventType, len(r.order))
	copy(out, r.order)
	return out
}
