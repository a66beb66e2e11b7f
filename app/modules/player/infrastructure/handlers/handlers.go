// Package playerhandlers adapts the player service to watermill handlers.
// Handlers produce no outbound messages: outcomes are logged and counted by
// the service, and notifications leave through the notify publisher.
package playerhandlers

import (
	"context"

	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	"github.com/fragstats/fragstatsd/internal/handlerwrapper"
	"github.com/fragstats/fragstatsd/internal/results"
)

// PlayerHandlers implements one typed handler per inbound event type.
type PlayerHandlers struct {
	service playerservice.Service
}

// NewPlayerHandlers creates a new PlayerHandlers instance.
func NewPlayerHandlers(service playerservice.Service) *PlayerHandlers {
	return &PlayerHandlers{service: service}
}

// done forwards infrastructure errors to the transport for redelivery and
// swallows the operation result, which the service has already reported.
func done[S any](_ results.OperationResult[S, gameevents.EventProcessingFailedPayload], err error) ([]handlerwrapper.Result, error) {
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *PlayerHandlers) HandlePlayerConnect(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerConnect(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerDisconnect(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerDisconnect(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerEntry(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerEntry(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerChangeTeam(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerChangeTeam(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerChangeName(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerChangeName(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerSuicide(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerSuicide(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerDamage(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerDamage(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerTeamkill(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerTeamkill(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerChat(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerChat(ctx, event))
}

func (h *PlayerHandlers) HandlePlayerKill(ctx context.Context, event *gameevents.GameEvent) ([]handlerwrapper.Result, error) {
	return done(h.service.HandlePlayerKill(ctx, event))
}
