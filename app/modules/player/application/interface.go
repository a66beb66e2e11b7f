package playerservice

import (
	"context"

	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	"github.com/fragstats/fragstatsd/internal/results"
)

// Result aliases keep the operation signatures readable. Every operation
// shares the failure payload; success payloads are per event type.
type (
	ConnectResult    = results.OperationResult[gameevents.PlayerConnectedPayload, gameevents.EventProcessingFailedPayload]
	DisconnectResult = results.OperationResult[gameevents.PlayerDisconnectedPayload, gameevents.EventProcessingFailedPayload]
	EntryResult      = results.OperationResult[gameevents.PlayerEnteredPayload, gameevents.EventProcessingFailedPayload]
	ChangeTeamResult = results.OperationResult[gameevents.TeamChangedPayload, gameevents.EventProcessingFailedPayload]
	ChangeNameResult = results.OperationResult[gameevents.NameChangedPayload, gameevents.EventProcessingFailedPayload]
	SuicideResult    = results.OperationResult[gameevents.PlayerSuicidePayload, gameevents.EventProcessingFailedPayload]
	DamageResult     = results.OperationResult[gameevents.PlayerDamagedPayload, gameevents.EventProcessingFailedPayload]
	TeamkillResult   = results.OperationResult[gameevents.PlayerTeamkilledPayload, gameevents.EventProcessingFailedPayload]
	ChatResult       = results.OperationResult[gameevents.ChatLoggedPayload, gameevents.EventProcessingFailedPayload]
	KillResult       = results.OperationResult[gameevents.PlayerKilledPayload, gameevents.EventProcessingFailedPayload]
)

// Service processes inbound game events.
//
// Outcome semantics, uniform across operations:
//   - Success with Affected > 0: the event mutated records.
//   - Success with Affected == 0: the event was accepted but skipped
//     (unresolved identity, missing sessions, ghost actors on kill).
//   - Failure payload, nil error: business failure; logged and counted,
//     never redelivered.
//   - Non-nil error: infrastructure failure; the transport redelivers.
type Service interface {
	HandlePlayerConnect(ctx context.Context, event *gameevents.GameEvent) (ConnectResult, error)
	HandlePlayerDisconnect(ctx context.Context, event *gameevents.GameEvent) (DisconnectResult, error)
	HandlePlayerEntry(ctx context.Context, event *gameevents.GameEvent) (EntryResult, error)
	HandlePlayerChangeTeam(ctx context.Context, event *gameevents.GameEvent) (ChangeTeamResult, error)
	HandlePlayerChangeName(ctx context.Context, event *gameevents.GameEvent) (ChangeNameResult, error)
	HandlePlayerSuicide(ctx context.Context, event *gameevents.GameEvent) (SuicideResult, error)
	HandlePlayerDamage(ctx context.Context, event *gameevents.GameEvent) (DamageResult, error)
	HandlePlayerTeamkill(ctx context.Context, event *gameevents.GameEvent) (TeamkillResult, error)
	HandlePlayerChat(ctx context.Context, event *gameevents.GameEvent) (ChatResult, error)
	HandlePlayerKill(ctx context.Context, event *gameevents.GameEvent) (KillResult, error)
}

var _ Service = (*PlayerService)(nil)
