package playerservice

import (
	"context"

	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

// HandlePlayerChat logs one chat line. The chat-event row is the only write
// and the critical one; there is no stats mutation to protect it behind.
func (s *PlayerService) HandlePlayerChat(ctx context.Context, event *gameevents.GameEvent) (ChatResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerChat", event, func(ctx context.Context) (ChatResult, error) {
		var data gameevents.ChatData
		if err := event.DecodeAs(gameevents.EventPlayerChat, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.ChatLoggedPayload](event, err.Error()), nil
		}

		playerID := s.resolvePlayer(ctx, data.PlayerID, event.ServerID, playerMeta(event))
		if playerID <= 0 {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.ChatLoggedPayload{ServerID: event.ServerID}), nil
		}

		if err := s.deps.Repo.CreateChatEvent(ctx, &playerdb.EventChat{
			ServerID: event.ServerID,
			PlayerID: playerID,
			Mode:     data.Mode,
			Message:  data.Message,
		}); err != nil {
			return ChatResult{}, err
		}

		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(&gameevents.ChatLoggedPayload{
			ServerID: event.ServerID,
			PlayerID: playerID,
			Mode:     data.Mode,
			Affected: 1,
		}), nil
	})
}
