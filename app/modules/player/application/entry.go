package playerservice

import (
	"context"
	"errors"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
)

// HandlePlayerEntry touches the player row and synthesizes a connect when
// none was seen recently. Some games only emit "entered game" for actors
// that never connect explicitly.
func (s *PlayerService) HandlePlayerEntry(ctx context.Context, event *gameevents.GameEvent) (EntryResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerEntry", event, func(ctx context.Context) (EntryResult, error) {
		var data gameevents.EntryData
		if err := event.DecodeAs(gameevents.EventPlayerEntry, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.PlayerEnteredPayload](event, err.Error()), nil
		}

		meta := playerMeta(event)
		playerID := data.PlayerID
		if playerID <= 0 {
			if meta == nil {
				s.metrics.RecordEventFailed(event.EventType.String())
				return failure[gameevents.PlayerEnteredPayload](event, "No playerId in PLAYER_ENTRY event"), nil
			}
			playerID = s.resolvePlayer(ctx, 0, event.ServerID, meta)
			if playerID <= 0 {
				s.metrics.RecordEventSkipped(event.EventType.String())
				return success(&gameevents.PlayerEnteredPayload{ServerID: event.ServerID}), nil
			}
		}

		at := event.At()
		if err := s.deps.Repo.Update(ctx, playerID, playerdomain.TouchDelta(at)); err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				s.metrics.RecordEventSkipped(event.EventType.String())
				return success(&gameevents.PlayerEnteredPayload{ServerID: event.ServerID, PlayerID: playerID}), nil
			}
			return EntryResult{}, err
		}

		s.bestEffort(ctx, "entry_event_row", func() error {
			return s.deps.Repo.CreateEntryEvent(ctx, &playerdb.EventEntry{
				ServerID: event.ServerID,
				PlayerID: playerID,
			})
		})

		// Actors that never emit a connect still need the connect-event
		// trail and the active-player count; both writes succeed or fail as
		// one unit.
		synthesized := false
		s.bestEffort(ctx, "synthesized_connect", func() error {
			recent, err := s.deps.Repo.HasRecentConnect(ctx, event.ServerID, playerID, s.cfg.ConnectWindow)
			if err != nil || recent {
				return err
			}
			if err := s.deps.Repo.CreateConnectEvent(ctx, &playerdb.EventConnect{
				ServerID: event.ServerID,
				PlayerID: playerID,
			}); err != nil {
				return err
			}
			synthesized = true
			return s.deps.ServerRepo.UpdateForPlayerEvent(ctx, event.ServerID, &serverdb.Delta{ActivePlayers: 1})
		})

		payload := &gameevents.PlayerEnteredPayload{
			ServerID:           event.ServerID,
			PlayerID:           playerID,
			SynthesizedConnect: synthesized,
			Affected:           1,
		}
		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}
