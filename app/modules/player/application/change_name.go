package playerservice

import (
	"context"
	"errors"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

// HandlePlayerChangeName updates the stored display name and the per-name
// usage aggregate. The row update is critical; the usage upsert and the
// event-log row degrade to warnings.
func (s *PlayerService) HandlePlayerChangeName(ctx context.Context, event *gameevents.GameEvent) (ChangeNameResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerChangeName", event, func(ctx context.Context) (ChangeNameResult, error) {
		var data gameevents.ChangeNameData
		if err := event.DecodeAs(gameevents.EventPlayerChangeName, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.NameChangedPayload](event, err.Error()), nil
		}

		playerID := s.resolvePlayer(ctx, data.PlayerID, event.ServerID, playerMeta(event))
		if playerID <= 0 {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.NameChangedPayload{ServerID: event.ServerID}), nil
		}

		at := event.At()
		if err := s.deps.Repo.Update(ctx, playerID, playerdomain.NameChangeDelta(data.NewName, at)); err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				s.metrics.RecordEventSkipped(event.EventType.String())
				return success(&gameevents.NameChangedPayload{ServerID: event.ServerID, PlayerID: playerID}), nil
			}
			return ChangeNameResult{}, err
		}

		if data.NewName != "" {
			s.bestEffort(ctx, "name_usage_upsert", func() error {
				return s.deps.Repo.UpsertPlayerName(ctx, playerID, data.NewName, playerdomain.NameUseDelta(at))
			})
		}
		s.bestEffort(ctx, "change_name_event_row", func() error {
			return s.deps.Repo.CreateChangeNameEvent(ctx, &playerdb.EventChangeName{
				ServerID: event.ServerID,
				PlayerID: playerID,
				OldName:  data.OldName,
				NewName:  data.NewName,
			})
		})

		payload := &gameevents.NameChangedPayload{
			ServerID: event.ServerID,
			PlayerID: playerID,
			OldName:  data.OldName,
			NewName:  data.NewName,
			Affected: 1,
		}
		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}
