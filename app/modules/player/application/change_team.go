package playerservice

import (
	"context"
	"errors"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

// HandlePlayerChangeTeam touches the player row and records the team in the
// match state. The team value is an opaque game string, never validated.
func (s *PlayerService) HandlePlayerChangeTeam(ctx context.Context, event *gameevents.GameEvent) (ChangeTeamResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerChangeTeam", event, func(ctx context.Context) (ChangeTeamResult, error) {
		var data gameevents.ChangeTeamData
		if err := event.DecodeAs(gameevents.EventPlayerChangeTeam, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.TeamChangedPayload](event, err.Error()), nil
		}

		playerID := s.resolvePlayer(ctx, data.PlayerID, event.ServerID, playerMeta(event))
		if playerID <= 0 {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.TeamChangedPayload{ServerID: event.ServerID}), nil
		}

		at := event.At()
		if err := s.deps.Repo.Update(ctx, playerID, playerdomain.TouchDelta(at)); err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				s.metrics.RecordEventSkipped(event.EventType.String())
				return success(&gameevents.TeamChangedPayload{ServerID: event.ServerID, PlayerID: playerID}), nil
			}
			return ChangeTeamResult{}, err
		}

		if s.deps.Match != nil {
			s.deps.Match.SetPlayerTeam(event.ServerID, playerID, data.Team)
		}

		s.bestEffort(ctx, "change_team_event_row", func() error {
			return s.deps.Repo.CreateChangeTeamEvent(ctx, &playerdb.EventChangeTeam{
				ServerID: event.ServerID,
				PlayerID: playerID,
				Team:     data.Team,
			})
		})

		payload := &gameevents.TeamChangedPayload{
			ServerID: event.ServerID,
			PlayerID: playerID,
			Team:     data.Team,
			Affected: 1,
		}
		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}
