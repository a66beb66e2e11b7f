package playerservice

import (
	"context"
	"errors"
	"fmt"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
)

// HandlePlayerSuicide charges a suicide: one death, the skill penalty, a
// longer death streak and a broken kill streak. Unlike kill, a missing
// stats row is a handler failure here, not a skip.
func (s *PlayerService) HandlePlayerSuicide(ctx context.Context, event *gameevents.GameEvent) (SuicideResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerSuicide", event, func(ctx context.Context) (SuicideResult, error) {
		var data gameevents.SuicideData
		if err := event.DecodeAs(gameevents.EventPlayerSuicide, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.PlayerSuicidePayload](event, err.Error()), nil
		}

		meta := playerMeta(event)
		playerID := s.resolvePlayer(ctx, data.PlayerID, event.ServerID, meta)
		if playerID <= 0 {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.PlayerSuicidePayload{ServerID: event.ServerID}), nil
		}

		stats, err := s.deps.Repo.GetPlayerStats(ctx, playerID)
		if err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				s.metrics.RecordEventFailed(event.EventType.String())
				return failure[gameevents.PlayerSuicidePayload](event,
					fmt.Sprintf("no stats row for player %d in suicide event", playerID)), nil
			}
			return SuicideResult{}, err
		}

		penalty := s.suicidePenalty(ctx)
		at := event.At()
		if err := s.deps.Repo.Update(ctx, playerID, playerdomain.SuicideDelta(penalty, at)); err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				s.metrics.RecordEventFailed(event.EventType.String())
				return failure[gameevents.PlayerSuicidePayload](event,
					fmt.Sprintf("no stats row for player %d in suicide event", playerID)), nil
			}
			return SuicideResult{}, err
		}

		s.bestEffort(ctx, "suicide_event_row", func() error {
			return s.deps.Repo.CreateSuicideEvent(ctx, &playerdb.EventSuicide{
				ServerID: event.ServerID,
				PlayerID: playerID,
				Weapon:   data.Weapon,
				Map:      s.currentMap(event.ServerID),
			})
		})
		s.bestEffort(ctx, "server_counters", func() error {
			return s.deps.ServerRepo.UpdateForPlayerEvent(ctx, event.ServerID, &serverdb.Delta{TotalSuicides: 1})
		})

		name := actorName(meta, stats)
		if name != "" {
			s.bestEffort(ctx, "name_usage_upsert", func() error {
				return s.deps.Repo.UpsertPlayerName(ctx, playerID, name, playerdomain.NameSuicideDelta(at))
			})
		}

		payload := &gameevents.PlayerSuicidePayload{
			ServerID: event.ServerID,
			PlayerID: playerID,
			Name:     name,
			Weapon:   data.Weapon,
			Penalty:  penalty,
			Skill:    stats.EffectiveSkill() + penalty,
			Affected: 1,
		}
		if s.deps.Notifier != nil && s.deps.Notifier.IsEventTypeEnabled(gameevents.NotifySuicide) {
			s.bestEffort(ctx, "suicide_notification", func() error {
				return s.deps.Notifier.NotifySuicide(ctx, payload)
			})
		}

		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}
