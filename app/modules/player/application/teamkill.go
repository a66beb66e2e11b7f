package playerservice

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

// HandlePlayerTeamkill punishes the killer and charges the victim's death.
// Both stats rows must exist. The two updates and the event-log row run
// concurrently and succeed or fail as one batch.
func (s *PlayerService) HandlePlayerTeamkill(ctx context.Context, event *gameevents.GameEvent) (TeamkillResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerTeamkill", event, func(ctx context.Context) (TeamkillResult, error) {
		var data gameevents.TeamkillData
		if err := event.DecodeAs(gameevents.EventPlayerTeamkill, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.PlayerTeamkilledPayload](event, err.Error()), nil
		}

		killerID := s.resolvePlayer(ctx, data.KillerID, event.ServerID, killerMeta(event))
		victimID := s.resolvePlayer(ctx, data.VictimID, event.ServerID, victimMeta(event))
		if killerID <= 0 || victimID <= 0 {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.PlayerTeamkilledPayload{ServerID: event.ServerID}), nil
		}

		var killerStats, victimStats *playerdomain.PlayerStats
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			killerStats, err = s.deps.Repo.GetPlayerStats(gctx, killerID)
			return err
		})
		g.Go(func() error {
			var err error
			victimStats, err = s.deps.Repo.GetPlayerStats(gctx, victimID)
			return err
		})
		if err := g.Wait(); err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				s.metrics.RecordEventFailed(event.EventType.String())
				return failure[gameevents.PlayerTeamkilledPayload](event,
					"missing stats row for an actor in teamkill event"), nil
			}
			return TeamkillResult{}, err
		}

		penalty := s.teamkillPenalty(ctx)
		at := event.At()
		mapName := s.currentMap(event.ServerID)

		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.deps.Repo.Update(gctx, killerID, playerdomain.TeamkillerDelta(penalty, data.Headshot, at))
		})
		g.Go(func() error {
			return s.deps.Repo.Update(gctx, victimID, playerdomain.TeamkillVictimDelta(at))
		})
		g.Go(func() error {
			return s.deps.Repo.CreateTeamkillEvent(gctx, &playerdb.EventTeamkill{
				ServerID: event.ServerID,
				KillerID: killerID,
				VictimID: victimID,
				Weapon:   data.Weapon,
				Headshot: data.Headshot,
				Map:      mapName,
			})
		})
		if err := g.Wait(); err != nil {
			return TeamkillResult{}, err
		}

		payload := &gameevents.PlayerTeamkilledPayload{
			ServerID:   event.ServerID,
			KillerID:   killerID,
			KillerName: actorName(killerMeta(event), killerStats),
			VictimID:   victimID,
			VictimName: actorName(victimMeta(event), victimStats),
			Weapon:     data.Weapon,
			Penalty:    penalty,
			Affected:   2,
		}
		if s.deps.Notifier != nil && s.deps.Notifier.IsEventTypeEnabled(gameevents.NotifyTeamkill) {
			s.bestEffort(ctx, "teamkill_notification", func() error {
				return s.deps.Notifier.NotifyTeamkill(ctx, payload)
			})
		}

		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}
