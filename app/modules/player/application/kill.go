package playerservice

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/ranking"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/internal/attr"
)

// HandlePlayerKill settles a kill: killer gains, victim loses, streaks move,
// and one frag row is appended. A missing stats row for either actor skips
// the event instead of failing it; kills involving ghost sessions are common
// enough that the feed is not trusted here the way suicide and damage trust
// it.
func (s *PlayerService) HandlePlayerKill(ctx context.Context, event *gameevents.GameEvent) (KillResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerKill", event, func(ctx context.Context) (KillResult, error) {
		var data gameevents.KillData
		if err := event.DecodeAs(gameevents.EventPlayerKill, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.PlayerKilledPayload](event, err.Error()), nil
		}

		killerID := s.resolvePlayer(ctx, data.KillerID, event.ServerID, killerMeta(event))
		victimID := s.resolvePlayer(ctx, data.VictimID, event.ServerID, victimMeta(event))
		if killerID <= 0 || victimID <= 0 {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.PlayerKilledPayload{ServerID: event.ServerID}), nil
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
				s.metrics.RecordEventSkipped(event.EventType.String())
				s.logger.InfoContext(ctx, "Kill skipped, stats row missing for an actor",
					attr.ExtractCorrelationID(ctx),
					attr.ServerID(event.ServerID),
					attr.Int64("killer_id", killerID),
					attr.Int64("victim_id", victimID),
				)
				return success(&gameevents.PlayerKilledPayload{ServerID: event.ServerID}), nil
			}
			return KillResult{}, err
		}

		adjustment := s.killAdjustment(ctx, killerStats, victimStats, ranking.KillContext{
			Weapon:   data.Weapon,
			Headshot: data.Headshot,
		})
		at := event.At()
		mapName := s.currentMap(event.ServerID)

		killerX, killerY, killerZ := positionColumns(data.KillerPosition)
		victimX, victimY, victimZ := positionColumns(data.VictimPosition)

		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.deps.Repo.Update(gctx, killerID, playerdomain.KillerDelta(adjustment.KillerChange, data.Headshot, at))
		})
		g.Go(func() error {
			return s.deps.Repo.Update(gctx, victimID, playerdomain.KillVictimDelta(adjustment.VictimChange, at))
		})
		g.Go(func() error {
			return s.deps.Repo.LogEventFrag(gctx, &playerdb.EventFrag{
				ServerID:   event.ServerID,
				KillerID:   killerID,
				VictimID:   victimID,
				Weapon:     data.Weapon,
				Headshot:   data.Headshot,
				Map:        mapName,
				KillerRole: data.KillerTeam,
				VictimRole: data.VictimTeam,
				KillerX:    killerX,
				KillerY:    killerY,
				KillerZ:    killerZ,
				VictimX:    victimX,
				VictimY:    victimY,
				VictimZ:    victimZ,
			})
		})
		if err := g.Wait(); err != nil {
			return KillResult{}, err
		}

		s.bestEffort(ctx, "server_counters", func() error {
			return s.deps.ServerRepo.UpdateForPlayerEvent(ctx, event.ServerID, &serverdb.Delta{TotalKills: 1})
		})

		killerName := actorName(killerMeta(event), killerStats)
		victimName := actorName(victimMeta(event), victimStats)
		if killerName != "" {
			s.bestEffort(ctx, "name_usage_upsert", func() error {
				return s.deps.Repo.UpsertPlayerName(ctx, killerID, killerName, playerdomain.NameKillDelta(at))
			})
		}
		if victimName != "" {
			s.bestEffort(ctx, "name_usage_upsert", func() error {
				return s.deps.Repo.UpsertPlayerName(ctx, victimID, victimName, playerdomain.NameDeathDelta(at))
			})
		}

		payload := &gameevents.PlayerKilledPayload{
			ServerID:    event.ServerID,
			KillerID:    killerID,
			KillerName:  killerName,
			KillerSkill: killerStats.EffectiveSkill() + adjustment.KillerChange,
			VictimID:    victimID,
			VictimName:  victimName,
			VictimSkill: victimStats.EffectiveSkill() + adjustment.VictimChange,
			Weapon:      data.Weapon,
			Headshot:    data.Headshot,
			Affected:    2,
		}
		if s.deps.Notifier != nil && s.deps.Notifier.IsEventTypeEnabled(gameevents.NotifyKill) {
			s.bestEffort(ctx, "kill_notification", func() error {
				return s.deps.Notifier.NotifyKill(ctx, payload)
			})
		}

		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}

// killAdjustment asks the engine for the rating movement, or leaves both
// ratings untouched when no engine is wired (degraded mode).
func (s *PlayerService) killAdjustment(ctx context.Context, killer, victim *playerdomain.PlayerStats, kill ranking.KillContext) ranking.Adjustment {
	if s.deps.Ranking == nil {
		s.logger.WarnContext(ctx, "No ranking engine configured, skill unchanged for kill",
			attr.ExtractCorrelationID(ctx),
		)
		return ranking.Adjustment{}
	}
	return s.deps.Ranking.CalculateSkillAdjustment(killer, victim, kill)
}

// positionColumns flattens an optional world position into nullable columns.
func positionColumns(p *gameevents.Position) (x, y, z *float64) {
	if p == nil {
		return nil, nil, nil
	}
	return &p.X, &p.Y, &p.Z
}
