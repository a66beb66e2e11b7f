package playerservice

import (
	"context"
	"errors"
	"fmt"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

// headHitgroup is the upstream tag that counts as a headshot on damage.
const headHitgroup = "head"

// HandlePlayerDamage counts a landed shot for the attacker. No event-log
// row exists for damage; the stat update is the only write.
func (s *PlayerService) HandlePlayerDamage(ctx context.Context, event *gameevents.GameEvent) (DamageResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerDamage", event, func(ctx context.Context) (DamageResult, error) {
		var data gameevents.DamageData
		if err := event.DecodeAs(gameevents.EventPlayerDamage, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.PlayerDamagedPayload](event, err.Error()), nil
		}

		attackerID := s.resolvePlayer(ctx, data.AttackerID, event.ServerID, killerMeta(event))
		if attackerID <= 0 {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.PlayerDamagedPayload{ServerID: event.ServerID}), nil
		}

		if err := s.deps.Repo.Update(ctx, attackerID, playerdomain.DamageDelta(data.Hitgroup == headHitgroup)); err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				s.metrics.RecordEventFailed(event.EventType.String())
				return failure[gameevents.PlayerDamagedPayload](event,
					fmt.Sprintf("no stats row for player %d in damage event", attackerID)), nil
			}
			return DamageResult{}, err
		}

		payload := &gameevents.PlayerDamagedPayload{
			ServerID:   event.ServerID,
			AttackerID: attackerID,
			VictimID:   data.VictimID,
			Weapon:     data.Weapon,
			Hitgroup:   data.Hitgroup,
			Damage:     data.Damage,
			Affected:   1,
		}
		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}
