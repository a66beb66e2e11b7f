package playerservice

import (
	"context"
	"errors"
	"fmt"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/session"
	"github.com/fragstats/fragstatsd/internal/attr"
)

// HandlePlayerDisconnect closes the actor's session and accumulates the
// connection time. Events whose session cannot be found by any identity are
// skipped; disconnects for players that never connected are routine.
func (s *PlayerService) HandlePlayerDisconnect(ctx context.Context, event *gameevents.GameEvent) (DisconnectResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerDisconnect", event, func(ctx context.Context) (DisconnectResult, error) {
		var data gameevents.DisconnectData
		if err := event.DecodeAs(gameevents.EventPlayerDisconnect, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.PlayerDisconnectedPayload](event, err.Error()), nil
		}

		meta := playerMeta(event)
		sess := s.findDisconnectSession(ctx, event.ServerID, data, meta)
		if sess == nil {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.PlayerDisconnectedPayload{ServerID: event.ServerID}), nil
		}

		at := event.At()
		duration := sess.Duration(at)
		if err := s.deps.Repo.Update(ctx, sess.PlayerID, playerdomain.DisconnectDelta(duration, at)); err != nil {
			if errors.Is(err, playerdb.ErrPlayerNotFound) {
				// Row vanished under a live session; drop the session so the
				// slot does not leak, then skip.
				s.logger.WarnContext(ctx, "Disconnect for a missing player row",
					attr.ExtractCorrelationID(ctx),
					attr.PlayerID(sess.PlayerID),
					attr.ServerID(event.ServerID),
				)
				_ = s.deps.Sessions.Remove(ctx, sess.ServerID, sess.GameUserID)
				s.metrics.SetActiveSessions(s.deps.Sessions.Len())
				s.metrics.RecordEventSkipped(event.EventType.String())
				return success(&gameevents.PlayerDisconnectedPayload{ServerID: event.ServerID}), nil
			}
			return DisconnectResult{}, err
		}

		if err := s.deps.Sessions.Remove(ctx, sess.ServerID, sess.GameUserID); err != nil {
			return DisconnectResult{}, fmt.Errorf("failed to remove session: %w", err)
		}
		s.metrics.SetActiveSessions(s.deps.Sessions.Len())

		if s.deps.Match != nil {
			s.deps.Match.ClearPlayer(event.ServerID, sess.PlayerID)
		}

		s.bestEffort(ctx, "disconnect_event_row", func() error {
			return s.deps.Repo.CreateDisconnectEvent(ctx, &playerdb.EventDisconnect{
				ServerID:       event.ServerID,
				PlayerID:       sess.PlayerID,
				SessionSeconds: duration,
			})
		})
		s.bestEffort(ctx, "server_counters", func() error {
			return s.deps.ServerRepo.UpdateForPlayerEvent(ctx, event.ServerID, &serverdb.Delta{ActivePlayers: -1})
		})

		payload := &gameevents.PlayerDisconnectedPayload{
			ServerID:       event.ServerID,
			PlayerID:       sess.PlayerID,
			Name:           sess.Name,
			SessionSeconds: duration,
			Affected:       1,
		}
		if s.deps.Notifier != nil && s.deps.Notifier.IsEventTypeEnabled(gameevents.NotifyDisconnect) {
			s.bestEffort(ctx, "disconnect_notification", func() error {
				return s.deps.Notifier.NotifyDisconnect(ctx, payload)
			})
		}

		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}

// findDisconnectSession tries every identity the event carries, in
// reliability order: slot id, steam id, then a player id resolved from the
// payload or the bot-name heuristic.
func (s *PlayerService) findDisconnectSession(ctx context.Context, serverID int64, data gameevents.DisconnectData, meta *gameevents.PlayerMeta) *session.Session {
	if sess, err := s.deps.Sessions.GetByGameUserID(ctx, serverID, data.GameUserID); err == nil {
		return sess
	}
	if meta != nil && meta.SteamID != "" {
		if sess, err := s.deps.Sessions.GetBySteamID(ctx, serverID, meta.SteamID); err == nil {
			return sess
		}
	}
	if playerID := s.resolvePlayer(ctx, data.PlayerID, serverID, meta); playerID > 0 {
		if sess, err := s.deps.Sessions.GetByPlayerID(ctx, serverID, playerID); err == nil {
			return sess
		}
	}
	return nil
}
