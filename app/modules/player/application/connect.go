package playerservice

import (
	"context"
	"fmt"

	"github.com/fragstats/fragstatsd/app/modules/geoip"
	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/session"
)

// HandlePlayerConnect finds or creates the player row, refreshes its
// last-seen metadata, appends a deduped connect-event row, opens a session
// and hands the address to the enrichment pipeline.
func (s *PlayerService) HandlePlayerConnect(ctx context.Context, event *gameevents.GameEvent) (ConnectResult, error) {
	return withTelemetry(ctx, s, "HandlePlayerConnect", event, func(ctx context.Context) (ConnectResult, error) {
		var data gameevents.ConnectData
		if err := event.DecodeAs(gameevents.EventPlayerConnect, &data); err != nil {
			s.metrics.RecordEventDiscarded(event.EventType.String())
			return failure[gameevents.PlayerConnectedPayload](event, err.Error()), nil
		}

		meta := playerMeta(event)
		steamID := data.SteamID
		name := ""
		isBot := false
		if meta != nil {
			name = meta.PlayerName
			isBot = meta.IsBot
			if steamID == "" {
				steamID = meta.SteamID
			}
		}

		game := s.serverGame(ctx, event.ServerID)
		player, created, err := s.findOrCreatePlayer(ctx, game, event.ServerID, name, steamID, isBot)
		if err != nil {
			return ConnectResult{}, err
		}
		if player == nil {
			s.metrics.RecordEventSkipped(event.EventType.String())
			return success(&gameevents.PlayerConnectedPayload{ServerID: event.ServerID}), nil
		}

		at := event.At()
		if err := s.deps.Repo.Update(ctx, player.ID, playerdomain.ConnectDelta(name, data.IPAddress, at)); err != nil {
			return ConnectResult{}, err
		}

		// Reconnect storms within the window must not produce duplicate
		// rows or double-count the active-player gauge.
		s.bestEffort(ctx, "connect_event_row", func() error {
			recent, err := s.deps.Repo.HasRecentConnect(ctx, event.ServerID, player.ID, s.cfg.ConnectWindow)
			if err != nil || recent {
				return err
			}
			if err := s.deps.Repo.CreateConnectEvent(ctx, &playerdb.EventConnect{
				ServerID:  event.ServerID,
				PlayerID:  player.ID,
				IPAddress: data.IPAddress,
			}); err != nil {
				return err
			}
			return s.deps.ServerRepo.UpdateForPlayerEvent(ctx, event.ServerID, &serverdb.Delta{ActivePlayers: 1})
		})

		serverCfg := s.serverConfig(ctx, event.ServerID)
		if !(isBot && serverCfg.IgnoreBots) {
			err := s.deps.Sessions.Create(ctx, &session.Session{
				ServerID:    event.ServerID,
				GameUserID:  data.GameUserID,
				PlayerID:    player.ID,
				SteamID:     steamID,
				Name:        name,
				IsBot:       isBot,
				ConnectedAt: at,
			})
			if err != nil {
				return ConnectResult{}, fmt.Errorf("failed to create session: %w", err)
			}
			s.metrics.SetActiveSessions(s.deps.Sessions.Len())
		}

		if s.deps.GeoIP != nil && serverCfg.GeoIPEnabled && data.IPAddress != "" {
			s.bestEffort(ctx, "geoip_enrichment", func() error {
				return s.deps.GeoIP.RequestEnrichment(ctx, event.ServerID, []geoip.Candidate{{
					PlayerID:  player.ID,
					UniqueID:  player.UniqueID,
					IPAddress: data.IPAddress,
					IsBot:     isBot,
				}})
			})
		}

		payload := &gameevents.PlayerConnectedPayload{
			ServerID: event.ServerID,
			PlayerID: player.ID,
			Name:     name,
			SteamID:  steamID,
			IsBot:    isBot,
			Address:  data.IPAddress,
			Created:  created,
			Affected: 1,
		}
		if s.deps.Notifier != nil && s.deps.Notifier.IsEventTypeEnabled(gameevents.NotifyConnect) {
			s.bestEffort(ctx, "connect_notification", func() error {
				return s.deps.Notifier.NotifyConnect(ctx, payload)
			})
		}

		s.metrics.RecordEventProcessed(event.EventType.String())
		return success(payload), nil
	})
}
