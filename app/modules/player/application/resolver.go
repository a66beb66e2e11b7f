package playerservice

import (
	"context"
	"errors"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/internal/attr"
)

// resolvePlayer maps a raw id plus identity hints to a persistent player
// id. Zero means unresolved and the caller skips the event. Slot ids for
// bots and some disconnect/entry notifications are unreliable upstream, so
// failed lookups degrade to zero instead of erroring.
func (s *PlayerService) resolvePlayer(ctx context.Context, rawID, serverID int64, meta *gameevents.PlayerMeta) int64 {
	if rawID > 0 {
		return rawID
	}
	if meta == nil {
		return 0
	}

	game := s.serverGame(ctx, serverID)

	if meta.IsBot && meta.PlayerName != "" {
		for _, uniqueID := range []string{
			playerdomain.BotUniqueID(serverID, meta.PlayerName),
			playerdomain.LegacyBotUniqueID(meta.PlayerName),
		} {
			if uniqueID == "" {
				continue
			}
			if id := s.lookupByUniqueID(ctx, game, uniqueID); id > 0 {
				return id
			}
		}
		// Bot steam ids are shared placeholders, never identifying.
		return 0
	}

	if meta.SteamID != "" {
		return s.lookupByUniqueID(ctx, game, meta.SteamID)
	}
	return 0
}

func (s *PlayerService) lookupByUniqueID(ctx context.Context, game, uniqueID string) int64 {
	player, err := s.deps.Repo.FindByUniqueID(ctx, game, uniqueID)
	if err != nil {
		if !errors.Is(err, playerdb.ErrPlayerNotFound) {
			s.logger.WarnContext(ctx, "Player lookup failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("unique_id", uniqueID),
				attr.String("game", game),
				attr.Error(err),
			)
		}
		return 0
	}
	return player.ID
}

// findOrCreatePlayer resolves the persistent row for a connecting identity,
// creating it on first sight. Bots synthesize a server-scoped unique id
// from the normalized display name, with a legacy un-scoped fallback for
// rows written by older deployments; humans use the Steam ID. Returns nil
// when the event carries no usable identity.
func (s *PlayerService) findOrCreatePlayer(ctx context.Context, game string, serverID int64, name, steamID string, isBot bool) (*playerdb.Player, bool, error) {
	var candidates []string
	if isBot {
		if id := playerdomain.BotUniqueID(serverID, name); id != "" {
			candidates = append(candidates, id)
		}
		if id := playerdomain.LegacyBotUniqueID(name); id != "" {
			candidates = append(candidates, id)
		}
	} else if steamID != "" {
		candidates = append(candidates, steamID)
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}

	for _, uniqueID := range candidates {
		player, err := s.deps.Repo.FindByUniqueID(ctx, game, uniqueID)
		if err == nil {
			return player, false, nil
		}
		if !errors.Is(err, playerdb.ErrPlayerNotFound) {
			return nil, false, err
		}
	}

	return s.deps.Repo.GetOrCreate(ctx, game, candidates[0], name)
}
