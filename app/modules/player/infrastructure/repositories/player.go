package playerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
)

// PlayerDBImpl is the bun-backed player repository.
type PlayerDBImpl struct {
	DB *bun.DB
}

// Update renders the delta as additive SET clauses so concurrent handlers
// never clobber each other's counters.
func (db *PlayerDBImpl) Update(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error {
	if delta == nil {
		return nil
	}

	q := db.DB.NewUpdate().
		Model((*Player)(nil)).
		Set("updated_at = current_timestamp").
		Where("id = ?", playerID)

	if delta.Kills != 0 {
		q = q.Set("kills = kills + ?", delta.Kills)
	}
	if delta.Deaths != 0 {
		q = q.Set("deaths = deaths + ?", delta.Deaths)
	}
	if delta.Suicides != 0 {
		q = q.Set("suicides = suicides + ?", delta.Suicides)
	}
	if delta.Teamkills != 0 {
		q = q.Set("teamkills = teamkills + ?", delta.Teamkills)
	}
	if delta.Shots != 0 {
		q = q.Set("shots = shots + ?", delta.Shots)
	}
	if delta.Hits != 0 {
		q = q.Set("hits = hits + ?", delta.Hits)
	}
	if delta.Headshots != 0 {
		q = q.Set("headshots = headshots + ?", delta.Headshots)
	}
	if delta.SkillDelta != 0 {
		q = q.Set("skill = skill + ?", delta.SkillDelta)
	}

	switch {
	case delta.ResetKillStreak:
		q = q.Set("kill_streak = 0")
	case delta.KillStreak != 0:
		q = q.Set("kill_streak = kill_streak + ?", delta.KillStreak)
	}
	switch {
	case delta.ResetDeathStreak:
		q = q.Set("death_streak = 0")
	case delta.DeathStreak != 0:
		q = q.Set("death_streak = death_streak + ?", delta.DeathStreak)
	}

	if delta.ConnectionSeconds != 0 {
		q = q.Set("connection_time = connection_time + ?", delta.ConnectionSeconds)
	}
	if !delta.LastEvent.IsZero() {
		q = q.Set("last_event = ?", delta.LastEvent)
	}
	if delta.LastName != "" {
		q = q.Set("last_name = ?", delta.LastName)
	}
	if delta.LastAddress != "" {
		q = q.Set("last_address = ?", delta.LastAddress)
	}
	if geo := delta.Geo; geo != nil {
		q = q.Set("city = ?", geo.City).
			Set("country = ?", geo.Country).
			Set("flag = ?", geo.Flag).
			Set("lat = ?", geo.Latitude).
			Set("lng = ?", geo.Longitude)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", playerID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after player update: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (db *PlayerDBImpl) GetPlayerStats(ctx context.Context, playerID int64) (*playerdomain.PlayerStats, error) {
	player := &Player{}
	err := db.DB.NewSelect().
		Model(player).
		Column("id", "last_name", "skill", "kills", "deaths").
		Where("id = ?", playerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to fetch stats for player %d: %w", playerID, err)
	}
	return &playerdomain.PlayerStats{
		PlayerID: player.ID,
		Name:     player.LastName,
		Skill:    player.Skill,
		Kills:    player.Kills,
		Deaths:   player.Deaths,
	}, nil
}

func (db *PlayerDBImpl) FindByID(ctx context.Context, playerID int64) (*Player, error) {
	player := &Player{}
	err := db.DB.NewSelect().Model(player).Where("id = ?", playerID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to fetch player %d: %w", playerID, err)
	}
	return player, nil
}

func (db *PlayerDBImpl) FindByUniqueID(ctx context.Context, game, uniqueID string) (*Player, error) {
	player := &Player{}
	err := db.DB.NewSelect().
		Model(player).
		Where("game = ? AND unique_id = ?", game, uniqueID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to fetch player %s/%s: %w", game, uniqueID, err)
	}
	return player, nil
}

// GetOrCreate races safely via ON CONFLICT DO NOTHING: the insert either
// wins (id returned) or loses to a concurrent connect, in which case the
// existing row is read back.
func (db *PlayerDBImpl) GetOrCreate(ctx context.Context, game, uniqueID, name string) (*Player, bool, error) {
	player := &Player{
		Game:     game,
		UniqueID: uniqueID,
		LastName: name,
		Skill:    playerdomain.BaselineSkill,
	}
	_, err := db.DB.NewInsert().
		Model(player).
		On("CONFLICT (game, unique_id) DO NOTHING").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert player %s/%s: %w", game, uniqueID, err)
	}
	if player.ID != 0 {
		return player, true, nil
	}

	existing, err := db.FindByUniqueID(ctx, game, uniqueID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (db *PlayerDBImpl) UpsertPlayerName(ctx context.Context, playerID int64, name string, delta *playerdomain.NameDelta) error {
	if delta == nil {
		return nil
	}
	row := &PlayerName{
		PlayerID: playerID,
		Name:     name,
		NumUses:  int64(delta.Uses),
		Kills:    int64(delta.Kills),
		Deaths:   int64(delta.Deaths),
		Suicides: int64(delta.Suicides),
	}
	if !delta.LastUse.IsZero() {
		lastUse := delta.LastUse
		row.LastUse = &lastUse
	}

	_, err := db.DB.NewInsert().
		Model(row).
		On("CONFLICT (player_id, name) DO UPDATE").
		Set("num_uses = pn.num_uses + EXCLUDED.num_uses").
		Set("kills = pn.kills + EXCLUDED.kills").
		Set("deaths = pn.deaths + EXCLUDED.deaths").
		Set("suicides = pn.suicides + EXCLUDED.suicides").
		Set("last_use = GREATEST(COALESCE(pn.last_use, EXCLUDED.last_use), EXCLUDED.last_use)").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert name %q for player %d: %w", name, playerID, err)
	}
	return nil
}

func (db *PlayerDBImpl) HasRecentConnect(ctx context.Context, serverID, playerID int64, window time.Duration) (bool, error) {
	cutoff := time.Now().UTC().Add(-window)
	exists, err := db.DB.NewSelect().
		Model((*EventConnect)(nil)).
		Where("server_id = ? AND player_id = ? AND created_at > ?", serverID, playerID, cutoff).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check recent connect for player %d on server %d: %w", playerID, serverID, err)
	}
	return exists, nil
}

var _ Repository = (*PlayerDBImpl)(nil)
