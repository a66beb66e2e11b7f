package serverdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// ServerDBImpl is the bun-backed server repository.
type ServerDBImpl struct {
	DB *bun.DB
}

func (db *ServerDBImpl) FindByID(ctx context.Context, serverID int64) (*Server, error) {
	server := &Server{}
	err := db.DB.NewSelect().Model(server).Where("id = ?", serverID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to fetch server %d: %w", serverID, err)
	}
	return server, nil
}

func (db *ServerDBImpl) GetServerGame(ctx context.Context, serverID int64) (string, error) {
	server := &Server{}
	err := db.DB.NewSelect().
		Model(server).
		Column("game").
		Where("id = ?", serverID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrServerNotFound
		}
		return "", fmt.Errorf("failed to fetch game for server %d: %w", serverID, err)
	}
	return server.Game, nil
}

func (db *ServerDBImpl) GetServerConfig(ctx context.Context, serverID int64) (*Config, error) {
	server := &Server{}
	err := db.DB.NewSelect().
		Model(server).
		Column("geoip_enabled", "ignore_bots").
		Where("id = ?", serverID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to fetch config for server %d: %w", serverID, err)
	}
	return &Config{GeoIPEnabled: server.GeoIPEnabled, IgnoreBots: server.IgnoreBots}, nil
}

func (db *ServerDBImpl) UpdateForPlayerEvent(ctx context.Context, serverID int64, delta *Delta) error {
	if delta.IsZero() {
		return nil
	}

	q := db.DB.NewUpdate().
		Model((*Server)(nil)).
		Set("updated_at = current_timestamp").
		Where("id = ?", serverID)

	if delta.ActivePlayers != 0 {
		// Disconnect storms can race the counter below zero; clamp.
		q = q.Set("active_players = GREATEST(active_players + ?, 0)", delta.ActivePlayers)
	}
	if delta.TotalKills != 0 {
		q = q.Set("total_kills = total_kills + ?", delta.TotalKills)
	}
	if delta.TotalSuicides != 0 {
		q = q.Set("total_suicides = total_suicides + ?", delta.TotalSuicides)
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update counters for server %d: %w", serverID, err)
	}
	return nil
}

var _ Repository = (*ServerDBImpl)(nil)
