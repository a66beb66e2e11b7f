package playermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating event log tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS event_connects (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				ip_address VARCHAR(64),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS event_connects_recent_idx
				ON event_connects (server_id, player_id, created_at);

			CREATE TABLE IF NOT EXISTS event_disconnects (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				session_seconds BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS event_entries (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS event_change_teams (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				team VARCHAR(32),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS event_change_names (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				old_name VARCHAR(128),
				new_name VARCHAR(128),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS event_suicides (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				weapon VARCHAR(64),
				map VARCHAR(64),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS event_teamkills (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				killer_id BIGINT NOT NULL,
				victim_id BIGINT NOT NULL,
				weapon VARCHAR(64),
				headshot BOOLEAN NOT NULL DEFAULT FALSE,
				map VARCHAR(64),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS event_chats (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				player_id BIGINT NOT NULL,
				mode VARCHAR(16),
				message TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS event_frags (
				id BIGSERIAL PRIMARY KEY,
				server_id BIGINT NOT NULL,
				killer_id BIGINT NOT NULL,
				victim_id BIGINT NOT NULL,
				weapon VARCHAR(64),
				headshot BOOLEAN NOT NULL DEFAULT FALSE,
				map VARCHAR(64),
				killer_role VARCHAR(32),
				victim_role VARCHAR(32),
				killer_x DOUBLE PRECISION,
				killer_y DOUBLE PRECISION,
				killer_z DOUBLE PRECISION,
				victim_x DOUBLE PRECISION,
				victim_y DOUBLE PRECISION,
				victim_z DOUBLE PRECISION,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS event_frags_server_idx
				ON event_frags (server_id, created_at);
		`)
		if err != nil {
			return fmt.Errorf("failed to create event log tables: %w", err)
		}

		fmt.Println("Event log tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping event log tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS event_frags;
			DROP TABLE IF EXISTS event_chats;
			DROP TABLE IF EXISTS event_teamkills;
			DROP TABLE IF EXISTS event_suicides;
			DROP TABLE IF EXISTS event_change_names;
			DROP TABLE IF EXISTS event_change_teams;
			DROP TABLE IF EXISTS event_entries;
			DROP TABLE IF EXISTS event_disconnects;
			DROP TABLE IF EXISTS event_connects;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop event log tables: %w", err)
		}

		fmt.Println("Event log tables dropped successfully!")
		return nil
	})
}
