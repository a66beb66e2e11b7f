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
		fmt.Println("Creating players and player_names tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS players (
				id BIGSERIAL PRIMARY KEY,
				game VARCHAR(32) NOT NULL,
				unique_id VARCHAR(64) NOT NULL,
				last_name VARCHAR(128),
				kills BIGINT NOT NULL DEFAULT 0,
				deaths BIGINT NOT NULL DEFAULT 0,
				suicides BIGINT NOT NULL DEFAULT 0,
				teamkills BIGINT NOT NULL DEFAULT 0,
				shots BIGINT NOT NULL DEFAULT 0,
				hits BIGINT NOT NULL DEFAULT 0,
				headshots BIGINT NOT NULL DEFAULT 0,
				skill INT NOT NULL DEFAULT 1000,
				kill_streak INT NOT NULL DEFAULT 0,
				death_streak INT NOT NULL DEFAULT 0,
				connection_time BIGINT NOT NULL DEFAULT 0,
				last_event TIMESTAMPTZ,
				city VARCHAR(128),
				country VARCHAR(128),
				flag VARCHAR(16),
				lat DOUBLE PRECISION,
				lng DOUBLE PRECISION,
				last_address VARCHAR(64),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(game, unique_id)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create players table: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS player_names (
				player_id BIGINT NOT NULL REFERENCES players (id) ON DELETE CASCADE,
				name VARCHAR(128) NOT NULL,
				num_uses BIGINT NOT NULL DEFAULT 0,
				kills BIGINT NOT NULL DEFAULT 0,
				deaths BIGINT NOT NULL DEFAULT 0,
				suicides BIGINT NOT NULL DEFAULT 0,
				last_use TIMESTAMPTZ,
				PRIMARY KEY (player_id, name)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create player_names table: %w", err)
		}

		fmt.Println("Players and player_names tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping players and player_names tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS player_names;
			DROP TABLE IF EXISTS players;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop player tables: %w", err)
		}

		fmt.Println("Players and player_names tables dropped successfully!")
		return nil
	})
}
