package servermigrations

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
		fmt.Println("Creating servers table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS servers (
				id BIGSERIAL PRIMARY KEY,
				game VARCHAR(32) NOT NULL,
				name VARCHAR(255),
				address VARCHAR(64),
				port INT,
				active_players INT NOT NULL DEFAULT 0,
				total_kills BIGINT NOT NULL DEFAULT 0,
				total_suicides BIGINT NOT NULL DEFAULT 0,
				geoip_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				ignore_bots BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create servers table: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS servers_game_idx ON servers (game);
		`)
		if err != nil {
			return fmt.Errorf("failed to create servers game index: %w", err)
		}

		fmt.Println("Servers table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping servers table...")

		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS servers;`)
		if err != nil {
			return fmt.Errorf("failed to drop servers table: %w", err)
		}

		fmt.Println("Servers table dropped successfully!")
		return nil
	})
}
