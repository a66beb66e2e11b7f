//go:build integration

// Package testutils hosts the shared container environment for integration
// tests: one Postgres and one NATS container, migrated schema, and an event
// bus wired the way the daemon wires it.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	natsio "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fragstats/fragstatsd/app/eventbus"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playermigrations "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories/migrations"
	servermigrations "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories/migrations"
	"github.com/fragstats/fragstatsd/config"
	"github.com/fragstats/fragstatsd/db/bundb"
	"github.com/fragstats/fragstatsd/integration_tests/containers"
)

// appTables is every table Reset truncates between tests. Migration
// bookkeeping and river's own tables are kept.
var appTables = []string{
	"players", "player_names",
	"event_connects", "event_disconnects", "event_entries",
	"event_change_teams", "event_change_names", "event_suicides",
	"event_teamkills", "event_chats", "event_frags",
	"servers",
}

// TestEnvironment holds the containers and shared connections.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DB            *bun.DB
	DBService     *bundb.DBService
	EventBus      eventbus.EventBus
	NatsConn      *natsio.Conn
	JetStream     jetstream.JetStream
	Config        *config.Config
	T             *testing.T
}

// NewTestEnvironment starts both containers, runs every migration set and
// provisions the daemon's streams.
func NewTestEnvironment(t *testing.T) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())

	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		pgContainer.Terminate(ctx)
		cancel()
		return nil, fmt.Errorf("failed to setup nats container: %w", err)
	}

	fail := func(cause error) (*TestEnvironment, error) {
		natsContainer.Terminate(ctx)
		pgContainer.Terminate(ctx)
		cancel()
		return nil, cause
	}

	sqlDB, err := sql.Open("pgx", pgConnStr)
	if err != nil {
		return fail(fmt.Errorf("failed to open sql DB connection: %w", err))
	}

	db := bundb.BunDB(sqlDB)

	if err := runMigrations(ctx, db, pgConnStr); err != nil {
		db.Close()
		return fail(fmt.Errorf("failed to run migrations: %w", err))
	}

	dbService := bundb.NewTestDBService(db)

	natsConn, err := natsio.Connect(natsURL, natsio.Timeout(10*time.Second))
	if err != nil {
		db.Close()
		return fail(fmt.Errorf("failed to connect to NATS: %w", err))
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		db.Close()
		return fail(fmt.Errorf("failed to create JetStream context: %w", err))
	}

	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus, err := eventbus.New(ctx, eventbus.Config{URL: natsURL}, discardLogger)
	if err != nil {
		natsConn.Close()
		db.Close()
		return fail(fmt.Errorf("failed to create event bus: %w", err))
	}

	if err := eventbus.ProvisionStreams(ctx, bus); err != nil {
		bus.Close()
		natsConn.Close()
		db.Close()
		return fail(fmt.Errorf("failed to provision streams: %w", err))
	}

	cfg := &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL},
	}

	return &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		PgContainer:   pgContainer,
		NatsContainer: natsContainer,
		DB:            db,
		DBService:     dbService,
		EventBus:      bus,
		NatsConn:      natsConn,
		JetStream:     js,
		Config:        cfg,
		T:             t,
	}, nil
}

// Reset returns the environment to a blank state: tables truncated, river
// jobs deleted, both streams purged.
func (env *TestEnvironment) Reset(ctx context.Context) error {
	if err := TruncateTables(ctx, env.DB, appTables...); err != nil {
		return err
	}

	if _, err := env.DB.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("failed to clean river jobs: %w", err)
		}
	}

	for _, streamName := range []string{gameevents.GameEventStream, gameevents.NotifyStream} {
		stream, err := env.JetStream.Stream(ctx, streamName)
		if err != nil {
			return fmt.Errorf("failed to look up stream %q: %w", streamName, err)
		}
		if err := stream.Purge(ctx); err != nil {
			return fmt.Errorf("failed to purge stream %q: %w", streamName, err)
		}
	}
	return nil
}

// Cleanup tears everything down. Containers are terminated on a fresh
// context because the environment context may already be canceled.
func (env *TestEnvironment) Cleanup() {
	log.Println("Cleaning up test environment resources...")
	if env.CancelContext != nil {
		env.CancelContext()
	}
	if env.EventBus != nil {
		if err := env.EventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}
	if env.NatsConn != nil {
		env.NatsConn.Close()
	}
	if env.DB != nil {
		env.DB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
	log.Println("Test environment resources cleaned up.")
}

// TruncateTables truncates the given tables with CASCADE.
func TruncateTables(ctx context.Context, db *bun.DB, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("TRUNCATE TABLE ")
	for i, table := range tables {
		sb.WriteString(fmt.Sprintf("%q", table))
		if i < len(tables)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString(" CASCADE")

	if _, err := db.ExecContext(ctx, sb.String()); err != nil {
		return fmt.Errorf("failed to truncate tables %v: %w", tables, err)
	}
	return nil
}

// runMigrations applies river's queue tables first, then the module sets in
// the same order cmd/migrate uses.
func runMigrations(ctx context.Context, db *bun.DB, pgConnStr string) error {
	migrator := migrate.NewMigrator(db, servermigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	if err := runRiverMigrations(ctx, pgConnStr); err != nil {
		return err
	}

	orderedModules := []struct {
		name       string
		migrations *migrate.Migrations
	}{
		{"server", servermigrations.Migrations},
		{"player", playermigrations.Migrations},
	}
	for _, mod := range orderedModules {
		if err := runModuleMigrations(ctx, db, mod.migrations, mod.name); err != nil {
			return err
		}
	}
	log.Println("All migrations ran successfully")
	return nil
}

// runRiverMigrations creates river's job tables. River migrates over pgx,
// not database/sql, so this opens its own short-lived pool.
func runRiverMigrations(ctx context.Context, pgConnStr string) error {
	poolConfig, err := pgxpool.ParseConfig(pgConnStr)
	if err != nil {
		return fmt.Errorf("failed to parse DSN for river migrations: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for river migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}

	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run river migrations: %w", err)
	}
	return nil
}

func runModuleMigrations(ctx context.Context, db *bun.DB, migrations *migrate.Migrations, name string) error {
	migrator := migrate.NewMigrator(db, migrations)
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", name, err)
	}
	if group.IsZero() {
		log.Printf("No %s migrations to run", name)
	} else {
		log.Printf("Ran %s migrations group #%d", name, group.ID)
	}
	return nil
}
