// Package bundb owns the shared bun database handle and hands each module
// its repository implementation.
package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
)

// DBService bundles the module repositories over one connection pool.
type DBService struct {
	PlayerDB *playerdb.PlayerDBImpl
	ServerDB *serverdb.ServerDBImpl
	db       *bun.DB
}

// GetDB returns the underlying database handle.
func (dbService *DBService) GetDB() *bun.DB {
	return dbService.db
}

// BunDB wraps an existing sql handle in a bun.DB with the daemon's models
// registered. Integration tests build their handle from a container DSN.
func BunDB(sqldb *sql.DB) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel(
		(*playerdb.Player)(nil),
		(*playerdb.PlayerName)(nil),
		(*playerdb.EventConnect)(nil),
		(*playerdb.EventDisconnect)(nil),
		(*playerdb.EventEntry)(nil),
		(*playerdb.EventChangeTeam)(nil),
		(*playerdb.EventChangeName)(nil),
		(*playerdb.EventSuicide)(nil),
		(*playerdb.EventTeamkill)(nil),
		(*playerdb.EventChat)(nil),
		(*playerdb.EventFrag)(nil),
		(*serverdb.Server)(nil),
	)
	return db
}

// NewBunDBService connects to Postgres and wires the repositories.
func NewBunDBService(ctx context.Context, dsn string) (*DBService, error) {
	sqldb, err := pgConn(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newDBService(BunDB(sqldb)), nil
}

// NewTestDBService wires the repositories over a caller-owned handle.
func NewTestDBService(db *bun.DB) *DBService {
	return newDBService(db)
}

func newDBService(db *bun.DB) *DBService {
	return &DBService{
		PlayerDB: &playerdb.PlayerDBImpl{DB: db},
		ServerDB: &serverdb.ServerDBImpl{DB: db},
		db:       db,
	}
}

// Ping verifies the pool is still reachable, for health checks.
func (dbService *DBService) Ping(ctx context.Context) error {
	return dbService.db.PingContext(ctx)
}

// Close releases the connection pool.
func (dbService *DBService) Close() error {
	return dbService.db.Close()
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
