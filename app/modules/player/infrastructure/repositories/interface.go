package playerdb

import (
	"context"
	"time"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
)

// Repository defines player persistence. All methods are context-aware.
//
// Error semantics:
//   - ErrPlayerNotFound: row does not exist (finders, Update)
//   - Other errors: infrastructure failures (connection, query)
//
// Event-log writes are append-only and carry no read-back contract; callers
// treat their failures as auxiliary unless a handler says otherwise.
type Repository interface {
	// Update applies an additive stat delta to one player row.
	// Returns ErrPlayerNotFound when the row does not exist.
	Update(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error

	// GetPlayerStats returns the ranking snapshot for a player.
	GetPlayerStats(ctx context.Context, playerID int64) (*playerdomain.PlayerStats, error)

	// FindByID retrieves a full player row by primary key.
	FindByID(ctx context.Context, playerID int64) (*Player, error)

	// FindByUniqueID retrieves a player by (game, unique_id).
	FindByUniqueID(ctx context.Context, game, uniqueID string) (*Player, error)

	// GetOrCreate returns the player for (game, unique_id), creating the row
	// with the display name when absent. The bool reports creation.
	GetOrCreate(ctx context.Context, game, uniqueID, name string) (*Player, bool, error)

	// UpsertPlayerName merges a usage delta into the (player, name) aggregate.
	UpsertPlayerName(ctx context.Context, playerID int64, name string, delta *playerdomain.NameDelta) error

	// HasRecentConnect reports whether a connect-event row exists for the
	// player on the server within the window.
	HasRecentConnect(ctx context.Context, serverID, playerID int64, window time.Duration) (bool, error)

	CreateConnectEvent(ctx context.Context, row *EventConnect) error
	CreateDisconnectEvent(ctx context.Context, row *EventDisconnect) error
	CreateEntryEvent(ctx context.Context, row *EventEntry) error
	CreateChangeTeamEvent(ctx context.Context, row *EventChangeTeam) error
	CreateChangeNameEvent(ctx context.Context, row *EventChangeName) error
	CreateSuicideEvent(ctx context.Context, row *EventSuicide) error
	CreateTeamkillEvent(ctx context.Context, row *EventTeamkill) error
	CreateChatEvent(ctx context.Context, row *EventChat) error

	// LogEventFrag appends one kill row.
	LogEventFrag(ctx context.Context, row *EventFrag) error
}
