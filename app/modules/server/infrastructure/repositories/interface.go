package serverdb

import "context"

// Config is the per-server processing switches read by the event handlers.
type Config struct {
	GeoIPEnabled bool
	IgnoreBots   bool
}

// Delta carries additive counter changes applied after player events.
// Zero fields are skipped; ActivePlayers may be negative (disconnects).
type Delta struct {
	ActivePlayers int
	TotalKills    int64
	TotalSuicides int64
}

// IsZero reports whether applying the delta would change nothing.
func (d *Delta) IsZero() bool {
	return d == nil || (d.ActivePlayers == 0 && d.TotalKills == 0 && d.TotalSuicides == 0)
}

// Repository defines server record persistence.
//
// Error semantics:
//   - ErrServerNotFound: row does not exist (FindByID, GetServerGame, GetServerConfig)
//   - Other errors: infrastructure failures
type Repository interface {
	// FindByID retrieves a server row by primary key.
	FindByID(ctx context.Context, serverID int64) (*Server, error)

	// GetServerGame returns the game code the server runs.
	GetServerGame(ctx context.Context, serverID int64) (string, error)

	// GetServerConfig returns the processing flags for a server.
	GetServerConfig(ctx context.Context, serverID int64) (*Config, error)

	// UpdateForPlayerEvent applies additive counter changes. Unknown
	// server ids are ignored (counters for unregistered servers are not
	// worth failing an event over).
	UpdateForPlayerEvent(ctx context.Context, serverID int64, delta *Delta) error
}
