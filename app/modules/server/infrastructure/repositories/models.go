package serverdb

import (
	"time"

	"github.com/uptrace/bun"
)

// Server is a registered game server. Rows are provisioned out of band
// (ops tooling); the daemon only reads config flags and bumps counters.
type Server struct {
	bun.BaseModel `bun:"table:servers,alias:sv"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Game          string    `bun:"game,notnull,type:varchar(32)"`
	Name          string    `bun:"name,nullzero,type:varchar(255)"`
	Address       string    `bun:"address,nullzero,type:varchar(64)"`
	Port          int       `bun:"port,nullzero"`
	ActivePlayers int       `bun:"active_players,notnull,default:0"`
	TotalKills    int64     `bun:"total_kills,notnull,default:0"`
	TotalSuicides int64     `bun:"total_suicides,notnull,default:0"`
	GeoIPEnabled  bool      `bun:"geoip_enabled,notnull,default:true"`
	IgnoreBots    bool      `bun:"ignore_bots,notnull,default:true"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
