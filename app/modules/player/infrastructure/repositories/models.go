package playerdb

import (
	"time"

	"github.com/uptrace/bun"
)

// Player is the persistent stats row, one per (game, unique_id). All
// counters are cumulative; geo columns are patched by the enrichment
// pipeline only.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Game     string `bun:"game,notnull,type:varchar(32)"`
	UniqueID string `bun:"unique_id,notnull,type:varchar(64)"`
	LastName string `bun:"last_name,nullzero,type:varchar(128)"`

	Kills     int64 `bun:"kills,notnull,default:0"`
	Deaths    int64 `bun:"deaths,notnull,default:0"`
	Suicides  int64 `bun:"suicides,notnull,default:0"`
	Teamkills int64 `bun:"teamkills,notnull,default:0"`
	Shots     int64 `bun:"shots,notnull,default:0"`
	Hits      int64 `bun:"hits,notnull,default:0"`
	Headshots int64 `bun:"headshots,notnull,default:0"`

	Skill       int `bun:"skill,notnull,default:1000"`
	KillStreak  int `bun:"kill_streak,notnull,default:0"`
	DeathStreak int `bun:"death_streak,notnull,default:0"`

	// ConnectionTime accumulates whole seconds across sessions.
	ConnectionTime int64      `bun:"connection_time,notnull,default:0"`
	LastEvent      *time.Time `bun:"last_event,nullzero"`

	City        string  `bun:"city,nullzero,type:varchar(128)"`
	Country     string  `bun:"country,nullzero,type:varchar(128)"`
	Flag        string  `bun:"flag,nullzero,type:varchar(16)"`
	Latitude    float64 `bun:"lat,nullzero"`
	Longitude   float64 `bun:"lng,nullzero"`
	LastAddress string  `bun:"last_address,nullzero,type:varchar(64)"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PlayerName aggregates usage of one display name by one player.
type PlayerName struct {
	bun.BaseModel `bun:"table:player_names,alias:pn"`

	PlayerID int64      `bun:"player_id,pk"`
	Name     string     `bun:"name,pk,type:varchar(128)"`
	NumUses  int64      `bun:"num_uses,notnull,default:0"`
	Kills    int64      `bun:"kills,notnull,default:0"`
	Deaths   int64      `bun:"deaths,notnull,default:0"`
	Suicides int64      `bun:"suicides,notnull,default:0"`
	LastUse  *time.Time `bun:"last_use,nullzero"`
}

// EventConnect is an append-only connect-event row. HasRecentConnect reads
// it to dedup reconnect storms.
type EventConnect struct {
	bun.BaseModel `bun:"table:event_connects,alias:ec"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ServerID  int64     `bun:"server_id,notnull"`
	PlayerID  int64     `bun:"player_id,notnull"`
	IPAddress string    `bun:"ip_address,nullzero,type:varchar(64)"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type EventDisconnect struct {
	bun.BaseModel `bun:"table:event_disconnects,alias:ed"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ServerID       int64     `bun:"server_id,notnull"`
	PlayerID       int64     `bun:"player_id,notnull"`
	SessionSeconds int64     `bun:"session_seconds,notnull,default:0"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type EventEntry struct {
	bun.BaseModel `bun:"table:event_entries,alias:ee"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ServerID  int64     `bun:"server_id,notnull"`
	PlayerID  int64     `bun:"player_id,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type EventChangeTeam struct {
	bun.BaseModel `bun:"table:event_change_teams,alias:ect"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ServerID  int64     `bun:"server_id,notnull"`
	PlayerID  int64     `bun:"player_id,notnull"`
	Team      string    `bun:"team,nullzero,type:varchar(32)"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type EventChangeName struct {
	bun.BaseModel `bun:"table:event_change_names,alias:ecn"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ServerID  int64     `bun:"server_id,notnull"`
	PlayerID  int64     `bun:"player_id,notnull"`
	OldName   string    `bun:"old_name,nullzero,type:varchar(128)"`
	NewName   string    `bun:"new_name,nullzero,type:varchar(128)"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type EventSuicide struct {
	bun.BaseModel `bun:"table:event_suicides,alias:es"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ServerID  int64     `bun:"server_id,notnull"`
	PlayerID  int64     `bun:"player_id,notnull"`
	Weapon    string    `bun:"weapon,nullzero,type:varchar(64)"`
	Map       string    `bun:"map,nullzero,type:varchar(64)"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type EventTeamkill struct {
	bun.BaseModel `bun:"table:event_teamkills,alias:etk"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ServerID  int64     `bun:"server_id,notnull"`
	KillerID  int64     `bun:"killer_id,notnull"`
	VictimID  int64     `bun:"victim_id,notnull"`
	Weapon    string    `bun:"weapon,nullzero,type:varchar(64)"`
	Headshot  bool      `bun:"headshot,notnull,default:false"`
	Map       string    `bun:"map,nullzero,type:varchar(64)"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type EventChat struct {
	bun.BaseModel `bun:"table:event_chats,alias:ech"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ServerID  int64     `bun:"server_id,notnull"`
	PlayerID  int64     `bun:"player_id,notnull"`
	Mode      string    `bun:"mode,nullzero,type:varchar(16)"`
	Message   string    `bun:"message,nullzero,type:text"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// EventFrag records one kill with optional team roles and world positions.
type EventFrag struct {
	bun.BaseModel `bun:"table:event_frags,alias:ef"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ServerID   int64     `bun:"server_id,notnull"`
	KillerID   int64     `bun:"killer_id,notnull"`
	VictimID   int64     `bun:"victim_id,notnull"`
	Weapon     string    `bun:"weapon,nullzero,type:varchar(64)"`
	Headshot   bool      `bun:"headshot,notnull,default:false"`
	Map        string    `bun:"map,nullzero,type:varchar(64)"`
	KillerRole string    `bun:"killer_role,nullzero,type:varchar(32)"`
	VictimRole string    `bun:"victim_role,nullzero,type:varchar(32)"`
	KillerX    *float64  `bun:"killer_x,nullzero"`
	KillerY    *float64  `bun:"killer_y,nullzero"`
	KillerZ    *float64  `bun:"killer_z,nullzero"`
	VictimX    *float64  `bun:"victim_x,nullzero"`
	VictimY    *float64  `bun:"victim_y,nullzero"`
	VictimZ    *float64  `bun:"victim_z,nullzero"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
