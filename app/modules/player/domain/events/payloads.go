package gameevents

// Position is a world coordinate attached to frag rows when the game
// reports it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ConnectData is the PLAYER_CONNECT payload. The display name and bot flag
// travel in the envelope meta.
type ConnectData struct {
	GameUserID int    `json:"gameUserId"`
	SteamID    string `json:"steamId"`
	IPAddress  string `json:"ipAddress"`
}

// DisconnectData is the PLAYER_DISCONNECT payload. PlayerID is the resolved
// persistent id when the upstream parser knew it, zero otherwise.
type DisconnectData struct {
	GameUserID int   `json:"gameUserId"`
	PlayerID   int64 `json:"playerId"`
}

// EntryData is the PLAYER_ENTRY payload. Some games emit entry without a
// prior connect, so the handler may synthesize one.
type EntryData struct {
	PlayerID   int64 `json:"playerId"`
	GameUserID int   `json:"gameUserId"`
}

// ChangeTeamData is the PLAYER_CHANGE_TEAM payload. Team is an opaque
// game-specific string.
type ChangeTeamData struct {
	PlayerID int64  `json:"playerId"`
	Team     string `json:"team"`
}

// ChangeNameData is the PLAYER_CHANGE_NAME payload.
type ChangeNameData struct {
	PlayerID int64  `json:"playerId"`
	OldName  string `json:"oldName"`
	NewName  string `json:"newName"`
}

// SuicideData is the PLAYER_SUICIDE payload.
type SuicideData struct {
	PlayerID int64  `json:"playerId"`
	Weapon   string `json:"weapon"`
	Team     string `json:"team"`
}

// DamageData is the PLAYER_DAMAGE payload.
type DamageData struct {
	AttackerID  int64  `json:"attackerId"`
	VictimID    int64  `json:"victimId"`
	Weapon      string `json:"weapon"`
	Damage      int    `json:"damage"`
	DamageArmor int    `json:"damageArmor"`
	Health      int    `json:"health"`
	Armor       int    `json:"armor"`
	Hitgroup    string `json:"hitgroup"`
}

// TeamkillData is the PLAYER_TEAMKILL payload.
type TeamkillData struct {
	KillerID int64  `json:"killerId"`
	VictimID int64  `json:"victimId"`
	Weapon   string `json:"weapon"`
	Headshot bool   `json:"headshot"`
	Team     string `json:"team"`
}

// ChatData is the PLAYER_CHAT payload. Mode distinguishes say/say_team.
type ChatData struct {
	PlayerID int64  `json:"playerId"`
	Message  string `json:"message"`
	Mode     string `json:"mode"`
}

// KillData is the PLAYER_KILL payload.
type KillData struct {
	KillerID       int64     `json:"killerId"`
	VictimID       int64     `json:"victimId"`
	Weapon         string    `json:"weapon"`
	Headshot       bool      `json:"headshot"`
	KillerTeam     string    `json:"killerTeam"`
	VictimTeam     string    `json:"victimTeam"`
	KillerPosition *Position `json:"killerPosition,omitempty"`
	VictimPosition *Position `json:"victimPosition,omitempty"`
}
