package gameevents

// EventProcessingFailedPayload is the uniform business failure payload.
// It is logged and counted, never redelivered.
type EventProcessingFailedPayload struct {
	EventType EventType `json:"eventType"`
	ServerID  int64     `json:"serverId"`
	Reason    string    `json:"reason"`
}

// PlayerConnectedPayload reports a processed connect. It doubles as the
// connect notification body.
type PlayerConnectedPayload struct {
	ServerID int64  `json:"serverId"`
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
	SteamID  string `json:"steamId"`
	IsBot    bool   `json:"isBot"`
	Address  string `json:"address,omitempty"`
	Created  bool   `json:"created"`
	Affected int    `json:"affected"`
}

// PlayerDisconnectedPayload reports a processed disconnect.
type PlayerDisconnectedPayload struct {
	ServerID       int64  `json:"serverId"`
	PlayerID       int64  `json:"playerId"`
	Name           string `json:"name,omitempty"`
	SessionSeconds int64  `json:"sessionSeconds"`
	Affected       int    `json:"affected"`
}

// PlayerEnteredPayload reports a processed game entry.
type PlayerEnteredPayload struct {
	ServerID           int64 `json:"serverId"`
	PlayerID           int64 `json:"playerId"`
	SynthesizedConnect bool  `json:"synthesizedConnect"`
	Affected           int   `json:"affected"`
}

// TeamChangedPayload reports a processed team change.
type TeamChangedPayload struct {
	ServerID int64  `json:"serverId"`
	PlayerID int64  `json:"playerId"`
	Team     string `json:"team"`
	Affected int    `json:"affected"`
}

// NameChangedPayload reports a processed name change.
type NameChangedPayload struct {
	ServerID int64  `json:"serverId"`
	PlayerID int64  `json:"playerId"`
	OldName  string `json:"oldName"`
	NewName  string `json:"newName"`
	Affected int    `json:"affected"`
}

// PlayerSuicidePayload reports a processed suicide. Skill is the rating
// after the penalty was applied.
type PlayerSuicidePayload struct {
	ServerID int64  `json:"serverId"`
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name,omitempty"`
	Weapon   string `json:"weapon,omitempty"`
	Penalty  int    `json:"penalty"`
	Skill    int    `json:"skill"`
	Affected int    `json:"affected"`
}

// PlayerDamagedPayload reports a processed damage event.
type PlayerDamagedPayload struct {
	ServerID   int64  `json:"serverId"`
	AttackerID int64  `json:"attackerId"`
	VictimID   int64  `json:"victimId"`
	Weapon     string `json:"weapon,omitempty"`
	Hitgroup   string `json:"hitgroup,omitempty"`
	Damage     int    `json:"damage"`
	Affected   int    `json:"affected"`
}

// PlayerTeamkilledPayload reports a processed teamkill.
type PlayerTeamkilledPayload struct {
	ServerID   int64  `json:"serverId"`
	KillerID   int64  `json:"killerId"`
	KillerName string `json:"killerName,omitempty"`
	VictimID   int64  `json:"victimId"`
	VictimName string `json:"victimName,omitempty"`
	Weapon     string `json:"weapon,omitempty"`
	Penalty    int    `json:"penalty"`
	Affected   int    `json:"affected"`
}

// ChatLoggedPayload reports a logged chat line.
type ChatLoggedPayload struct {
	ServerID int64  `json:"serverId"`
	PlayerID int64  `json:"playerId"`
	Mode     string `json:"mode,omitempty"`
	Affected int    `json:"affected"`
}

// PlayerKilledPayload reports a processed kill. KillerSkill and VictimSkill
// are the ratings after the adjustment, so consumers see old + delta.
type PlayerKilledPayload struct {
	ServerID    int64  `json:"serverId"`
	KillerID    int64  `json:"killerId"`
	KillerName  string `json:"killerName,omitempty"`
	KillerSkill int    `json:"killerSkill"`
	VictimID    int64  `json:"victimId"`
	VictimName  string `json:"victimName,omitempty"`
	VictimSkill int    `json:"victimSkill"`
	Weapon      string `json:"weapon,omitempty"`
	Headshot    bool   `json:"headshot"`
	Affected    int    `json:"affected"`
}
