// Package gameevents defines the inbound telemetry envelope, the closed set
// of player event types, their transport subjects and the outbound
// notification payloads.
package gameevents

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType tags the envelope. Values are the upstream wire tags.
type EventType string

const (
	EventPlayerConnect    EventType = "PLAYER_CONNECT"
	EventPlayerDisconnect EventType = "PLAYER_DISCONNECT"
	EventPlayerEntry      EventType = "PLAYER_ENTRY"
	EventPlayerChangeTeam EventType = "PLAYER_CHANGE_TEAM"
	EventPlayerChangeName EventType = "PLAYER_CHANGE_NAME"
	EventPlayerSuicide    EventType = "PLAYER_SUICIDE"
	EventPlayerDamage     EventType = "PLAYER_DAMAGE"
	EventPlayerTeamkill   EventType = "PLAYER_TEAMKILL"
	EventPlayerChat       EventType = "PLAYER_CHAT"
	EventPlayerKill       EventType = "PLAYER_KILL"

	// EventPlayerChangeRole arrives from some games but carries nothing the
	// stats model records, so no handler exists for it.
	EventPlayerChangeRole EventType = "PLAYER_CHANGE_ROLE"
)

// AllEventTypes returns every event type a handler must exist for.
// EventPlayerChangeRole is not in the list.
func AllEventTypes() []EventType {
	return []EventType{
		EventPlayerConnect,
		EventPlayerDisconnect,
		EventPlayerEntry,
		EventPlayerChangeTeam,
		EventPlayerChangeName,
		EventPlayerSuicide,
		EventPlayerDamage,
		EventPlayerTeamkill,
		EventPlayerChat,
		EventPlayerKill,
	}
}

// Stream and subject layout. One JetStream stream holds all inbound game
// events, a second holds outbound notifications.
const (
	GameEventStream        = "GAME_EVENTS"
	GameEventSubjectPrefix = "game.events."
	GameEventWildcard      = GameEventSubjectPrefix + ">"

	NotifyStream        = "GAME_NOTIFY"
	NotifySubjectPrefix = "game.notify."
	NotifyWildcard      = NotifySubjectPrefix + ">"
)

// Subject returns the versioned NATS subject for an event type,
// e.g. PLAYER_KILL -> game.events.kill.v1.
func (t EventType) Subject() string {
	short := strings.ToLower(strings.TrimPrefix(string(t), "PLAYER_"))
	return GameEventSubjectPrefix + short + ".v1"
}

func (t EventType) String() string { return string(t) }

// PlayerMeta carries the identity hints attached by the upstream parser.
type PlayerMeta struct {
	PlayerName string `json:"playerName"`
	SteamID    string `json:"steamId"`
	IsBot      bool   `json:"isBot"`
}

// EventMeta holds identity hints for one actor, or for both actors of a
// dual-actor event (kill, damage, teamkill).
type EventMeta struct {
	Player *PlayerMeta `json:"player,omitempty"`
	Killer *PlayerMeta `json:"killer,omitempty"`
	Victim *PlayerMeta `json:"victim,omitempty"`
}

// GameEvent is the envelope delivered by the transport. Data holds the
// per-type payload and is decoded by the owning handler.
type GameEvent struct {
	EventType EventType       `json:"eventType"`
	ServerID  int64           `json:"serverId"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Meta      *EventMeta      `json:"meta,omitempty"`
}

// DecodeAs validates the envelope tag and unmarshals Data into out.
func (e *GameEvent) DecodeAs(want EventType, out any) error {
	if e.EventType != want {
		return fmt.Errorf("%w: got %q, want %q", ErrInvalidEventType, e.EventType, want)
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data payload", want)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", want, err)
	}
	return nil
}

// At returns the event timestamp, defaulting to now for feeds that omit it.
func (e *GameEvent) At() time.Time {
	if e.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return e.Timestamp
}
