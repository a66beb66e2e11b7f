// Package session tracks the ephemeral link between a game-server slot and
// a persistent player for the lifetime of one connection.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when no live session matches the key.
var ErrSessionNotFound = errors.New("session not found")

// Session is the per-connection record. A GameUserID of 0 is a valid slot
// id, never a "missing" marker.
type Session struct {
	ServerID    int64
	GameUserID  int
	PlayerID    int64
	SteamID     string
	Name        string
	IsBot       bool
	ConnectedAt time.Time
}

// Duration returns the whole seconds elapsed since the session connected.
func (s *Session) Duration(now time.Time) int64 {
	d := int64(now.Sub(s.ConnectedAt).Seconds())
	if d < 0 {
		return 0
	}
	return d
}

// Store is the session lifecycle contract. The in-memory implementation is
// single-process; a multi-instance deployment needs a shared store behind
// this same interface.
type Store interface {
	Create(ctx context.Context, s *Session) error
	GetByGameUserID(ctx context.Context, serverID int64, gameUserID int) (*Session, error)
	GetBySteamID(ctx context.Context, serverID int64, steamID string) (*Session, error)
	GetByPlayerID(ctx context.Context, serverID int64, playerID int64) (*Session, error)
	Remove(ctx context.Context, serverID int64, gameUserID int) error
	Sweep(ctx context.Context, maxAge time.Duration) int
	Len() int
}
