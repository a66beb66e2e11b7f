// Package match tracks ephemeral per-server match state: the current map
// and each player's team. It enriches event-log rows and is rebuilt from
// the game feed, never treated as a source of truth for stats.
package match

import "sync"

// StateService is the match-state contract consumed by the event
// processors. Implementations must be safe for concurrent use.
type StateService interface {
	SetCurrentMap(serverID int64, mapName string)
	CurrentMap(serverID int64) string
	SetPlayerTeam(serverID, playerID int64, team string)
	PlayerTeam(serverID, playerID int64) (string, bool)
	ClearPlayer(serverID, playerID int64)
	ResetServer(serverID int64)
}

type serverState struct {
	currentMap string
	teams      map[int64]string
}

// InMemoryState keeps match state in a mutex-guarded map per server.
// Single-process scope; a multi-instance deployment needs a shared store
// behind StateService.
type InMemoryState struct {
	mu      sync.RWMutex
	servers map[int64]*serverState
}

// NewInMemoryState returns an empty state service.
func NewInMemoryState() *InMemoryState {
	return &InMemoryState{servers: make(map[int64]*serverState)}
}

// SetCurrentMap records the map a server is playing.
func (s *InMemoryState) SetCurrentMap(serverID int64, mapName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(serverID).currentMap = mapName
}

// CurrentMap returns the server's map, or "" when unknown.
func (s *InMemoryState) CurrentMap(serverID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.servers[serverID]; ok {
		return st.currentMap
	}
	return ""
}

// SetPlayerTeam records a player's team. Team is an opaque game string.
func (s *InMemoryState) SetPlayerTeam(serverID, playerID int64, team string) {
	if playerID <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(serverID).teams[playerID] = team
}

// PlayerTeam returns the last team seen for a player on a server.
func (s *InMemoryState) PlayerTeam(serverID, playerID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.servers[serverID]; ok {
		team, ok := st.teams[playerID]
		return team, ok
	}
	return "", false
}

// ClearPlayer forgets a player's team, typically on disconnect.
func (s *InMemoryState) ClearPlayer(serverID, playerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.servers[serverID]; ok {
		delete(st.teams, playerID)
	}
}

// ResetServer drops all state for a server, typically on map change.
func (s *InMemoryState) ResetServer(serverID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.servers, serverID)
}

func (s *InMemoryState) stateLocked(serverID int64) *serverState {
	st, ok := s.servers[serverID]
	if !ok {
		st = &serverState{teams: make(map[int64]string)}
		s.servers[serverID] = st
	}
	return st
}

var _ StateService = (*InMemoryState)(nil)
