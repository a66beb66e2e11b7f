package session

import (
	"context"
	"sync"
	"time"
)

type sessionKey struct {
	serverID   int64
	gameUserID int
}

type steamKey struct {
	serverID int64
	steamID  string
}

// InMemoryStore keeps sessions in a mutex-guarded map with a secondary
// Steam-ID index. Bots are not steam-indexed because engines report shared
// placeholder ids for them.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*Session
	bySteam  map[steamKey]sessionKey
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[sessionKey]*Session),
		bySteam:  make(map[steamKey]sessionKey),
	}
}

// Create registers a session, replacing any session already occupying the
// slot. A stale session left under another slot by the same Steam ID is
// removed so reconnects do not leak entries.
func (m *InMemoryStore) Create(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := sessionKey{serverID: s.ServerID, gameUserID: s.GameUserID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sk, indexable := m.steamKeyFor(s); indexable {
		if old, ok := m.bySteam[sk]; ok && old != key {
			m.dropLocked(old)
		}
	}
	if old, ok := m.sessions[key]; ok {
		m.unindexLocked(old)
	}

	cp := *s
	m.sessions[key] = &cp
	if sk, indexable := m.steamKeyFor(&cp); indexable {
		m.bySteam[sk] = key
	}
	return nil
}

// GetByGameUserID looks a session up by its primary key.
func (m *InMemoryStore) GetByGameUserID(ctx context.Context, serverID int64, gameUserID int) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionKey{serverID: serverID, gameUserID: gameUserID}]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// GetBySteamID recovers a session whose slot id is stale or unknown.
func (m *InMemoryStore) GetBySteamID(ctx context.Context, serverID int64, steamID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if steamID == "" {
		return nil, ErrSessionNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.bySteam[steamKey{serverID: serverID, steamID: steamID}]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// GetByPlayerID scans the server's sessions for a resolved player id.
func (m *InMemoryStore) GetByPlayerID(ctx context.Context, serverID int64, playerID int64) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if playerID <= 0 {
		return nil, ErrSessionNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for key, s := range m.sessions {
		if key.serverID == serverID && s.PlayerID == playerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

// Remove deletes a session. Removing an absent key is not an error; the
// transport may deliver a disconnect twice.
func (m *InMemoryStore) Remove(ctx context.Context, serverID int64, gameUserID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.dropLocked(sessionKey{serverID: serverID, gameUserID: gameUserID})
	return nil
}

// Sweep evicts sessions older than maxAge and returns how many were
// removed. It bounds the store when disconnects were lost.
func (m *InMemoryStore) Sweep(ctx context.Context, maxAge time.Duration) int {
	if ctx.Err() != nil {
		return 0
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted int
	for key, s := range m.sessions {
		if s.ConnectedAt.Before(cutoff) {
			m.dropLocked(key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live sessions.
func (m *InMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *InMemoryStore) steamKeyFor(s *Session) (steamKey, bool) {
	if s.IsBot || s.SteamID == "" {
		return steamKey{}, false
	}
	return steamKey{serverID: s.ServerID, steamID: s.SteamID}, true
}

func (m *InMemoryStore) dropLocked(key sessionKey) {
	if s, ok := m.sessions[key]; ok {
		m.unindexLocked(s)
		delete(m.sessions, key)
	}
}

func (m *InMemoryStore) unindexLocked(s *Session) {
	if sk, indexable := m.steamKeyFor(s); indexable {
		if cur, ok := m.bySteam[sk]; ok && cur == (sessionKey{serverID: s.ServerID, gameUserID: s.GameUserID}) {
			delete(m.bySteam, sk)
		}
	}
}

var _ Store = (*InMemoryStore)(nil)
