package geoip

import (
	"testing"
	"time"

	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
)

func newFilterService(ttl time.Duration) *Service {
	return &Service{
		cfg:       Config{CacheTTL: ttl}.withDefaults(),
		requested: make(map[int64]time.Time),
	}
}

func TestFilterCandidates(t *testing.T) {
	candidates := []Candidate{
		{PlayerID: 1, UniqueID: "STEAM_0:1:111", IPAddress: "203.0.113.7:27005"},
		{PlayerID: 2, UniqueID: "BOT_JOE", IPAddress: "203.0.113.8", IsBot: true},
		{PlayerID: 3, UniqueID: "STEAM_0:1:333", IPAddress: "192.168.1.20:27005"},
		{PlayerID: 4, UniqueID: "STEAM_0:1:444", IPAddress: "loopback"},
	}

	t.Run("ignore bots enabled", func(t *testing.T) {
		s := newFilterService(time.Hour)
		got := s.filterCandidates(&serverdb.Config{GeoIPEnabled: true, IgnoreBots: true}, candidates)
		if len(got) != 1 || got[0].PlayerID != 1 {
			t.Fatalf("survivors = %+v, want only player 1", got)
		}
	})

	t.Run("bots allowed when ignore_bots off", func(t *testing.T) {
		s := newFilterService(time.Hour)
		got := s.filterCandidates(&serverdb.Config{GeoIPEnabled: true, IgnoreBots: false}, candidates)
		if len(got) != 2 {
			t.Fatalf("survivors = %+v, want players 1 and 2", got)
		}
	})
}

func TestMarkRequestedTTL(t *testing.T) {
	s := newFilterService(time.Hour)

	if !s.markRequested(42) {
		t.Fatal("first request suppressed")
	}
	if s.markRequested(42) {
		t.Fatal("second request within TTL not suppressed")
	}

	// Expire the entry and the player becomes eligible again.
	s.mu.Lock()
	s.requested[42] = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()
	if !s.markRequested(42) {
		t.Fatal("request after TTL expiry suppressed")
	}
}
