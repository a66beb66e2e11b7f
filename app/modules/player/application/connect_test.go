package playerservice

import (
	"context"
	"testing"
	"time"

	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
)

func humanMeta(name, steamID string) *gameevents.EventMeta {
	return &gameevents.EventMeta{Player: &gameevents.PlayerMeta{PlayerName: name, SteamID: steamID}}
}

func botMeta(name string) *gameevents.EventMeta {
	return &gameevents.EventMeta{Player: &gameevents.PlayerMeta{PlayerName: name, IsBot: true}}
}

func TestHandlePlayerConnect_CreatesPlayerAndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event := makeEvent(t, gameevents.EventPlayerConnect, 1,
		gameevents.ConnectData{GameUserID: 4, SteamID: "STEAM_0:1:111", IPAddress: "203.0.113.7:27005"},
		humanMeta("alice", "STEAM_0:1:111"))

	result, err := f.svc.HandlePlayerConnect(ctx, event)
	if err != nil {
		t.Fatalf("HandlePlayerConnect: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("result = %+v, want success", result)
	}
	payload := result.Success
	if !payload.Created || payload.Affected != 1 {
		t.Errorf("payload = %+v, want Created/Affected=1", payload)
	}

	// The row was created via the steam id and its last-seen columns touched.
	if len(f.repo.Updates) != 1 {
		t.Fatalf("Updates = %d, want 1", len(f.repo.Updates))
	}
	delta := f.repo.Updates[0].Delta
	if delta.LastName != "alice" || delta.LastAddress != "203.0.113.7:27005" {
		t.Errorf("connect delta = %+v", delta)
	}

	// Session opened under the slot id.
	sess, err := f.sessions.GetByGameUserID(ctx, 1, 4)
	if err != nil {
		t.Fatalf("session missing: %v", err)
	}
	if sess.PlayerID != 1 || sess.SteamID != "STEAM_0:1:111" {
		t.Errorf("session = %+v", sess)
	}

	// Active-player counter moved once.
	if len(f.servers.Deltas) != 1 || f.servers.Deltas[0].ActivePlayers != 1 {
		t.Errorf("server deltas = %+v", f.servers.Deltas)
	}

	// Enrichment received the address.
	if len(f.geo.Requests) != 1 || f.geo.Requests[0][0].IPAddress != "203.0.113.7:27005" {
		t.Errorf("geo requests = %+v", f.geo.Requests)
	}

	if f.metrics.Processed[string(gameevents.EventPlayerConnect)] != 1 {
		t.Error("processed metric not recorded")
	}
}

func TestHandlePlayerConnect_DedupsRecentConnect(t *testing.T) {
	f := newFixture(t)
	f.repo.HasRecentConnectFunc = func(ctx context.Context, serverID, playerID int64, window time.Duration) (bool, error) {
		return true, nil
	}

	event := makeEvent(t, gameevents.EventPlayerConnect, 1,
		gameevents.ConnectData{GameUserID: 4, SteamID: "STEAM_0:1:111", IPAddress: "203.0.113.7"},
		humanMeta("alice", "STEAM_0:1:111"))

	result, err := f.svc.HandlePlayerConnect(context.Background(), event)
	if err != nil {
		t.Fatalf("HandlePlayerConnect: %v", err)
	}
	if !result.IsSuccess() || result.Success.Affected != 1 {
		t.Fatalf("result = %+v, want success/1", result)
	}

	// No duplicate row, no double-counted gauge.
	for _, step := range f.repo.Trace() {
		if step == "CreateConnectEvent" {
			t.Error("connect row written despite recent connect")
		}
	}
	if len(f.servers.Deltas) != 0 {
		t.Errorf("server deltas = %+v, want none", f.servers.Deltas)
	}

	// The session is still opened; dedup only guards the event trail.
	if _, err := f.sessions.GetByGameUserID(context.Background(), 1, 4); err != nil {
		t.Errorf("session missing after deduped connect: %v", err)
	}
}

func TestHandlePlayerConnect_BotSessionRespectsServerPolicy(t *testing.T) {
	tests := []struct {
		name        string
		ignoreBots  bool
		wantSession bool
	}{
		{name: "ignored bots get no session", ignoreBots: true, wantSession: false},
		{name: "tracked bots get a session", ignoreBots: false, wantSession: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.servers.GetServerConfigFunc = func(ctx context.Context, serverID int64) (*serverdb.Config, error) {
				return &serverdb.Config{GeoIPEnabled: true, IgnoreBots: tt.ignoreBots}, nil
			}

			event := makeEvent(t, gameevents.EventPlayerConnect, 1,
				gameevents.ConnectData{GameUserID: 9, IPAddress: "10.0.0.4"},
				botMeta("Joe"))

			result, err := f.svc.HandlePlayerConnect(context.Background(), event)
			if err != nil {
				t.Fatalf("HandlePlayerConnect: %v", err)
			}
			if !result.IsSuccess() || result.Success.Affected != 1 {
				t.Fatalf("result = %+v", result)
			}

			_, err = f.sessions.GetByGameUserID(context.Background(), 1, 9)
			gotSession := err == nil
			if gotSession != tt.wantSession {
				t.Errorf("session present = %v, want %v", gotSession, tt.wantSession)
			}
		})
	}
}

func TestHandlePlayerConnect_NoIdentitySkips(t *testing.T) {
	f := newFixture(t)

	event := makeEvent(t, gameevents.EventPlayerConnect, 1,
		gameevents.ConnectData{GameUserID: 4, IPAddress: "203.0.113.7"}, nil)

	result, err := f.svc.HandlePlayerConnect(context.Background(), event)
	if err != nil {
		t.Fatalf("HandlePlayerConnect: %v", err)
	}
	if !result.IsSuccess() || result.Success.Affected != 0 {
		t.Fatalf("result = %+v, want success/0", result)
	}
	if len(f.repo.Updates) != 0 {
		t.Errorf("Updates = %+v, want none", f.repo.Updates)
	}
	if f.metrics.Skipped[string(gameevents.EventPlayerConnect)] != 1 {
		t.Error("skipped metric not recorded")
	}
}

func TestHandlePlayerConnect_WrongTagIsDiscarded(t *testing.T) {
	f := newFixture(t)

	event := makeEvent(t, gameevents.EventPlayerKill, 1, gameevents.KillData{}, nil)

	result, err := f.svc.HandlePlayerConnect(context.Background(), event)
	if err != nil {
		t.Fatalf("HandlePlayerConnect: %v", err)
	}
	if !result.IsFailure() {
		t.Fatalf("result = %+v, want failure", result)
	}
	if f.metrics.Discarded[string(gameevents.EventPlayerKill)] != 1 {
		t.Error("discarded metric not recorded")
	}
}

func TestHandlePlayerConnect_NotificationBestEffort(t *testing.T) {
	f := newFixture(t)
	f.notifier.Enabled = []gameevents.NotificationKind{gameevents.NotifyConnect}
	f.notifier.NotifyConnectFunc = func(ctx context.Context, payload *gameevents.PlayerConnectedPayload) error {
		return context.DeadlineExceeded
	}

	event := makeEvent(t, gameevents.EventPlayerConnect, 1,
		gameevents.ConnectData{GameUserID: 4, SteamID: "STEAM_0:1:111", IPAddress: "203.0.113.7"},
		humanMeta("alice", "STEAM_0:1:111"))

	result, err := f.svc.HandlePlayerConnect(context.Background(), event)
	if err != nil {
		t.Fatalf("notification failure escalated: %v", err)
	}
	if !result.IsSuccess() || result.Success.Affected != 1 {
		t.Fatalf("result = %+v, want success despite notify error", result)
	}
	if f.notifier.ConnectCount != 1 {
		t.Errorf("ConnectCount = %d, want 1", f.notifier.ConnectCount)
	}
}
