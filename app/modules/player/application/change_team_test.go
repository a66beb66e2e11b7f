package playerservice

import (
	"context"
	"testing"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

func TestHandlePlayerChangeTeam_RecordsTeamInMatchState(t *testing.T) {
	f := newFixture(t)

	event := makeEvent(t, gameevents.EventPlayerChangeTeam, 1,
		gameevents.ChangeTeamData{PlayerID: 42, Team: "CT"}, nil)

	result, err := f.svc.HandlePlayerChangeTeam(context.Background(), event)
	if err != nil {
		t.Fatalf("HandlePlayerChangeTeam: %v", err)
	}
	if !result.IsSuccess() || result.Success.Affected != 1 {
		t.Fatalf("result = %+v, want success/1", result)
	}
	if result.Success.Team != "CT" {
		t.Errorf("Team = %q", result.Success.Team)
	}

	if len(f.match.SetCalls) != 1 {
		t.Fatalf("SetCalls = %+v, want one", f.match.SetCalls)
	}
	call := f.match.SetCalls[0]
	if call.ServerID != 1 || call.PlayerID != 42 || call.Team != "CT" {
		t.Errorf("SetPlayerTeam call = %+v", call)
	}

	// The row update is a touch, no counters move.
	if len(f.repo.Updates) != 1 {
		t.Fatalf("Updates = %+v, want one", f.repo.Updates)
	}
	delta := f.repo.Updates[0].Delta
	if delta.Kills != 0 || delta.Deaths != 0 || delta.LastEvent.IsZero() {
		t.Errorf("delta = %+v, want timestamp-only touch", delta)
	}
}

func TestHandlePlayerChangeTeam_MissingRowSkips(t *testing.T) {
	f := newFixture(t)
	f.repo.UpdateFunc = func(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error {
		return playerdb.ErrPlayerNotFound
	}

	event := makeEvent(t, gameevents.EventPlayerChangeTeam, 1,
		gameevents.ChangeTeamData{PlayerID: 42, Team: "T"}, nil)

	result, err := f.svc.HandlePlayerChangeTeam(context.Background(), event)
	if err != nil {
		t.Fatalf("HandlePlayerChangeTeam: %v", err)
	}
	if !result.IsSuccess() || result.Success.Affected != 0 {
		t.Fatalf("result = %+v, want success/0", result)
	}
	if len(f.match.SetCalls) != 0 {
		t.Errorf("SetCalls = %+v, want none for a vanished row", f.match.SetCalls)
	}
	if f.metrics.Skipped[gameevents.EventPlayerChangeTeam.String()] != 1 {
		t.Error("skipped metric not recorded")
	}
}

func TestHandlePlayerChangeTeam_EventRowIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.repo.CreateChangeTeamEventFunc = func(ctx context.Context, row *playerdb.EventChangeTeam) error {
		return context.DeadlineExceeded
	}

	event := makeEvent(t, gameevents.EventPlayerChangeTeam, 1,
		gameevents.ChangeTeamData{PlayerID: 42, Team: "SPECTATOR"}, nil)

	result, err := f.svc.HandlePlayerChangeTeam(context.Background(), event)
	if err != nil {
		t.Fatalf("HandlePlayerChangeTeam: %v", err)
	}
	if !result.IsSuccess() || result.Success.Affected != 1 {
		t.Fatalf("result = %+v, want success despite event-row failure", result)
	}
}
