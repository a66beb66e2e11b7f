package playerservice

import (
	"context"
	"testing"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

func damageEvent(t *testing.T, hitgroup string) *gameevents.GameEvent {
	t.Helper()
	return makeEvent(t, gameevents.EventPlayerDamage, 1,
		gameevents.DamageData{AttackerID: 42, VictimID: 43, Weapon: "deagle", Hitgroup: hitgroup, Damage: 48}, nil)
}

func TestHandlePlayerDamage_CountsShot(t *testing.T) {
	tests := []struct {
		name          string
		hitgroup      string
		wantHeadshots int
	}{
		{name: "head hitgroup counts a headshot", hitgroup: "head", wantHeadshots: 1},
		{name: "body hitgroup does not", hitgroup: "chest", wantHeadshots: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			result, err := f.svc.HandlePlayerDamage(context.Background(), damageEvent(t, tt.hitgroup))
			if err != nil {
				t.Fatalf("HandlePlayerDamage: %v", err)
			}
			if !result.IsSuccess() || result.Success.Affected != 1 {
				t.Fatalf("result = %+v, want success/1", result)
			}
			if result.Success.Damage != 48 || result.Success.Hitgroup != tt.hitgroup {
				t.Errorf("payload = %+v", result.Success)
			}

			if len(f.repo.Updates) != 1 {
				t.Fatalf("Updates = %+v, want exactly one", f.repo.Updates)
			}
			delta := f.repo.Updates[0].Delta
			want := &playerdomain.StatDelta{Shots: 1, Hits: 1, Headshots: tt.wantHeadshots}
			if delta.Shots != want.Shots || delta.Hits != want.Hits || delta.Headshots != want.Headshots {
				t.Errorf("delta = %+v, want %+v", delta, want)
			}
		})
	}
}

func TestHandlePlayerDamage_MissingStatsRowFails(t *testing.T) {
	f := newFixture(t)
	f.repo.UpdateFunc = func(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error {
		return playerdb.ErrPlayerNotFound
	}

	result, err := f.svc.HandlePlayerDamage(context.Background(), damageEvent(t, "chest"))
	if err != nil {
		t.Fatalf("HandlePlayerDamage: %v", err)
	}
	if !result.IsFailure() {
		t.Fatalf("result = %+v, want failure", result)
	}
	if result.Failure.Reason != "no stats row for player 42 in damage event" {
		t.Errorf("Reason = %q", result.Failure.Reason)
	}
	if f.metrics.Failed[gameevents.EventPlayerDamage.String()] != 1 {
		t.Error("failed metric not recorded")
	}
}

func TestHandlePlayerDamage_UnresolvedAttackerSkips(t *testing.T) {
	f := newFixture(t)

	event := makeEvent(t, gameevents.EventPlayerDamage, 1, gameevents.DamageData{VictimID: 43}, nil)

	result, err := f.svc.HandlePlayerDamage(context.Background(), event)
	if err != nil {
		t.Fatalf("HandlePlayerDamage: %v", err)
	}
	if !result.IsSuccess() || result.Success.Affected != 0 {
		t.Fatalf("result = %+v, want success/0", result)
	}
	if len(f.repo.Updates) != 0 {
		t.Errorf("Updates = %+v, want none", f.repo.Updates)
	}
}
