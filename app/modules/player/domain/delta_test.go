package playerdomain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSuicideDelta(t *testing.T) {
	at := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

	got := SuicideDelta(-5, at)
	want := &StatDelta{
		Suicides:        1,
		Deaths:          1,
		SkillDelta:      -5,
		DeathStreak:     1,
		ResetKillStreak: true,
		LastEvent:       at,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SuicideDelta mismatch (-want +got):\n%s", diff)
	}
}

func TestKillDeltas(t *testing.T) {
	at := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

	killer := KillerDelta(29, true, at)
	if killer.Kills != 1 || killer.Headshots != 1 || killer.KillStreak != 1 {
		t.Errorf("unexpected killer delta: %+v", killer)
	}
	if !killer.ResetDeathStreak || killer.ResetKillStreak {
		t.Errorf("killer delta must reset death streak only: %+v", killer)
	}
	if killer.SkillDelta != 29 {
		t.Errorf("killer skill delta = %d, want 29", killer.SkillDelta)
	}

	victim := KillVictimDelta(-29, at)
	if victim.Deaths != 1 || victim.DeathStreak != 1 || !victim.ResetKillStreak {
		t.Errorf("unexpected victim delta: %+v", victim)
	}
	if victim.SkillDelta != -29 {
		t.Errorf("victim skill delta = %d, want -29", victim.SkillDelta)
	}
}

func TestDamageDelta(t *testing.T) {
	if d := DamageDelta(false); d.Shots != 1 || d.Hits != 1 || d.Headshots != 0 {
		t.Errorf("unexpected body-shot delta: %+v", d)
	}
	if d := DamageDelta(true); d.Headshots != 1 {
		t.Errorf("head hitgroup must count a headshot: %+v", d)
	}
}

func TestStatsDerivedFields(t *testing.T) {
	s := &PlayerStats{PlayerID: 7, Kills: 40, Deaths: 25}
	if got := s.GamesPlayed(); got != 65 {
		t.Errorf("GamesPlayed = %d, want 65", got)
	}
	if got := s.EffectiveSkill(); got != BaselineSkill {
		t.Errorf("EffectiveSkill for unset skill = %d, want %d", got, BaselineSkill)
	}
	s.Skill = 1430
	if got := s.EffectiveSkill(); got != 1430 {
		t.Errorf("EffectiveSkill = %d, want 1430", got)
	}
}
