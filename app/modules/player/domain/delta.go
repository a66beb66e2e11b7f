// Package playerdomain holds the player-facing value types shared by the
// service and repository layers: stat deltas, name usage deltas, identity
// synthesis and the ranking input snapshot.
package playerdomain

import "time"

// GeoPatch overwrites the geolocation columns of a player row. Produced by
// the enrichment pipeline, never by event handlers directly.
type GeoPatch struct {
	City      string
	Country   string
	Flag      string
	Latitude  float64
	Longitude float64
}

// StatDelta describes one atomic player row mutation. Counter fields are
// additive; streaks either add or reset; zero-value fields leave the column
// untouched. Rows are never overwritten wholesale.
type StatDelta struct {
	Kills     int
	Deaths    int
	Suicides  int
	Teamkills int
	Shots     int
	Hits      int
	Headshots int

	SkillDelta int

	KillStreak       int
	DeathStreak      int
	ResetKillStreak  bool
	ResetDeathStreak bool

	// ConnectionSeconds adds to the accumulated connection time.
	ConnectionSeconds int64

	LastEvent   time.Time
	LastName    string
	LastAddress string
	Geo         *GeoPatch
}

// ConnectDelta touches last-seen metadata on connect.
func ConnectDelta(name, address string, at time.Time) *StatDelta {
	return &StatDelta{LastEvent: at, LastName: name, LastAddress: address}
}

// DisconnectDelta accumulates the finished session duration.
func DisconnectDelta(sessionSeconds int64, at time.Time) *StatDelta {
	return &StatDelta{ConnectionSeconds: sessionSeconds, LastEvent: at}
}

// TouchDelta refreshes the last-event timestamp only.
func TouchDelta(at time.Time) *StatDelta {
	return &StatDelta{LastEvent: at}
}

// NameChangeDelta records the new display name.
func NameChangeDelta(newName string, at time.Time) *StatDelta {
	return &StatDelta{LastName: newName, LastEvent: at}
}

// SuicideDelta applies the suicide outcome: one suicide, one death, the
// skill penalty, a longer death streak and a broken kill streak.
func SuicideDelta(penalty int, at time.Time) *StatDelta {
	return &StatDelta{
		Suicides:        1,
		Deaths:          1,
		SkillDelta:      penalty,
		DeathStreak:     1,
		ResetKillStreak: true,
		LastEvent:       at,
	}
}

// DamageDelta counts a landed shot, optionally on the head hitgroup.
func DamageDelta(headshot bool) *StatDelta {
	d := &StatDelta{Shots: 1, Hits: 1}
	if headshot {
		d.Headshots = 1
	}
	return d
}

// TeamkillerDelta punishes the killer of a teammate.
func TeamkillerDelta(penalty int, headshot bool, at time.Time) *StatDelta {
	d := &StatDelta{Teamkills: 1, SkillDelta: penalty, LastEvent: at}
	if headshot {
		d.Headshots = 1
	}
	return d
}

// TeamkillVictimDelta records the teammate's death.
func TeamkillVictimDelta(at time.Time) *StatDelta {
	return &StatDelta{Deaths: 1, LastEvent: at}
}

// KillerDelta applies the kill outcome for the killer.
func KillerDelta(skillDelta int, headshot bool, at time.Time) *StatDelta {
	d := &StatDelta{
		Kills:            1,
		KillStreak:       1,
		ResetDeathStreak: true,
		SkillDelta:       skillDelta,
		LastEvent:        at,
	}
	if headshot {
		d.Headshots = 1
	}
	return d
}

// KillVictimDelta applies the kill outcome for the victim.
func KillVictimDelta(skillDelta int, at time.Time) *StatDelta {
	return &StatDelta{
		Deaths:          1,
		DeathStreak:     1,
		ResetKillStreak: true,
		SkillDelta:      skillDelta,
		LastEvent:       at,
	}
}
