package playerdomain

import "time"

// NameDelta merges into the per-(player, name) usage aggregate. All fields
// are additive; LastUse wins over the stored timestamp when newer.
type NameDelta struct {
	Uses     int
	Kills    int
	Deaths   int
	Suicides int
	LastUse  time.Time
}

// NameUseDelta records one more use of a display name.
func NameUseDelta(at time.Time) *NameDelta {
	return &NameDelta{Uses: 1, LastUse: at}
}

// NameKillDelta credits a kill to the name the killer wore.
func NameKillDelta(at time.Time) *NameDelta {
	return &NameDelta{Kills: 1, LastUse: at}
}

// NameDeathDelta charges a death to the name the victim wore.
func NameDeathDelta(at time.Time) *NameDelta {
	return &NameDelta{Deaths: 1, LastUse: at}
}

// NameSuicideDelta charges a suicide, which is also a death.
func NameSuicideDelta(at time.Time) *NameDelta {
	return &NameDelta{Suicides: 1, Deaths: 1, LastUse: at}
}
