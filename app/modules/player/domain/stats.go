package playerdomain

// BaselineSkill is the rating assigned to players whose stored skill is
// unset or zero.
const BaselineSkill = 1000

// PlayerStats is the snapshot the ranking engine and the kill/suicide
// handlers read. Derived from the player row at call time.
type PlayerStats struct {
	PlayerID int64
	Name     string
	Skill    int
	Kills    int64
	Deaths   int64
}

// GamesPlayed approximates experience as kills + deaths. It is computed,
// never stored.
func (s *PlayerStats) GamesPlayed() int64 {
	return s.Kills + s.Deaths
}

// EffectiveSkill returns the stored skill, or the baseline when unset.
func (s *PlayerStats) EffectiveSkill() int {
	if s.Skill <= 0 {
		return BaselineSkill
	}
	return s.Skill
}
