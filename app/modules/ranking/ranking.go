// Package ranking computes skill rating adjustments for lethal events. The
// engine is pluggable; handlers run in a degraded mode with fixed penalties
// when none is configured.
package ranking

import (
	"math"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
)

// KillContext carries the per-kill details an engine may weigh.
type KillContext struct {
	Weapon   string
	Headshot bool
}

// Adjustment is the signed rating change for both actors of a kill.
type Adjustment struct {
	KillerChange int
	VictimChange int
}

// Engine is the rating contract consumed by the event processors. It never
// persists anything; callers apply the returned deltas.
type Engine interface {
	CalculateSkillAdjustment(killer, victim *playerdomain.PlayerStats, kill KillContext) Adjustment
	SuicidePenalty() int
	TeamkillPenalty() int
}

// Config tunes the Elo engine. Zero values fall back to defaults.
type Config struct {
	KFactor          int
	ProvisionalK     int
	ProvisionalGames int64
	HeadshotBonus    int
	SuicidePenalty   int
	TeamkillPenalty  int
}

const (
	defaultKFactor          = 24
	defaultProvisionalK     = 40
	defaultProvisionalGames = 100
	defaultHeadshotBonus    = 1
	defaultSuicidePenalty   = -5
	defaultTeamkillPenalty  = -10
)

// EloEngine is the default rating engine: classic Elo expectation over a
// 400-point scale, with a higher K factor while a player is provisional.
type EloEngine struct {
	kFactor          int
	provisionalK     int
	provisionalGames int64
	headshotBonus    int
	suicidePenalty   int
	teamkillPenalty  int
}

// NewEloEngine builds an engine from cfg, filling unset fields with
// defaults.
func NewEloEngine(cfg Config) *EloEngine {
	e := &EloEngine{
		kFactor:          cfg.KFactor,
		provisionalK:     cfg.ProvisionalK,
		provisionalGames: cfg.ProvisionalGames,
		headshotBonus:    cfg.HeadshotBonus,
		suicidePenalty:   cfg.SuicidePenalty,
		teamkillPenalty:  cfg.TeamkillPenalty,
	}
	if e.kFactor <= 0 {
		e.kFactor = defaultKFactor
	}
	if e.provisionalK <= 0 {
		e.provisionalK = defaultProvisionalK
	}
	if e.provisionalGames <= 0 {
		e.provisionalGames = defaultProvisionalGames
	}
	if e.headshotBonus < 0 {
		e.headshotBonus = defaultHeadshotBonus
	}
	if e.suicidePenalty == 0 {
		e.suicidePenalty = defaultSuicidePenalty
	}
	if e.teamkillPenalty == 0 {
		e.teamkillPenalty = defaultTeamkillPenalty
	}
	return e
}

// CalculateSkillAdjustment returns the killer's gain and the victim's loss
// for one kill. A kill is scored as a win for the killer: the gain shrinks
// when the killer outrates the victim and grows when the victim outrates
// the killer. The killer always gains at least one point.
func (e *EloEngine) CalculateSkillAdjustment(killer, victim *playerdomain.PlayerStats, kill KillContext) Adjustment {
	killerRating := float64(killer.EffectiveSkill())
	victimRating := float64(victim.EffectiveSkill())

	expected := 1.0 / (1.0 + math.Pow(10, (victimRating-killerRating)/400))

	change := int(math.Round(float64(e.kFor(killer)) * (1 - expected)))
	if change < 1 {
		change = 1
	}
	if kill.Headshot {
		change += e.headshotBonus
	}

	// The victim's loss uses their own K so newcomers converge quickly, but
	// it never exceeds what the killer gained.
	loss := int(math.Round(float64(e.kFor(victim)) * (1 - expected)))
	if loss < 1 {
		loss = 1
	}
	if loss > change {
		loss = change
	}

	return Adjustment{KillerChange: change, VictimChange: -loss}
}

// SuicidePenalty is the fixed rating cost of a suicide.
func (e *EloEngine) SuicidePenalty() int { return e.suicidePenalty }

// TeamkillPenalty is the fixed rating cost of killing a teammate.
func (e *EloEngine) TeamkillPenalty() int { return e.teamkillPenalty }

func (e *EloEngine) kFor(s *playerdomain.PlayerStats) int {
	if s.GamesPlayed() < e.provisionalGames {
		return e.provisionalK
	}
	return e.kFactor
}

var _ Engine = (*EloEngine)(nil)
