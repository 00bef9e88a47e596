package engine

import (
	"math"

	"github.com/jwebster45206/d20"
)

// SkillValue returns the player's value for a skill or stat. Whole-number
// stats are read through a d20 actor built from the current stats, so
// writes made directly to the stat map are always visible. Fractional stats
// are returned as stored; missing ones are 0.
func (g *Game) SkillValue(skill string) float64 {
	raw, ok := g.State.Player.Stats[skill]
	if !ok || raw != math.Trunc(raw) {
		return raw
	}
	if a := g.skillActor(); a != nil {
		if v, ok := a.Attribute(skill); ok {
			return float64(v)
		}
	}
	return raw
}

// skillActor builds the player's actor from the whole-number stats.
func (g *Game) skillActor() *d20.Actor {
	attrs := make(map[string]int, len(g.State.Player.Stats))
	for k, v := range g.State.Player.Stats {
		if v == math.Trunc(v) {
			attrs[k] = int(v)
		}
	}
	hp := attrs["hp"]
	if hp <= 0 {
		hp = 1
	}
	ac := attrs["ac"]
	if ac <= 0 {
		ac = 10
	}
	actor, err := d20.NewActor("player").
		WithHP(hp).
		WithAC(ac).
		WithAttributes(attrs).
		Build()
	if err != nil {
		g.Logger.Warn("building skill actor", "error", err)
		return nil
	}
	return actor
}
