package engine

import (
	"fmt"

	"github.com/nathoo/talecraft/engine/schedule"
)

// Wait advances time by minutes, then runs onWait for every NPC sharing
// the player's location.
func (g *Game) Wait(minutes int) error {
	if err := g.TimeLapse(minutes); err != nil {
		return err
	}
	for _, id := range g.NPCsPresent(g.State.Player.Location) {
		if _, err := g.RunNPCHook(id, HookOnWait, Params{"minutes": minutes}); err != nil {
			return fmt.Errorf("npc %s: %w", id, err)
		}
	}
	return nil
}

func registerWorldScripts(l *Library) {
	l.MustRegister("goTo", func(g *Game, p Params) (any, error) {
		loc, err := requireString("goTo", p, "location")
		if err != nil {
			return nil, err
		}
		return nil, g.GoTo(loc)
	})
	l.MustRegister("wait", func(g *Game, p Params) (any, error) {
		return nil, g.Wait(paramInt(p, "minutes"))
	})
	l.MustRegister("timeLapse", func(g *Game, p Params) (any, error) {
		return nil, g.TimeLapse(paramInt(p, "minutes"))
	})
	l.MustRegister("approach", func(g *Game, p Params) (any, error) {
		id := g.npcTarget(p)
		if id == "" {
			return nil, &ParamError{Script: "approach", Param: "npc", Reason: "no npc in scope"}
		}
		return nil, g.Approach(id)
	})
	l.MustRegister("moveNPC", func(g *Game, p Params) (any, error) {
		id, err := requireString("moveNPC", p, "npc")
		if err != nil {
			return nil, err
		}
		return nil, g.MoveNPC(id, paramString(p, "location"))
	})
	l.MustRegister("followSchedule", func(g *Game, p Params) (any, error) {
		id := g.npcTarget(p)
		if id == "" {
			return nil, &ParamError{Script: "followSchedule", Param: "npc", Reason: "no npc in scope"}
		}
		table, err := schedule.FromAny(p["schedule"])
		if err != nil {
			return nil, &ParamError{Script: "followSchedule", Param: "schedule", Reason: err.Error()}
		}
		return g.FollowSchedule(id, table)
	})
	l.MustRegister("hourBetween", func(g *Game, p Params) (any, error) {
		start, err := requireFloat("hourBetween", p, "start")
		if err != nil {
			return nil, err
		}
		end, err := requireFloat("hourBetween", p, "end")
		if err != nil {
			return nil, err
		}
		return schedule.Contains(start, end, g.HourOfDay()), nil
	})
	l.MustRegister("check", func(g *Game, p Params) (any, error) {
		expr, err := requireString("check", p, "expr")
		if err != nil {
			return nil, err
		}
		return g.Eval(expr)
	})
}
