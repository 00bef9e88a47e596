package engine

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathoo/talecraft/engine/schedule"
	"github.com/nathoo/talecraft/types"
)

// NPC hook names.
const (
	HookOnMove          = "onMove"
	HookOnApproach      = "onApproach"
	HookOnFirstApproach = "onFirstApproach"
	HookOnWait          = "onWait"
	HookAfterUpdate     = "afterUpdate"
	HookOnNoShow        = "onNoShow"
)

// statMet counts how many times the player has approached an NPC.
const statMet = "met"

// NPCDef is the authored definition of an NPC. Hooks absent from the map
// are no-ops.
type NPCDef struct {
	ID        string
	Name      string
	Location  string             // initial location, "" for offscreen
	KnownName bool               // name shown before the player learns it
	Stats     map[string]float64 // initial stats
	Schedule  []types.ScheduleEntry
	Hooks     map[string]Script
}

// UnknownNPCError is returned when an NPC id has no definition.
type UnknownNPCError struct {
	ID string
}

func (e *UnknownNPCError) Error() string {
	return fmt.Sprintf("unknown npc %q", e.ID)
}

// NPC returns the runtime state of an NPC, materializing it on first use.
// A newly materialized NPC with a schedule starts wherever the schedule
// places it at the current hour, without firing onMove.
func (g *Game) NPC(id string) (*types.NPCState, error) {
	if n, ok := g.State.NPCs[id]; ok {
		return n, nil
	}
	def := g.Lib.NPCDef(id)
	if def == nil {
		return nil, &UnknownNPCError{ID: id}
	}
	n := &types.NPCState{
		ID:       id,
		Location: def.Location,
		Stats:    map[string]float64{},
	}
	if def.KnownName {
		n.NameKnown = 1
	}
	for k, v := range def.Stats {
		n.Stats[k] = v
	}
	if loc, ok := schedule.Resolve(def.Schedule, g.HourOfDay()); ok {
		n.Location = loc
	}
	g.State.NPCs[id] = n
	g.Logger.Debug("npc materialized", "npc", id, "location", n.Location)
	return n, nil
}

// RunNPCHook runs the named hook of an NPC with the NPC id in the "npc"
// param. Missing definitions or hooks are absorbed.
func (g *Game) RunNPCHook(id, hook string, params Params) (any, error) {
	def := g.Lib.NPCDef(id)
	if def == nil {
		return nil, nil
	}
	s, ok := def.Hooks[hook]
	if !ok || s.IsZero() {
		g.Logger.Debug("npc hook absent", "npc", id, "hook", hook)
		return nil, nil
	}
	return g.Run(s, merge(Params{"npc": id}, params))
}

// HasHook reports whether the NPC defines the hook.
func (g *Game) HasHook(id, hook string) bool {
	def := g.Lib.NPCDef(id)
	if def == nil {
		return false
	}
	s, ok := def.Hooks[hook]
	return ok && !s.IsZero()
}

// FollowSchedule resolves the NPC's location from table at the current hour.
// The new location is computed once and compared with the previous one;
// onMove fires only on an actual change. An NPC held by a card that is
// still active stays where it is.
func (g *Game) FollowSchedule(id string, table []types.ScheduleEntry) (bool, error) {
	n, err := g.NPC(id)
	if err != nil {
		return false, err
	}
	if n.HeldBy != "" {
		if g.Card(n.HeldBy) != nil {
			return false, nil
		}
		n.HeldBy = ""
	}
	loc, changed := schedule.Next(table, g.HourOfDay(), n.Location)
	if !changed {
		return false, nil
	}
	return true, g.moveNPC(n, loc)
}

// MoveNPC places an NPC at loc, firing onMove when the location changes.
func (g *Game) MoveNPC(id, loc string) error {
	n, err := g.NPC(id)
	if err != nil {
		return err
	}
	if n.Location == loc {
		return nil
	}
	return g.moveNPC(n, loc)
}

// HoldNPC moves an NPC to loc on behalf of card and keeps it there: schedules
// leave it alone until ReleaseNPC or until the card is removed.
func (g *Game) HoldNPC(id, loc, card string) error {
	if err := g.MoveNPC(id, loc); err != nil {
		return err
	}
	n, err := g.NPC(id)
	if err != nil {
		return err
	}
	n.HeldBy = card
	return nil
}

// ReleaseNPC drops the hold card has on an NPC. The schedule takes over on
// the next tick.
func (g *Game) ReleaseNPC(id, card string) {
	if n, ok := g.State.NPCs[id]; ok && n.HeldBy == card {
		n.HeldBy = ""
	}
}

func (g *Game) moveNPC(n *types.NPCState, loc string) error {
	from := n.Location
	n.Location = loc
	g.Logger.Debug("npc moved", "npc", n.ID, "from", from, "to", loc)
	_, err := g.RunNPCHook(n.ID, HookOnMove, Params{"from": from, "to": loc})
	return err
}

// Approach runs onFirstApproach the first time the player approaches an
// NPC that defines it, and onApproach otherwise.
func (g *Game) Approach(id string) error {
	n, err := g.NPC(id)
	if err != nil {
		return err
	}
	first := n.Stats[statMet] == 0
	n.Stats[statMet]++
	if first && g.HasHook(id, HookOnFirstApproach) {
		_, err = g.RunNPCHook(id, HookOnFirstApproach, nil)
		return err
	}
	_, err = g.RunNPCHook(id, HookOnApproach, nil)
	return err
}

// NPCsAt returns the materialized NPCs at loc, sorted by id.
func (g *Game) NPCsAt(loc string) []string {
	var ids []string
	for id, n := range g.State.NPCs {
		if loc != "" && n.Location == loc {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// NPCsPresent returns every defined NPC at loc, sorted by id. Looking an
// NPC up here materializes it, so this is the view to present to the player.
func (g *Game) NPCsPresent(loc string) []string {
	if loc == "" {
		return nil
	}
	var ids []string
	for _, id := range g.Lib.NPCIDs() {
		n, err := g.NPC(id)
		if err != nil {
			continue
		}
		if n.Location == loc {
			ids = append(ids, id)
		}
	}
	return ids
}

// NPCName returns the NPC's display name. Until the player learns it the
// name is withheld.
func (g *Game) NPCName(id string) string {
	if id == "" {
		return ""
	}
	n, err := g.NPC(id)
	if err != nil {
		return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
	}
	if n.NameKnown == 0 {
		return "the stranger"
	}
	if def := g.Lib.NPCDef(id); def != nil && def.Name != "" {
		return def.Name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// updateNPCs re-evaluates schedules for every materialized NPC, then runs
// each NPC's afterUpdate hook. Both passes go in id order.
func (g *Game) updateNPCs() error {
	ids := make([]string, 0, len(g.State.NPCs))
	for id := range g.State.NPCs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		def := g.Lib.NPCDef(id)
		if def == nil || len(def.Schedule) == 0 {
			continue
		}
		if _, err := g.FollowSchedule(id, def.Schedule); err != nil {
			return fmt.Errorf("npc %s: %w", id, err)
		}
	}
	for _, id := range ids {
		if _, err := g.RunNPCHook(id, HookAfterUpdate, nil); err != nil {
			return fmt.Errorf("npc %s: %w", id, err)
		}
	}
	return nil
}

// npcTarget resolves the NPC a script refers to: an explicit "npc" param,
// else the active NPC of the top frame. "" means none.
func (g *Game) npcTarget(p Params) string {
	if id := paramString(p, "npc"); id != "" {
		return id
	}
	return g.ActiveNPC()
}
