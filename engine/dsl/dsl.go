// Package dsl builds instruction trees for authored content.
//
// Every builder is pure: it returns a types.Instruction and touches no game
// state. Wherever a script is expected a builder accepts either an
// Instruction or a registered script name.
package dsl

import (
	"errors"

	"github.com/nathoo/talecraft/types"
)

// ErrCondArgs is returned by Cond when given fewer than two arguments.
var ErrCondArgs = errors.New("cond needs at least one condition and expression")

// Call builds a call to any registered script.
func Call(script string, params map[string]any) types.Instruction {
	if params == nil {
		params = map[string]any{}
	}
	return types.Instruction{Script: script, Params: params}
}

// Ref turns a script name into a parameterless instruction.
func Ref(name string) types.Instruction {
	return types.Instruction{Script: name, Params: map[string]any{}}
}

// Say appends a line of dialogue spoken by the frame's active NPC.
func Say(text string) types.Instruction {
	return Call("say", map[string]any{"text": text})
}

// SayAs appends a line of dialogue spoken by the given NPC.
func SayAs(speaker, text string) types.Instruction {
	return Call("say", map[string]any{"text": text, "speaker": speaker})
}

// Narrate appends narration.
func Narrate(text string) types.Instruction {
	return Call("narrate", map[string]any{"text": text})
}

// ShowImage toggles the frame's image flag.
func ShowImage(show bool) types.Instruction {
	return Call("showImage", map[string]any{"show": show})
}

// Seq runs steps in order.
func Seq(steps ...types.Instruction) types.Instruction {
	return Call("seq", map[string]any{"do": steps})
}

// When runs then if cond is truthy.
func When(cond any, then ...types.Instruction) types.Instruction {
	return Call("when", map[string]any{"if": cond, "then": then})
}

// Unless runs then if cond is falsy.
func Unless(cond any, then ...types.Instruction) types.Instruction {
	return Call("unless", map[string]any{"if": cond, "then": then})
}

// Cond pairs its arguments into (condition, expression) branches. A trailing
// odd argument is the default branch.
func Cond(args ...any) (types.Instruction, error) {
	if len(args) < 2 {
		return types.Instruction{}, ErrCondArgs
	}
	var branches []any
	for i := 0; i+1 < len(args); i += 2 {
		branches = append(branches, map[string]any{"if": args[i], "then": args[i+1]})
	}
	params := map[string]any{"branches": branches}
	if len(args)%2 == 1 {
		params["else"] = args[len(args)-1]
	}
	return Call("cond", params), nil
}

// MustCond is like Cond but panics on a malformed argument list.
func MustCond(args ...any) types.Instruction {
	in, err := Cond(args...)
	if err != nil {
		panic(err)
	}
	return in
}

// Random runs one uniformly chosen child.
func Random(children ...types.Instruction) types.Instruction {
	return Call("random", map[string]any{"of": children})
}

// And is true when every predicate is truthy.
func And(preds ...any) types.Instruction {
	return Call("and", map[string]any{"of": preds})
}

// Or is true when any predicate is truthy.
func Or(preds ...any) types.Instruction {
	return Call("or", map[string]any{"of": preds})
}

// Not negates a predicate.
func Not(pred any) types.Instruction {
	return Call("not", map[string]any{"of": pred})
}

// True and False are constant predicates.
func True() types.Instruction  { return Ref("true") }
func False() types.Instruction { return Ref("false") }

// SkillCheck returns the outcome of a skill check as a value.
func SkillCheck(skill string, difficulty float64) types.Instruction {
	return Call("skillCheck", map[string]any{"skill": skill, "difficulty": difficulty})
}

// SkillBranch runs onSuccess or onFailure depending on a skill check.
// Either branch may be the zero Instruction.
func SkillBranch(skill string, difficulty float64, onSuccess, onFailure types.Instruction) types.Instruction {
	params := map[string]any{"skill": skill, "difficulty": difficulty}
	if onSuccess.Script != "" {
		params["success"] = onSuccess
	}
	if onFailure.Script != "" {
		params["failure"] = onFailure
	}
	return Call("skillCheck", params)
}

// Scene runs steps inside a new scene frame.
func Scene(steps ...types.Instruction) types.Instruction {
	return Call("scene", map[string]any{"do": steps})
}

// SceneWith is Scene with an active NPC.
func SceneWith(npc string, steps ...types.Instruction) types.Instruction {
	return Call("scene", map[string]any{"do": steps, "npc": npc})
}

// Scenes chains scene instructions; completing one starts the next.
func Scenes(scenes ...types.Instruction) types.Instruction {
	return Call("scenes", map[string]any{"of": scenes})
}

// Menu presents its choices until an exit option is taken.
func Menu(steps ...types.Instruction) types.Instruction {
	return Call("menu", map[string]any{"do": steps})
}

// Option adds a choice labelled label that runs script with params.
func Option(script any, params map[string]any, label string) types.Instruction {
	p := map[string]any{"label": label, "script": script}
	if params != nil {
		p["params"] = params
	}
	return Call("option", p)
}

// ExitOption adds a choice that leaves the current menu after running then.
func ExitOption(label string, then ...types.Instruction) types.Instruction {
	return Call("option", map[string]any{"label": label, "script": Seq(then...), "exit": true})
}

// Branch is an inline option whose script is then.
func Branch(label string, then ...types.Instruction) types.Instruction {
	return Call("branch", map[string]any{"label": label, "then": then})
}

// Exit leaves the current scene frame and runs then in the parent.
func Exit(then ...types.Instruction) types.Instruction {
	return Call("exit", map[string]any{"do": then})
}

// ReplaceScene overwrites the current frame's content and choices.
func ReplaceScene(steps ...types.Instruction) types.Instruction {
	return Call("replaceScene", map[string]any{"do": steps})
}

// SetStat sets a stat on the player ("player") or an NPC.
func SetStat(target, stat string, value float64) types.Instruction {
	return Call("setStat", map[string]any{"target": target, "stat": stat, "value": value})
}

// AddStat adds amount to a stat.
func AddStat(target, stat string, amount float64) types.Instruction {
	return Call("addStat", map[string]any{"target": target, "stat": stat, "amount": amount})
}

// StatGte is true when the stat is at least value.
func StatGte(target, stat string, value float64) types.Instruction {
	return Call("statGte", map[string]any{"target": target, "stat": stat, "value": value})
}

// StatLt is true when the stat is below value.
func StatLt(target, stat string, value float64) types.Instruction {
	return Call("statLt", map[string]any{"target": target, "stat": stat, "value": value})
}

// SetFlag sets a player flag.
func SetFlag(name string, value bool) types.Instruction {
	return Call("setFlag", map[string]any{"flag": name, "value": value})
}

// Flag is true when the player flag is set.
func Flag(name string) types.Instruction {
	return Call("flag", map[string]any{"flag": name})
}

// GiveItem, TakeItem and HasItem manage the player's inventory.
func GiveItem(item string) types.Instruction {
	return Call("giveItem", map[string]any{"item": item})
}

func TakeItem(item string) types.Instruction {
	return Call("takeItem", map[string]any{"item": item})
}

func HasItem(item string) types.Instruction {
	return Call("hasItem", map[string]any{"item": item})
}

// GoTo moves the player.
func GoTo(location string) types.Instruction {
	return Call("goTo", map[string]any{"location": location})
}

// Wait passes time while the player waits in place.
func Wait(minutes int) types.Instruction {
	return Call("wait", map[string]any{"minutes": minutes})
}

// TimeLapse advances the world clock.
func TimeLapse(minutes int) types.Instruction {
	return Call("timeLapse", map[string]any{"minutes": minutes})
}

// Approach interacts with an NPC.
func Approach(npc string) types.Instruction {
	return Call("approach", map[string]any{"npc": npc})
}

// FollowSchedule moves npc according to table.
func FollowSchedule(npc string, table []types.ScheduleEntry) types.Instruction {
	return Call("followSchedule", map[string]any{"npc": npc, "schedule": table})
}

// MoveNPC places npc at location; "" sends it offscreen.
func MoveNPC(npc, location string) types.Instruction {
	return Call("moveNPC", map[string]any{"npc": npc, "location": location})
}

// LearnName marks the NPC's name as known.
func LearnName(npc string) types.Instruction {
	return Call("learnName", map[string]any{"npc": npc})
}

// HourBetween is true when the hour of day is in [start, end), wrapping midnight.
func HourBetween(start, end float64) types.Instruction {
	return Call("hourBetween", map[string]any{"start": start, "end": end})
}

// AddCard creates a card of the given type.
func AddCard(typeID string, fields map[string]any) types.Instruction {
	return Call("addCard", map[string]any{"type": typeID, "fields": fields})
}

// RemoveCard removes a card by instance id.
func RemoveCard(instanceID string) types.Instruction {
	return Call("removeCard", map[string]any{"card": instanceID})
}

// SetCardField sets one field of a card.
func SetCardField(instanceID, key string, value any) types.Instruction {
	return Call("setCardField", map[string]any{"card": instanceID, "key": key, "value": value})
}

// HasCard is true when the player holds a card of the given type.
func HasCard(typeID string) types.Instruction {
	return Call("hasCard", map[string]any{"type": typeID})
}

// Check evaluates a boolean expression against the game state.
func Check(expr string) types.Instruction {
	return Call("check", map[string]any{"expr": expr})
}
