// Package loader loads Lua and YAML story content into an engine library.
// Lua only runs at load time: every hook and script it defines compiles to
// plain instructions, so nothing authored in Lua survives into a game.
package loader

import (
	"fmt"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/clock"
	"github.com/nathoo/talecraft/engine/schedule"
	"github.com/nathoo/talecraft/types"
)

// npcHooks lists the hook keys read from an NPC table.
var npcHooks = []string{
	engine.HookOnMove,
	engine.HookOnApproach,
	engine.HookOnFirstApproach,
	engine.HookOnWait,
	engine.HookAfterUpdate,
	engine.HookOnNoShow,
}

// sourced is a compiled instruction together with where it was defined,
// kept for validation.
type sourced struct {
	where string
	instr types.Instruction
}

// compiler registers compiled definitions into a library.
type compiler struct {
	lib     *engine.Library
	sources []sourced
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or false if missing.
func getBool(tbl *lua.LTable, key string) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return false
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// isInstruction reports whether tbl has the { script, params } shape.
func isInstruction(tbl *lua.LTable) bool {
	_, ok := tbl.RawGetString("script").(lua.LString)
	if !ok {
		return false
	}
	_, ok = tbl.RawGetString("params").(*lua.LTable)
	return ok
}

// toGoValue converts a Lua value to a Go value recursively. Instruction
// tables become types.Instruction, arrays become []any and other tables
// become maps. Empty tables convert to nil.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if isInstruction(val) {
			return toInstruction(val)
		}
		if maxN := val.MaxN(); maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := tableToAnyMap(val)
		if len(m) == 0 {
			return nil
		}
		return m
	default:
		return nil
	}
}

func toInstruction(tbl *lua.LTable) types.Instruction {
	params := tableToAnyMap(getTable(tbl, "params"))
	if params == nil {
		params = map[string]any{}
	}
	return types.Instruction{Script: getString(tbl, "script"), Params: params}
}

// tableToAnyMap converts the string-keyed entries of a Lua table.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	if tbl == nil {
		return nil
	}
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if gv := toGoValue(v); gv != nil {
				m[string(ks)] = gv
			}
		}
	})
	return m
}

// tableToStrings converts a Lua array of strings.
func tableToStrings(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToStats converts a Lua table of numbers.
func tableToStats(tbl *lua.LTable) map[string]float64 {
	out := map[string]float64{}
	if tbl == nil {
		return out
	}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, kok := k.(lua.LString)
		n, vok := v.(lua.LNumber)
		if kok && vok {
			out[string(ks)] = float64(n)
		}
	})
	return out
}

// script compiles a script-valued field. Arrays of instructions become a
// sequence. Missing fields compile to the zero Script.
func (c *compiler) script(where string, v lua.LValue) (engine.Script, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return engine.Script{}, nil
	case lua.LString:
		c.sources = append(c.sources, sourced{where: where, instr: types.Instruction{Script: string(val)}})
		return engine.Name(string(val)), nil
	case *lua.LTable:
		var in types.Instruction
		if isInstruction(val) {
			in = toInstruction(val)
		} else {
			steps, ok := toGoValue(val).([]any)
			if !ok {
				return engine.Script{}, fmt.Errorf("%s: expected an instruction or a list of instructions", where)
			}
			in = types.Instruction{Script: "seq", Params: map[string]any{"do": steps}}
		}
		c.sources = append(c.sources, sourced{where: where, instr: in})
		return engine.Instr(in), nil
	default:
		return engine.Script{}, fmt.Errorf("%s: expected an instruction, got %s", where, v.Type())
	}
}

// compile converts all collected Lua data into library registrations.
// Scripts register first so that hooks may refer to them by name.
func (c *compiler) compile(coll *collector) error {
	if coll.game == nil {
		return fmt.Errorf("no Game{} definition found")
	}
	if err := c.compileGame(coll.game); err != nil {
		return err
	}

	for _, raw := range coll.scripts {
		s, err := c.script("script "+raw.name, raw.body)
		if err != nil {
			return err
		}
		in, ok := s.Instruction()
		if !ok {
			return fmt.Errorf("script %s: empty body", raw.name)
		}
		if err := c.lib.RegisterInstruction(raw.name, in); err != nil {
			return err
		}
	}

	for _, raw := range coll.locations {
		if err := c.compileLocation(raw); err != nil {
			return fmt.Errorf("compiling location %s: %w", raw.id, err)
		}
	}
	for _, raw := range coll.npcs {
		if err := c.compileNPC(raw); err != nil {
			return fmt.Errorf("compiling npc %s: %w", raw.id, err)
		}
	}
	for _, raw := range coll.cards {
		if err := c.compileCard(raw); err != nil {
			return fmt.Errorf("compiling card %s: %w", raw.id, err)
		}
	}
	return nil
}

func (c *compiler) compileGame(tbl *lua.LTable) error {
	m := &c.lib.Meta
	m.Title = getString(tbl, "title")
	m.Author = getString(tbl, "author")
	m.Version = getString(tbl, "version")
	m.Start = getString(tbl, "start")
	m.Intro = getString(tbl, "intro")

	switch v := tbl.RawGetString("startTime").(type) {
	case lua.LNumber:
		m.StartTime = int64(v)
	case lua.LString:
		t, err := clock.Parse(string(v))
		if err != nil {
			return fmt.Errorf("Game.startTime: %w", err)
		}
		m.StartTime = t
	}

	opening, err := c.script("Game.opening", tbl.RawGetString("opening"))
	if err != nil {
		return err
	}
	m.Opening = opening
	return nil
}

func (c *compiler) compileLocation(raw rawDef) error {
	tbl := raw.table
	where := "location " + raw.id
	onArrive, err := c.script(where+".onArrive", tbl.RawGetString("onArrive"))
	if err != nil {
		return err
	}
	onTick, err := c.script(where+".onTick", tbl.RawGetString("onTick"))
	if err != nil {
		return err
	}
	return c.lib.RegisterLocation(engine.Location{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Links:       tableToStrings(getTable(tbl, "links")),
		OnArrive:    onArrive,
		OnTick:      onTick,
	})
}

func (c *compiler) compileNPC(raw rawDef) error {
	tbl := raw.table
	def := engine.NPCDef{
		ID:        raw.id,
		Name:      getString(tbl, "name"),
		Location:  getString(tbl, "location"),
		KnownName: getBool(tbl, "knownName"),
		Stats:     tableToStats(getTable(tbl, "stats")),
		Hooks:     map[string]engine.Script{},
	}
	if st := getTable(tbl, "schedule"); st != nil {
		table, err := schedule.FromAny(toGoValue(st))
		if err != nil {
			return err
		}
		def.Schedule = table
	}
	for _, hook := range npcHooks {
		s, err := c.script("npc "+raw.id+"."+hook, tbl.RawGetString(hook))
		if err != nil {
			return err
		}
		if !s.IsZero() {
			def.Hooks[hook] = s
		}
	}
	return c.lib.RegisterNPC(def)
}

func (c *compiler) compileCard(raw rawDef) error {
	tbl := raw.table
	where := "card " + raw.id
	onAdded, err := c.script(where+".onAdded", tbl.RawGetString("onAdded"))
	if err != nil {
		return err
	}
	afterUpdate, err := c.script(where+".afterUpdate", tbl.RawGetString("afterUpdate"))
	if err != nil {
		return err
	}

	def := engine.CardDefinition{
		ID:          raw.id,
		OnAdded:     onAdded,
		AfterUpdate: afterUpdate,
	}
	if title := getString(tbl, "title"); title != "" {
		def.Title = func(card types.Card) string { return fillFields(title, card.Fields) }
	}
	if desc := getString(tbl, "description"); desc != "" {
		def.Describe = func(g *engine.Game, card types.Card) string { return fillFields(desc, card.Fields) }
	}

	reminders, err := c.compileReminders(where, getTable(tbl, "reminders"))
	if err != nil {
		return err
	}
	if len(reminders) > 0 {
		def.Reminders = func(g *engine.Game, card types.Card) []string {
			var out []string
			for _, r := range reminders {
				if !r.when.IsZero() {
					v, err := g.Run(r.when, engine.Params{"card": card.InstanceID})
					if err != nil {
						g.Logger.Warn("reminder condition failed", "card", card.TypeID, "error", err)
						continue
					}
					if !engine.Truthy(v) {
						continue
					}
				}
				out = append(out, fillFields(r.text, card.Fields))
			}
			return out
		}
	}
	return c.lib.RegisterCard(def)
}

// reminder is a hint shown while its condition holds.
type reminder struct {
	text string
	when engine.Script
}

func (c *compiler) compileReminders(where string, tbl *lua.LTable) ([]reminder, error) {
	if tbl == nil {
		return nil, nil
	}
	var out []reminder
	for i := 1; i <= tbl.MaxN(); i++ {
		switch v := tbl.RawGetInt(i).(type) {
		case lua.LString:
			out = append(out, reminder{text: string(v)})
		case *lua.LTable:
			when, err := c.script(fmt.Sprintf("%s.reminders[%d]", where, i), v.RawGetString("when"))
			if err != nil {
				return nil, err
			}
			out = append(out, reminder{text: getString(v, "text"), when: when})
		}
	}
	return out, nil
}

// fillFields replaces {key} with the card's field values.
func fillFields(tmpl string, fields map[string]any) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(fields))
	for k, v := range fields {
		pairs = append(pairs, "{"+k+"}", formatField(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func formatField(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
