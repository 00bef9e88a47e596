package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/schedule"
	"github.com/nathoo/talecraft/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// scriptKeys are the param keys whose string values name scripts.
var scriptKeys = map[string]bool{
	"if": true, "then": true, "else": true, "do": true, "of": true,
	"success": true, "failure": true, "script": true,
}

// validate checks the library and every compiled instruction for
// referential integrity. Warnings are returned even when validation passes.
func validate(lib *engine.Library, sources []sourced) ([]string, error) {
	ve := &ValidationError{}

	if lib.Meta.Title == "" {
		ve.errorf("Game.title is required")
	}
	if lib.Meta.Start == "" {
		ve.errorf("Game.start is required")
	} else if lib.Location(lib.Meta.Start) == nil {
		ve.errorf("start location %q not found in defined locations", lib.Meta.Start)
	}

	reached := map[string]bool{lib.Meta.Start: true}
	for _, id := range lib.LocationIDs() {
		for _, link := range lib.Location(id).Links {
			if lib.Location(link) == nil {
				ve.errorf("location %q links to undefined location %q", id, link)
			}
			reached[link] = true
		}
	}

	for _, id := range lib.NPCIDs() {
		def := lib.NPCDef(id)
		if def.Location != "" && lib.Location(def.Location) == nil {
			ve.errorf("npc %q starts at undefined location %q", id, def.Location)
		}
		if err := schedule.Validate(def.Schedule); err != nil {
			ve.errorf("npc %q: %v", id, err)
		}
		for _, e := range def.Schedule {
			if lib.Location(e.Location) == nil {
				ve.errorf("npc %q schedule references undefined location %q", id, e.Location)
			}
			reached[e.Location] = true
		}
		if def.Location == "" && len(def.Schedule) == 0 {
			ve.warnf("npc %q has no location or schedule", id)
		}
	}

	for _, src := range sources {
		checkInstruction(lib, src.where, src.instr, ve, reached)
	}

	var unreached []string
	for _, id := range lib.LocationIDs() {
		if !reached[id] {
			unreached = append(unreached, id)
		}
	}
	sort.Strings(unreached)
	for _, id := range unreached {
		ve.warnf("location %q is never linked to or visited", id)
	}

	if len(ve.Errors) > 0 {
		return ve.Warnings, ve
	}
	return ve.Warnings, nil
}

// checkInstruction validates one instruction and everything nested in its
// params. Locations named by goTo and moveNPC count as reached.
func checkInstruction(lib *engine.Library, where string, in types.Instruction, ve *ValidationError, reached map[string]bool) {
	if !lib.Has(in.Script) {
		ve.errorf("%s: unknown script %q", where, in.Script)
		return
	}
	p := in.Params
	str := func(key string) string {
		s, _ := p[key].(string)
		return s
	}

	switch in.Script {
	case "goTo", "moveNPC":
		if loc := str("location"); loc != "" {
			if lib.Location(loc) == nil {
				ve.errorf("%s: %s references undefined location %q", where, in.Script, loc)
			}
			reached[loc] = true
		}
	case "addCard":
		if typ := str("type"); typ != "" && lib.CardDef(typ) == nil {
			ve.errorf("%s: addCard references undefined card type %q", where, typ)
		}
	case "option":
		if _, ok := p["script"]; !ok {
			ve.errorf("%s: option without a script", where)
		}
	}
	if npc := str("npc"); npc != "" && lib.NPCDef(npc) == nil {
		ve.errorf("%s: %s references undefined npc %q", where, in.Script, npc)
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		checkValue(lib, where+"/"+in.Script, k, p[k], ve, reached)
	}
}

func checkValue(lib *engine.Library, where, key string, v any, ve *ValidationError, reached map[string]bool) {
	switch t := v.(type) {
	case types.Instruction:
		checkInstruction(lib, where, t, ve, reached)
	case *types.Instruction:
		if t != nil {
			checkInstruction(lib, where, *t, ve, reached)
		}
	case string:
		if scriptKeys[key] && !lib.Has(t) {
			ve.errorf("%s: %s names unknown script %q", where, key, t)
		}
	case []types.Instruction:
		for _, in := range t {
			checkInstruction(lib, where, in, ve, reached)
		}
	case []any:
		for _, item := range t {
			checkValue(lib, where, key, item, ve, reached)
		}
	case map[string]any:
		if name, ok := t["script"].(string); ok && scriptKeys[key] {
			params, _ := t["params"].(map[string]any)
			checkInstruction(lib, where, types.Instruction{Script: name, Params: params}, ve, reached)
			return
		}
		for k, item := range t {
			checkValue(lib, where, k, item, ve, reached)
		}
	}
}
