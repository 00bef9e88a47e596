package engine

import (
	"errors"
	"fmt"

	"github.com/nathoo/talecraft/types"
)

// Params is the argument bag passed to every script.
type Params = map[string]any

// Func is the executable behavior behind a script name.
type Func func(g *Game, p Params) (any, error)

// Script is anything that resolves to executable behavior: a registered
// name, an Instruction, or a Go callable. The zero Script is a no-op.
type Script struct {
	name  string
	instr *types.Instruction
	fn    Func
}

// Name refers to a registered script.
func Name(name string) Script {
	return Script{name: name}
}

// Instr wraps an instruction.
func Instr(in types.Instruction) Script {
	return Script{instr: &in}
}

// Callable wraps a Go function. Callables cannot be saved.
func Callable(fn Func) Script {
	return Script{fn: fn}
}

// IsZero reports whether s refers to nothing.
func (s Script) IsZero() bool {
	return s.name == "" && s.instr == nil && s.fn == nil
}

// Instruction returns the serializable form of s. Callables have none.
func (s Script) Instruction() (types.Instruction, bool) {
	switch {
	case s.instr != nil:
		return *s.instr, true
	case s.name != "":
		return types.Instruction{Script: s.name, Params: map[string]any{}}, true
	default:
		return types.Instruction{}, false
	}
}

func (s Script) String() string {
	switch {
	case s.instr != nil:
		return s.instr.Script
	case s.name != "":
		return s.name
	case s.fn != nil:
		return "<callable>"
	default:
		return "<none>"
	}
}

// UnknownScriptError is returned when a script name is not registered.
type UnknownScriptError struct {
	Name string
}

func (e *UnknownScriptError) Error() string {
	return fmt.Sprintf("unknown script %q", e.Name)
}

// ParamError reports a missing or malformed script parameter.
type ParamError struct {
	Script string
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("script %s: param %q: %s", e.Script, e.Param, e.Reason)
}

var (
	ErrDuplicateScript = errors.New("script already registered")
	ErrLibraryFrozen   = errors.New("library is frozen")
	ErrScriptDepth     = errors.New("script nesting too deep")
	ErrNotSerializable = errors.New("script has no serializable form")
)

// AsScript converts a parameter value into a Script. Accepted values are
// Script, registered names, Instructions, decoded instruction maps
// ({"script": ..., "params": ...}), Funcs and bool constants.
func AsScript(v any) (Script, bool) {
	switch t := v.(type) {
	case Script:
		return t, !t.IsZero()
	case string:
		if t == "" {
			return Script{}, false
		}
		return Name(t), true
	case types.Instruction:
		if t.Script == "" {
			return Script{}, false
		}
		return Instr(t), true
	case *types.Instruction:
		if t == nil || t.Script == "" {
			return Script{}, false
		}
		return Instr(*t), true
	case map[string]any:
		in, ok := decodeInstruction(t)
		if !ok {
			return Script{}, false
		}
		return Instr(in), true
	case Func:
		return Callable(t), t != nil
	case func(*Game, Params) (any, error):
		return Callable(t), t != nil
	case bool:
		if t {
			return Name("true"), true
		}
		return Name("false"), true
	default:
		return Script{}, false
	}
}

// AsScripts converts a list parameter. A single script is treated as a
// one-element list and nil as an empty one.
func AsScripts(v any) ([]Script, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []Script:
		return t, true
	case []types.Instruction:
		out := make([]Script, 0, len(t))
		for _, in := range t {
			out = append(out, Instr(in))
		}
		return out, true
	case []any:
		out := make([]Script, 0, len(t))
		for _, item := range t {
			s, ok := AsScript(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case []string:
		out := make([]Script, 0, len(t))
		for _, name := range t {
			out = append(out, Name(name))
		}
		return out, true
	default:
		s, ok := AsScript(v)
		if !ok {
			return nil, false
		}
		return []Script{s}, true
	}
}

// AsInstruction converts a parameter value into a serializable instruction.
func AsInstruction(v any) (types.Instruction, bool) {
	s, ok := AsScript(v)
	if !ok {
		return types.Instruction{}, false
	}
	return s.Instruction()
}

// decodeInstruction accepts the JSON shape of an Instruction.
func decodeInstruction(m map[string]any) (types.Instruction, bool) {
	name, ok := m["script"].(string)
	if !ok || name == "" {
		return types.Instruction{}, false
	}
	params, _ := m["params"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}
	return types.Instruction{Script: name, Params: params}, true
}

// Truthy reports the boolean value of a script result.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// merge overlays extra on top of base without mutating either.
func merge(base, extra Params) Params {
	if len(extra) == 0 {
		if base == nil {
			return Params{}
		}
		return base
	}
	out := make(Params, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
