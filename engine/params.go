package engine

import "github.com/nathoo/talecraft/types"

// paramString returns a string param, or "" if missing.
func paramString(p Params, key string) string {
	s, _ := p[key].(string)
	return s
}

// requireString returns a non-empty string param or a ParamError.
func requireString(script string, p Params, key string) (string, error) {
	s := paramString(p, key)
	if s == "" {
		return "", &ParamError{Script: script, Param: key, Reason: "required string"}
	}
	return s, nil
}

// paramBool returns a bool param, or false if missing.
func paramBool(p Params, key string) bool {
	b, _ := p[key].(bool)
	return b
}

// paramFloat returns a numeric param as float64, handling ints from Go
// content and float64 from JSON and Lua.
func paramFloat(p Params, key string) (float64, bool) {
	return toFloat(p[key])
}

// requireFloat returns a numeric param or a ParamError when it is missing
// or not a number.
func requireFloat(script string, p Params, key string) (float64, error) {
	f, ok := paramFloat(p, key)
	if !ok {
		return 0, &ParamError{Script: script, Param: key, Reason: "required number"}
	}
	return f, nil
}

// paramFloats returns a list-of-numbers param. A missing param yields
// (nil, true); any non-numeric element yields false.
func paramFloats(p Params, key string) ([]float64, bool) {
	switch list := p[key].(type) {
	case nil:
		return nil, true
	case []float64:
		return list, true
	case []int:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(list))
		for i, v := range list {
			f, ok := toFloat(v)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

// paramInt returns a numeric param truncated to int, or 0.
func paramInt(p Params, key string) int {
	f, _ := toFloat(p[key])
	return int(f)
}

// paramScript returns a script param. Missing values yield the zero Script.
func paramScript(script string, p Params, key string) (Script, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return Script{}, nil
	}
	s, ok := AsScript(v)
	if !ok {
		return Script{}, &ParamError{Script: script, Param: key, Reason: "not a script"}
	}
	return s, nil
}

// paramScripts returns a list-of-scripts param.
func paramScripts(script string, p Params, key string) ([]Script, error) {
	list, ok := AsScripts(p[key])
	if !ok {
		return nil, &ParamError{Script: script, Param: key, Reason: "not a list of scripts"}
	}
	return list, nil
}

// paramMap returns a map param, or nil.
func paramMap(p Params, key string) map[string]any {
	m, _ := p[key].(map[string]any)
	return m
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// isPrimitive reports whether v is a JSON primitive.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, bool, string, int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

// normalizePrimitive converts numbers to float64 so that values survive a
// JSON round trip unchanged.
func normalizePrimitive(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

// instructionsOf converts scripts into their serializable forms.
func instructionsOf(scripts []Script) ([]types.Instruction, error) {
	out := make([]types.Instruction, 0, len(scripts))
	for _, s := range scripts {
		in, ok := s.Instruction()
		if !ok {
			return nil, ErrNotSerializable
		}
		out = append(out, in)
	}
	return out, nil
}
