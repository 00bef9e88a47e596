package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/schedule"
	"github.com/nathoo/talecraft/types"
)

// yamlFile is the data-only content format: locations and NPCs whose hooks
// name scripts or spell out { script, params } instructions.
type yamlFile struct {
	Locations []yamlLocation `yaml:"locations"`
	NPCs      []yamlNPC      `yaml:"npcs"`
}

type yamlLocation struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Links       []string `yaml:"links"`
	OnArrive    any      `yaml:"onArrive"`
	OnTick      any      `yaml:"onTick"`
}

type yamlNPC struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name"`
	Location  string             `yaml:"location"`
	KnownName bool               `yaml:"knownName"`
	Stats     map[string]float64 `yaml:"stats"`
	Schedule  []any              `yaml:"schedule"`
	Hooks     map[string]any     `yaml:"hooks"`
}

// yaml compiles one YAML content file.
func (c *compiler) yaml(name string, data []byte) error {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	for _, l := range f.Locations {
		where := name + ": location " + l.ID
		onArrive, err := c.yamlScript(where+".onArrive", l.OnArrive)
		if err != nil {
			return err
		}
		onTick, err := c.yamlScript(where+".onTick", l.OnTick)
		if err != nil {
			return err
		}
		if err := c.lib.RegisterLocation(engine.Location{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Links:       l.Links,
			OnArrive:    onArrive,
			OnTick:      onTick,
		}); err != nil {
			return err
		}
	}

	for _, n := range f.NPCs {
		where := name + ": npc " + n.ID
		def := engine.NPCDef{
			ID:        n.ID,
			Name:      n.Name,
			Location:  n.Location,
			KnownName: n.KnownName,
			Stats:     n.Stats,
			Hooks:     map[string]engine.Script{},
		}
		if def.Stats == nil {
			def.Stats = map[string]float64{}
		}
		if n.Schedule != nil {
			table, err := schedule.FromAny(n.Schedule)
			if err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
			def.Schedule = table
		}
		for hook, v := range n.Hooks {
			s, err := c.yamlScript(where+"."+hook, v)
			if err != nil {
				return err
			}
			if !s.IsZero() {
				def.Hooks[hook] = s
			}
		}
		if err := c.lib.RegisterNPC(def); err != nil {
			return err
		}
	}
	return nil
}

// yamlScript compiles a decoded YAML script value: a name, an instruction
// map, or a list of either.
func (c *compiler) yamlScript(where string, v any) (engine.Script, error) {
	if v == nil {
		return engine.Script{}, nil
	}
	var in types.Instruction
	switch t := normalize(v).(type) {
	case string:
		in = types.Instruction{Script: t}
	case types.Instruction:
		in = t
	case []any:
		in = types.Instruction{Script: "seq", Params: map[string]any{"do": t}}
	default:
		return engine.Script{}, fmt.Errorf("%s: expected a script name or instruction, got %T", where, v)
	}
	c.sources = append(c.sources, sourced{where: where, instr: in})
	if len(in.Params) == 0 && in.Script != "seq" {
		return engine.Name(in.Script), nil
	}
	return engine.Instr(in), nil
}

// normalize turns decoded { script, params } maps into Instructions so
// YAML and Lua content validate the same way.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if name, ok := t["script"].(string); ok && len(t) <= 2 {
			if _, extra := t["params"]; extra || len(t) == 1 {
				params, _ := normalize(t["params"]).(map[string]any)
				if params == nil {
					params = map[string]any{}
				}
				return types.Instruction{Script: name, Params: params}
			}
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
