package engine

import (
	"fmt"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/nathoo/talecraft/engine/clock"
)

// exprEnv compiles and caches boolean expressions over the game state.
//
// Variables: player (map), npc (map of the scene NPC, empty outside one),
// npcs (map of id -> map), hour (double), time and day (int).
type exprEnv struct {
	env   *cel.Env
	progs map[string]cel.Program
}

func newExprEnv(g *Game) (*exprEnv, error) {
	env, err := cel.NewEnv(
		cel.Variable("player", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("npc", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("npcs", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("hour", cel.DoubleType),
		cel.Variable("time", cel.IntType),
		cel.Variable("day", cel.IntType),

		cel.Function("roll",
			cel.Overload("roll_int",
				[]*cel.Type{cel.IntType},
				cel.IntType,
				cel.UnaryBinding(func(arg ref.Val) ref.Val {
					n, ok := arg.Value().(int64)
					if !ok || n < 1 {
						return celtypes.Int(0)
					}
					return celtypes.Int(g.RNG.Roll(int(n)))
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &exprEnv{env: env, progs: map[string]cel.Program{}}, nil
}

func (e *exprEnv) program(expr string) (cel.Program, error) {
	if p, ok := e.progs[expr]; ok {
		return p, nil
	}
	ast, iss := e.env.Compile(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	prog, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.progs[expr] = prog
	return prog, nil
}

// Eval evaluates expr against the current state and returns its value.
func (g *Game) Eval(expr string) (any, error) {
	if g.exprs == nil {
		env, err := newExprEnv(g)
		if err != nil {
			return nil, fmt.Errorf("expression env: %w", err)
		}
		g.exprs = env
	}
	prog, err := g.exprs.program(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	out, _, err := prog.Eval(g.exprVars())
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expr, err)
	}
	return out.Value(), nil
}

func (g *Game) exprVars() map[string]any {
	p := g.State.Player
	stats := make(map[string]any, len(p.Stats))
	for k, v := range p.Stats {
		stats[k] = v
	}
	flags := make(map[string]any, len(p.Flags))
	for k, v := range p.Flags {
		flags[k] = v
	}
	inv := make([]any, len(p.Inventory))
	for i, it := range p.Inventory {
		inv[i] = it
	}
	cards := make([]any, 0, len(p.Cards))
	for _, c := range p.Cards {
		cards = append(cards, c.TypeID)
	}
	player := map[string]any{
		"location":  p.Location,
		"stats":     stats,
		"flags":     flags,
		"inventory": inv,
		"cards":     cards,
	}

	npcs := make(map[string]any, len(g.State.NPCs))
	for id, n := range g.State.NPCs {
		s := make(map[string]any, len(n.Stats))
		for k, v := range n.Stats {
			s[k] = v
		}
		npcs[id] = map[string]any{
			"id":        id,
			"location":  n.Location,
			"stats":     s,
			"nameKnown": n.NameKnown != 0,
		}
	}
	npc := map[string]any{}
	if id := g.ActiveNPC(); id != "" {
		if m, ok := npcs[id].(map[string]any); ok {
			npc = m
		}
	}

	return map[string]any{
		"player": player,
		"npc":    npc,
		"npcs":   npcs,
		"hour":   g.HourOfDay(),
		"time":   g.State.Time,
		"day":    clock.Day(g.State.Time),
	}
}
