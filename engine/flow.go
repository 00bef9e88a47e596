package engine

import (
	"fmt"
	"math"
)

// skillMarginStep is the change in success percentage per point of margin
// between a stat and the check's difficulty.
const skillMarginStep = 10

func registerFlow(l *Library) {
	l.MustRegister("seq", runSeq)
	l.MustRegister("when", func(g *Game, p Params) (any, error) { return runWhen(g, p, "when", true) })
	l.MustRegister("unless", func(g *Game, p Params) (any, error) { return runWhen(g, p, "unless", false) })
	l.MustRegister("cond", runCond)
	l.MustRegister("random", runRandom)
	l.MustRegister("and", runAnd)
	l.MustRegister("or", runOr)
	l.MustRegister("not", runNot)
	l.MustRegister("true", func(*Game, Params) (any, error) { return true, nil })
	l.MustRegister("false", func(*Game, Params) (any, error) { return false, nil })
	l.MustRegister("skillCheck", runSkillCheck)
	l.MustRegister("call", runCall)
}

// RunAll runs scripts in order and returns the last result.
func (g *Game) RunAll(scripts []Script) (any, error) {
	var last any
	for _, s := range scripts {
		v, err := g.Run(s, nil)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func runSeq(g *Game, p Params) (any, error) {
	steps, err := paramScripts("seq", p, "do")
	if err != nil {
		return nil, err
	}
	return g.RunAll(steps)
}

func runWhen(g *Game, p Params, name string, want bool) (any, error) {
	cond, err := paramScript(name, p, "if")
	if err != nil {
		return nil, err
	}
	if cond.IsZero() {
		return nil, &ParamError{Script: name, Param: "if", Reason: "required"}
	}
	then, err := paramScripts(name, p, "then")
	if err != nil {
		return nil, err
	}
	v, err := g.Run(cond, nil)
	if err != nil {
		return nil, err
	}
	if Truthy(v) != want {
		return nil, nil
	}
	return g.RunAll(then)
}

func runCond(g *Game, p Params) (any, error) {
	branches, ok := p["branches"].([]any)
	if !ok || len(branches) == 0 {
		return nil, &ParamError{Script: "cond", Param: "branches", Reason: "needs at least one branch"}
	}
	for _, b := range branches {
		branch, ok := b.(map[string]any)
		if !ok {
			return nil, &ParamError{Script: "cond", Param: "branches", Reason: "branch is not a map"}
		}
		cond, err := paramScript("cond", branch, "if")
		if err != nil {
			return nil, err
		}
		v, err := g.Run(cond, nil)
		if err != nil {
			return nil, err
		}
		if !Truthy(v) {
			continue
		}
		then, err := paramScripts("cond", branch, "then")
		if err != nil {
			return nil, err
		}
		return g.RunAll(then)
	}
	def, err := paramScripts("cond", p, "else")
	if err != nil {
		return nil, err
	}
	return g.RunAll(def)
}

func runRandom(g *Game, p Params) (any, error) {
	children, err := paramScripts("random", p, "of")
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	raw, ok := paramFloats(p, "weights")
	switch {
	case !ok:
		return nil, &ParamError{Script: "random", Param: "weights", Reason: "not a list of numbers"}
	case raw == nil:
		return g.Run(children[g.RNG.Pick(len(children))], nil)
	case len(raw) != len(children):
		return nil, &ParamError{Script: "random", Param: "weights",
			Reason: fmt.Sprintf("%d weights for %d choices", len(raw), len(children))}
	}
	weights := make([]int, len(raw))
	for i, f := range raw {
		if f < 1 {
			return nil, &ParamError{Script: "random", Param: "weights", Reason: "weights must be positive"}
		}
		weights[i] = int(f)
	}
	return g.Run(children[g.RNG.WeightedSelect(weights)], nil)
}

func runAnd(g *Game, p Params) (any, error) {
	preds, err := paramScripts("and", p, "of")
	if err != nil {
		return nil, err
	}
	for _, pred := range preds {
		v, err := g.Run(pred, nil)
		if err != nil {
			return nil, err
		}
		if !Truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func runOr(g *Game, p Params) (any, error) {
	preds, err := paramScripts("or", p, "of")
	if err != nil {
		return nil, err
	}
	for _, pred := range preds {
		v, err := g.Run(pred, nil)
		if err != nil {
			return nil, err
		}
		if Truthy(v) {
			return true, nil
		}
	}
	return false, nil
}

func runNot(g *Game, p Params) (any, error) {
	pred, err := paramScript("not", p, "of")
	if err != nil {
		return nil, err
	}
	v, err := g.Run(pred, nil)
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}

// runSkillCheck returns the outcome when used as a value. Given a success
// or failure branch it runs the matching one instead and returns nil.
func runSkillCheck(g *Game, p Params) (any, error) {
	skill, err := requireString("skillCheck", p, "skill")
	if err != nil {
		return nil, err
	}
	difficulty, err := requireFloat("skillCheck", p, "difficulty")
	if err != nil {
		return nil, err
	}
	onSuccess, err := paramScript("skillCheck", p, "success")
	if err != nil {
		return nil, err
	}
	onFailure, err := paramScript("skillCheck", p, "failure")
	if err != nil {
		return nil, err
	}

	ok := g.SkillCheck(skill, difficulty)
	if onSuccess.IsZero() && onFailure.IsZero() {
		return ok, nil
	}
	if ok {
		_, err = g.Run(onSuccess, nil)
	} else {
		_, err = g.Run(onFailure, nil)
	}
	return nil, err
}

func runCall(g *Game, p Params) (any, error) {
	name, err := requireString("call", p, "name")
	if err != nil {
		return nil, err
	}
	return g.Run(Name(name), paramMap(p, "params"))
}

// SkillChance returns the percent chance of passing a check with the given
// stat value. Difficulty 0 or less always passes.
func SkillChance(value, difficulty float64) int {
	if difficulty <= 0 {
		return 100
	}
	pct := 50 + int(math.Round((value-difficulty)*skillMarginStep))
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// SkillCheck draws once against the player's chance for skill.
func (g *Game) SkillCheck(skill string, difficulty float64) bool {
	value := g.SkillValue(skill)
	chance := SkillChance(value, difficulty)
	ok := g.RNG.Chance(chance)
	g.Logger.Debug("skill check", "skill", skill, "value", value,
		"difficulty", difficulty, "chance", chance, "success", ok)
	return ok
}
