package engine

import "slices"

// targetPlayer names the player in stat scripts. An empty target means the
// NPC of the current scene.
const targetPlayer = "player"

// stats returns the stat map a script refers to, or nil when the target
// resolves to nothing (an empty target outside any NPC scene).
func (g *Game) stats(p Params) (map[string]float64, error) {
	target := paramString(p, "target")
	if target == targetPlayer {
		if g.State.Player.Stats == nil {
			g.State.Player.Stats = map[string]float64{}
		}
		return g.State.Player.Stats, nil
	}
	if target == "" {
		target = g.ActiveNPC()
		if target == "" {
			return nil, nil
		}
	}
	n, err := g.NPC(target)
	if err != nil {
		return nil, err
	}
	if n.Stats == nil {
		n.Stats = map[string]float64{}
	}
	return n.Stats, nil
}

// Stat returns a player stat.
func (g *Game) Stat(name string) float64 {
	return g.State.Player.Stats[name]
}

// SetStat sets a player stat.
func (g *Game) SetStat(name string, v float64) {
	g.State.Player.Stats[name] = v
}

// HasItem reports whether the player carries item.
func (g *Game) HasItem(item string) bool {
	return slices.Contains(g.State.Player.Inventory, item)
}

func registerStateScripts(l *Library) {
	l.MustRegister("setStat", func(g *Game, p Params) (any, error) {
		stat, err := requireString("setStat", p, "stat")
		if err != nil {
			return nil, err
		}
		v, err := requireFloat("setStat", p, "value")
		if err != nil {
			return nil, err
		}
		m, err := g.stats(p)
		if err != nil || m == nil {
			return nil, err
		}
		m[stat] = v
		return nil, nil
	})
	l.MustRegister("addStat", func(g *Game, p Params) (any, error) {
		stat, err := requireString("addStat", p, "stat")
		if err != nil {
			return nil, err
		}
		v, err := requireFloat("addStat", p, "amount")
		if err != nil {
			return nil, err
		}
		m, err := g.stats(p)
		if err != nil || m == nil {
			return nil, err
		}
		m[stat] += v
		return m[stat], nil
	})
	l.MustRegister("stat", func(g *Game, p Params) (any, error) {
		m, err := g.stats(p)
		if err != nil {
			return nil, err
		}
		return m[paramString(p, "stat")], nil
	})
	l.MustRegister("statGte", func(g *Game, p Params) (any, error) {
		v, err := requireFloat("statGte", p, "value")
		if err != nil {
			return nil, err
		}
		m, err := g.stats(p)
		if err != nil {
			return nil, err
		}
		return m[paramString(p, "stat")] >= v, nil
	})
	l.MustRegister("statLt", func(g *Game, p Params) (any, error) {
		v, err := requireFloat("statLt", p, "value")
		if err != nil {
			return nil, err
		}
		m, err := g.stats(p)
		if err != nil {
			return nil, err
		}
		return m[paramString(p, "stat")] < v, nil
	})

	l.MustRegister("setFlag", func(g *Game, p Params) (any, error) {
		flag, err := requireString("setFlag", p, "flag")
		if err != nil {
			return nil, err
		}
		value := true
		if v, ok := p["value"].(bool); ok {
			value = v
		}
		if g.State.Player.Flags == nil {
			g.State.Player.Flags = map[string]bool{}
		}
		g.State.Player.Flags[flag] = value
		return nil, nil
	})
	l.MustRegister("flag", func(g *Game, p Params) (any, error) {
		return g.State.Player.Flags[paramString(p, "flag")], nil
	})

	l.MustRegister("giveItem", func(g *Game, p Params) (any, error) {
		item, err := requireString("giveItem", p, "item")
		if err != nil {
			return nil, err
		}
		if !g.HasItem(item) {
			g.State.Player.Inventory = append(g.State.Player.Inventory, item)
		}
		return nil, nil
	})
	l.MustRegister("takeItem", func(g *Game, p Params) (any, error) {
		item := paramString(p, "item")
		i := slices.Index(g.State.Player.Inventory, item)
		if i < 0 {
			return false, nil
		}
		g.State.Player.Inventory = slices.Delete(g.State.Player.Inventory, i, i+1)
		return true, nil
	})
	l.MustRegister("hasItem", func(g *Game, p Params) (any, error) {
		return g.HasItem(paramString(p, "item")), nil
	})

	l.MustRegister("learnName", func(g *Game, p Params) (any, error) {
		id := g.npcTarget(p)
		if id == "" {
			return nil, nil
		}
		n, err := g.NPC(id)
		if err != nil {
			return nil, err
		}
		n.NameKnown = 1
		return nil, nil
	})
}
