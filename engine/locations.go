package engine

import (
	"fmt"
	"slices"
)

// Location is a place the player and NPCs can be.
type Location struct {
	ID          string
	Name        string
	Description string
	Links       []string // locations reachable from here
	OnArrive    Script
	OnTick      Script
}

// GoTo moves the player to loc and runs its onArrive hook.
func (g *Game) GoTo(loc string) error {
	l := g.Lib.Location(loc)
	if l == nil {
		return fmt.Errorf("go to %q: unknown location", loc)
	}
	from := g.State.Player.Location
	g.State.Player.Location = loc
	g.Logger.Debug("player moved", "from", from, "to", loc)
	_, err := g.Run(l.OnArrive, Params{"location": loc, "from": from})
	return err
}

// Links returns the locations reachable from the player's location.
func (g *Game) Links() []string {
	if l := g.Lib.Location(g.State.Player.Location); l != nil {
		return slices.Clone(l.Links)
	}
	return nil
}

// CanReach reports whether loc is linked from the player's location.
func (g *Game) CanReach(loc string) bool {
	return slices.Contains(g.Links(), loc)
}

// LocationName returns the display name of a location, or its id.
func (g *Game) LocationName(id string) string {
	if l := g.Lib.Location(id); l != nil && l.Name != "" {
		return l.Name
	}
	return id
}

// updateLocations runs each location's onTick hook in registration order.
func (g *Game) updateLocations() error {
	for _, id := range g.Lib.LocationIDs() {
		l := g.Lib.Location(id)
		if l.OnTick.IsZero() {
			continue
		}
		if _, err := g.Run(l.OnTick, Params{"location": id}); err != nil {
			return fmt.Errorf("location %s: %w", id, err)
		}
	}
	return nil
}
