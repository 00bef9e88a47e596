package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathoo/talecraft/types"
)

// ErrNotPrimitive is returned when a card field value is not a JSON primitive.
var ErrNotPrimitive = errors.New("card fields must be JSON primitives")

// CardDefinition binds behavior to a card type.
//
// AfterUpdate runs once per world tick for every active card, with the
// card's instance id in the "card" param. It must tolerate being called
// when nothing changed and must re-check its own condition, since one tick
// may cover hours of game time.
type CardDefinition struct {
	ID          string
	Title       func(c types.Card) string
	Describe    func(g *Game, c types.Card) string
	OnAdded     Script
	AfterUpdate Script
	Reminders   func(g *Game, c types.Card) []string
}

// UnknownCardTypeError is returned when adding a card of an unregistered type.
type UnknownCardTypeError struct {
	TypeID string
}

func (e *UnknownCardTypeError) Error() string {
	return fmt.Sprintf("unknown card type %q", e.TypeID)
}

// AddCard creates a card of typeID with the given fields, adds it to the
// player's collection and runs the definition's onAdded hook.
func (g *Game) AddCard(typeID string, fields map[string]any) (string, error) {
	def := g.Lib.CardDef(typeID)
	if def == nil {
		return "", &UnknownCardTypeError{TypeID: typeID}
	}
	c := types.Card{
		TypeID:     typeID,
		InstanceID: uuid.NewString(),
		Fields:     map[string]any{},
	}
	for k, v := range fields {
		if !isPrimitive(v) {
			return "", fmt.Errorf("card %s field %q: %w", typeID, k, ErrNotPrimitive)
		}
		c.Fields[k] = normalizePrimitive(v)
	}
	g.State.Player.Cards = append(g.State.Player.Cards, c)
	g.Logger.Info("card added", "type", typeID, "card", c.InstanceID)

	if _, err := g.Run(def.OnAdded, Params{"card": c.InstanceID}); err != nil {
		return c.InstanceID, fmt.Errorf("card %s onAdded: %w", typeID, err)
	}
	return c.InstanceID, nil
}

// Card returns the card with the given instance id, or nil. The pointer is
// valid until the collection next changes.
func (g *Game) Card(instanceID string) *types.Card {
	for i := range g.State.Player.Cards {
		if g.State.Player.Cards[i].InstanceID == instanceID {
			return &g.State.Player.Cards[i]
		}
	}
	return nil
}

// RemoveCard removes a card. It reports whether the card existed and is
// safe to call from the card's own afterUpdate.
func (g *Game) RemoveCard(instanceID string) bool {
	cards := g.State.Player.Cards
	for i := range cards {
		if cards[i].InstanceID == instanceID {
			g.State.Player.Cards = append(cards[:i:i], cards[i+1:]...)
			g.Logger.Info("card removed", "type", cards[i].TypeID, "card", instanceID)
			return true
		}
	}
	return false
}

// CardField returns a field of a card. Missing cards and fields yield nil.
func (g *Game) CardField(instanceID, key string) any {
	if c := g.Card(instanceID); c != nil {
		return c.Fields[key]
	}
	return nil
}

// SetCardField sets one field. Setting a field on a removed card is a no-op.
func (g *Game) SetCardField(instanceID, key string, value any) error {
	if !isPrimitive(value) {
		return fmt.Errorf("field %q: %w", key, ErrNotPrimitive)
	}
	c := g.Card(instanceID)
	if c == nil {
		return nil
	}
	if c.Fields == nil {
		c.Fields = map[string]any{}
	}
	c.Fields[key] = normalizePrimitive(value)
	return nil
}

// CardsOf returns copies of the player's cards of a type, in collection order.
func (g *Game) CardsOf(typeID string) []types.Card {
	var out []types.Card
	for _, c := range g.State.Player.Cards {
		if c.TypeID == typeID {
			out = append(out, c)
		}
	}
	return out
}

// CardTitle returns the display title of a card.
func (g *Game) CardTitle(c types.Card) string {
	if def := g.Lib.CardDef(c.TypeID); def != nil && def.Title != nil {
		return def.Title(c)
	}
	return cases.Title(language.English).String(strings.ReplaceAll(c.TypeID, "_", " "))
}

// CardDescription returns the long description of a card, or "".
func (g *Game) CardDescription(c types.Card) string {
	if def := g.Lib.CardDef(c.TypeID); def != nil && def.Describe != nil {
		return def.Describe(g, c)
	}
	return ""
}

// Reminders collects UI hints from every active card, in collection order.
func (g *Game) Reminders() []string {
	var out []string
	for _, c := range g.State.Player.Cards {
		def := g.Lib.CardDef(c.TypeID)
		if def == nil || def.Reminders == nil {
			continue
		}
		out = append(out, def.Reminders(g, c)...)
	}
	return out
}

// updateCards runs afterUpdate for every active card. The collection is
// snapshotted first and iterated in insertion order; cards removed by an
// earlier hook in the same tick are skipped.
func (g *Game) updateCards() error {
	ids := make([]string, 0, len(g.State.Player.Cards))
	for _, c := range g.State.Player.Cards {
		ids = append(ids, c.InstanceID)
	}
	for _, id := range ids {
		c := g.Card(id)
		if c == nil {
			continue
		}
		def := g.Lib.CardDef(c.TypeID)
		if def == nil || def.AfterUpdate.IsZero() {
			continue
		}
		if _, err := g.Run(def.AfterUpdate, Params{"card": id}); err != nil {
			return fmt.Errorf("card %s (%s): %w", id, c.TypeID, err)
		}
	}
	return nil
}

func registerCardScripts(l *Library) {
	l.MustRegister("addCard", func(g *Game, p Params) (any, error) {
		typeID, err := requireString("addCard", p, "type")
		if err != nil {
			return nil, err
		}
		return g.AddCard(typeID, paramMap(p, "fields"))
	})
	l.MustRegister("removeCard", func(g *Game, p Params) (any, error) {
		return g.RemoveCard(paramString(p, "card")), nil
	})
	l.MustRegister("setCardField", func(g *Game, p Params) (any, error) {
		key, err := requireString("setCardField", p, "key")
		if err != nil {
			return nil, err
		}
		return nil, g.SetCardField(paramString(p, "card"), key, p["value"])
	})
	l.MustRegister("hasCard", func(g *Game, p Params) (any, error) {
		return len(g.CardsOf(paramString(p, "type"))) > 0, nil
	})
}
