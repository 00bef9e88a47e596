package engine

import (
	"fmt"
	"sort"

	"github.com/nathoo/talecraft/engine/schedule"
	"github.com/nathoo/talecraft/types"
)

// Meta holds game metadata.
type Meta struct {
	Title     string
	Author    string
	Version   string
	Start     string // starting location ID
	Intro     string
	StartTime int64  // initial world time, seconds since the epoch
	Opening   Script // run once by Game.Start
}

// Library is the process-wide registry of scripts, NPCs, cards and
// locations. Content registers into it before the first Game is created;
// NewGame freezes it so the clock never ticks against a changing registry.
type Library struct {
	Meta Meta

	scripts   map[string]Func
	npcs      map[string]*NPCDef
	cards     map[string]*CardDefinition
	locations map[string]*Location
	locOrder  []string
	frozen    bool
}

// NewLibrary returns a library with the builtin scripts registered.
func NewLibrary() *Library {
	l := &Library{
		scripts:   map[string]Func{},
		npcs:      map[string]*NPCDef{},
		cards:     map[string]*CardDefinition{},
		locations: map[string]*Location{},
	}
	registerFlow(l)
	registerSceneScripts(l)
	registerStateScripts(l)
	registerWorldScripts(l)
	registerCardScripts(l)
	return l
}

// Register associates name with fn. Names are unique: registering a name
// twice fails with ErrDuplicateScript.
func (l *Library) Register(name string, fn Func) error {
	if l.frozen {
		return fmt.Errorf("register %q: %w", name, ErrLibraryFrozen)
	}
	if name == "" || fn == nil {
		return fmt.Errorf("register %q: empty name or nil behavior", name)
	}
	if _, exists := l.scripts[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateScript)
	}
	l.scripts[name] = fn
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// startup code where a failure is a programming error.
func (l *Library) MustRegister(name string, fn Func) {
	if err := l.Register(name, fn); err != nil {
		panic(err)
	}
}

// RegisterInstruction registers a named script whose body is an instruction.
// Params passed at call time are overlaid on the instruction's own params.
func (l *Library) RegisterInstruction(name string, body types.Instruction) error {
	return l.Register(name, func(g *Game, p Params) (any, error) {
		return g.Run(Instr(body), p)
	})
}

// Lookup returns the behavior registered under name.
func (l *Library) Lookup(name string) (Func, bool) {
	fn, ok := l.scripts[name]
	return fn, ok
}

// Has reports whether name is registered.
func (l *Library) Has(name string) bool {
	_, ok := l.scripts[name]
	return ok
}

// Names returns all registered script names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.scripts))
	for name := range l.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterNPC adds an NPC definition.
func (l *Library) RegisterNPC(def NPCDef) error {
	if l.frozen {
		return fmt.Errorf("register npc %q: %w", def.ID, ErrLibraryFrozen)
	}
	if def.ID == "" {
		return fmt.Errorf("register npc: empty id")
	}
	if _, exists := l.npcs[def.ID]; exists {
		return fmt.Errorf("register npc %q: already registered", def.ID)
	}
	if err := schedule.Validate(def.Schedule); err != nil {
		return fmt.Errorf("register npc %q: %w", def.ID, err)
	}
	l.npcs[def.ID] = &def
	return nil
}

// NPCDef returns the definition for id, or nil.
func (l *Library) NPCDef(id string) *NPCDef {
	return l.npcs[id]
}

// NPCIDs returns all defined NPC ids, sorted.
func (l *Library) NPCIDs() []string {
	ids := make([]string, 0, len(l.npcs))
	for id := range l.npcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegisterCard adds a card definition.
func (l *Library) RegisterCard(def CardDefinition) error {
	if l.frozen {
		return fmt.Errorf("register card %q: %w", def.ID, ErrLibraryFrozen)
	}
	if def.ID == "" {
		return fmt.Errorf("register card: empty id")
	}
	if _, exists := l.cards[def.ID]; exists {
		return fmt.Errorf("register card %q: already registered", def.ID)
	}
	l.cards[def.ID] = &def
	return nil
}

// CardDef returns the definition for a card type, or nil.
func (l *Library) CardDef(typeID string) *CardDefinition {
	return l.cards[typeID]
}

// RegisterLocation adds a location. Locations tick in registration order.
func (l *Library) RegisterLocation(loc Location) error {
	if l.frozen {
		return fmt.Errorf("register location %q: %w", loc.ID, ErrLibraryFrozen)
	}
	if loc.ID == "" {
		return fmt.Errorf("register location: empty id")
	}
	if _, exists := l.locations[loc.ID]; exists {
		return fmt.Errorf("register location %q: already registered", loc.ID)
	}
	l.locations[loc.ID] = &loc
	l.locOrder = append(l.locOrder, loc.ID)
	return nil
}

// Location returns the location with the given id, or nil.
func (l *Library) Location(id string) *Location {
	return l.locations[id]
}

// LocationIDs returns location ids in registration order.
func (l *Library) LocationIDs() []string {
	return append([]string(nil), l.locOrder...)
}

// Freeze rejects further registration.
func (l *Library) Freeze() {
	l.frozen = true
}

// Frozen reports whether the library is frozen.
func (l *Library) Frozen() bool {
	return l.frozen
}
