// Package engine is the talecraft runtime: it interprets instruction trees
// against a mutable world state and drives the time-stepped update of NPCs,
// cards and locations.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/talecraft/engine/clock"
	"github.com/nathoo/talecraft/engine/scene"
	"github.com/nathoo/talecraft/types"
)

// maxDepth bounds nested script invocation.
const maxDepth = 256

var (
	ErrTimeBackwards = errors.New("time only moves forward")
	ErrNoChoice      = errors.New("no such choice")
	ErrChoicePending = errors.New("a choice must be made first")
)

// Options configures a new Game.
type Options struct {
	Seed      int64
	StartTime int64 // overrides Meta.StartTime when non-zero
	Logger    *slog.Logger
}

// Game is the shared mutable context threaded through every script call.
// It is not safe for concurrent use; all scripts run on the caller's
// goroutine and complete before Run returns.
type Game struct {
	Lib       *Library
	State     *types.State
	RNG       *RNG
	Logger    *slog.Logger
	SessionID uuid.UUID

	depth   int
	writers []int // ids of frames whose body is running, innermost last
	exprs   *exprEnv
}

// NewGame creates a game over lib and freezes lib.
func NewGame(lib *Library, opts Options) *Game {
	lib.Freeze()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := lib.Meta.StartTime
	if opts.StartTime != 0 {
		start = opts.StartTime
	}
	s := NewState(start, opts.Seed)
	return &Game{
		Lib:       lib,
		State:     s,
		RNG:       NewRNG(opts.Seed),
		Logger:    logger,
		SessionID: uuid.New(),
	}
}

// NewState creates an empty state at the given time.
func NewState(start, seed int64) *types.State {
	return &types.State{
		Time: start,
		Player: types.Player{
			Stats:     map[string]float64{},
			Inventory: []string{},
			Cards:     []types.Card{},
			Flags:     map[string]bool{},
		},
		NPCs:    map[string]*types.NPCState{},
		RNGSeed: seed,
	}
}

// Restore replaces the game state and re-creates the RNG at the saved position.
func (g *Game) Restore(s *types.State) {
	g.State = s
	g.RNG = RestoreRNG(s.RNGSeed, s.RNGPosition, s.RNGDraws)
	g.writers = nil
}

// Start places the player at the start location and runs the opening script.
func (g *Game) Start() error {
	if start := g.Lib.Meta.Start; start != "" {
		if err := g.GoTo(start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if _, err := g.Run(g.Lib.Meta.Opening, nil); err != nil {
		return fmt.Errorf("opening: %w", err)
	}
	g.sync()
	return nil
}

// Run resolves s and invokes it with params. Instruction params are
// overlaid by params. Unregistered names fail with *UnknownScriptError.
func (g *Game) Run(s Script, params Params) (any, error) {
	if g.depth >= maxDepth {
		return nil, fmt.Errorf("%s: %w", s, ErrScriptDepth)
	}
	g.depth++
	defer func() { g.depth-- }()

	switch {
	case s.fn != nil:
		return s.fn(g, merge(nil, params))
	case s.instr != nil:
		return g.call(s.instr.Script, merge(s.instr.Params, params))
	case s.name != "":
		return g.call(s.name, merge(nil, params))
	default:
		return nil, nil
	}
}

// RunName runs a registered script by name.
func (g *Game) RunName(name string, params Params) (any, error) {
	return g.Run(Name(name), params)
}

func (g *Game) call(name string, p Params) (any, error) {
	fn, ok := g.Lib.Lookup(name)
	if !ok {
		return nil, &UnknownScriptError{Name: name}
	}
	g.Logger.Debug("run script", "script", name, "depth", g.depth)
	return fn(g, p)
}

// Scenes returns the scene stack.
func (g *Game) Scenes() scene.Stack {
	return scene.New(g.State)
}

// Now returns the world time.
func (g *Game) Now() int64 {
	return g.State.Time
}

// HourOfDay returns the fractional hour derived from the world time.
func (g *Game) HourOfDay() float64 {
	return clock.HourOfDay(g.State.Time)
}

// Date returns the calendar time derived from the world time.
func (g *Game) Date() time.Time {
	return clock.Date(g.State.Time)
}

// TimeLapse advances the clock by minutes and runs one world update.
// A zero lapse still runs the update; negative lapses are rejected.
func (g *Game) TimeLapse(minutes int) error {
	t, err := clock.Advance(g.State.Time, minutes)
	if err != nil {
		return fmt.Errorf("time lapse %d: %w", minutes, ErrTimeBackwards)
	}
	g.State.Time = t
	return g.Update()
}

// Update runs the per-tick hooks in their fixed order: NPC schedules and
// NPC hooks first, then every active card, then location ticks. Cards may
// override NPC positions only because they run after schedule resolution.
func (g *Game) Update() error {
	if err := g.updateNPCs(); err != nil {
		return fmt.Errorf("npc update: %w", err)
	}
	if err := g.updateCards(); err != nil {
		return fmt.Errorf("card update: %w", err)
	}
	if err := g.updateLocations(); err != nil {
		return fmt.Errorf("location update: %w", err)
	}
	g.sync()
	return nil
}

// sync records the RNG position for save/load.
func (g *Game) sync() {
	g.State.RNGPosition = g.RNG.Position()
	g.State.RNGDraws = g.RNG.Draws()
}
