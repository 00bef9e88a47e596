// Package session turns player input into game actions and renders the
// scene stack as typed output lines. The plain CLI and the TUI are both
// thin front ends over a Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/clock"
	"github.com/nathoo/talecraft/engine/save"
	"github.com/nathoo/talecraft/types"
)

// Kind classifies an output line for styling.
type Kind int

const (
	KindText     Kind = iota // narration and descriptions
	KindDialogue             // a line spoken by an NPC
	KindTitle                // location header
	KindPresent              // who is here
	KindExits                // where the player can go
	KindChoice               // a numbered scene choice
	KindHint                 // prompts such as "Enter to continue"
	KindSystem               // meta-command output
	KindError
)

// Line is one line of output.
type Line struct {
	Text string
	Kind Kind
}

// Result is the output of one step.
type Result struct {
	Lines []Line
	Quit  bool
}

func (r *Result) add(kind Kind, format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	r.Lines = append(r.Lines, Line{Text: text, Kind: kind})
}

// Status is the data shown in a status bar.
type Status struct {
	Title    string
	Time     string
	Location string
	Cards    int
}

const (
	defaultSlot        = "quicksave"
	defaultWaitMinutes = 10
)

// Session drives one game for one player.
type Session struct {
	Game   *engine.Game
	Store  save.Store
	Logger *slog.Logger

	shown   map[int]int // frame id -> content items already rendered
	lastCmd string
}

// New creates a session. Store may be nil, which disables /save and /load.
func New(g *engine.Game, store save.Store) *Session {
	return &Session{
		Game:   g,
		Store:  store,
		Logger: g.Logger,
		shown:  map[int]int{},
	}
}

// Begin shows the title and intro, starts the game and renders the
// opening.
func (s *Session) Begin() Result {
	var r Result
	meta := s.Game.Lib.Meta
	header := meta.Title
	if meta.Version != "" {
		header += " v" + meta.Version
	}
	if meta.Author != "" {
		header += " by " + meta.Author
	}
	r.add(KindTitle, "%s", header)
	if meta.Intro != "" {
		r.add(KindText, "%s", meta.Intro)
	}
	if err := s.Game.Start(); err != nil {
		s.fail(&r, err)
		return r
	}
	s.render(&r, true)
	return r
}

// Resume renders a game whose state was restored from a save.
func (s *Session) Resume() Result {
	var r Result
	s.shown = map[int]int{}
	s.render(&r, true)
	return r
}

// Status reports the current time and place.
func (s *Session) Status() Status {
	return Status{
		Title:    s.Game.Lib.Meta.Title,
		Time:     clock.Format(s.Game.Now()),
		Location: s.Game.LocationName(s.Game.State.Player.Location),
		Cards:    len(s.Game.State.Player.Cards),
	}
}

// Step handles one line of input.
func (s *Session) Step(ctx context.Context, input string) Result {
	var r Result
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, "/") {
		s.meta(ctx, &r, input)
		return r
	}

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if s.lastCmd == "" {
			r.add(KindSystem, "Nothing to repeat.")
			return r
		}
		input, lower = s.lastCmd, strings.ToLower(s.lastCmd)
	}

	if top := s.Game.Scenes().Top(); top != nil {
		s.inScene(&r, top, input)
		return r
	}
	if input == "" {
		return r
	}
	s.lastCmd = input
	s.world(&r, lower)
	return r
}

// inScene handles input while a scene frame is on screen.
func (s *Session) inScene(r *Result, top *types.Frame, input string) {
	if len(top.Choices) == 0 {
		if input != "" {
			r.add(KindHint, "Press Enter to continue.")
			return
		}
		s.act(r, s.Game.Continue)
		return
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(top.Choices) {
		r.add(KindHint, "Choose an option from 1 to %d.", len(top.Choices))
		return
	}
	delete(s.shown, top.ID)
	s.act(r, func() error { return s.Game.Choose(n - 1) })
}

// world handles input when no scene is open.
func (s *Session) world(r *Result, input string) {
	cmd := parse(input)
	arg := cmd.Object

	switch cmd.Verb {
	case "look":
		s.look(r)
	case "go":
		if arg == "" {
			r.add(KindError, "Go where?")
			return
		}
		loc, err := resolveName(s.Game.Links(), s.Game.LocationName, arg)
		if err != nil {
			s.unresolved(r, err, fmt.Sprintf("You can't get to %q from here.", arg))
			return
		}
		s.act(r, func() error { return s.Game.GoTo(loc) })
	case "talk":
		id, err := s.findNPC(arg)
		if err != nil {
			s.unresolved(r, err, "There's nobody like that here.")
			return
		}
		s.act(r, func() error { return s.Game.Approach(id) })
	case "wait":
		s.wait(r, arg)
	case "inventory":
		s.inventory(r)
	default:
		r.add(KindError, "I don't understand %q. Type /help for commands.", input)
	}
}

// act runs an action and renders whatever it produced. When the scene
// stack is empty afterwards the location is shown again.
func (s *Session) act(r *Result, fn func() error) {
	if err := fn(); err != nil {
		s.fail(r, err)
	}
	s.render(r, false)
}

func (s *Session) fail(r *Result, err error) {
	s.Logger.Error("action failed", "error", err)
	r.add(KindError, "Error: %v", err)
}

// render prints content not yet shown on any open frame, bottom up, then
// the top frame's choices. With no frame open it describes the location.
func (s *Session) render(r *Result, always bool) {
	top := s.Game.Scenes().Top()
	if top == nil {
		s.shown = map[int]int{}
		s.look(r)
		return
	}

	live := map[int]bool{}
	for _, f := range s.Game.State.Scenes {
		live[f.ID] = true
		from := s.shown[f.ID]
		if from > len(f.Content) {
			from = 0
		}
		for _, item := range f.Content[from:] {
			r.Lines = append(r.Lines, s.contentLine(item))
		}
		s.shown[f.ID] = len(f.Content)
	}
	for id := range s.shown {
		if !live[id] {
			delete(s.shown, id)
		}
	}

	for i, c := range top.Choices {
		r.add(KindChoice, "%d) %s", i+1, c.Label)
	}
	if len(top.Choices) == 0 && (len(top.Content) > 0 || always) {
		r.add(KindHint, "(Enter to continue)")
	}
}

func (s *Session) contentLine(item types.ContentItem) Line {
	switch item.Kind {
	case "say":
		if item.Speaker == "" {
			return Line{Text: "\"" + item.Text + "\"", Kind: KindDialogue}
		}
		name := s.Game.NPCName(item.Speaker)
		return Line{Text: capitalize(name) + ": \"" + item.Text + "\"", Kind: KindDialogue}
	case "notice":
		return Line{Text: item.Text, Kind: KindSystem}
	default:
		return Line{Text: item.Text, Kind: KindText}
	}
}

// look describes the player's location, who is present and where they
// can go.
func (s *Session) look(r *Result) {
	g := s.Game
	loc := g.State.Player.Location
	r.add(KindTitle, "%s (%s)", g.LocationName(loc), clock.Format(g.Now()))
	if l := g.Lib.Location(loc); l != nil && l.Description != "" {
		r.add(KindText, "%s", l.Description)
	}
	if ids := g.NPCsPresent(loc); len(ids) > 0 {
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = g.NPCName(id)
		}
		r.add(KindPresent, "Here: %s.", strings.Join(names, ", "))
	}
	if links := g.Links(); len(links) > 0 {
		names := make([]string, len(links))
		for i, id := range links {
			names[i] = g.LocationName(id)
		}
		r.add(KindExits, "Paths: %s.", strings.Join(names, ", "))
	}
}

func (s *Session) wait(r *Result, arg string) {
	minutes := defaultWaitMinutes
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			r.add(KindError, "Wait how many minutes?")
			return
		}
		minutes = n
	}
	if top := s.Game.Scenes().Top(); top != nil && len(top.Choices) > 0 {
		r.add(KindHint, "Choose an option first.")
		return
	}
	s.act(r, func() error { return s.Game.Wait(minutes) })
}

func (s *Session) inventory(r *Result) {
	inv := s.Game.State.Player.Inventory
	if len(inv) == 0 {
		r.add(KindSystem, "You are carrying nothing.")
		return
	}
	r.add(KindSystem, "You are carrying: %s.", strings.Join(inv, ", "))
}

// findNPC resolves arg against the NPCs present. With no argument the
// only NPC present is chosen.
func (s *Session) findNPC(arg string) (string, error) {
	present := s.Game.NPCsPresent(s.Game.State.Player.Location)
	if arg != "" {
		return resolveName(present, s.Game.NPCName, arg)
	}
	switch len(present) {
	case 0:
		return "", &NotFoundError{}
	case 1:
		return present[0], nil
	default:
		names := make([]string, len(present))
		for i, id := range present {
			names[i] = s.Game.NPCName(id)
		}
		return "", &AmbiguityError{Name: "one", Candidates: names}
	}
}

// unresolved reports a failed name lookup. Ambiguity lists the
// candidates; anything else gets the caller's message.
func (s *Session) unresolved(r *Result, err error, notFound string) {
	var amb *AmbiguityError
	if errors.As(err, &amb) {
		r.add(KindError, "%s.", capitalize(amb.Error()))
		return
	}
	r.add(KindError, "%s", notFound)
}

// meta dispatches slash commands.
func (s *Session) meta(ctx context.Context, r *Result, input string) {
	parts := strings.Fields(input)
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch parts[0] {
	case "/quit", "/exit":
		r.add(KindSystem, "Goodbye.")
		r.Quit = true
	case "/wait":
		s.wait(r, arg)
	case "/cards":
		s.cards(r)
	case "/save":
		s.save(ctx, r, arg)
	case "/load":
		s.load(ctx, r, arg)
	case "/saves":
		s.listSaves(ctx, r)
	case "/state":
		s.state(r)
	case "/help":
		s.help(r)
	default:
		r.add(KindSystem, "Unknown command: %s. Type /help for available commands.", parts[0])
	}
}

func (s *Session) cards(r *Result) {
	g := s.Game
	if len(g.State.Player.Cards) == 0 {
		r.add(KindSystem, "No active cards.")
		return
	}
	for _, c := range g.State.Player.Cards {
		r.add(KindSystem, "* %s", g.CardTitle(c))
		if desc := g.CardDescription(c); desc != "" {
			r.add(KindText, "  %s", desc)
		}
	}
	for _, rem := range g.Reminders() {
		r.add(KindHint, "! %s", rem)
	}
}

func (s *Session) save(ctx context.Context, r *Result, slot string) {
	if s.Store == nil {
		r.add(KindSystem, "Saving is not configured.")
		return
	}
	if slot == "" {
		slot = defaultSlot
	}
	data, err := save.Save(s.Game)
	if err == nil {
		err = s.Store.Put(ctx, slot, data)
	}
	if err != nil {
		r.add(KindError, "Save failed: %v", err)
		return
	}
	s.Logger.Info("game saved", "slot", slot, "session", s.Game.SessionID)
	r.add(KindSystem, "Game saved to %s.", slot)
}

func (s *Session) load(ctx context.Context, r *Result, slot string) {
	if s.Store == nil {
		r.add(KindSystem, "Saving is not configured.")
		return
	}
	if slot == "" {
		slot = defaultSlot
	}
	if err := LoadSlot(ctx, s.Game, s.Store, slot); err != nil {
		if errors.Is(err, save.ErrNoSlot) {
			r.add(KindError, "No save named %s.", slot)
			return
		}
		r.add(KindError, "Load failed: %v", err)
		return
	}
	r.add(KindSystem, "Game loaded from %s (%s).", slot, clock.Format(s.Game.Now()))
	res := s.Resume()
	r.Lines = append(r.Lines, res.Lines...)
}

// LoadSlot reads slot from store and applies it to g.
func LoadSlot(ctx context.Context, g *engine.Game, store save.Store, slot string) error {
	data, err := store.Get(ctx, slot)
	if err != nil {
		return err
	}
	sd, err := save.Load(data)
	if err != nil {
		return err
	}
	return save.Apply(g, sd)
}

func (s *Session) listSaves(ctx context.Context, r *Result) {
	if s.Store == nil {
		r.add(KindSystem, "Saving is not configured.")
		return
	}
	slots, err := s.Store.List(ctx)
	if err != nil {
		r.add(KindError, "Listing saves failed: %v", err)
		return
	}
	if len(slots) == 0 {
		r.add(KindSystem, "No saves.")
		return
	}
	r.add(KindSystem, "Saves: %s", strings.Join(slots, ", "))
}

func (s *Session) state(r *Result) {
	g := s.Game
	p := g.State.Player
	r.add(KindSystem, "Time: %s", clock.Format(g.Now()))
	r.add(KindSystem, "Location: %s", p.Location)
	if len(p.Stats) > 0 {
		r.add(KindSystem, "Stats: %s", formatStats(p.Stats))
	}
	if len(p.Flags) > 0 {
		var flags []string
		for k, v := range p.Flags {
			if v {
				flags = append(flags, k)
			}
		}
		sort.Strings(flags)
		r.add(KindSystem, "Flags: %s", strings.Join(flags, ", "))
	}
	r.add(KindSystem, "Inventory: %v", p.Inventory)
	ids := make([]string, 0, len(g.State.NPCs))
	for id := range g.State.NPCs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := g.State.NPCs[id]
		where := n.Location
		if where == "" {
			where = "offscreen"
		}
		r.add(KindSystem, "NPC %s @ %s %s", id, where, formatStats(n.Stats))
	}
}

func (s *Session) help(r *Result) {
	for _, line := range []string{
		"In a scene:",
		"  <number>      Pick a choice",
		"  Enter         Continue",
		"Exploring:",
		"  look (l)      Describe where you are",
		"  go <place>    Walk somewhere linked from here",
		"  talk <name>   Approach someone who is here",
		"  wait [min]    Let time pass (z)",
		"  inventory (i) Check what you're carrying",
		"  again (g)     Repeat your last command",
		"System:",
		"  /wait N       Wait N minutes",
		"  /cards        Show active cards and reminders",
		"  /save [slot]  Save game (default: quicksave)",
		"  /load [slot]  Load game (default: quicksave)",
		"  /saves        List save slots",
		"  /state        Debug: dump current state",
		"  /quit         Exit game",
	} {
		r.add(KindSystem, "%s", line)
	}
}

func formatStats(stats map[string]float64) string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.FormatFloat(stats[k], 'f', -1, 64)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
