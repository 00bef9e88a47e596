package engine

import (
	"fmt"
	"strings"

	"github.com/nathoo/talecraft/engine/clock"
	"github.com/nathoo/talecraft/types"
)

func registerSceneScripts(l *Library) {
	l.MustRegister("say", runSay)
	l.MustRegister("narrate", runNarrate)
	l.MustRegister("showImage", runShowImage)
	l.MustRegister("scene", runScene)
	l.MustRegister("scenes", runScenes)
	l.MustRegister("menu", runMenu)
	l.MustRegister("option", runOption)
	l.MustRegister("branch", runBranch)
	l.MustRegister("exit", runExit)
	l.MustRegister("replaceScene", runReplaceScene)
}

func runSay(g *Game, p Params) (any, error) {
	text := paramString(p, "text")
	speaker := paramString(p, "speaker")
	if speaker == "" {
		speaker = g.ActiveNPC()
	}
	g.Scenes().Append(g.writer(), types.ContentItem{Kind: "say", Text: g.interpolate(text, speaker), Speaker: speaker})
	return nil, nil
}

func runNarrate(g *Game, p Params) (any, error) {
	text := paramString(p, "text")
	g.Scenes().Append(g.writer(), types.ContentItem{Kind: "narrate", Text: g.interpolate(text, g.ActiveNPC())})
	return nil, nil
}

func runShowImage(g *Game, p Params) (any, error) {
	show := true
	if v, ok := p["show"].(bool); ok {
		show = v
	}
	if f := g.Scenes().Find(g.writer()); f != nil {
		f.ShowImage = show
	} else {
		g.Scenes().Active().ShowImage = show
	}
	return nil, nil
}

// runScene pushes a frame and runs its body inside it. A frame left with
// neither content nor choices completes immediately.
func runScene(g *Game, p Params) (any, error) {
	steps, err := paramScripts("scene", p, "do")
	if err != nil {
		return nil, err
	}
	npc := paramString(p, "npc")
	if npc == "" {
		npc = g.ActiveNPC()
	}
	id := g.Scenes().Push(types.Frame{NPC: npc, ShowImage: paramBool(p, "image")})
	if err := g.runInFrame(id, steps); err != nil {
		return nil, err
	}
	return nil, g.settle(id)
}

// runScenes starts the first child scene and queues the rest on the frame
// it leaves behind. Children that complete on their own are skipped past.
func runScenes(g *Game, p Params) (any, error) {
	children, err := paramScripts("scenes", p, "of")
	if err != nil {
		return nil, err
	}
	for i, child := range children {
		before := g.State.NextFrameID
		if _, err := g.Run(child, nil); err != nil {
			return nil, err
		}
		top := g.Scenes().Top()
		if top == nil || top.ID <= before {
			continue
		}
		rest, err := instructionsOf(children[i+1:])
		if err != nil {
			return nil, fmt.Errorf("scenes: %w", err)
		}
		top.Next = append(rest, top.Next...)
		return nil, nil
	}
	return nil, nil
}

// runMenu pushes a frame whose body is re-run after every non-exit choice.
func runMenu(g *Game, p Params) (any, error) {
	steps, err := paramScripts("menu", p, "do")
	if err != nil {
		return nil, err
	}
	body, err := instructionsOf(steps)
	if err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}
	menu := types.Instruction{Script: "seq", Params: map[string]any{"do": body}}
	id := g.Scenes().Push(types.Frame{NPC: g.ActiveNPC(), Menu: &menu})
	if err := g.runInFrame(id, steps); err != nil {
		return nil, err
	}
	return nil, g.settle(id)
}

func runOption(g *Game, p Params) (any, error) {
	label, err := requireString("option", p, "label")
	if err != nil {
		return nil, err
	}
	in, ok := AsInstruction(p["script"])
	if !ok {
		return nil, &ParamError{Script: "option", Param: "script", Reason: "needs a name or instruction"}
	}
	if extra := paramMap(p, "params"); len(extra) > 0 {
		in.Params = merge(in.Params, extra)
	}
	g.Scenes().AddChoice(g.writer(), types.Choice{Label: label, Script: in, Exit: paramBool(p, "exit")})
	return nil, nil
}

func runBranch(g *Game, p Params) (any, error) {
	label, err := requireString("branch", p, "label")
	if err != nil {
		return nil, err
	}
	then, err := paramScripts("branch", p, "then")
	if err != nil {
		return nil, err
	}
	body, err := instructionsOf(then)
	if err != nil {
		return nil, fmt.Errorf("branch: %w", err)
	}
	g.Scenes().AddChoice(g.writer(), types.Choice{
		Label:  label,
		Script: types.Instruction{Script: "seq", Params: map[string]any{"do": body}},
		Exit:   paramBool(p, "exit"),
	})
	return nil, nil
}

// runExit removes the frame the caller is writing into, discarding its
// pending choices, then runs the trailing instructions in the parent frame.
func runExit(g *Game, p Params) (any, error) {
	then, err := paramScripts("exit", p, "do")
	if err != nil {
		return nil, err
	}
	var popped types.Frame
	if id := g.writer(); id != 0 {
		popped, _ = g.Scenes().Remove(id)
	} else {
		popped, _ = g.Scenes().Pop()
	}
	if _, err := g.RunAll(then); err != nil {
		return nil, err
	}
	if err := g.startNext(popped.Next); err != nil {
		return nil, err
	}
	if top := g.Scenes().Top(); top != nil {
		return nil, g.settle(top.ID)
	}
	return nil, nil
}

func runReplaceScene(g *Game, p Params) (any, error) {
	steps, err := paramScripts("replaceScene", p, "do")
	if err != nil {
		return nil, err
	}
	id := g.writer()
	if g.Scenes().Find(id) == nil {
		id = g.Scenes().Active().ID
	}
	g.Scenes().Reset(id)
	if err := g.runInFrame(id, steps); err != nil {
		return nil, err
	}
	return nil, g.settle(id)
}

// runInFrame runs steps with frame id as their writer. Content and choices
// produced by steps go to that frame even when a nested scene is on top,
// and nested completions do not settle it half-built.
func (g *Game) runInFrame(id int, steps []Script) error {
	g.writers = append(g.writers, id)
	defer func() { g.writers = g.writers[:len(g.writers)-1] }()
	_, err := g.RunAll(steps)
	return err
}

// writer returns the innermost frame still on the stack whose body is
// running, or 0 when none is.
func (g *Game) writer() int {
	st := g.Scenes()
	for i := len(g.writers) - 1; i >= 0; i-- {
		if st.Find(g.writers[i]) != nil {
			return g.writers[i]
		}
	}
	return 0
}

// writing reports whether a body is currently running in frame id.
func (g *Game) writing(id int) bool {
	for _, w := range g.writers {
		if w == id {
			return true
		}
	}
	return false
}

// ActiveNPC returns the NPC of the frame the running script writes into,
// else of the top frame. "" means none.
func (g *Game) ActiveNPC() string {
	if f := g.Scenes().Find(g.writer()); f != nil {
		return f.NPC
	}
	return g.Scenes().NPC()
}

// settle decides what happens to frame id once nothing is writing to it:
// frames with choices or frames under another frame wait; menus re-run
// their body; frames with content wait for Continue; empty frames complete.
func (g *Game) settle(id int) error {
	if g.writing(id) {
		return nil
	}
	st := g.Scenes()
	f := st.Find(id)
	if f == nil || !st.IsTop(id) || len(f.Choices) > 0 {
		return nil
	}
	if f.Menu != nil {
		return g.runInFrame(id, []Script{Instr(*f.Menu)})
	}
	if len(f.Content) > 0 {
		return nil
	}
	return g.complete(id)
}

// complete removes frame id, starts any queued scenes and settles whatever
// frame is left on top.
func (g *Game) complete(id int) error {
	f, ok := g.Scenes().Remove(id)
	if !ok {
		return nil
	}
	if err := g.startNext(f.Next); err != nil {
		return err
	}
	if top := g.Scenes().Top(); top != nil && top.ID != id {
		return g.settle(top.ID)
	}
	return nil
}

func (g *Game) startNext(next []types.Instruction) error {
	if len(next) == 0 {
		return nil
	}
	_, err := g.Run(Name("scenes"), Params{"of": next})
	return err
}

// Choose runs choice i of the top frame inside that frame.
func (g *Game) Choose(i int) error {
	st := g.Scenes()
	top := st.Top()
	if top == nil || i < 0 || i >= len(top.Choices) {
		return ErrNoChoice
	}
	choice := top.Choices[i]
	id := top.ID
	st.Reset(id)
	defer g.sync()

	if choice.Exit {
		popped, _ := st.Remove(id)
		if _, err := g.Run(Instr(choice.Script), nil); err != nil {
			return err
		}
		if err := g.startNext(popped.Next); err != nil {
			return err
		}
		if top := st.Top(); top != nil {
			return g.settle(top.ID)
		}
		return nil
	}

	if err := g.runInFrame(id, []Script{Instr(choice.Script)}); err != nil {
		return err
	}
	return g.settle(id)
}

// Continue completes the top frame when it has no pending choices.
func (g *Game) Continue() error {
	top := g.Scenes().Top()
	if top == nil {
		return nil
	}
	if len(top.Choices) > 0 {
		return ErrChoicePending
	}
	defer g.sync()
	return g.complete(top.ID)
}

// Content returns the top frame's content for presentation.
func (g *Game) Content() []types.ContentItem {
	if top := g.Scenes().Top(); top != nil {
		return top.Content
	}
	return nil
}

// Choices returns the top frame's pending choices for presentation.
func (g *Game) Choices() []types.Choice {
	if top := g.Scenes().Top(); top != nil {
		return top.Choices
	}
	return nil
}

// interpolate replaces template variables in text.
func (g *Game) interpolate(text, npc string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	r := strings.NewReplacer(
		"{npc.name}", g.NPCName(npc),
		"{player.location}", g.LocationName(g.State.Player.Location),
		"{time}", clock.Format(g.State.Time),
	)
	return r.Replace(text)
}
