package save

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/dsl"
	"github.com/nathoo/talecraft/types"
)

func testLibrary(t *testing.T) *engine.Library {
	t.Helper()
	lib := engine.NewLibrary()
	lib.Meta.Title = "Test Game"
	lib.Meta.Version = "1.0"
	lib.Meta.Start = "hall"
	for _, id := range []string{"hall", "garden"} {
		if err := lib.RegisterLocation(engine.Location{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := lib.RegisterNPC(engine.NPCDef{ID: "mira", Location: "garden", Stats: map[string]float64{"affection": 1}}); err != nil {
		t.Fatal(err)
	}
	if err := lib.RegisterCard(engine.CardDefinition{ID: "quest"}); err != nil {
		t.Fatal(err)
	}
	return lib
}

func newGame(t *testing.T, lib *engine.Library) *engine.Game {
	t.Helper()
	g := engine.NewGame(lib, engine.Options{Seed: 42, StartTime: 3600})
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRoundTrip(t *testing.T) {
	lib := testLibrary(t)
	g := newGame(t, lib)

	// Modify state.
	g.SetStat("strength", 10)
	if _, err := g.RunName("giveItem", engine.Params{"item": "key"}); err != nil {
		t.Fatal(err)
	}
	n, err := g.NPC("mira")
	if err != nil {
		t.Fatal(err)
	}
	n.Stats["affection"] = 4.5
	n.NameKnown = 1
	if _, err := g.AddCard("quest", map[string]any{"step": 2, "title": "Find the ring", "done": false, "note": nil}); err != nil {
		t.Fatal(err)
	}
	if err := g.TimeLapse(90); err != nil {
		t.Fatal(err)
	}
	g.RNG.Roll(6)

	data, err := Save(g)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	g2 := newGame(t, lib)
	if err := Apply(g2, sd); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(g2.State.Player.Cards, g.State.Player.Cards) {
		t.Errorf("cards = %#v, want %#v", g2.State.Player.Cards, g.State.Player.Cards)
	}
	if !reflect.DeepEqual(g2.State.NPCs, g.State.NPCs) {
		t.Errorf("npcs = %#v, want %#v", g2.State.NPCs, g.State.NPCs)
	}
	if !reflect.DeepEqual(g2.State.Player.Stats, g.State.Player.Stats) {
		t.Errorf("stats = %v, want %v", g2.State.Player.Stats, g.State.Player.Stats)
	}
	if g2.Now() != g.Now() {
		t.Errorf("time = %d, want %d", g2.Now(), g.Now())
	}
	if g2.SessionID != g.SessionID {
		t.Errorf("session = %v, want %v", g2.SessionID, g.SessionID)
	}
	if g2.RNG.Position() != g.RNG.Position() {
		t.Errorf("rng position = %d, want %d", g2.RNG.Position(), g.RNG.Position())
	}
	if a, b := g.RNG.Roll(100), g2.RNG.Roll(100); a != b {
		t.Errorf("next roll differs after load: %d vs %d", a, b)
	}
}

func TestRoundTrip_MidScene(t *testing.T) {
	lib := testLibrary(t)
	g := newGame(t, lib)
	menu := dsl.Menu(
		dsl.Say("Well?"),
		dsl.Branch("Again", dsl.AddStat("player", "n", 1)),
		dsl.ExitOption("Leave", dsl.Narrate("Bye.")),
	)
	if _, err := g.Run(engine.Instr(menu), nil); err != nil {
		t.Fatal(err)
	}

	data, err := Save(g)
	if err != nil {
		t.Fatal(err)
	}
	sd, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	g2 := newGame(t, lib)
	if err := Apply(g2, sd); err != nil {
		t.Fatal(err)
	}

	if len(g2.Choices()) != 2 {
		t.Fatalf("choices after load = %d, want 2", len(g2.Choices()))
	}
	// Choices decoded from JSON still run, and the menu still loops.
	if err := g2.Choose(0); err != nil {
		t.Fatalf("choose after load: %v", err)
	}
	if g2.Stat("n") != 1 || len(g2.Choices()) != 2 {
		t.Errorf("n = %v, choices = %d", g2.Stat("n"), len(g2.Choices()))
	}
	if err := g2.Choose(1); err != nil {
		t.Fatal(err)
	}
	if c := g2.Content(); len(c) != 1 || c[0].Text != "Bye." {
		t.Errorf("content after exit = %v", c)
	}
}

func TestLoad_NilMaps(t *testing.T) {
	sd, err := Load([]byte(`{"format":1,"player":{"cards":[{"cardTypeId":"quest","instanceId":"x"}]},"npcs":{"mira":{"location":"garden"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if sd.Player.Stats == nil || sd.Player.Flags == nil || sd.Player.Inventory == nil {
		t.Error("player maps should be initialized")
	}
	if sd.Player.Cards[0].Fields == nil {
		t.Error("card fields should be initialized")
	}
	if n := sd.NPCs["mira"]; n.ID != "mira" || n.Stats == nil {
		t.Errorf("npc = %+v", n)
	}
}

func TestLoad_RejectsNewerFormat(t *testing.T) {
	if _, err := Load([]byte(`{"format":99}`)); !errors.Is(err, ErrVersion) {
		t.Errorf("got %v, want ErrVersion", err)
	}
	if _, err := Load([]byte(`{`)); err == nil {
		t.Error("malformed json should fail")
	}
}

func TestApply_GameMismatch(t *testing.T) {
	g := newGame(t, testLibrary(t))
	if err := Apply(g, &SaveData{Game: "Other Game"}); !errors.Is(err, ErrGameMismatch) {
		t.Errorf("got %v, want ErrGameMismatch", err)
	}
}

func TestApply_UndefinedNPC(t *testing.T) {
	g := newGame(t, testLibrary(t))
	data, err := Save(g)
	if err != nil {
		t.Fatal(err)
	}
	sd, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	sd.NPCs["ghost"] = &types.NPCState{ID: "ghost", Location: "hall", Stats: map[string]float64{}, NameKnown: 1}
	if err := Apply(g, sd); err != nil {
		t.Fatal(err)
	}

	if got := g.NPCName("ghost"); got != "Ghost" {
		t.Errorf("NPCName(ghost) = %q, want Ghost", got)
	}
	for _, id := range g.NPCsPresent("hall") {
		if id == "ghost" {
			t.Error("undefined npc should not be presented")
		}
	}
	if err := g.TimeLapse(10); err != nil {
		t.Errorf("tick with an undefined npc: %v", err)
	}
}

func TestSave_CardShape(t *testing.T) {
	g := newGame(t, testLibrary(t))
	id, err := g.AddCard("quest", map[string]any{"step": 1})
	if err != nil {
		t.Fatal(err)
	}
	data, err := Save(g)
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		Player struct {
			Cards []map[string]any `json:"cards"`
		} `json:"player"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	c := raw.Player.Cards[0]
	if c["cardTypeId"] != "quest" || c["instanceId"] != id {
		t.Errorf("card json = %v", c)
	}
	if _, ok := c["fields"].(map[string]any); !ok {
		t.Errorf("fields = %v", c["fields"])
	}
}
