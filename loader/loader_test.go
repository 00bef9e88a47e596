package loader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nathoo/talecraft/content"
	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/clock"
	"github.com/nathoo/talecraft/engine/dsl"
)

func loadTown(t *testing.T) *engine.Game {
	t.Helper()
	res, err := Load("testdata/town")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	g := engine.NewGame(res.Library, engine.Options{Seed: 42})
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestLoad_Minimal(t *testing.T) {
	res, err := Load("testdata/minimal")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	lib := res.Library
	if lib.Meta.Title != "Minimal Story" {
		t.Errorf("Title = %q, want %q", lib.Meta.Title, "Minimal Story")
	}
	if lib.Meta.Start != "hall" {
		t.Errorf("Start = %q, want %q", lib.Meta.Start, "hall")
	}
	hall := lib.Location("hall")
	if hall == nil || hall.Description != "A quiet hall." {
		t.Fatalf("hall = %+v", hall)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if lib.CardDef(content.DateType) == nil {
		t.Error("stock date card should be registered")
	}
}

func TestLoad_TownMetadataAndWorld(t *testing.T) {
	res, err := Load("testdata/town")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	lib := res.Library
	if lib.Meta.Author != "Tester" || lib.Meta.Version != "0.1.0" {
		t.Errorf("meta = %+v", lib.Meta)
	}
	if got := clock.Format(lib.Meta.StartTime); !strings.Contains(got, "07:00") {
		t.Errorf("start time = %s", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}

	// Lua and YAML locations end up in one registry.
	for _, id := range []string{"home", "cafe", "square", "pier"} {
		if lib.Location(id) == nil {
			t.Errorf("location %q missing", id)
		}
	}
	if got := lib.Location("square").Links; !reflect.DeepEqual(got, []string{"home", "cafe", "pier"}) {
		t.Errorf("square links = %v", got)
	}

	mira := lib.NPCDef("mira")
	if mira == nil || len(mira.Schedule) != 2 || mira.Schedule[1].Location != "cafe" {
		t.Fatalf("mira = %+v", mira)
	}
	if mira.Stats["affection"] != 2 {
		t.Errorf("mira affection = %v", mira.Stats["affection"])
	}
	oskar := lib.NPCDef("oskar")
	if oskar == nil || !oskar.KnownName || oskar.Location != "pier" {
		t.Fatalf("oskar = %+v", oskar)
	}
	if !lib.Has("greetMira") || !lib.Has("askHarbor") {
		t.Error("named scripts should be registered")
	}
}

func TestLoad_Opening(t *testing.T) {
	g := loadTown(t)
	if g.State.Player.Location != "home" {
		t.Errorf("location = %q", g.State.Player.Location)
	}
	if g.Stat("charm") != 40 {
		t.Errorf("charm = %v, want 40", g.Stat("charm"))
	}
	if got := g.Content(); len(got) != 1 || !strings.Contains(got[0].Text, "shutters") {
		t.Errorf("opening content = %+v", got)
	}
}

func TestTown_MiraDate(t *testing.T) {
	g := loadTown(t)
	if err := g.Continue(); err != nil {
		t.Fatal(err)
	}
	if err := g.GoTo("square"); err != nil {
		t.Fatal(err)
	}
	if got := g.NPCsPresent("square"); !reflect.DeepEqual(got, []string{"mira"}) {
		t.Fatalf("npcs at square = %v", got)
	}
	if g.NPCName("mira") != "the stranger" {
		t.Errorf("name before introduction = %q", g.NPCName("mira"))
	}

	if err := g.Approach("mira"); err != nil {
		t.Fatal(err)
	}
	if g.NPCName("mira") != "Mira" {
		t.Errorf("name after introduction = %q", g.NPCName("mira"))
	}
	labels := func() []string {
		var out []string
		for _, c := range g.Choices() {
			out = append(out, c.Label)
		}
		return out
	}
	want := []string{"Ask about the harbor", "Invite her for coffee", "Leave"}
	if !reflect.DeepEqual(labels(), want) {
		t.Fatalf("choices = %v", labels())
	}

	// The menu loops after a non-exit option.
	if err := g.Choose(0); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(labels(), want) {
		t.Fatalf("choices after asking = %v", labels())
	}

	// charm 40 against difficulty 3 cannot fail.
	if err := g.Choose(1); err != nil {
		t.Fatal(err)
	}
	dates := g.CardsOf(content.DateType)
	if len(dates) != 1 {
		t.Fatalf("dates = %d, want 1", len(dates))
	}
	if err := g.Choose(2); err != nil {
		t.Fatal(err)
	}

	if err := g.TimeLapse(11 * 60); err != nil {
		t.Fatal(err)
	}
	n, _ := g.NPC("mira")
	if n.Location != "cafe" {
		t.Fatalf("mira at %q during the date window", n.Location)
	}
	if err := g.GoTo("cafe"); err != nil {
		t.Fatal(err)
	}
	card := g.Card(dates[0].InstanceID)
	if card == nil || card.Fields[content.FieldStarted] != true {
		t.Fatalf("date should be started on arrival, card = %+v", card)
	}
}

func TestTown_ApproachAfterIntroduction(t *testing.T) {
	g := loadTown(t)
	if err := g.Continue(); err != nil {
		t.Fatal(err)
	}
	n, err := g.NPC("mira")
	if err != nil {
		t.Fatal(err)
	}
	n.Stats["met"] = 1
	if err := g.Approach("mira"); err != nil {
		t.Fatal(err)
	}
	if got := g.Content(); len(got) != 1 || got[0].Text != "Oh. Hello." {
		t.Errorf("content = %+v", got)
	}
}

func TestTown_YAMLContent(t *testing.T) {
	g := loadTown(t)
	if err := g.Continue(); err != nil {
		t.Fatal(err)
	}
	if err := g.GoTo("pier"); err != nil {
		t.Fatal(err)
	}
	if !g.State.Player.Flags["sawPier"] {
		t.Error("pier onArrive should set sawPier")
	}
	if g.NPCName("oskar") != "Oskar" {
		t.Errorf("oskar name = %q", g.NPCName("oskar"))
	}
	if err := g.Approach("oskar"); err != nil {
		t.Fatal(err)
	}
	if err := g.Wait(10); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, item := range g.Content() {
		got = append(got, item.Text)
	}
	want := []string{"The ferry horn sounds twice.", "Tickets are sold out.", "The ferry leaves at noon. Don't miss it."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("content = %v, want %v", got, want)
	}
}

func TestTown_ErrandCard(t *testing.T) {
	g := loadTown(t)
	id, err := g.AddCard("errand", map[string]any{"item": "bread", "who": "the baker"})
	if err != nil {
		t.Fatal(err)
	}
	if g.Stat("errands") != 1 {
		t.Errorf("onAdded should count the errand, errands = %v", g.Stat("errands"))
	}
	card := g.Card(id)
	if got := g.CardTitle(*card); got != "Errand: bread" {
		t.Errorf("title = %q", got)
	}
	if got := g.CardDescription(*card); got != "Fetch bread for the baker." {
		t.Errorf("description = %q", got)
	}
	if got := g.Reminders(); !reflect.DeepEqual(got, []string{"Someone is waiting on bread."}) {
		t.Errorf("reminders = %v", got)
	}
	if _, err := g.Run(engine.Instr(dsl.GiveItem("bread")), nil); err != nil {
		t.Fatal(err)
	}
	if got := g.Reminders(); len(got) != 2 || got[1] != "You already have bread." {
		t.Errorf("reminders with bread = %v", got)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	_, err := Load("testdata/broken")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, want := range []string{
		"title is required",
		`start location "nowhere"`,
		`links to undefined location "attic"`,
		`npc "ghost" starts at undefined location "crypt"`,
		`goTo references undefined location "cellar"`,
		`unknown script "missingScript"`,
		`undefined card type "haunting"`,
	} {
		assertContains(t, ve.Errors, want)
	}
	assertContains(t, ve.Warnings, `location "hall" is never linked to`)
}

func TestLoad_SandboxedLua(t *testing.T) {
	_, err := Load("testdata/badlua")
	if err == nil || !strings.Contains(err.Error(), "game.lua") {
		t.Errorf("expected execution error naming game.lua, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load("testdata/does-not-exist"); err == nil {
		t.Error("expected error for missing directory")
	}

	dir := t.TempDir()
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "no .lua files") {
		t.Errorf("expected no .lua files error, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "game.lua"), []byte(`Location "x" {}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "no Game{}") {
		t.Errorf("expected missing Game error, got %v", err)
	}
}

func TestLoad_DuplicateScript(t *testing.T) {
	dir := t.TempDir()
	src := `
Game { title = "Dup", start = "a" }
Location "a" {}
Script "x" (Narrate("one"))
Script "x" (Narrate("two"))
`
	if err := os.WriteFile(filepath.Join(dir, "game.lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(dir)
	if !errors.Is(err, engine.ErrDuplicateScript) {
		t.Errorf("expected ErrDuplicateScript, got %v", err)
	}
}

func TestSortedLuaFiles(t *testing.T) {
	got := sortedLuaFiles([]string{"npcs.lua", "a.lua", "game.lua"})
	want := []string{"game.lua", "a.lua", "npcs.lua"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortedLuaFiles = %v, want %v", got, want)
	}
}
