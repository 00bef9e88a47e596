package content

import (
	"errors"
	"testing"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/clock"
	"github.com/nathoo/talecraft/types"
)

const (
	eightAM = 8 * clock.SecondsPerHour
	tenAM   = 10 * clock.SecondsPerHour
)

type counters struct {
	moves   int
	noShows int
}

func testGame(t *testing.T) (*engine.Game, *counters) {
	t.Helper()
	c := &counters{}
	lib := engine.NewLibrary()
	if err := Register(lib); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, id := range []string{"home", "park", "cafe"} {
		if err := lib.RegisterLocation(engine.Location{ID: id, Name: id}); err != nil {
			t.Fatalf("location %s: %v", id, err)
		}
	}
	err := lib.RegisterNPC(engine.NPCDef{
		ID:       "ada",
		Name:     "Ada",
		Location: "home",
		Stats:    map[string]float64{"affection": 3},
		Schedule: []types.ScheduleEntry{{Start: 9, End: 18, Location: "park"}},
		Hooks: map[string]engine.Script{
			engine.HookOnMove: engine.Callable(func(*engine.Game, engine.Params) (any, error) {
				c.moves++
				return nil, nil
			}),
			engine.HookOnNoShow: engine.Callable(func(*engine.Game, engine.Params) (any, error) {
				c.noShows++
				return nil, nil
			}),
		},
	})
	if err != nil {
		t.Fatalf("npc: %v", err)
	}
	lib.Meta.Start = "home"
	g := engine.NewGame(lib, engine.Options{Seed: 1, StartTime: eightAM})
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := g.NPC("ada"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	return g, c
}

func TestDate_ForcesNPCDuringWindow(t *testing.T) {
	g, _ := testGame(t)
	if _, err := NewDate(g, "ada", "cafe", tenAM, 120); err != nil {
		t.Fatalf("new date: %v", err)
	}

	if err := g.TimeLapse(60); err != nil {
		t.Fatal(err)
	}
	if n, _ := g.NPC("ada"); n.Location != "park" {
		t.Errorf("before window: ada at %q, want park", n.Location)
	}

	if err := g.TimeLapse(60); err != nil {
		t.Fatal(err)
	}
	if n, _ := g.NPC("ada"); n.Location != "cafe" {
		t.Errorf("in window: ada at %q, want cafe", n.Location)
	}
}

func TestDate_NoShowAtDeadline(t *testing.T) {
	g, c := testGame(t)
	id, err := NewDate(g, "ada", "cafe", tenAM, 120)
	if err != nil {
		t.Fatalf("new date: %v", err)
	}

	// 08:00 -> 12:00 in one coarse step jumps straight past the deadline.
	if err := g.TimeLapse(240); err != nil {
		t.Fatal(err)
	}
	if g.Now() != tenAM+7200 {
		t.Fatalf("time = %d, want %d", g.Now(), tenAM+7200)
	}
	if g.Card(id) != nil {
		t.Error("date card should be removed after a no-show")
	}
	n, _ := g.NPC("ada")
	if n.Stats["affection"] != 2 {
		t.Errorf("affection = %v, want 2", n.Stats["affection"])
	}
	if c.noShows != 1 {
		t.Errorf("onNoShow ran %d times, want 1", c.noShows)
	}
}

func TestDate_AfterUpdateIdempotent(t *testing.T) {
	g, c := testGame(t)
	if err := g.TimeLapse(120); err != nil {
		t.Fatal(err)
	}
	id, err := NewDate(g, "ada", "cafe", tenAM, 120)
	if err != nil {
		t.Fatalf("new date: %v", err)
	}

	run := func() {
		t.Helper()
		if _, err := g.Run(DateCard.AfterUpdate, engine.Params{"card": id}); err != nil {
			t.Fatalf("afterUpdate: %v", err)
		}
	}

	run()
	moves := c.moves
	run()
	if c.moves != moves {
		t.Errorf("second afterUpdate moved the npc again (%d -> %d)", moves, c.moves)
	}

	if err := g.TimeLapse(120); err != nil {
		t.Fatal(err)
	}
	run()
	run()
	n, _ := g.NPC("ada")
	if n.Stats["affection"] != 2 {
		t.Errorf("affection = %v, want 2 after repeated updates", n.Stats["affection"])
	}
	if c.noShows != 1 {
		t.Errorf("onNoShow ran %d times, want 1", c.noShows)
	}
}

func TestDate_ZeroLapsesInWindowDoNotMoveAgain(t *testing.T) {
	g, c := testGame(t)
	id, err := NewDate(g, "ada", "cafe", tenAM, 120)
	if err != nil {
		t.Fatalf("new date: %v", err)
	}
	if err := g.TimeLapse(120); err != nil {
		t.Fatal(err)
	}
	moves := c.moves

	for i := 0; i < 3; i++ {
		if err := g.TimeLapse(0); err != nil {
			t.Fatal(err)
		}
	}
	if c.moves != moves {
		t.Errorf("onMove fired %d more times over zero-length ticks", c.moves-moves)
	}
	if n, _ := g.NPC("ada"); n.Location != "cafe" || n.HeldBy != id {
		t.Errorf("ada at %q held by %q, want cafe held by %s", n.Location, n.HeldBy, id)
	}

	if err := StartDate(g, id); err != nil {
		t.Fatal(err)
	}
	EndDate(g, id)
	if err := g.TimeLapse(0); err != nil {
		t.Fatal(err)
	}
	n, _ := g.NPC("ada")
	if n.Location != "park" || n.HeldBy != "" {
		t.Errorf("after the date ada at %q held by %q, want park and released", n.Location, n.HeldBy)
	}
	if c.moves != moves+1 {
		t.Errorf("onMove fired %d times after release, want 1", c.moves-moves)
	}
}

func TestDate_HoldLapsesWithRemovedCard(t *testing.T) {
	g, _ := testGame(t)
	id, err := NewDate(g, "ada", "cafe", tenAM, 120)
	if err != nil {
		t.Fatalf("new date: %v", err)
	}
	if err := g.TimeLapse(120); err != nil {
		t.Fatal(err)
	}
	g.RemoveCard(id)
	if err := g.TimeLapse(0); err != nil {
		t.Fatal(err)
	}
	if n, _ := g.NPC("ada"); n.Location != "park" || n.HeldBy != "" {
		t.Errorf("ada at %q held by %q, want the schedule back in charge", n.Location, n.HeldBy)
	}
}

func TestDate_StartedDateIsKept(t *testing.T) {
	g, c := testGame(t)
	id, err := NewDate(g, "ada", "cafe", tenAM, 120)
	if err != nil {
		t.Fatalf("new date: %v", err)
	}
	if err := StartDate(g, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := StartDate(g, id); !errors.Is(err, ErrDateStarted) {
		t.Errorf("second start: got %v, want ErrDateStarted", err)
	}

	if err := g.TimeLapse(300); err != nil {
		t.Fatal(err)
	}
	if g.Card(id) == nil {
		t.Fatal("started date should not be removed as a no-show")
	}
	if c.noShows != 0 {
		t.Errorf("onNoShow ran %d times, want 0", c.noShows)
	}
	if !EndDate(g, id) {
		t.Error("EndDate should remove the card")
	}
	if EndDate(g, id) {
		t.Error("ending a removed date should report false")
	}
}

func TestDate_Scripts(t *testing.T) {
	g, _ := testGame(t)
	v, err := g.RunName("scheduleDate", engine.Params{
		"npc": "ada", "location": "cafe", "hour": 7, "minute": 30, "waitMinutes": 30,
	})
	if err != nil {
		t.Fatalf("scheduleDate: %v", err)
	}
	id, _ := v.(string)
	c := g.Card(id)
	if c == nil {
		t.Fatal("scheduleDate did not add a card")
	}
	// 07:30 has passed at 08:00, so the date is tomorrow.
	want := float64(clock.SecondsPerDay + 7*clock.SecondsPerHour + 30*clock.SecondsPerMinute)
	if c.Fields[FieldMeetTime] != want {
		t.Errorf("meetTime = %v, want %v", c.Fields[FieldMeetTime], want)
	}

	started, err := g.RunName("startDate", engine.Params{"npc": "ada"})
	if err != nil || started != true {
		t.Fatalf("startDate = %v, %v", started, err)
	}
	started, err = g.RunName("startDate", engine.Params{"npc": "ada"})
	if err != nil || started != false {
		t.Errorf("second startDate = %v, %v; want false, nil", started, err)
	}

	if len(g.Reminders()) != 0 {
		t.Errorf("started date should have no reminders, got %v", g.Reminders())
	}
}

func TestDate_Reminders(t *testing.T) {
	g, _ := testGame(t)
	if _, err := NewDate(g, "ada", "cafe", tenAM, 120); err != nil {
		t.Fatal(err)
	}
	r := g.Reminders()
	if len(r) != 1 {
		t.Fatalf("reminders = %v, want one", r)
	}
	if got := g.CardTitle(g.CardsOf(DateType)[0]); got != "Date at cafe" {
		t.Errorf("title = %q", got)
	}
}
