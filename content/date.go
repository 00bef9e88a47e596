// Package content ships the stock card definitions and scripts that stories
// can build on.
package content

import (
	"errors"
	"fmt"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/clock"
	"github.com/nathoo/talecraft/types"
)

// DateType is the card type id of a date.
const DateType = "date"

// Date card fields.
const (
	FieldNPC         = "npc"
	FieldLocation    = "location"
	FieldMeetTime    = "meetTime"
	FieldWaitMinutes = "waitMinutes"
	FieldStarted     = "started"
	FieldOutcome     = "outcome"
)

// Date outcomes recorded on the card before it is removed.
const (
	OutcomeNoShow   = "noShow"
	OutcomeFinished = "finished"
)

// statAffection is lowered when the player misses a date.
const statAffection = "affection"

// defaultWaitMinutes is how long an NPC waits when the card does not say.
const defaultWaitMinutes = 60

// ErrDateStarted is returned by StartDate when the date is already underway.
var ErrDateStarted = errors.New("date already started")

// DateCard is the definition of a date: an NPC waits at a location from
// meetTime for waitMinutes. If the player has not started the date by then,
// the NPC's affection drops, onNoShow runs and the card removes itself.
var DateCard = engine.CardDefinition{
	ID:          DateType,
	Title:       dateTitle,
	Describe:    describeDate,
	AfterUpdate: engine.Callable(dateAfterUpdate),
	Reminders:   dateReminders,
}

// Register adds the stock cards and their scripts to lib.
func Register(lib *engine.Library) error {
	if err := lib.RegisterCard(DateCard); err != nil {
		return err
	}
	if err := lib.Register("scheduleDate", scheduleDateScript); err != nil {
		return err
	}
	if err := lib.Register("startDate", startDateScript); err != nil {
		return err
	}
	if err := lib.Register("endDate", endDateScript); err != nil {
		return err
	}
	return nil
}

// date is a typed view over a date card's fields.
type date struct {
	npc      string
	location string
	meetTime int64
	wait     int64
	started  bool
}

func dateOf(c types.Card) date {
	d := date{wait: defaultWaitMinutes}
	d.npc, _ = c.Fields[FieldNPC].(string)
	d.location, _ = c.Fields[FieldLocation].(string)
	if f, ok := c.Fields[FieldMeetTime].(float64); ok {
		d.meetTime = int64(f)
	}
	if f, ok := c.Fields[FieldWaitMinutes].(float64); ok {
		d.wait = int64(f)
	}
	d.started, _ = c.Fields[FieldStarted].(bool)
	return d
}

func (d date) deadline() int64 {
	return d.meetTime + d.wait*clock.SecondsPerMinute
}

// NewDate adds a date card with npc waiting at location from meetTime.
func NewDate(g *engine.Game, npc, location string, meetTime int64, waitMinutes int) (string, error) {
	if npc == "" || location == "" {
		return "", errors.New("date needs an npc and a location")
	}
	if waitMinutes <= 0 {
		waitMinutes = defaultWaitMinutes
	}
	return g.AddCard(DateType, map[string]any{
		FieldNPC:         npc,
		FieldLocation:    location,
		FieldMeetTime:    meetTime,
		FieldWaitMinutes: waitMinutes,
		FieldStarted:     false,
	})
}

// StartDate marks the date as underway. Starting a removed date is a no-op;
// starting it twice fails with ErrDateStarted.
func StartDate(g *engine.Game, cardID string) error {
	c := g.Card(cardID)
	if c == nil {
		return nil
	}
	if dateOf(*c).started {
		return ErrDateStarted
	}
	return g.SetCardField(cardID, FieldStarted, true)
}

// EndDate removes a date with the finished outcome.
func EndDate(g *engine.Game, cardID string) bool {
	if g.Card(cardID) == nil {
		return false
	}
	_ = g.SetCardField(cardID, FieldOutcome, OutcomeFinished)
	g.ReleaseNPC(dateOf(*g.Card(cardID)).npc, cardID)
	return g.RemoveCard(cardID)
}

// dateAfterUpdate re-checks the date against the current time on every
// tick. One tick may jump past both the window start and the deadline.
func dateAfterUpdate(g *engine.Game, p engine.Params) (any, error) {
	id, _ := p["card"].(string)
	c := g.Card(id)
	if c == nil {
		return nil, nil
	}
	d := dateOf(*c)
	now := g.Now()

	if !d.started && now >= d.deadline() {
		return nil, noShow(g, id, d)
	}
	if now >= d.meetTime && d.npc != "" {
		return nil, g.HoldNPC(d.npc, d.location, id)
	}
	return nil, nil
}

func noShow(g *engine.Game, id string, d date) error {
	_ = g.SetCardField(id, FieldOutcome, OutcomeNoShow)
	g.Logger.Info("date missed", "npc", d.npc, "card", id)
	if d.npc != "" {
		n, err := g.NPC(d.npc)
		if err != nil {
			return fmt.Errorf("date %s: %w", id, err)
		}
		n.Stats[statAffection]--
		if _, err := g.RunNPCHook(d.npc, engine.HookOnNoShow, engine.Params{"card": id}); err != nil {
			return err
		}
	}
	g.ReleaseNPC(d.npc, id)
	g.RemoveCard(id)
	return nil
}

func dateTitle(c types.Card) string {
	d := dateOf(c)
	return fmt.Sprintf("Date at %s", d.location)
}

func describeDate(g *engine.Game, c types.Card) string {
	d := dateOf(c)
	return fmt.Sprintf("Meet %s at %s, %s. They will wait %d minutes.",
		g.NPCName(d.npc), d.location, clock.Format(d.meetTime), d.wait)
}

func dateReminders(g *engine.Game, c types.Card) []string {
	d := dateOf(c)
	now := g.Now()
	switch {
	case d.started:
		return nil
	case now < d.meetTime:
		return []string{fmt.Sprintf("Date with %s at %s.", g.NPCName(d.npc), clock.Format(d.meetTime))}
	case now < d.deadline():
		return []string{fmt.Sprintf("%s is waiting at %s.", g.NPCName(d.npc), d.location)}
	default:
		return nil
	}
}

// scheduleDateScript adds a date at the next occurrence of hour:minute.
func scheduleDateScript(g *engine.Game, p engine.Params) (any, error) {
	npc, _ := p["npc"].(string)
	loc, _ := p["location"].(string)
	hour, minute := intParam(p, "hour"), intParam(p, "minute")
	meet := clock.At(g.Now(), hour, minute)
	if meet <= g.Now() {
		meet += clock.SecondsPerDay
	}
	return NewDate(g, npc, loc, meet, intParam(p, "waitMinutes"))
}

// startDateScript starts the date in the "card" param, or the first date
// with the scene NPC. It returns whether a date was started.
func startDateScript(g *engine.Game, p engine.Params) (any, error) {
	id := dateParam(g, p)
	if id == "" {
		return false, nil
	}
	if err := StartDate(g, id); err != nil {
		if errors.Is(err, ErrDateStarted) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func endDateScript(g *engine.Game, p engine.Params) (any, error) {
	return EndDate(g, dateParam(g, p)), nil
}

func dateParam(g *engine.Game, p engine.Params) string {
	if id, ok := p["card"].(string); ok && id != "" {
		return id
	}
	npc, _ := p["npc"].(string)
	if npc == "" {
		npc = g.ActiveNPC()
	}
	for _, c := range g.CardsOf(DateType) {
		if dateOf(c).npc == npc {
			return c.InstanceID
		}
	}
	return ""
}

func intParam(p engine.Params, key string) int {
	switch n := p[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
