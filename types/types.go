// Package types defines the shared data structures for the talecraft runtime.
// It holds plain data only; behavior lives in the engine packages.
package types

// Instruction is one serializable script call: a script name and its params.
// Params hold only JSON-compatible values and nested Instructions.
type Instruction struct {
	Script string         `json:"script"`
	Params map[string]any `json:"params,omitempty"`
}

// ContentItem is one presentational entry appended to a scene frame.
type ContentItem struct {
	Kind    string `json:"kind"` // "say", "narrate", "notice"
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"` // NPC id for "say"
}

// Choice is a pending option on a scene frame.
type Choice struct {
	Label  string      `json:"label"`
	Script Instruction `json:"script"`
	Exit   bool        `json:"exit,omitempty"` // leaves a menu instead of looping
}

// Frame is one entry of the scene stack.
type Frame struct {
	ID        int           `json:"id"`
	Content   []ContentItem `json:"content,omitempty"`
	Choices   []Choice      `json:"choices,omitempty"`
	NPC       string        `json:"npc,omitempty"` // active NPC, "" when none
	ShowImage bool          `json:"show_image,omitempty"`
	Menu      *Instruction  `json:"menu,omitempty"` // body re-run after each non-exit choice
	Next      []Instruction `json:"next,omitempty"` // queued scenes started when this frame completes
}

// ScheduleEntry is one row of an NPC schedule table. A Start greater than
// End denotes a window spanning midnight.
type ScheduleEntry struct {
	Start    float64 `json:"start" yaml:"start"`
	End      float64 `json:"end" yaml:"end"`
	Location string  `json:"location" yaml:"location"`
}

// Card is a persistent stateful entity (quest, date, relationship).
type Card struct {
	TypeID     string         `json:"cardTypeId"`
	InstanceID string         `json:"instanceId"`
	Fields     map[string]any `json:"fields"`
}

// Player holds the player's runtime state.
type Player struct {
	Location  string             `json:"location"`
	Stats     map[string]float64 `json:"stats"`
	Inventory []string           `json:"inventory"`
	Cards     []Card             `json:"cards"`
	Flags     map[string]bool    `json:"flags"`
}

// NPCState is the persisted runtime state of a materialized NPC.
// An empty Location means the NPC is offscreen.
type NPCState struct {
	ID        string             `json:"npcId"`
	Location  string             `json:"location,omitempty"`
	Stats     map[string]float64 `json:"stats"`
	NameKnown int                `json:"nameKnown"`
	HeldBy    string             `json:"heldBy,omitempty"` // card instance keeping the npc in place
}

// State is the complete mutable game state.
type State struct {
	Time        int64                `json:"time"` // seconds since the epoch
	Player      Player               `json:"player"`
	NPCs        map[string]*NPCState `json:"npcs"`
	Scenes      []Frame              `json:"scenes"`
	NextFrameID int                  `json:"next_frame_id"`
	RNGSeed     int64                `json:"rng_seed"`
	RNGPosition int64                `json:"rng_position"`
	RNGDraws    int64                `json:"rng_draws,omitempty"` // raw values taken from the source
}
