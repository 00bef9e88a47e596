// Package save implements JSON serialization of game state and the stores
// that hold save slots.
package save

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/types"
)

// FormatVersion is bumped when SaveData changes incompatibly.
const FormatVersion = 1

var (
	// ErrVersion is returned when loading a save written by a newer format.
	ErrVersion = errors.New("unsupported save format version")
	// ErrGameMismatch is returned when applying a save made for another game.
	ErrGameMismatch = errors.New("save belongs to a different game")
)

// SaveData is the JSON-serializable save format. Scene frames are included
// so a game saved mid-conversation resumes with the same content and
// choices on screen.
type SaveData struct {
	Format      int                        `json:"format"`
	Version     string                     `json:"version"`
	Game        string                     `json:"game"`
	SessionID   uuid.UUID                  `json:"session_id"`
	Time        int64                      `json:"time"`
	Player      types.Player               `json:"player"`
	NPCs        map[string]*types.NPCState `json:"npcs"`
	Scenes      []types.Frame              `json:"scenes,omitempty"`
	NextFrameID int                        `json:"next_frame_id"`
	RNGSeed     int64                      `json:"rng_seed"`
	RNGPosition int64                      `json:"rng_position"`
	RNGDraws    int64                      `json:"rng_draws,omitempty"`
}

// Save serializes the game to JSON bytes.
func Save(g *engine.Game) ([]byte, error) {
	s := g.State
	data := SaveData{
		Format:      FormatVersion,
		Version:     g.Lib.Meta.Version,
		Game:        g.Lib.Meta.Title,
		SessionID:   g.SessionID,
		Time:        s.Time,
		Player:      s.Player,
		NPCs:        s.NPCs,
		Scenes:      s.Scenes,
		NextFrameID: s.NextFrameID,
		RNGSeed:     g.RNG.Seed(),
		RNGPosition: g.RNG.Position(),
		RNGDraws:    g.RNG.Draws(),
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding save: %w", err)
	}
	return out, nil
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("decoding save: %w", err)
	}
	if sd.Format > FormatVersion {
		return nil, fmt.Errorf("format %d: %w", sd.Format, ErrVersion)
	}
	// Ensure maps are never nil after load.
	if sd.NPCs == nil {
		sd.NPCs = map[string]*types.NPCState{}
	}
	for id, n := range sd.NPCs {
		if n == nil {
			delete(sd.NPCs, id)
			continue
		}
		n.ID = id
		if n.Stats == nil {
			n.Stats = map[string]float64{}
		}
	}
	if sd.Player.Inventory == nil {
		sd.Player.Inventory = []string{}
	}
	if sd.Player.Stats == nil {
		sd.Player.Stats = map[string]float64{}
	}
	if sd.Player.Flags == nil {
		sd.Player.Flags = map[string]bool{}
	}
	if sd.Player.Cards == nil {
		sd.Player.Cards = []types.Card{}
	}
	for i := range sd.Player.Cards {
		if sd.Player.Cards[i].Fields == nil {
			sd.Player.Cards[i].Fields = map[string]any{}
		}
	}
	return &sd, nil
}

// State builds a fresh engine state from loaded data.
func (sd *SaveData) State() *types.State {
	return &types.State{
		Time:        sd.Time,
		Player:      sd.Player,
		NPCs:        sd.NPCs,
		Scenes:      sd.Scenes,
		NextFrameID: sd.NextFrameID,
		RNGSeed:     sd.RNGSeed,
		RNGPosition: sd.RNGPosition,
		RNGDraws:    sd.RNGDraws,
	}
}

// Apply replaces the game's state with the saved one. Saves made for a
// game with a different title are rejected. NPCs the game no longer
// defines are kept and logged.
func Apply(g *engine.Game, sd *SaveData) error {
	if sd.Game != "" && g.Lib.Meta.Title != "" && sd.Game != g.Lib.Meta.Title {
		return fmt.Errorf("%q: %w", sd.Game, ErrGameMismatch)
	}
	g.Restore(sd.State())
	for id := range sd.NPCs {
		if g.Lib.NPCDef(id) == nil {
			g.Logger.Warn("save holds an npc the game does not define", "npc", id)
		}
	}
	if sd.SessionID != uuid.Nil {
		g.SessionID = sd.SessionID
	}
	g.Logger.Info("save applied", "game", sd.Game, "session", g.SessionID, "time", sd.Time)
	return nil
}
