// Package scene implements the scene stack stored on the game state.
//
// Frames are addressed by ID rather than by position. Writes name the frame
// they target, so a script that pushes a child frame and keeps writing lands
// in its own frame rather than whichever frame is on top. Pointers returned
// by Top and Find are only valid until the next Push.
package scene

import "github.com/nathoo/talecraft/types"

// Stack is a view over the frames held in a State.
type Stack struct {
	s *types.State
}

// New returns a stack view over s.
func New(s *types.State) Stack {
	return Stack{s: s}
}

// Len returns the number of frames.
func (st Stack) Len() int {
	return len(st.s.Scenes)
}

// Push adds f on top, assigning it a fresh ID, and returns the ID.
func (st Stack) Push(f types.Frame) int {
	st.s.NextFrameID++
	f.ID = st.s.NextFrameID
	st.s.Scenes = append(st.s.Scenes, f)
	return f.ID
}

// Top returns the top frame, or nil when the stack is empty.
func (st Stack) Top() *types.Frame {
	if len(st.s.Scenes) == 0 {
		return nil
	}
	return &st.s.Scenes[len(st.s.Scenes)-1]
}

// Active returns the top frame, creating a root frame if the stack is empty.
func (st Stack) Active() *types.Frame {
	if len(st.s.Scenes) == 0 {
		st.Push(types.Frame{})
	}
	return st.Top()
}

// Find returns the frame with the given ID, or nil.
func (st Stack) Find(id int) *types.Frame {
	for i := range st.s.Scenes {
		if st.s.Scenes[i].ID == id {
			return &st.s.Scenes[i]
		}
	}
	return nil
}

// IsTop reports whether the frame with the given ID is on top.
func (st Stack) IsTop(id int) bool {
	top := st.Top()
	return top != nil && top.ID == id
}

// Pop removes and returns the top frame.
func (st Stack) Pop() (types.Frame, bool) {
	n := len(st.s.Scenes)
	if n == 0 {
		return types.Frame{}, false
	}
	f := st.s.Scenes[n-1]
	st.s.Scenes = st.s.Scenes[:n-1]
	return f, true
}

// Remove removes the frame with the given ID together with every frame
// above it. It returns the removed frame.
func (st Stack) Remove(id int) (types.Frame, bool) {
	for i := range st.s.Scenes {
		if st.s.Scenes[i].ID == id {
			f := st.s.Scenes[i]
			st.s.Scenes = st.s.Scenes[:i]
			return f, true
		}
	}
	return types.Frame{}, false
}

// target returns the frame with the given ID, or the active frame when id
// is 0 or no longer on the stack.
func (st Stack) target(id int) *types.Frame {
	if id != 0 {
		if f := st.Find(id); f != nil {
			return f
		}
	}
	return st.Active()
}

// Append adds a content item to frame id.
func (st Stack) Append(id int, item types.ContentItem) {
	f := st.target(id)
	f.Content = append(f.Content, item)
}

// AddChoice adds a pending choice to frame id.
func (st Stack) AddChoice(id int, c types.Choice) {
	f := st.target(id)
	f.Choices = append(f.Choices, c)
}

// Reset clears the content and choices of the frame with the given ID.
func (st Stack) Reset(id int) {
	if f := st.Find(id); f != nil {
		f.Content = nil
		f.Choices = nil
	}
}

// NPC returns the active NPC of the top frame, or "".
func (st Stack) NPC() string {
	if f := st.Top(); f != nil {
		return f.NPC
	}
	return ""
}

// Clear drops every frame.
func (st Stack) Clear() {
	st.s.Scenes = nil
}
