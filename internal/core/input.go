package core

import "slices"

// Action is a semantic input, decoupled from physical keys.
type Action int

const (
	ActionNone    Action = iota
	ActionUp             // W, K, Up arrow
	ActionDown           // S, J, Down arrow
	ActionLeft           // A, H, Left arrow
	ActionRight          // D, L, Right arrow
	ActionConfirm        // Enter
	ActionBack           // B, Escape
	ActionRestart        // R
	ActionQuit           // Q, Ctrl+C
	ActionPause          // P
)

var actionNames = map[Action]string{
	ActionNone:    "None",
	ActionUp:      "Up",
	ActionDown:    "Down",
	ActionLeft:    "Left",
	ActionRight:   "Right",
	ActionConfirm: "Confirm",
	ActionBack:    "Back",
	ActionRestart: "Restart",
	ActionQuit:    "Quit",
	ActionPause:   "Pause",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "Unknown"
}

// IsMove reports whether a is one of the four arrow actions.
func (a Action) IsMove() bool {
	return a >= ActionUp && a <= ActionRight
}

// InputFrame holds the actions received during one simulation tick, in
// arrival order. Repeated actions are kept so fast key presses are not lost.
type InputFrame struct {
	actions []Action
}

// NewInputFrame creates an empty input frame.
func NewInputFrame(actions ...Action) InputFrame {
	return InputFrame{actions: slices.Clone(actions)}
}

// Set appends an action.
func (f *InputFrame) Set(a Action) {
	if a == ActionNone {
		return
	}
	f.actions = append(f.actions, a)
}

// Has reports whether a was received this frame.
func (f InputFrame) Has(a Action) bool {
	return slices.Contains(f.actions, a)
}

// Moves returns the move actions in arrival order.
func (f InputFrame) Moves() []Action {
	var out []Action
	for _, a := range f.actions {
		if a.IsMove() {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of recorded actions.
func (f InputFrame) Len() int {
	return len(f.actions)
}

// Clear empties the frame, keeping its capacity.
func (f *InputFrame) Clear() {
	f.actions = f.actions[:0]
}

// Clone returns an independent copy.
func (f InputFrame) Clone() InputFrame {
	return InputFrame{actions: slices.Clone(f.actions)}
}
