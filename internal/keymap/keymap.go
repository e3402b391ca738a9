// Package keymap recognizes the fixed set of modified key chords handled by
// the window before normal terminal input: zoom in/out, font-and-window
// reset, copy and paste.
package keymap

import "strings"

// Modifiers is a bit set of modifier keys held during a key event.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// ChordModifiers is the only modifier combination that can claim an event.
// The match is exact equality, so Ctrl+Shift+Alt falls through.
const ChordModifiers = ModControl | ModShift

// Hardware-independent key codes for the font and zoom chords, as delivered
// in the frontend's key events. Copy and paste match on the symbolic key
// value instead.
const (
	KeycodePageUp   uint16 = 21
	KeycodePageDown uint16 = 20
	KeycodeHome     uint16 = 19
)

// Event is one key press as reported by the frontend while the terminal has
// focus.
type Event struct {
	Modifiers Modifiers `json:"mods"`
	Keycode   uint16    `json:"keycode"`
	Keyval    string    `json:"keyval"`
}

// Action identifies the command bound to a chord.
type Action int

const (
	ActionNone Action = iota
	ActionZoomIn
	ActionZoomOut
	ActionResetFontAndWindow
	ActionCopy
	ActionPaste
)

// Lookup resolves an event against the chord table. Keycodes are checked
// before symbolic key values; key values are case-folded so Ctrl+Shift+C
// matches whether the frontend reports "c" or "C".
func Lookup(ev Event) Action {
	if ev.Modifiers != ChordModifiers {
		return ActionNone
	}

	switch ev.Keycode {
	case KeycodePageUp:
		return ActionZoomIn
	case KeycodePageDown:
		return ActionZoomOut
	case KeycodeHome:
		return ActionResetFontAndWindow
	}

	switch strings.ToLower(ev.Keyval) {
	case "c":
		return ActionCopy
	case "v":
		return ActionPaste
	}

	return ActionNone
}

// Actions receives the side effects of claimed chords.
type Actions interface {
	ZoomIn()
	ZoomOut()
	ResetFontAndWindow()
	Copy()
	Paste()
}

// Dispatcher is a stateless pre-filter over key events. Claimed events halt
// further propagation; everything else reaches normal terminal input.
type Dispatcher struct {
	actions Actions
}

// NewDispatcher returns a Dispatcher bound to the given actions.
func NewDispatcher(actions Actions) *Dispatcher {
	return &Dispatcher{actions: actions}
}

// Dispatch claims the event if it matches the chord table, invoking exactly
// one action, and reports whether the event was handled.
func (d *Dispatcher) Dispatch(ev Event) bool {
	action := Lookup(ev)
	if action == ActionNone {
		return false
	}

	switch action {
	case ActionZoomIn:
		d.actions.ZoomIn()
	case ActionZoomOut:
		d.actions.ZoomOut()
	case ActionResetFontAndWindow:
		d.actions.ResetFontAndWindow()
	case ActionCopy:
		d.actions.Copy()
	case ActionPaste:
		d.actions.Paste()
	}
	return true
}
