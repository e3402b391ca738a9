package keymap

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want Action
	}{
		{
			name: "ctrl shift pageup zooms in",
			ev:   Event{Modifiers: ChordModifiers, Keycode: KeycodePageUp},
			want: ActionZoomIn,
		},
		{
			name: "ctrl shift pagedown zooms out",
			ev:   Event{Modifiers: ChordModifiers, Keycode: KeycodePageDown},
			want: ActionZoomOut,
		},
		{
			name: "ctrl shift home resets",
			ev:   Event{Modifiers: ChordModifiers, Keycode: KeycodeHome},
			want: ActionResetFontAndWindow,
		},
		{
			name: "ctrl shift c copies",
			ev:   Event{Modifiers: ChordModifiers, Keyval: "c"},
			want: ActionCopy,
		},
		{
			name: "uppercase keyval matches too",
			ev:   Event{Modifiers: ChordModifiers, Keyval: "C"},
			want: ActionCopy,
		},
		{
			name: "ctrl shift v pastes",
			ev:   Event{Modifiers: ChordModifiers, Keyval: "v"},
			want: ActionPaste,
		},
		{
			name: "ctrl alone is unclaimed",
			ev:   Event{Modifiers: ModControl, Keycode: KeycodePageUp},
			want: ActionNone,
		},
		{
			name: "extra modifier breaks the chord",
			ev:   Event{Modifiers: ChordModifiers | ModAlt, Keyval: "c"},
			want: ActionNone,
		},
		{
			name: "unbound keyval is unclaimed",
			ev:   Event{Modifiers: ChordModifiers, Keyval: "a"},
			want: ActionNone,
		},
		{
			name: "keycode wins over keyval",
			ev:   Event{Modifiers: ChordModifiers, Keycode: KeycodePageUp, Keyval: "c"},
			want: ActionZoomIn,
		},
		{
			name: "no modifiers is unclaimed",
			ev:   Event{Keyval: "v"},
			want: ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lookup(tt.ev); got != tt.want {
				t.Errorf("Lookup(%+v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

type countingActions struct {
	zoomIn, zoomOut, reset, copies, pastes int
}

func (c *countingActions) ZoomIn()             { c.zoomIn++ }
func (c *countingActions) ZoomOut()            { c.zoomOut++ }
func (c *countingActions) ResetFontAndWindow() { c.reset++ }
func (c *countingActions) Copy()               { c.copies++ }
func (c *countingActions) Paste()              { c.pastes++ }

func TestDispatchClaimsExactlyOneAction(t *testing.T) {
	actions := &countingActions{}
	d := NewDispatcher(actions)

	if !d.Dispatch(Event{Modifiers: ChordModifiers, Keycode: KeycodePageUp}) {
		t.Fatal("zoom-in chord not claimed")
	}
	if actions.zoomIn != 1 {
		t.Errorf("ZoomIn called %d times, want 1", actions.zoomIn)
	}
	if total := actions.zoomOut + actions.reset + actions.copies + actions.pastes; total != 0 {
		t.Errorf("other actions fired %d times, want 0", total)
	}
}

func TestDispatchLeavesUnclaimedEventsAlone(t *testing.T) {
	actions := &countingActions{}
	d := NewDispatcher(actions)

	if d.Dispatch(Event{Modifiers: ChordModifiers, Keyval: "a"}) {
		t.Error("unbound chord was claimed")
	}
	if d.Dispatch(Event{Modifiers: ModShift, Keyval: "c"}) {
		t.Error("shift-only event was claimed")
	}
	if total := actions.zoomIn + actions.zoomOut + actions.reset + actions.copies + actions.pastes; total != 0 {
		t.Errorf("actions fired %d times for unclaimed events, want 0", total)
	}
}
