// Package term declares the collaborator interfaces for the terminal widget
// and its containing window, plus the fixed baseline options applied to every
// session. The widget itself lives in the attached frontend; the backend only
// tracks the metrics and state it needs for geometry and key handling.
package term

// WordCharExceptions are the extra characters treated as word characters for
// double-click selection, beyond the widget's defaults.
const WordCharExceptions = "-./?%&_=+@~:"

// Options are the baseline behavioral options applied to the terminal widget
// before spawn. They are fixed policy, not user-configurable.
type Options struct {
	ScrollbackLines    int    `json:"scrollbackLines"` // -1 means unlimited retention
	ScrollOnOutput     bool   `json:"scrollOnOutput"`
	ScrollOnKeystroke  bool   `json:"scrollOnKeystroke"`
	MouseAutohide      bool   `json:"mouseAutohide"`
	BoldIsBright       bool   `json:"boldIsBright"`
	AudibleBell        bool   `json:"audibleBell"`
	CursorBlink        bool   `json:"cursorBlink"`
	WordCharExceptions string `json:"wordCharExceptions"`
}

// DefaultOptions returns the baseline option set.
func DefaultOptions() Options {
	return Options{
		ScrollbackLines:    -1,
		ScrollOnOutput:     true,
		ScrollOnKeystroke:  true,
		MouseAutohide:      true,
		BoldIsBright:       true,
		AudibleBell:        true,
		CursorBlink:        true,
		WordCharExceptions: WordCharExceptions,
	}
}

// CellMetrics describes the character grid and the pixel size of one cell at
// the current font scale. Row and column counts do not change with font
// scale; cell sizes do.
type CellMetrics struct {
	Rows       int `json:"rows"`
	Columns    int `json:"cols"`
	CellWidth  int `json:"cellWidth"`
	CellHeight int `json:"cellHeight"`
}

// Terminal is the widget seen from the geometry and key-dispatch code.
// Implementations must reflect a SetFontScale or ResetFontSize call in the
// metrics returned by the next Metrics call.
type Terminal interface {
	Metrics() CellMetrics
	FontScale() float64
	SetFontScale(scale float64)

	// ResetFontSize restores the font description to its original configured
	// point size, not a remembered previous size.
	ResetFontSize()

	// Selection returns the current selection as plain text, empty when
	// nothing is selected.
	Selection() string
}

// Window is the outer window seen from the geometry code.
type Window interface {
	Size() (width, height int)
	Resize(width, height int)
}
