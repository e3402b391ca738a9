// Package geometry keeps the window's pixel size consistent with the
// terminal's character grid across font-scale changes.
package geometry

import (
	"sync"

	"github.com/illumiterm/backend/internal/term"
)

const (
	// ZoomFactor is the multiplier applied per zoom-in step; zoom-out uses
	// its reciprocal.
	ZoomFactor = 1.125

	// DefaultWindowWidth and DefaultWindowHeight are the window size at
	// first show and after an explicit size reset. The reset is a literal
	// fallback, not derived from cell metrics.
	DefaultWindowWidth  = 640
	DefaultWindowHeight = 460
)

// Synchronizer recomputes the chrome offset (window size minus terminal
// content size) fresh on every change, so no rounding error carries forward
// across repeated scale operations. Operations are serialized: the offset
// read, the scale change and the resize must not interleave with another
// geometry update.
type Synchronizer struct {
	term term.Terminal
	win  term.Window

	mu sync.Mutex
}

// New returns a Synchronizer over the given terminal and window.
func New(t term.Terminal, w term.Window) *Synchronizer {
	return &Synchronizer{term: t, win: w}
}

// chromeOffset returns the pixels consumed by window decoration beyond the
// terminal content area.
func (s *Synchronizer) chromeOffset(m term.CellMetrics) (int, int) {
	width, height := s.win.Size()
	return width - m.Columns*m.CellWidth, height - m.Rows*m.CellHeight
}

// AdjustFontScale multiplies the font scale by factor and resizes the window
// so the content area keeps tracking character-cell boundaries:
// the chrome offset is read before the scale change, the cell metrics after.
func (s *Synchronizer) AdjustFontScale(factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.term.Metrics()
	ow, oh := s.chromeOffset(m)

	s.term.SetFontScale(s.term.FontScale() * factor)

	m = s.term.Metrics()
	s.win.Resize(m.Columns*m.CellWidth+ow, m.Rows*m.CellHeight+oh)
}

// ZoomIn applies one zoom-in step.
func (s *Synchronizer) ZoomIn() {
	s.AdjustFontScale(ZoomFactor)
}

// ZoomOut applies one zoom-out step.
func (s *Synchronizer) ZoomOut() {
	s.AdjustFontScale(1.0 / ZoomFactor)
}

// Reset restores font scale 1.0 and the original configured font size,
// reapplies the grid math with the restored metrics, then forces the window
// back to the fixed default pixel size.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.term.SetFontScale(1.0)
	s.term.ResetFontSize()

	m := s.term.Metrics()
	ow, oh := s.chromeOffset(m)
	s.win.Resize(m.Columns*m.CellWidth+ow, m.Rows*m.CellHeight+oh)

	s.win.Resize(DefaultWindowWidth, DefaultWindowHeight)
}
