package ws

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/illumiterm/backend/internal/term"
)

// confirmTimeout bounds how long a close confirmation prompt stays open.
// An unanswered prompt counts as a veto.
const confirmTimeout = 60 * time.Second

// Frontend is the server-side view of the attached terminal widget. It
// caches the widget state the clients report (base cell metrics, window
// size, selection, title) and turns geometry calls into directives
// broadcast to the clients.
//
// The widget reports cell metrics at font scale 1.0; scaled metrics are
// derived here so geometry decisions never wait on a client round trip.
type Frontend struct {
	hub *Hub
	log *zap.Logger

	mu        sync.RWMutex
	rows      int
	cols      int
	baseCellW int
	baseCellH int
	winWidth  int
	winHeight int
	fontScale float64
	selection string
	title     string

	confirmMu sync.Mutex
	pending   chan bool
}

// NewFrontend creates a Frontend with placeholder geometry. The real
// values arrive with the first metrics message from a client.
func NewFrontend(hub *Hub, log *zap.Logger) *Frontend {
	return &Frontend{
		hub:       hub,
		log:       log,
		rows:      24,
		cols:      80,
		baseCellW: 8,
		baseCellH: 16,
		winWidth:  640,
		winHeight: 460,
		fontScale: 1.0,
	}
}

// UpdateMetrics records the widget state reported by a client: grid size,
// base cell dimensions and the outer window size.
func (f *Frontend) UpdateMetrics(rows, cols, cellW, cellH, winW, winH int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rows > 0 {
		f.rows = rows
	}
	if cols > 0 {
		f.cols = cols
	}
	if cellW > 0 {
		f.baseCellW = cellW
	}
	if cellH > 0 {
		f.baseCellH = cellH
	}
	if winW > 0 {
		f.winWidth = winW
	}
	if winH > 0 {
		f.winHeight = winH
	}
}

// SetGrid records a grid resize reported by a client.
func (f *Frontend) SetGrid(rows, cols int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rows > 0 {
		f.rows = rows
	}
	if cols > 0 {
		f.cols = cols
	}
}

// SetSelection caches the widget's current text selection.
func (f *Frontend) SetSelection(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selection = text
}

// SetTitle caches the window title the widget derived from the child.
func (f *Frontend) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
}

// Title returns the last reported window title.
func (f *Frontend) Title() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.title
}

// Metrics returns the current grid and the cell dimensions at the current
// font scale.
func (f *Frontend) Metrics() term.CellMetrics {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return term.CellMetrics{
		Rows:       f.rows,
		Columns:    f.cols,
		CellWidth:  int(math.Round(float64(f.baseCellW) * f.fontScale)),
		CellHeight: int(math.Round(float64(f.baseCellH) * f.fontScale)),
	}
}

// FontScale returns the current font scale.
func (f *Frontend) FontScale() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fontScale
}

// SetFontScale applies a new font scale and pushes it to the clients.
func (f *Frontend) SetFontScale(scale float64) {
	f.mu.Lock()
	f.fontScale = scale
	f.mu.Unlock()

	f.hub.BroadcastMessage(&Message{
		Type:      MessageTypeGeometry,
		Data:      GeometryFontScale,
		FontScale: scale,
	})
}

// ResetFontSize tells the clients to restore the default font.
func (f *Frontend) ResetFontSize() {
	f.hub.BroadcastMessage(&Message{
		Type: MessageTypeGeometry,
		Data: GeometryResetFont,
	})
}

// Selection returns the widget's current text selection.
func (f *Frontend) Selection() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.selection
}

// Size returns the outer window size.
func (f *Frontend) Size() (int, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.winWidth, f.winHeight
}

// Resize directs the clients to resize the window and updates the cache
// so consecutive geometry operations see the requested size.
func (f *Frontend) Resize(width, height int) {
	f.mu.Lock()
	f.winWidth = width
	f.winHeight = height
	f.mu.Unlock()

	f.hub.BroadcastMessage(&Message{
		Type:   MessageTypeGeometry,
		Data:   GeometryResizeWindow,
		Width:  width,
		Height: height,
	})
}

// ConfirmClose prompts the attached clients and blocks until one answers,
// every client disconnects, or the prompt times out. Anything but an
// explicit yes is a veto; with nobody attached there is nobody to ask, so
// the close is vetoed as well. Only one prompt can be open at a time: a
// close request arriving while another prompt is pending is vetoed instead
// of displacing it.
func (f *Frontend) ConfirmClose() bool {
	f.confirmMu.Lock()
	if !f.hub.HasClients() || f.pending != nil {
		f.confirmMu.Unlock()
		return false
	}
	ch := make(chan bool, 1)
	f.pending = ch
	f.confirmMu.Unlock()

	f.hub.BroadcastMessage(&Message{Type: MessageTypeConfirmClose})

	var accepted bool
	select {
	case accepted = <-ch:
	case <-time.After(confirmTimeout):
		f.log.Info("close confirmation timed out")
	}

	f.confirmMu.Lock()
	f.pending = nil
	f.confirmMu.Unlock()
	return accepted
}

// ResolveConfirm delivers a client's answer to a pending close
// confirmation. Without a pending prompt it is a no-op.
func (f *Frontend) ResolveConfirm(accept bool) {
	f.confirmMu.Lock()
	defer f.confirmMu.Unlock()
	if f.pending == nil {
		return
	}
	select {
	case f.pending <- accept:
	default:
	}
	f.pending = nil
}

// AbortConfirm vetoes a pending confirmation. The hub calls this when the
// last client disconnects mid-prompt.
func (f *Frontend) AbortConfirm() {
	f.ResolveConfirm(false)
}
