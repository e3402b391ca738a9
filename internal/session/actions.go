package session

import (
	"go.uber.org/zap"

	"github.com/illumiterm/backend/internal/clipboard"
	"github.com/illumiterm/backend/internal/geometry"
	"github.com/illumiterm/backend/internal/keymap"
	"github.com/illumiterm/backend/internal/term"
)

// KeyActions binds the key chord actions to a live session: zoom and reset
// go through the geometry synchronizer, copy and paste through the
// clipboard and the child's input stream.
type KeyActions struct {
	geo  *geometry.Synchronizer
	term term.Terminal
	clip clipboard.Clipboard
	h    *Handle
	log  *zap.Logger
}

var _ keymap.Actions = (*KeyActions)(nil)

// NewKeyActions assembles the chord action set for one session.
func NewKeyActions(geo *geometry.Synchronizer, t term.Terminal, clip clipboard.Clipboard, h *Handle, log *zap.Logger) *KeyActions {
	return &KeyActions{geo: geo, term: t, clip: clip, h: h, log: log}
}

func (a *KeyActions) ZoomIn() {
	a.geo.ZoomIn()
}

func (a *KeyActions) ZoomOut() {
	a.geo.ZoomOut()
}

func (a *KeyActions) ResetFontAndWindow() {
	a.geo.Reset()
}

// Copy places the current selection on the clipboard. No selection is a
// no-op.
func (a *KeyActions) Copy() {
	sel := a.term.Selection()
	if sel == "" {
		return
	}
	if err := a.clip.Copy(sel); err != nil {
		a.log.Warn("clipboard copy failed", zap.Error(err))
	}
}

// Paste feeds the clipboard contents to the child as input.
func (a *KeyActions) Paste() {
	text, err := a.clip.Paste()
	if err != nil {
		a.log.Warn("clipboard paste failed", zap.Error(err))
		return
	}
	if text == "" {
		return
	}
	if err := a.h.Write([]byte(text)); err != nil {
		a.log.Warn("failed to paste into session", zap.Error(err))
	}
}
