// Package session owns the terminal session: the asynchronous child spawn
// and the lifecycle coordination that reports the final exit status.
package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/illumiterm/backend/internal/buffer"
	"github.com/illumiterm/backend/internal/logger"
	"github.com/illumiterm/backend/internal/model"
	"github.com/illumiterm/backend/internal/pty"
	"github.com/illumiterm/backend/internal/term"
)

const (
	// DefaultReplayLimit bounds the output retained for attach-time replay.
	DefaultReplayLimit = 256 * 1024

	// readBufferSize is the chunk size for draining PTY output.
	readBufferSize = 4096

	defaultRows = 24
	defaultCols = 80
)

// SpawnResult is the single completion message of a launch: a process
// identifier on success, or the error that prevented the child from
// starting.
type SpawnResult struct {
	PID int
	Err error
}

// LaunchOptions describes one session launch.
type LaunchOptions struct {
	Session *model.Session

	// Rows and Cols set the initial grid; zero means 24x80.
	Rows uint16
	Cols uint16

	// TermOptions is the baseline widget option set pushed to the frontend.
	TermOptions term.Options

	// OnExit is invoked once when the child terminates, with its mapped
	// exit status.
	OnExit func(status int, err error)
}

// Launcher spawns sessions against fresh pseudo-terminals.
type Launcher struct {
	log         *zap.Logger
	replayLimit int
}

// NewLauncher creates a Launcher. replayLimit bounds per-session replay
// retention; non-positive means DefaultReplayLimit.
func NewLauncher(log *zap.Logger, replayLimit int) *Launcher {
	if replayLimit <= 0 {
		replayLimit = DefaultReplayLimit
	}
	return &Launcher{log: log, replayLimit: replayLimit}
}

// Launch starts the session asynchronously and returns immediately. The
// actual process creation happens off the caller's path; exactly one
// SpawnResult is delivered on the handle's Ready channel when the child has
// started or failed to start.
func (l *Launcher) Launch(opts LaunchOptions) *Handle {
	h := &Handle{
		sess:     opts.Session,
		termOpts: opts.TermOptions,
		replay:   buffer.NewReplay(l.replayLimit),
		log:      l.log,
		onExit:   opts.OnExit,
		ready:    make(chan SpawnResult, 1),
		closedCh: make(chan struct{}),
	}

	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = defaultRows
	}
	if cols == 0 {
		cols = defaultCols
	}

	go h.spawn(rows, cols)
	return h
}

// Handle is a launched session. It becomes interactive only after Ready
// delivers a successful SpawnResult.
type Handle struct {
	sess     *model.Session
	termOpts term.Options
	replay   *buffer.Replay
	log      *zap.Logger
	onExit   func(status int, err error)
	ready    chan SpawnResult

	mu       sync.RWMutex
	proc     *pty.Process
	rec      *logger.Recorder
	onOutput func(data []byte)
	closed   bool
	closedCh chan struct{}
}

func (h *Handle) spawn(rows, cols uint16) {
	if len(h.sess.Argv) == 0 {
		h.ready <- SpawnResult{Err: model.ErrArgvEmpty}
		return
	}

	var rec *logger.Recorder
	if h.sess.LogFilePath != "" {
		var err error
		rec, err = logger.NewRecorder(h.sess.LogFilePath)
		if err != nil {
			h.ready <- SpawnResult{Err: err}
			return
		}
		if err := rec.WriteHeader(int(cols), int(rows)); err != nil {
			rec.Close()
			h.ready <- SpawnResult{Err: err}
			return
		}
	}

	proc, err := pty.Start(pty.StartOptions{
		Argv:        h.sess.Argv,
		Env:         h.sess.Env,
		Dir:         h.sess.Workdir,
		InitialRows: rows,
		InitialCols: cols,
	})
	if err != nil {
		if rec != nil {
			rec.Close()
		}
		h.ready <- SpawnResult{Err: fmt.Errorf("failed to spawn child: %w", err)}
		return
	}

	h.mu.Lock()
	if h.closed {
		// The session was torn down while the spawn was in flight.
		h.mu.Unlock()
		proc.Kill()
		proc.Close()
		if rec != nil {
			rec.Close()
		}
		h.ready <- SpawnResult{Err: model.ErrSessionClosed}
		return
	}
	h.proc = proc
	h.rec = rec
	h.mu.Unlock()

	go h.readLoop()
	go h.waitLoop()

	h.ready <- SpawnResult{PID: proc.PID()}
}

// Ready delivers the launch completion exactly once.
func (h *Handle) Ready() <-chan SpawnResult {
	return h.ready
}

// Session returns the session record.
func (h *Handle) Session() *model.Session {
	return h.sess
}

// TermOptions returns the baseline widget options for this session.
func (h *Handle) TermOptions() term.Options {
	return h.termOpts
}

// SetOnOutput installs the callback invoked with each output chunk. The
// transport layer uses this to broadcast to attached frontends.
func (h *Handle) SetOnOutput(fn func(data []byte)) {
	h.mu.Lock()
	h.onOutput = fn
	h.mu.Unlock()
}

// readLoop drains PTY output into the replay buffer, the recorder and the
// output callback until the PTY closes.
func (h *Handle) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		h.mu.RLock()
		proc := h.proc
		h.mu.RUnlock()

		n, err := proc.PTY.Read(buf)
		if n > 0 {
			data := buf[:n]
			h.replay.Write(data)

			h.mu.RLock()
			rec := h.rec
			cb := h.onOutput
			h.mu.RUnlock()

			if rec != nil {
				rec.WriteOutput(data)
			}
			if cb != nil {
				cb(data)
			}
		}
		if err != nil {
			return
		}
	}
}

// waitLoop reaps the child, reports its status and releases resources.
func (h *Handle) waitLoop() {
	h.mu.RLock()
	proc := h.proc
	h.mu.RUnlock()

	status, err := proc.Wait()
	if err != nil {
		h.log.Warn("failed to reap child", zap.Error(err))
	}

	if h.onExit != nil {
		h.onExit(status, err)
	}
	h.Close()
}

// Write sends input to the child and records it.
func (h *Handle) Write(data []byte) error {
	h.mu.RLock()
	proc, rec, closed := h.proc, h.rec, h.closed
	h.mu.RUnlock()

	if proc == nil {
		return model.ErrNotStarted
	}
	if closed {
		return model.ErrSessionClosed
	}

	if _, err := proc.PTY.Write(data); err != nil {
		return fmt.Errorf("failed to write to PTY: %w", err)
	}
	if rec != nil {
		rec.WriteInput(data)
	}
	return nil
}

// Resize changes the child's terminal size.
func (h *Handle) Resize(rows, cols uint16) error {
	h.mu.RLock()
	proc, closed := h.proc, h.closed
	h.mu.RUnlock()

	if proc == nil {
		return model.ErrNotStarted
	}
	if closed {
		return model.ErrSessionClosed
	}
	return proc.PTY.Resize(rows, cols)
}

// History returns the retained output for attach-time replay.
func (h *Handle) History() []byte {
	return h.replay.Snapshot()
}

// Close kills the child if still running and releases the PTY and the
// recorder. It is safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	proc, rec := h.proc, h.rec
	close(h.closedCh)
	h.mu.Unlock()

	var firstErr error
	if proc != nil {
		if err := proc.Kill(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := proc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if rec != nil {
		if err := rec.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsClosed reports whether the session's process resources were released.
func (h *Handle) IsClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Closed is closed when the session's process resources are released.
func (h *Handle) Closed() <-chan struct{} {
	return h.closedCh
}
