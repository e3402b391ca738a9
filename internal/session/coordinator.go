package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/illumiterm/backend/internal/cmdline"
	"github.com/illumiterm/backend/internal/model"
	"github.com/illumiterm/backend/internal/repository"
)

// SpawnFailureStatus is the exit status reported when the child could not
// be started and the spawn error carries no errno of its own.
const SpawnFailureStatus = 127

// spawnStatus maps a spawn error to an exit status. An exec failure wraps
// the errno the kernel returned; everything else falls back to
// SpawnFailureStatus.
func spawnStatus(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return SpawnFailureStatus
}

// State is the coordinator's lifecycle position.
type State int32

const (
	StateRunning State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Confirmer asks the user whether a close request should proceed. A false
// result vetoes the close and the session keeps running.
type Confirmer interface {
	ConfirmClose() bool
}

// Coordinator drives the session through Running, Closing and Closed.
// Whichever terminal event fires first wins: child exit, a confirmed close
// request, or spawn failure. Every other path becomes a no-op, so the exit
// status is reported exactly once and teardown runs exactly once.
type Coordinator struct {
	cli      *cmdline.Context
	sess     *model.Session
	repo     *repository.SessionRepository
	confirm  Confirmer
	teardown func()
	log      *zap.Logger

	// mu guards the session record's mutable fields (Status, ExitCode,
	// PID, Title, UpdatedAt). HTTP handlers read them through Snapshot
	// while the lifecycle goroutines write them.
	mu sync.RWMutex

	state atomic.Int32
	done  chan struct{}
}

// NewCoordinator assembles a coordinator in the Running state. repo may be
// nil when persistence is disabled; teardown runs once during finalize.
func NewCoordinator(cli *cmdline.Context, sess *model.Session, repo *repository.SessionRepository, confirm Confirmer, teardown func(), log *zap.Logger) *Coordinator {
	return &Coordinator{
		cli:      cli,
		sess:     sess,
		repo:     repo,
		confirm:  confirm,
		teardown: teardown,
		log:      log,
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Done is closed when the session has fully finalized.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns a copy of the session record that is safe to read while
// the lifecycle goroutines keep mutating the live one.
func (c *Coordinator) Snapshot() model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.sess
}

// SetTitle records a window title reported by the terminal and persists it.
func (c *Coordinator) SetTitle(title string) {
	c.mu.Lock()
	c.sess.Title = title
	c.sess.UpdatedAt = time.Now()
	c.mu.Unlock()

	if c.repo != nil {
		if err := c.repo.UpdateTitle(context.Background(), c.sess.ID, title); err != nil {
			c.log.Warn("failed to persist title", zap.Error(err))
		}
	}
}

// WatchSpawn consumes the handle's spawn completion. A failed spawn
// finalizes the session immediately with the error's status; a successful
// one records the child PID.
func (c *Coordinator) WatchSpawn(h *Handle) {
	res := <-h.Ready()
	if res.Err != nil {
		c.log.Error("child spawn failed",
			zap.String("session_id", c.sess.ID),
			zap.Strings("argv", c.sess.Argv),
			zap.Error(res.Err))
		c.finalize(spawnStatus(res.Err), model.SessionStatusFailed)
		return
	}

	c.mu.Lock()
	c.sess.PID = &res.PID
	c.sess.UpdatedAt = time.Now()
	c.mu.Unlock()
	if c.repo != nil {
		if err := c.repo.UpdatePID(context.Background(), c.sess.ID, res.PID); err != nil {
			c.log.Warn("failed to persist child pid", zap.Error(err))
		}
	}
	c.log.Info("child started",
		zap.String("session_id", c.sess.ID),
		zap.Int("pid", res.PID))
}

// ChildExited finalizes the session with the child's exit status. It is
// unconditional: child death always ends the session, no confirmation.
func (c *Coordinator) ChildExited(status int) {
	c.log.Info("child exited",
		zap.String("session_id", c.sess.ID),
		zap.Int("status", status))
	c.finalize(status, model.SessionStatusClosed)
}

// RequestClose handles a user-initiated close. Outside the Running state it
// is a no-op. Otherwise the confirmer is consulted; a veto leaves the
// session running, a confirmation finalizes it with status 0. The return
// value reports whether the session is now closing or closed.
func (c *Coordinator) RequestClose() bool {
	if c.State() != StateRunning {
		return true
	}

	if !c.confirm.ConfirmClose() {
		c.log.Info("close vetoed", zap.String("session_id", c.sess.ID))
		return false
	}

	// The child may have exited while the confirmation was pending; the
	// state guard inside finalize makes this a no-op in that case.
	c.finalize(0, model.SessionStatusClosed)
	return true
}

// finalize performs the one-shot teardown: report the exit status, release
// the invoking command line, tear down the transport, persist the terminal
// state. The Running to Closing transition is the gate; losers return
// immediately.
func (c *Coordinator) finalize(status int, final model.SessionStatus) {
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateClosing)) {
		return
	}

	c.cli.SetExitStatus(status)

	if c.teardown != nil {
		c.teardown()
	}

	c.mu.Lock()
	c.sess.Status = final
	c.sess.ExitCode = &status
	c.sess.UpdatedAt = time.Now()
	c.mu.Unlock()
	if c.repo != nil {
		if err := c.repo.UpdateStatus(context.Background(), c.sess.ID, final, &status); err != nil {
			c.log.Warn("failed to persist final session state", zap.Error(err))
		}
	}

	c.state.Store(int32(StateClosed))
	close(c.done)
}
