// Package cmdline captures the invoking command line: an owned snapshot of
// the environment and working directory, plus the channel that carries the
// session's final exit status back to the process boundary.
package cmdline

import (
	"fmt"
	"os"
	"sync"
)

// Context is the invocation context handed to a session at window creation.
// The environment snapshot and working directory are copied at construction,
// so the session never aliases process-global state. The exit status may be
// reported exactly once; reporting also releases the context.
type Context struct {
	command string
	cwd     string
	environ []string

	mu       sync.Mutex
	reported bool
	status   int
	done     chan struct{}
}

// NewContext snapshots the current process environment and working directory.
// command is the raw --cmd option value, empty when absent.
func NewContext(command string) (*Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	src := os.Environ()
	environ := make([]string, len(src))
	copy(environ, src)

	return &Context{
		command: command,
		cwd:     cwd,
		environ: environ,
		done:    make(chan struct{}),
	}, nil
}

// Command returns the raw user-supplied command string, empty when the login
// shell should be used.
func (c *Context) Command() string {
	return c.command
}

// Dir returns the working directory captured at launch.
func (c *Context) Dir() string {
	return c.cwd
}

// Environ returns a fresh copy of the environment snapshot. Callers may
// mutate the result freely.
func (c *Context) Environ() []string {
	out := make([]string, len(c.environ))
	copy(out, c.environ)
	return out
}

// Getenv looks a variable up in the live process environment, not the
// snapshot. The command resolver uses this for SHELL so the real login shell
// is found even if the snapshot is filtered later.
func (c *Context) Getenv(key string) string {
	return os.Getenv(key)
}

// SetExitStatus reports the final exit status and releases the context.
// Only the first call has any effect; it returns false when the status was
// already reported.
func (c *Context) SetExitStatus(status int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reported {
		return false
	}
	c.reported = true
	c.status = status
	close(c.done)
	return true
}

// ExitStatus returns the reported status, or 0 if none was reported yet.
func (c *Context) ExitStatus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Released reports whether the exit status has been reported.
func (c *Context) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reported
}

// Done is closed once the exit status has been reported. The process entry
// point blocks on this before exiting.
func (c *Context) Done() <-chan struct{} {
	return c.done
}
