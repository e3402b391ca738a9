// Package pty opens pseudo-terminals and runs child processes attached to
// them.
package pty

import (
	"io"
	"os/exec"
)

// PTY is the master side of a pseudo-terminal.
type PTY interface {
	io.Reader
	io.Writer
	io.Closer

	// Resize changes the terminal window size reported to the child.
	Resize(rows, cols uint16) error

	// Fd exposes the master file descriptor for platform-specific ioctls.
	Fd() uintptr
}

// StartOptions describes the child process to attach.
type StartOptions struct {
	// Argv is the full argument vector; Argv[0] is the executable path.
	Argv []string

	// Env is the environment for the child. Nil means inherit the current
	// process environment.
	Env []string

	// Dir is the child's working directory; empty means the current one.
	Dir string

	// InitialRows and InitialCols set the terminal size before the child
	// starts.
	InitialRows uint16
	InitialCols uint16
}

// Process is a running child attached to a PTY.
type Process struct {
	PTY PTY
	Cmd *exec.Cmd

	pid int
}

// PID returns the child's process identifier.
func (p *Process) PID() int {
	return p.pid
}

// Kill terminates the child process.
func (p *Process) Kill() error {
	if p.Cmd.Process != nil {
		return p.Cmd.Process.Kill()
	}
	return nil
}

// Close releases the PTY master.
func (p *Process) Close() error {
	return p.PTY.Close()
}
