package model

import (
	"encoding/json"
	"time"
)

// SessionStatus represents the lifecycle state of the terminal session.
type SessionStatus string

const (
	// SessionStatusRunning means the child process is alive and the window
	// is interactive.
	SessionStatusRunning SessionStatus = "running"

	// SessionStatusClosing means finalize has started: the exit status is
	// being reported and the window torn down.
	SessionStatusClosing SessionStatus = "closing"

	// SessionStatusClosed means the session finalized and the exit status
	// was reported.
	SessionStatusClosed SessionStatus = "closed"

	// SessionStatusFailed means the child process never started.
	SessionStatusFailed SessionStatus = "failed"
)

// Session is the one-per-window session record. Workdir, Argv and Env are
// fixed at construction; PID, ExitCode, Status and Title are the only fields
// mutated after the session is created, and the session coordinator owns
// those mutations. Concurrent readers take coordinator snapshots instead of
// touching the live record.
type Session struct {
	ID          string        `json:"id"`
	Command     string        `json:"command,omitempty"` // raw --cmd string, empty for login shell
	Argv        []string      `json:"argv"`
	Workdir     string        `json:"workdir"`
	Env         []string      `json:"-"`
	Status      SessionStatus `json:"status"`
	ExitCode    *int          `json:"exitCode,omitempty"`
	PID         *int          `json:"pid,omitempty"`
	Title       string        `json:"title,omitempty"`
	LogFilePath string        `json:"logFilePath"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ArgvToJSON serializes the argument vector for storage.
func (s *Session) ArgvToJSON() (string, error) {
	if s.Argv == nil {
		return "", nil
	}
	data, err := json.Marshal(s.Argv)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ArgvFromJSON parses a stored argument vector.
func (s *Session) ArgvFromJSON(data string) error {
	if data == "" {
		s.Argv = nil
		return nil
	}
	return json.Unmarshal([]byte(data), &s.Argv)
}

// Duration returns how long the session has existed.
func (s *Session) Duration() time.Duration {
	return time.Since(s.CreatedAt)
}
