package model

import "errors"

var (
	// ErrArgvEmpty is returned when a launch is attempted with an empty
	// argument vector.
	ErrArgvEmpty = errors.New("argument vector is empty")

	// ErrSessionNotFound is returned when a session record does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotStarted is returned when input or a resize reaches the session
	// before the child process has spawned.
	ErrNotStarted = errors.New("session not started")

	// ErrSessionClosed is returned when an operation reaches a session whose
	// process has been torn down.
	ErrSessionClosed = errors.New("session is closed")
)
