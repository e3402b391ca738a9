// Package logger records terminal sessions in asciinema v2 format
// (JSON-lines: one header object, then [offset, type, data] events).
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Header is the first line of an asciinema v2 cast.
type Header struct {
	Version   int   `json:"version"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// Event is one recorded input or output chunk.
type Event struct {
	Offset float64 // seconds since recording start
	Type   string  // "o" for output, "i" for input
	Data   string
}

// MarshalJSON renders the event as the three-element array the format
// requires.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Offset, e.Type, e.Data})
}

// Recorder streams a session recording to a cast file.
type Recorder struct {
	mu      sync.Mutex
	w       io.Writer
	file    *os.File // set only when the recorder owns the file
	started time.Time
}

// NewRecorder creates a Recorder writing to path, truncating any existing
// file.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create cast file: %w", err)
	}
	return &Recorder{w: f, file: f, started: time.Now()}, nil
}

// NewRecorderWithWriter creates a Recorder over an arbitrary writer.
func NewRecorderWithWriter(w io.Writer) *Recorder {
	return &Recorder{w: w, started: time.Now()}
}

// WriteHeader emits the cast header. Call once, before any events.
func (r *Recorder) WriteHeader(cols, rows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := Header{
		Version:   2,
		Width:     cols,
		Height:    rows,
		Timestamp: r.started.Unix(),
	}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal cast header: %w", err)
	}
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write cast header: %w", err)
	}
	return nil
}

// WriteOutput records terminal output.
func (r *Recorder) WriteOutput(data []byte) error {
	return r.writeEvent("o", data)
}

// WriteInput records user input.
func (r *Recorder) WriteInput(data []byte) error {
	return r.writeEvent("i", data)
}

func (r *Recorder) writeEvent(typ string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev := Event{
		Offset: time.Since(r.started).Seconds(),
		Type:   typ,
		Data:   string(data),
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal cast event: %w", err)
	}
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write cast event: %w", err)
	}
	return nil
}

// Close closes the cast file if the recorder owns one.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
