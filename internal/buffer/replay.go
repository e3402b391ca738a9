// Package buffer retains the most recent terminal output so a frontend
// attaching mid-session can repaint its screen.
package buffer

import "sync"

// Replay is a thread-safe bounded byte buffer. Writes past the byte budget
// discard the oldest data; reads return the retained suffix of the stream.
type Replay struct {
	mu    sync.RWMutex
	data  []byte
	limit int
}

// NewReplay creates a Replay retaining at most limit bytes. A non-positive
// limit is clamped to 1.
func NewReplay(limit int) *Replay {
	if limit <= 0 {
		limit = 1
	}
	return &Replay{limit: limit}
}

// Write appends p, dropping the oldest bytes once the budget is exceeded.
// It never fails; the signature satisfies io.Writer.
func (r *Replay) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(p) >= r.limit {
		r.data = append(r.data[:0], p[len(p)-r.limit:]...)
		return len(p), nil
	}

	r.data = append(r.data, p...)
	if over := len(r.data) - r.limit; over > 0 {
		r.data = append(r.data[:0], r.data[over:]...)
	}
	return len(p), nil
}

// Snapshot returns a copy of the retained output. The buffer keeps its
// contents; repeated snapshots see the same data plus anything written in
// between.
func (r *Replay) Snapshot() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.data) == 0 {
		return nil
	}
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// Reset discards all retained output.
func (r *Replay) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = r.data[:0]
}

// Len returns the number of retained bytes.
func (r *Replay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Limit returns the byte budget.
func (r *Replay) Limit() int {
	return r.limit
}
