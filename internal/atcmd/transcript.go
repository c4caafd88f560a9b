package atcmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Exchange is one command attempt as written to a transcript.
type Exchange struct {
	Timestamp time.Time     `json:"timestamp"`
	Command   string        `json:"command"`
	Attempt   int           `json:"attempt"`
	Status    string        `json:"status"`
	OK        bool          `json:"ok"`
	Duration  time.Duration `json:"duration_ns"`
	Raw       string        `json:"raw"`
	RawHex    string        `json:"raw_hex,omitempty"`
}

// Recorder appends exchanges to a JSON Lines stream (one JSON object per line).
type Recorder struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	count  int
}

// NewRecorder returns a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// OpenRecorder appends to the transcript file at path, creating it if needed.
func OpenRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	return &Recorder{w: f, closer: f}, nil
}

// Record writes ex as a single line.
func (r *Recorder) Record(ex Exchange) error {
	if ex.RawHex == "" && ex.Raw != "" {
		ex.RawHex = hex.EncodeToString([]byte(ex.Raw))
	}
	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write exchange: %w", err)
	}
	r.count++
	return nil
}

// Count returns the number of exchanges recorded so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close closes the underlying file when the Recorder owns one.
func (r *Recorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
