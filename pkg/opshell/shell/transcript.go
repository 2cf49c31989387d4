package shell

import "sync"

// Record is one entry of the transcript: the line as typed, the working
// directory it ran in, and what it printed.
type Record struct {
	Input  string
	Cwd    string
	Output *Output
}

// Transcript is the append-only command log of one shell. It may be read
// while a command is still running.
type Transcript struct {
	mu      sync.RWMutex
	records []Record
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a record at the end.
func (t *Transcript) Append(r Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, r)
}

// Clear drops every record.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}

// Records returns a copy of the records in issue order.
func (t *Transcript) Records() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of records.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}
