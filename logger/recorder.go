package logger

import "sync"

var _ Logger = new(Recorder)

// Entry is a log entry captured by a Recorder.
type Entry struct {
	Level   string
	Message string
	Fields  []Field
}

// Recorder is a logger.Logger implementation that keeps every entry in memory.
//
// Useful for tests assertion.
type Recorder struct {
	mx      sync.Mutex
	entries []Entry
}

// Debug records a debug entry.
func (r *Recorder) Debug(msg string, fields ...Field) { r.record("debug", msg, fields) }

// Info records an info entry.
func (r *Recorder) Info(msg string, fields ...Field) { r.record("info", msg, fields) }

// Warn records a warning entry.
func (r *Recorder) Warn(msg string, fields ...Field) { r.record("warn", msg, fields) }

// Error records an error entry.
func (r *Recorder) Error(msg string, fields ...Field) { r.record("error", msg, fields) }

func (r *Recorder) record(level, msg string, fields []Field) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
}

// Entries returns the entries recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mx.Lock()
	defer r.mx.Unlock()

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)

	return entries
}

// Levels returns the level of each recorded entry, in order.
func (r *Recorder) Levels() []string {
	entries := r.Entries()
	levels := make([]string, 0, len(entries))

	for _, entry := range entries {
		levels = append(levels, entry.Level)
	}

	return levels
}
