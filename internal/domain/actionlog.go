package domain

import (
	"fmt"
	"sync"
	"time"
)

// DefaultActionLogCapacity bounds the operator-facing history buffer.
const DefaultActionLogCapacity = 100

// ActionLogEntry is one human-readable record of an engine outcome.
type ActionLogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// ActionLog is a bounded append-only buffer of engine outcomes, kept for
// display only. When full, the oldest entry is dropped. Safe for concurrent
// use: the engine appends from the tick goroutine while the web server reads.
// A nil *ActionLog is usable and discards everything.
type ActionLog struct {
	mu       sync.Mutex
	capacity int
	entries  []ActionLogEntry
}

// NewActionLog creates a log bounded to the given capacity.
func NewActionLog(capacity int) *ActionLog {
	if capacity <= 0 {
		capacity = DefaultActionLogCapacity
	}
	return &ActionLog{capacity: capacity}
}

// Append records a message with the current time.
func (l *ActionLog) Append(message string) {
	l.append(ActionLogEntry{Time: time.Now(), Message: message})
}

// Appendf records a formatted message with the current time.
func (l *ActionLog) Appendf(format string, args ...any) {
	l.append(ActionLogEntry{Time: time.Now(), Message: fmt.Sprintf(format, args...)})
}

func (l *ActionLog) append(entry ActionLogEntry) {
	// a nil log discards; callers may run without operator history
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Entries returns a copy of the buffered entries, oldest first.
func (l *ActionLog) Entries() []ActionLogEntry {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ActionLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of buffered entries.
func (l *ActionLog) Len() int {
	if l == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
