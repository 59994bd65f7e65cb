package fsbuild

import "sync"

// EventStamps is a process-wide map from file to the wall-clock
// millisecond timestamp at which a dirty notification for that file was
// last recorded. It exists to detect changes whose filesystem event was
// delivered to the process after a build already started, even though the
// file's own mtime predates the build (spec.md §4.4, "rationale for the
// event-stamp check").
type EventStamps struct {
	mu     sync.Mutex
	stamps map[string]int64
}

// NewEventStamps returns an empty EventStamps.
func NewEventStamps() *EventStamps {
	return &EventStamps{stamps: make(map[string]int64)}
}

// Put records stamp for file. Writes are monotonic per file in the sense
// that the most recent write wins; an older timestamp may freely overwrite
// a newer one if that's what the caller passes — this type does no
// ordering of its own.
func (e *EventStamps) Put(file string, stamp int64) {
	e.mu.Lock()
	e.stamps[file] = stamp
	e.mu.Unlock()
}

// Get returns the stored stamp for file, or 0 if none was ever recorded.
func (e *EventStamps) Get(file string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stamps[file]
}

// Clear empties the map.
func (e *EventStamps) Clear() {
	e.mu.Lock()
	e.stamps = make(map[string]int64)
	e.mu.Unlock()
}
