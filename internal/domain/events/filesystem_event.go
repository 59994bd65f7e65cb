package events

import "time"

// FileSystemEvent is a single file change observed by the watcher under one
// of a build target's roots.
type FileSystemEvent struct {
	// EventType is FileDirty or FileDeleted.
	EventType EventType
	// FilePath is the file's absolute path.
	FilePath string
	// ModuleName is the build target whose root contains FilePath.
	ModuleName string
	// EventTime is when the watcher observed the change.
	EventTime time.Time
}

// Type implements Event.
func (e *FileSystemEvent) Type() EventType { return e.EventType }

// Timestamp implements Event.
func (e *FileSystemEvent) Timestamp() time.Time { return e.EventTime }

// RootScannedEvent fires once a build root's initial scan completes.
type RootScannedEvent struct {
	ModuleName string
	RootDir    string
	FileCount  int
	EventTime  time.Time
}

func (e *RootScannedEvent) Type() EventType { return RootScanned }

func (e *RootScannedEvent) Timestamp() time.Time { return e.EventTime }
