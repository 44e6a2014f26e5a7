package models

import "time"

// Operation is the kind of a queued mutation.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (o Operation) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// PendingMutation is a queued, not yet acknowledged write.
// Payload is the full entry snapshot at enqueue time.
type PendingMutation struct {
	QueueID    string
	Operation  Operation
	EntryID    string
	Payload    Entry
	EnqueuedAt time.Time
	Attempts   int
	LastError  string
}

// SyncResult is the outcome of one reconciliation run. A skipped run
// (already in flight, or nobody signed in) has Success false and zero counts.
type SyncResult struct {
	Success bool
	Synced  int
	Errors  int
	Pulled  int
}

// Skipped is the result returned when no sync was attempted.
var Skipped = SyncResult{}

// ConflictPolicy decides who wins when a pulled entry still has local
// changes queued.
type ConflictPolicy string

const (
	LocalWins  ConflictPolicy = "local-wins"
	ServerWins ConflictPolicy = "server-wins"
)

func ParseConflictPolicy(s string) (ConflictPolicy, bool) {
	switch ConflictPolicy(s) {
	case LocalWins, "":
		return LocalWins, true
	case ServerWins:
		return ServerWins, true
	}
	return "", false
}
