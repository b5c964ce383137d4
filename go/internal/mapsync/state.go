package mapsync

import "github.com/google/uuid"

// LoadState tracks the initial load from the remote store
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	// Ready means state was loaded and a map id is known; saves are enabled
	Ready
	// Idle means no map record was found or the load failed; nothing is ever written
	Idle
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

// SaveState tracks outbound writes once loaded
type SaveState int

const (
	Clean SaveState = iota
	Dirty
	Syncing
)

func (s SaveState) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Syncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of the sync layer
type Status struct {
	Load  LoadState
	Save  SaveState
	MapID uuid.UUID
	// Pending counts records waiting to be written (durable mode only)
	Pending   int
	LastError string
}
