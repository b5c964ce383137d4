package remote

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNoMap is returned when the maps table holds no row
var ErrNoMap = errors.New("no map record")

// ConflictPolicy decides what an upsert does when the row already exists
type ConflictPolicy int

const (
	// LastWriteWins overwrites the stored row unconditionally
	LastWriteWins ConflictPolicy = iota
	// NewerWins overwrites only rows whose updated_at is not newer than the write
	NewerWins
)

// CellRecord is a grid_cells row as exchanged with the sync layer.
// Selections is the raw JSON array stored in the row.
type CellRecord struct {
	CellID     string
	Selections json.RawMessage
	UpdatedAt  time.Time
}

// OptionRecord is a dropdown_options row. A nil RestrictedRows is stored as NULL.
type OptionRecord struct {
	OptionID       string
	Label          string
	Color          string
	HasSubOptions  bool
	RestrictedRows []string
	UpdatedAt      time.Time
}

// SettingRecord is a settings row
type SettingRecord struct {
	NextStormDate *time.Time
	UpdatedAt     time.Time
}
