package mapstate

import (
	"time"

	"github.com/mcdev12/deepdesert/go/internal/models"
)

// Change describes one mutation of the store, as seen by listeners
type Change struct {
	At time.Time
	// Cells lists cells whose placements were written and are non-empty
	Cells []models.CellID
	// RemovedCells lists cells that became empty
	RemovedCells []models.CellID
	// Kinds lists marker kinds added or modified
	Kinds []string
	// RemovedKinds lists marker kinds deleted from the catalog
	RemovedKinds []string
	Storm        bool
	// Loaded is set when the whole state was replaced from storage
	Loaded bool
}

// GridChanged reports whether any cell was written or removed
func (c Change) GridChanged() bool {
	return len(c.Cells) > 0 || len(c.RemovedCells) > 0
}

// CatalogChanged reports whether any marker kind was written or removed
func (c Change) CatalogChanged() bool {
	return len(c.Kinds) > 0 || len(c.RemovedKinds) > 0
}

// Listener receives changes after they have been applied
type Listener func(Change)
