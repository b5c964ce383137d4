package grid

import (
	"slices"
	"sort"

	"github.com/mcdev12/deepdesert/go/internal/models"
)

// State maps a cell to its ordered placements. A cell is never stored with
// an empty sequence; an emptied cell is removed from the map.
type State map[models.CellID][]models.Placement

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := make(State, len(s))
	for cell, ps := range s {
		out[cell] = slices.Clone(ps)
	}
	return out
}

// Cells returns the ids of all non-empty cells, sorted
func (s State) Cells() []models.CellID {
	cells := make([]models.CellID, 0, len(s))
	for cell := range s {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	return cells
}

// Placements returns the placements of a cell; absent cells are empty
func (s State) Placements(cell models.CellID) []models.Placement {
	return s[cell]
}

// Toggle removes the placement from the cell if an identical one exists,
// otherwise appends it. The input state is not modified. The second result
// reports whether the cell went from non-empty to absent.
func Toggle(s State, cell models.CellID, p models.Placement) (State, bool) {
	current := s[cell]
	idx := slices.IndexFunc(current, p.Same)

	var next []models.Placement
	if idx >= 0 {
		next = slices.Delete(slices.Clone(current), idx, idx+1)
	} else {
		next = append(slices.Clone(current), p)
	}

	out := s.Clone()
	if len(next) == 0 {
		delete(out, cell)
		return out, len(current) > 0
	}
	out[cell] = next
	return out, false
}

// IsSelected reports whether the cell holds a placement with p's identity
func IsSelected(s State, cell models.CellID, p models.Placement) bool {
	return slices.ContainsFunc(s[cell], p.Same)
}

// RemoveKind drops every placement of the given kind. It returns the new
// state and the cells that became empty, sorted.
func RemoveKind(s State, kindID string) (State, []models.CellID) {
	out := make(State, len(s))
	var emptied []models.CellID
	for cell, ps := range s {
		kept := slices.DeleteFunc(slices.Clone(ps), func(p models.Placement) bool {
			return p.KindID == kindID
		})
		if len(kept) == 0 {
			emptied = append(emptied, cell)
			continue
		}
		out[cell] = kept
	}
	sort.Slice(emptied, func(i, j int) bool { return emptied[i] < emptied[j] })
	return out, emptied
}
