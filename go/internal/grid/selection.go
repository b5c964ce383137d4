package grid

import (
	"github.com/mcdev12/deepdesert/go/internal/catalog"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

// DisplayEntry is a placement joined against the catalogs for rendering
type DisplayEntry struct {
	KindID  string       `json:"kind_id"`
	HouseID string       `json:"house_id,omitempty"`
	Label   string       `json:"label"`
	Color   models.Color `json:"color"`
	Swatch  string       `json:"swatch"`
	Icon    string       `json:"icon,omitempty"`
}

// HouseOption is a house as offered in the sub-choice picker of a cell
type HouseOption struct {
	models.House
	// Used is true when any cell, including the active one, holds the house
	Used bool `json:"used"`
	// Selected is true when the active cell holds the house
	Selected bool `json:"selected"`
	// Disabled is true when the house is held by another cell
	Disabled bool `json:"disabled"`
}

// LegendEntry is a kind listed in the public legend
type LegendEntry struct {
	KindID string       `json:"kind_id"`
	Label  string       `json:"label"`
	Color  models.Color `json:"color"`
	Swatch string       `json:"swatch"`
}

// IsAvailable reports whether a kind may be placed on the row. Unknown kinds
// carry no restriction.
func IsAvailable(kinds []models.MarkerKind, kindID string, row models.RowLabel) bool {
	k, ok := catalog.Find(kinds, kindID)
	if !ok {
		return true
	}
	return k.AllowsRow(row)
}

// ResolveDisplay joins a cell's placements against the kind and house
// catalogs. Placements whose kind no longer exists are dropped.
func ResolveDisplay(s State, cell models.CellID, kinds []models.MarkerKind) []DisplayEntry {
	ps := s[cell]
	out := make([]DisplayEntry, 0, len(ps))
	for _, p := range ps {
		k, ok := catalog.Find(kinds, p.KindID)
		if !ok {
			continue
		}
		entry := DisplayEntry{
			KindID:  k.ID,
			HouseID: p.HouseID,
			Label:   k.Label,
			Color:   k.Color,
			Swatch:  k.Color.Swatch(),
		}
		if k.HasSubChoices && p.HouseID != "" {
			if h, ok := catalog.FindHouse(p.HouseID); ok {
				entry.Label = catalog.ShortName(h)
				entry.Icon = h.IconRef
			}
		}
		out = append(out, entry)
	}
	return out
}

// UsedHouses maps every house id held anywhere on the grid to its cell.
// A house held by more than one cell maps to the first in cell order.
func UsedHouses(s State) map[string]models.CellID {
	used := make(map[string]models.CellID)
	for _, cell := range s.Cells() {
		for _, p := range s[cell] {
			if p.KindID != catalog.KindHouse || p.HouseID == "" {
				continue
			}
			if _, ok := used[p.HouseID]; !ok {
				used[p.HouseID] = cell
			}
		}
	}
	return used
}

// HousesHeldElsewhere returns the house ids held by any cell other than cell
func HousesHeldElsewhere(s State, cell models.CellID) map[string]bool {
	held := make(map[string]bool)
	for other, ps := range s {
		if other == cell {
			continue
		}
		for _, p := range ps {
			if p.KindID == catalog.KindHouse && p.HouseID != "" {
				held[p.HouseID] = true
			}
		}
	}
	return held
}

// HouseOptions lists every house for the active cell. Houses held by other
// cells are disabled but still listed; the active cell's own houses stay
// togglable.
func HouseOptions(s State, cell models.CellID) []HouseOption {
	elsewhere := HousesHeldElsewhere(s, cell)
	houses := catalog.Houses()
	out := make([]HouseOption, 0, len(houses))
	for _, h := range houses {
		selected := IsSelected(s, cell, models.Placement{KindID: catalog.KindHouse, HouseID: h.ID})
		out = append(out, HouseOption{
			House:    h,
			Used:     selected || elsewhere[h.ID],
			Selected: selected,
			Disabled: elsewhere[h.ID] && !selected,
		})
	}
	return out
}

// Legend lists the kinds shown in the public legend. The house kind is
// represented by icons on the grid and is left out.
func Legend(kinds []models.MarkerKind) []LegendEntry {
	out := make([]LegendEntry, 0, len(kinds))
	for _, k := range kinds {
		if k.ID == catalog.KindHouse {
			continue
		}
		out = append(out, LegendEntry{
			KindID: k.ID,
			Label:  k.Label,
			Color:  k.Color,
			Swatch: k.Color.Swatch(),
		})
	}
	return out
}
