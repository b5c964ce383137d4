package catalog

import (
	"slices"

	"github.com/mcdev12/deepdesert/go/internal/models"
)

// Built-in marker kind ids
const (
	KindLab        = "lab"
	KindShipwreck  = "shipwreck"
	KindTitanium   = "titanium"
	KindStravidium = "stravidium"
	KindWormRing   = "wormring"
	KindHouse      = "house"
	KindFwdBase    = "fwdbase"
)

var protectedIDs = []string{
	KindLab,
	KindShipwreck,
	KindTitanium,
	KindStravidium,
	KindWormRing,
	KindHouse,
	KindFwdBase,
}

// DefaultKinds returns a fresh copy of the seven built-in marker kinds
func DefaultKinds() []models.MarkerKind {
	return []models.MarkerKind{
		{ID: KindLab, Label: "Lab", Color: models.ColorBlue},
		{ID: KindShipwreck, Label: "Shipwreck", Color: models.ColorGreen},
		{ID: KindTitanium, Label: "Titanium", Color: models.ColorRed},
		{ID: KindStravidium, Label: "Stravidium", Color: models.ColorGray},
		{ID: KindWormRing, Label: "Worm Ring", Color: models.ColorPurple},
		{ID: KindHouse, Label: "House", Color: models.ColorOrange, HasSubChoices: true},
		{
			ID:             KindFwdBase,
			Label:          "Fwd Base",
			Color:          models.ColorYellow,
			RestrictedRows: []models.RowLabel{"A", "B", "C", "D", "E"},
		},
	}
}

// IsProtected reports whether id names a built-in kind that cannot be removed
func IsProtected(id string) bool {
	return slices.Contains(protectedIDs, id)
}

// ProtectedIDs returns the built-in kind ids in catalog order
func ProtectedIDs() []string {
	return slices.Clone(protectedIDs)
}

// Find returns the kind with the given id
func Find(kinds []models.MarkerKind, id string) (models.MarkerKind, bool) {
	for _, k := range kinds {
		if k.ID == id {
			return k, true
		}
	}
	return models.MarkerKind{}, false
}
