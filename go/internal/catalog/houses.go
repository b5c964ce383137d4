package catalog

import (
	"strings"

	"github.com/mcdev12/deepdesert/go/internal/models"
)

const houseNamePrefix = "House "

// houseAssets is the fixed list of house icon files served as static assets
var houseAssets = []string{
	"Alexin.webp",
	"Argosaz.webp",
	"Dyvetz.webp",
	"Ecaz.webp",
	"Hagal.webp",
	"Hurata.webp",
	"Imota.webp",
	"Kenola.webp",
	"Lindaren.webp",
	"Maros.webp",
	"Mikarrol.webp",
	"Moritani.webp",
	"Mutelli.webp",
	"Novebruns.webp",
	"Richese.webp",
	"Sor.webp",
	"Spinette.webp",
	"Taligari.webp",
	"Thorvald.webp",
	"Tseida.webp",
	"Varota.webp",
	"Vernius.webp",
	"Wallach.webp",
	"Wayku.webp",
	"Wydras.webp",
}

var houses = buildHouses()

func buildHouses() []models.House {
	out := make([]models.House, 0, len(houseAssets))
	for _, file := range houseAssets {
		name := strings.TrimSuffix(file, ".webp")
		out = append(out, models.House{
			ID:      strings.ToLower(name),
			Name:    houseNamePrefix + name,
			IconRef: IconRef(file),
		})
	}
	return out
}

// IconRef resolves a static asset file name to the path it is served under
func IconRef(file string) string {
	return "/" + file
}

// Houses returns the static house catalog in alphabetical order
func Houses() []models.House {
	out := make([]models.House, len(houses))
	copy(out, houses)
	return out
}

// FindHouse looks up a house by id
func FindHouse(id string) (models.House, bool) {
	for _, h := range houses {
		if h.ID == id {
			return h, true
		}
	}
	return models.House{}, false
}

// ShortName strips the "House " prefix for compact cell labels
func ShortName(h models.House) string {
	return strings.TrimPrefix(h.Name, houseNamePrefix)
}
