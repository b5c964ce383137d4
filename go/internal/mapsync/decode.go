package mapsync

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/catalog"
	"github.com/mcdev12/deepdesert/go/internal/grid"
	"github.com/mcdev12/deepdesert/go/internal/models"
	"github.com/mcdev12/deepdesert/go/internal/remote"
)

// DecodeCells converts stored cell rows into grid state. Rows with an
// unknown cell id or unreadable selections are skipped, as are empty and
// duplicate placements. A house placement needs a known house not already
// held by an earlier cell in cell order, and only the house kind may carry
// a house id, so the result always satisfies the grid invariants.
func DecodeCells(records []remote.CellRecord) grid.State {
	raw := make(map[models.CellID][]models.Placement, len(records))
	for _, rec := range records {
		cell, _, _, err := models.ParseCellID(rec.CellID)
		if err != nil {
			log.Warn().Str("cell_id", rec.CellID).Err(err).Msg("skipping stored cell with invalid id")
			continue
		}
		if _, dup := raw[cell]; dup {
			log.Warn().Str("cell_id", rec.CellID).Msg("skipping duplicate stored cell")
			continue
		}
		var ps []models.Placement
		if len(rec.Selections) > 0 {
			if err := json.Unmarshal(rec.Selections, &ps); err != nil {
				log.Warn().Str("cell_id", rec.CellID).Err(err).Msg("skipping stored cell with malformed selections")
				continue
			}
		}
		raw[cell] = ps
	}

	cells := make([]models.CellID, 0, len(raw))
	for cell := range raw {
		cells = append(cells, cell)
	}
	slices.Sort(cells)

	state := grid.State{}
	held := make(map[string]bool)
	for _, cell := range cells {
		var placements []models.Placement
		for _, p := range raw[cell] {
			if p.KindID == "" || slices.ContainsFunc(placements, p.Same) {
				continue
			}
			if !validHousePlacement(cell, p, held) {
				continue
			}
			if p.KindID == catalog.KindHouse {
				held[p.HouseID] = true
			}
			placements = append(placements, p)
		}
		if len(placements) == 0 {
			continue
		}
		state[cell] = placements
	}
	return state
}

func validHousePlacement(cell models.CellID, p models.Placement, held map[string]bool) bool {
	if p.KindID != catalog.KindHouse {
		if p.HouseID != "" {
			log.Warn().Str("cell_id", string(cell)).Str("kind", p.KindID).Msg("dropping house id on stored placement")
			return false
		}
		return true
	}
	if _, ok := catalog.FindHouse(p.HouseID); !ok {
		log.Warn().Str("cell_id", string(cell)).Str("house", p.HouseID).Msg("dropping stored house placement with unknown house")
		return false
	}
	if held[p.HouseID] {
		log.Warn().Str("cell_id", string(cell)).Str("house", p.HouseID).Msg("dropping stored house placement already held by another cell")
		return false
	}
	return true
}

// EncodeCell renders a cell's placements in the stored selections format
func EncodeCell(cell models.CellID, placements []models.Placement, at time.Time) (remote.CellRecord, error) {
	raw, err := json.Marshal(placements)
	if err != nil {
		return remote.CellRecord{}, fmt.Errorf("failed to encode cell %s: %w", cell, err)
	}
	return remote.CellRecord{CellID: string(cell), Selections: raw, UpdatedAt: at}, nil
}

// DecodeOptions converts stored option rows into marker kinds. Rows without
// an id are skipped, unknown colors fall back to the default color and
// invalid row labels are dropped from restrictions.
func DecodeOptions(records []remote.OptionRecord) []models.MarkerKind {
	kinds := make([]models.MarkerKind, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.OptionID == "" {
			log.Warn().Msg("skipping stored option without id")
			continue
		}
		if seen[rec.OptionID] {
			continue
		}
		seen[rec.OptionID] = true

		color := models.ParseColor(rec.Color)
		if string(color) != rec.Color {
			log.Warn().Str("option_id", rec.OptionID).Str("color", rec.Color).Msg("unknown color on stored option")
		}
		var rows []models.RowLabel
		for _, r := range rec.RestrictedRows {
			row := models.RowLabel(r)
			if !row.Valid() || slices.Contains(rows, row) {
				continue
			}
			rows = append(rows, row)
		}
		kinds = append(kinds, models.MarkerKind{
			ID:             rec.OptionID,
			Label:          rec.Label,
			Color:          color,
			HasSubChoices:  rec.HasSubOptions,
			RestrictedRows: rows,
			UpdatedAt:      rec.UpdatedAt,
		})
	}
	return kinds
}

// EncodeOption renders a marker kind as a stored option row
func EncodeOption(k models.MarkerKind, at time.Time) remote.OptionRecord {
	var rows []string
	for _, r := range k.RestrictedRows {
		rows = append(rows, string(r))
	}
	return remote.OptionRecord{
		OptionID:       k.ID,
		Label:          k.Label,
		Color:          string(k.Color),
		HasSubOptions:  k.HasSubChoices,
		RestrictedRows: rows,
		UpdatedAt:      at,
	}
}
