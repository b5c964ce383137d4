package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RowLabel identifies a grid row
type RowLabel string

// Rows lists the grid rows in display order, top to bottom
var Rows = []RowLabel{"I", "H", "G", "F", "E", "D", "C", "B", "A"}

// GridSize is the number of rows and of columns
const GridSize = 9

// Valid reports whether the row is one of the grid rows
func (r RowLabel) Valid() bool {
	for _, row := range Rows {
		if row == r {
			return true
		}
	}
	return false
}

// CellID addresses a grid cell as "<row>-<col>", e.g. "E-5"
type CellID string

// NewCellID builds a cell id, validating both coordinates
func NewCellID(row RowLabel, col int) (CellID, error) {
	if !row.Valid() {
		return "", fmt.Errorf("invalid row %q", row)
	}
	if col < 1 || col > GridSize {
		return "", fmt.Errorf("invalid column %d", col)
	}
	return CellID(fmt.Sprintf("%s-%d", row, col)), nil
}

// ParseCellID validates a cell id and returns its coordinates
func ParseCellID(s string) (CellID, RowLabel, int, error) {
	rowPart, colPart, ok := strings.Cut(s, "-")
	if !ok {
		return "", "", 0, fmt.Errorf("invalid cell id %q", s)
	}
	col, err := strconv.Atoi(colPart)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid cell id %q: %w", s, err)
	}
	id, err := NewCellID(RowLabel(rowPart), col)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid cell id %q: %w", s, err)
	}
	return id, RowLabel(rowPart), col, nil
}

// Row returns the row part of a well-formed cell id
func (c CellID) Row() RowLabel {
	row, _, _ := strings.Cut(string(c), "-")
	return RowLabel(row)
}

// AllCells returns every cell id in display order
func AllCells() []CellID {
	cells := make([]CellID, 0, GridSize*GridSize)
	for _, row := range Rows {
		for col := 1; col <= GridSize; col++ {
			cells = append(cells, CellID(fmt.Sprintf("%s-%d", row, col)))
		}
	}
	return cells
}

// Placement is one marker placed in a cell. Identity is the
// (KindID, HouseID) pair.
type Placement struct {
	KindID  string `json:"optionId"`
	HouseID string `json:"houseId,omitempty"`
}

// Same reports whether two placements have the same identity
func (p Placement) Same(o Placement) bool {
	return p.KindID == o.KindID && p.HouseID == o.HouseID
}
