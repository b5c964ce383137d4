package models

import (
	"slices"
	"time"
)

// Color is one of the display colors a marker kind can carry
type Color string

const (
	ColorBlue   Color = "text-blue-400"
	ColorGreen  Color = "text-green-400"
	ColorWhite  Color = "text-white"
	ColorCyan   Color = "text-cyan-300"
	ColorPurple Color = "text-purple-300"
	ColorOrange Color = "text-orange-400"
	ColorYellow Color = "text-yellow-400"
	ColorRed    Color = "text-red-400"
	ColorGray   Color = "text-gray-300"
)

// DefaultColor is assigned to user-added kinds and to unknown stored colors
const DefaultColor = ColorGray

var swatches = map[Color]string{
	ColorBlue:   "bg-blue-400",
	ColorGreen:  "bg-green-400",
	ColorWhite:  "bg-white",
	ColorCyan:   "bg-cyan-300",
	ColorPurple: "bg-purple-300",
	ColorOrange: "bg-orange-400",
	ColorYellow: "bg-yellow-400",
	ColorRed:    "bg-red-400",
	ColorGray:   "bg-gray-300",
}

// Valid reports whether the color is one of the known colors
func (c Color) Valid() bool {
	_, ok := swatches[c]
	return ok
}

// Swatch returns the background class used for legend dots
func (c Color) Swatch() string {
	if s, ok := swatches[c]; ok {
		return s
	}
	return swatches[DefaultColor]
}

// ParseColor maps a stored color to a known one, falling back to DefaultColor
func ParseColor(s string) Color {
	c := Color(s)
	if !c.Valid() {
		return DefaultColor
	}
	return c
}

// MarkerKind is a selectable category of map marker
type MarkerKind struct {
	ID             string     `json:"id"`
	Label          string     `json:"label"`
	Color          Color      `json:"color"`
	HasSubChoices  bool       `json:"has_sub_choices,omitempty"`
	RestrictedRows []RowLabel `json:"restricted_rows,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at,omitzero"`
}

// Restricted reports whether the kind is limited to a subset of rows
func (k MarkerKind) Restricted() bool {
	return len(k.RestrictedRows) > 0
}

// AllowsRow reports whether the kind may be placed on the given row
func (k MarkerKind) AllowsRow(row RowLabel) bool {
	if !k.Restricted() {
		return true
	}
	return slices.Contains(k.RestrictedRows, row)
}

// Clone returns a copy that shares no slices with k
func (k MarkerKind) Clone() MarkerKind {
	k.RestrictedRows = slices.Clone(k.RestrictedRows)
	return k
}
