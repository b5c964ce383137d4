package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

type Map struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type GridCell struct {
	MapID      uuid.UUID             `json:"map_id"`
	CellID     string                `json:"cell_id"`
	Selections pqtype.NullRawMessage `json:"selections"`
	UpdatedAt  sql.NullTime          `json:"updated_at"`
}

type DropdownOption struct {
	MapID          uuid.UUID      `json:"map_id"`
	OptionID       string         `json:"option_id"`
	Label          sql.NullString `json:"label"`
	Color          sql.NullString `json:"color"`
	HasSubOptions  sql.NullBool   `json:"has_sub_options"`
	RestrictedRows pq.StringArray `json:"restricted_rows"`
	UpdatedAt      sql.NullTime   `json:"updated_at"`
}

type Setting struct {
	MapID         uuid.UUID    `json:"map_id"`
	NextStormDate sql.NullTime `json:"next_storm_date"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     sql.NullTime `json:"updated_at"`
}

type House struct {
	Name     string         `json:"name"`
	Location sql.NullString `json:"location"`
	IconUrl  sql.NullString `json:"icon_url"`
}
