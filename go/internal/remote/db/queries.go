package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const getFirstMap = `-- name: GetFirstMap :one
SELECT id, created_at FROM maps
ORDER BY created_at ASC
LIMIT 1
`

func (q *Queries) GetFirstMap(ctx context.Context) (Map, error) {
	row := q.db.QueryRowContext(ctx, getFirstMap)
	var i Map
	err := row.Scan(&i.ID, &i.CreatedAt)
	return i, err
}

const createMap = `-- name: CreateMap :one
INSERT INTO maps (id) VALUES ($1)
RETURNING id, created_at
`

func (q *Queries) CreateMap(ctx context.Context, id uuid.UUID) (Map, error) {
	row := q.db.QueryRowContext(ctx, createMap, id)
	var i Map
	err := row.Scan(&i.ID, &i.CreatedAt)
	return i, err
}

const listGridCells = `-- name: ListGridCells :many
SELECT map_id, cell_id, selections, updated_at FROM grid_cells
WHERE map_id = $1
`

func (q *Queries) ListGridCells(ctx context.Context, mapID uuid.UUID) ([]GridCell, error) {
	rows, err := q.db.QueryContext(ctx, listGridCells, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GridCell
	for rows.Next() {
		var i GridCell
		if err := rows.Scan(&i.MapID, &i.CellID, &i.Selections, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertGridCell = `-- name: UpsertGridCell :exec
INSERT INTO grid_cells (map_id, cell_id, selections, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (map_id, cell_id) DO UPDATE
SET selections = EXCLUDED.selections,
    updated_at = EXCLUDED.updated_at
`

const upsertGridCellIfNewer = `-- name: UpsertGridCellIfNewer :exec
INSERT INTO grid_cells (map_id, cell_id, selections, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (map_id, cell_id) DO UPDATE
SET selections = EXCLUDED.selections,
    updated_at = EXCLUDED.updated_at
WHERE grid_cells.updated_at IS NULL OR grid_cells.updated_at <= EXCLUDED.updated_at
`

type UpsertGridCellParams struct {
	MapID      uuid.UUID             `json:"map_id"`
	CellID     string                `json:"cell_id"`
	Selections pqtype.NullRawMessage `json:"selections"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func (q *Queries) UpsertGridCell(ctx context.Context, arg UpsertGridCellParams) error {
	_, err := q.db.ExecContext(ctx, upsertGridCell, arg.MapID, arg.CellID, arg.Selections, arg.UpdatedAt)
	return err
}

func (q *Queries) UpsertGridCellIfNewer(ctx context.Context, arg UpsertGridCellParams) error {
	_, err := q.db.ExecContext(ctx, upsertGridCellIfNewer, arg.MapID, arg.CellID, arg.Selections, arg.UpdatedAt)
	return err
}

const deleteGridCells = `-- name: DeleteGridCells :execrows
DELETE FROM grid_cells
WHERE map_id = $1 AND cell_id = ANY($2::text[])
`

type DeleteGridCellsParams struct {
	MapID   uuid.UUID `json:"map_id"`
	CellIDs []string  `json:"cell_ids"`
}

func (q *Queries) DeleteGridCells(ctx context.Context, arg DeleteGridCellsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGridCells, arg.MapID, pq.Array(arg.CellIDs))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listDropdownOptions = `-- name: ListDropdownOptions :many
SELECT map_id, option_id, label, color, has_sub_options, restricted_rows, updated_at
FROM dropdown_options
WHERE map_id = $1
`

func (q *Queries) ListDropdownOptions(ctx context.Context, mapID uuid.UUID) ([]DropdownOption, error) {
	rows, err := q.db.QueryContext(ctx, listDropdownOptions, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DropdownOption
	for rows.Next() {
		var i DropdownOption
		if err := rows.Scan(
			&i.MapID,
			&i.OptionID,
			&i.Label,
			&i.Color,
			&i.HasSubOptions,
			&i.RestrictedRows,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertDropdownOption = `-- name: UpsertDropdownOption :exec
INSERT INTO dropdown_options (map_id, option_id, label, color, has_sub_options, restricted_rows, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (map_id, option_id) DO UPDATE
SET label = EXCLUDED.label,
    color = EXCLUDED.color,
    has_sub_options = EXCLUDED.has_sub_options,
    restricted_rows = EXCLUDED.restricted_rows,
    updated_at = EXCLUDED.updated_at
`

const upsertDropdownOptionIfNewer = `-- name: UpsertDropdownOptionIfNewer :exec
INSERT INTO dropdown_options (map_id, option_id, label, color, has_sub_options, restricted_rows, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (map_id, option_id) DO UPDATE
SET label = EXCLUDED.label,
    color = EXCLUDED.color,
    has_sub_options = EXCLUDED.has_sub_options,
    restricted_rows = EXCLUDED.restricted_rows,
    updated_at = EXCLUDED.updated_at
WHERE dropdown_options.updated_at IS NULL OR dropdown_options.updated_at <= EXCLUDED.updated_at
`

type UpsertDropdownOptionParams struct {
	MapID          uuid.UUID      `json:"map_id"`
	OptionID       string         `json:"option_id"`
	Label          string         `json:"label"`
	Color          string         `json:"color"`
	HasSubOptions  bool           `json:"has_sub_options"`
	RestrictedRows pq.StringArray `json:"restricted_rows"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (q *Queries) UpsertDropdownOption(ctx context.Context, arg UpsertDropdownOptionParams) error {
	_, err := q.db.ExecContext(ctx, upsertDropdownOption,
		arg.MapID,
		arg.OptionID,
		arg.Label,
		arg.Color,
		arg.HasSubOptions,
		arg.RestrictedRows,
		arg.UpdatedAt,
	)
	return err
}

func (q *Queries) UpsertDropdownOptionIfNewer(ctx context.Context, arg UpsertDropdownOptionParams) error {
	_, err := q.db.ExecContext(ctx, upsertDropdownOptionIfNewer,
		arg.MapID,
		arg.OptionID,
		arg.Label,
		arg.Color,
		arg.HasSubOptions,
		arg.RestrictedRows,
		arg.UpdatedAt,
	)
	return err
}

const deleteDropdownOptions = `-- name: DeleteDropdownOptions :execrows
DELETE FROM dropdown_options
WHERE map_id = $1 AND option_id = ANY($2::text[])
`

type DeleteDropdownOptionsParams struct {
	MapID     uuid.UUID `json:"map_id"`
	OptionIDs []string  `json:"option_ids"`
}

func (q *Queries) DeleteDropdownOptions(ctx context.Context, arg DeleteDropdownOptionsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDropdownOptions, arg.MapID, pq.Array(arg.OptionIDs))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getLatestSetting = `-- name: GetLatestSetting :one
SELECT map_id, next_storm_date, created_at, updated_at FROM settings
WHERE map_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestSetting(ctx context.Context, mapID uuid.UUID) (Setting, error) {
	row := q.db.QueryRowContext(ctx, getLatestSetting, mapID)
	var i Setting
	err := row.Scan(&i.MapID, &i.NextStormDate, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const upsertSetting = `-- name: UpsertSetting :exec
INSERT INTO settings (map_id, next_storm_date, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (map_id) DO UPDATE
SET next_storm_date = EXCLUDED.next_storm_date,
    updated_at = EXCLUDED.updated_at
`

const upsertSettingIfNewer = `-- name: UpsertSettingIfNewer :exec
INSERT INTO settings (map_id, next_storm_date, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (map_id) DO UPDATE
SET next_storm_date = EXCLUDED.next_storm_date,
    updated_at = EXCLUDED.updated_at
WHERE settings.updated_at IS NULL OR settings.updated_at <= EXCLUDED.updated_at
`

type UpsertSettingParams struct {
	MapID         uuid.UUID    `json:"map_id"`
	NextStormDate sql.NullTime `json:"next_storm_date"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, arg.MapID, arg.NextStormDate, arg.UpdatedAt)
	return err
}

func (q *Queries) UpsertSettingIfNewer(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, upsertSettingIfNewer, arg.MapID, arg.NextStormDate, arg.UpdatedAt)
	return err
}

const listHouses = `-- name: ListHouses :many
SELECT name, location, icon_url FROM houses
ORDER BY name ASC
`

func (q *Queries) ListHouses(ctx context.Context) ([]House, error) {
	rows, err := q.db.QueryContext(ctx, listHouses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []House
	for rows.Next() {
		var i House
		if err := rows.Scan(&i.Name, &i.Location, &i.IconUrl); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
