package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/deepdesert/go/internal/models"
	"github.com/mcdev12/deepdesert/go/internal/remote/db"
	"github.com/mcdev12/deepdesert/go/internal/sqlutil"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetFirstMap(ctx context.Context) (db.Map, error)
	ListGridCells(ctx context.Context, mapID uuid.UUID) ([]db.GridCell, error)
	ListDropdownOptions(ctx context.Context, mapID uuid.UUID) ([]db.DropdownOption, error)
	GetLatestSetting(ctx context.Context, mapID uuid.UUID) (db.Setting, error)
	DeleteGridCells(ctx context.Context, arg db.DeleteGridCellsParams) (int64, error)
	DeleteDropdownOptions(ctx context.Context, arg db.DeleteDropdownOptionsParams) (int64, error)
	UpsertSetting(ctx context.Context, arg db.UpsertSettingParams) error
	UpsertSettingIfNewer(ctx context.Context, arg db.UpsertSettingParams) error
	ListHouses(ctx context.Context) ([]db.House, error)
	WithTx(tx *sql.Tx) *db.Queries
}

// Repository implements the remote map store on Postgres
type Repository struct {
	queries Querier
	db      *sql.DB
	policy  ConflictPolicy
}

// NewRepository creates a new map repository
func NewRepository(queries Querier, database *sql.DB, policy ConflictPolicy) *Repository {
	return &Repository{
		queries: queries,
		db:      database,
		policy:  policy,
	}
}

// FirstMapID returns the id of the oldest map record
func (r *Repository) FirstMapID(ctx context.Context) (uuid.UUID, error) {
	m, err := r.queries.GetFirstMap(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrNoMap
		}
		return uuid.Nil, fmt.Errorf("failed to get first map: %w", err)
	}
	return m.ID, nil
}

// ListCells returns every stored cell of a map
func (r *Repository) ListCells(ctx context.Context, mapID uuid.UUID) ([]CellRecord, error) {
	rows, err := r.queries.ListGridCells(ctx, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grid cells: %w", err)
	}
	out := make([]CellRecord, 0, len(rows))
	for _, row := range rows {
		rec := CellRecord{
			CellID:    row.CellID,
			UpdatedAt: sqlutil.FromSqlTimeOrZero(row.UpdatedAt),
		}
		if row.Selections.Valid {
			rec.Selections = row.Selections.RawMessage
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListOptions returns every stored marker kind of a map
func (r *Repository) ListOptions(ctx context.Context, mapID uuid.UUID) ([]OptionRecord, error) {
	rows, err := r.queries.ListDropdownOptions(ctx, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dropdown options: %w", err)
	}
	out := make([]OptionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, OptionRecord{
			OptionID:       row.OptionID,
			Label:          sqlutil.FromSqlString(row.Label, ""),
			Color:          sqlutil.FromSqlString(row.Color, ""),
			HasSubOptions:  sqlutil.FromSqlBool(row.HasSubOptions),
			RestrictedRows: []string(row.RestrictedRows),
			UpdatedAt:      sqlutil.FromSqlTimeOrZero(row.UpdatedAt),
		})
	}
	return out, nil
}

// LatestSetting returns the newest settings row of a map, or nil if none
func (r *Repository) LatestSetting(ctx context.Context, mapID uuid.UUID) (*SettingRecord, error) {
	row, err := r.queries.GetLatestSetting(ctx, mapID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest setting: %w", err)
	}
	return &SettingRecord{
		NextStormDate: sqlutil.FromSqlTime(row.NextStormDate),
		UpdatedAt:     sqlutil.FromSqlTimeOrZero(row.UpdatedAt),
	}, nil
}

// UpsertCells writes cells keyed by (map_id, cell_id) in one transaction
func (r *Repository) UpsertCells(ctx context.Context, mapID uuid.UUID, cells []CellRecord) error {
	if len(cells) == 0 {
		return nil
	}
	err := sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *db.Queries) error {
		for _, c := range cells {
			arg := db.UpsertGridCellParams{
				MapID:      mapID,
				CellID:     c.CellID,
				Selections: pqtype.NullRawMessage{RawMessage: c.Selections, Valid: len(c.Selections) > 0},
				UpdatedAt:  c.UpdatedAt,
			}
			var err error
			if r.policy == NewerWins {
				err = q.UpsertGridCellIfNewer(ctx, arg)
			} else {
				err = q.UpsertGridCell(ctx, arg)
			}
			if err != nil {
				return fmt.Errorf("cell %s: %w", c.CellID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert grid cells: %w", err)
	}
	return nil
}

// DeleteCells removes cells of a map by id
func (r *Repository) DeleteCells(ctx context.Context, mapID uuid.UUID, cellIDs []string) error {
	if len(cellIDs) == 0 {
		return nil
	}
	if _, err := r.queries.DeleteGridCells(ctx, db.DeleteGridCellsParams{MapID: mapID, CellIDs: cellIDs}); err != nil {
		return fmt.Errorf("failed to delete grid cells: %w", err)
	}
	return nil
}

// UpsertOptions writes marker kinds keyed by (map_id, option_id) in one transaction
func (r *Repository) UpsertOptions(ctx context.Context, mapID uuid.UUID, options []OptionRecord) error {
	if len(options) == 0 {
		return nil
	}
	err := sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *db.Queries) error {
		for _, o := range options {
			arg := db.UpsertDropdownOptionParams{
				MapID:          mapID,
				OptionID:       o.OptionID,
				Label:          o.Label,
				Color:          o.Color,
				HasSubOptions:  o.HasSubOptions,
				RestrictedRows: pq.StringArray(o.RestrictedRows),
				UpdatedAt:      o.UpdatedAt,
			}
			var err error
			if r.policy == NewerWins {
				err = q.UpsertDropdownOptionIfNewer(ctx, arg)
			} else {
				err = q.UpsertDropdownOption(ctx, arg)
			}
			if err != nil {
				return fmt.Errorf("option %s: %w", o.OptionID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert dropdown options: %w", err)
	}
	return nil
}

// DeleteOptions removes marker kinds of a map by id
func (r *Repository) DeleteOptions(ctx context.Context, mapID uuid.UUID, optionIDs []string) error {
	if len(optionIDs) == 0 {
		return nil
	}
	if _, err := r.queries.DeleteDropdownOptions(ctx, db.DeleteDropdownOptionsParams{MapID: mapID, OptionIDs: optionIDs}); err != nil {
		return fmt.Errorf("failed to delete dropdown options: %w", err)
	}
	return nil
}

// UpsertSetting writes the single settings row of a map
func (r *Repository) UpsertSetting(ctx context.Context, mapID uuid.UUID, setting SettingRecord) error {
	arg := db.UpsertSettingParams{
		MapID:         mapID,
		NextStormDate: sqlutil.ToSqlTime(setting.NextStormDate),
		UpdatedAt:     setting.UpdatedAt,
	}
	var err error
	if r.policy == NewerWins {
		err = r.queries.UpsertSettingIfNewer(ctx, arg)
	} else {
		err = r.queries.UpsertSetting(ctx, arg)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// ListHouseLocations returns the managed houses listing sorted by name
func (r *Repository) ListHouseLocations(ctx context.Context) ([]models.HouseLocation, error) {
	rows, err := r.queries.ListHouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list houses: %w", err)
	}
	out := make([]models.HouseLocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.HouseLocation{
			Name:     row.Name,
			Location: sqlutil.FromSqlString(row.Location, ""),
			IconURL:  sqlutil.FromSqlString(row.IconUrl, ""),
		})
	}
	return out, nil
}
