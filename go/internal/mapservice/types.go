package mapservice

import (
	"time"

	"github.com/mcdev12/deepdesert/go/internal/grid"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

// CellView is a cell rendered for display
type CellView struct {
	CellID  models.CellID       `json:"cell_id"`
	Row     models.RowLabel     `json:"row"`
	Col     int                 `json:"col"`
	Entries []grid.DisplayEntry `json:"entries"`
}

// KindOption is a marker kind as offered for a specific cell
type KindOption struct {
	Kind      models.MarkerKind `json:"kind"`
	Available bool              `json:"available"`
	Selected  bool              `json:"selected"`
}

// SyncView reports the sync layer state
type SyncView struct {
	Load    string `json:"load"`
	Save    string `json:"save"`
	Pending int    `json:"pending"`
}

type GetMapRequest struct{}

type GetMapResponse struct {
	Rows        []models.RowLabel  `json:"rows"`
	Columns     int                `json:"columns"`
	Legend      []grid.LegendEntry `json:"legend"`
	Cells       []CellView         `json:"cells"`
	Houses      []models.House     `json:"houses"`
	Countdown   string             `json:"countdown"`
	StormTarget *time.Time         `json:"storm_target,omitempty"`
	Sync        *SyncView          `json:"sync,omitempty"`
}

type GetCellRequest struct {
	CellID string `json:"cell_id"`
}

type GetCellResponse struct {
	Cell CellView `json:"cell"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type SessionRequest struct{}

type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type GetManageCellRequest struct {
	CellID string `json:"cell_id"`
}

type GetManageCellResponse struct {
	Cell   CellView           `json:"cell"`
	Kinds  []KindOption       `json:"kinds"`
	Houses []grid.HouseOption `json:"houses"`
}

type ToggleSelectionRequest struct {
	CellID  string `json:"cell_id"`
	KindID  string `json:"kind_id"`
	HouseID string `json:"house_id,omitempty"`
}

type ToggleSelectionResponse struct {
	Selected bool     `json:"selected"`
	Cell     CellView `json:"cell"`
}

type HouseOptionsRequest struct {
	CellID string `json:"cell_id"`
}

type HouseOptionsResponse struct {
	Options []grid.HouseOption `json:"options"`
}

type AddKindRequest struct {
	Label string `json:"label"`
}

type AddKindResponse struct {
	Kind models.MarkerKind `json:"kind"`
}

type RemoveKindRequest struct {
	ID string `json:"id"`
}

type RemoveKindResponse struct {
	Removed bool `json:"removed"`
}

type SetRowRestrictionRequest struct {
	ID   string            `json:"id"`
	Rows []models.RowLabel `json:"rows"`
}

type SetRowRestrictionResponse struct {
	Kind models.MarkerKind `json:"kind"`
}

type ToggleRestrictedRowRequest struct {
	ID  string          `json:"id"`
	Row models.RowLabel `json:"row"`
}

type ToggleRestrictedRowResponse struct {
	Rows []models.RowLabel `json:"rows"`
}

type ResetGridRequest struct {
	Confirmed bool `json:"confirmed"`
}

type ResetGridResponse struct{}

type SetStormTargetRequest struct {
	Target time.Time `json:"target"`
}

type SetStormTargetResponse struct {
	Target    time.Time `json:"target"`
	Countdown string    `json:"countdown"`
}

type ListHouseLocationsRequest struct{}

type ListHouseLocationsResponse struct {
	Houses []models.HouseLocation `json:"houses"`
}
