package mapsync

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcdev12/deepdesert/go/internal/remote"
)

// Remote defines the remote store operations the sync layer needs
type Remote interface {
	FirstMapID(ctx context.Context) (uuid.UUID, error)
	ListCells(ctx context.Context, mapID uuid.UUID) ([]remote.CellRecord, error)
	ListOptions(ctx context.Context, mapID uuid.UUID) ([]remote.OptionRecord, error)
	LatestSetting(ctx context.Context, mapID uuid.UUID) (*remote.SettingRecord, error)
	UpsertCells(ctx context.Context, mapID uuid.UUID, cells []remote.CellRecord) error
	DeleteCells(ctx context.Context, mapID uuid.UUID, cellIDs []string) error
	UpsertOptions(ctx context.Context, mapID uuid.UUID, options []remote.OptionRecord) error
	DeleteOptions(ctx context.Context, mapID uuid.UUID, optionIDs []string) error
	UpsertSetting(ctx context.Context, mapID uuid.UUID, setting remote.SettingRecord) error
}
