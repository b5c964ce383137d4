package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/deepdesert/go/internal/remote/db"
)

type stubQuerier struct {
	Querier
	firstMapErr error
	settingErr  error
}

func (s stubQuerier) GetFirstMap(context.Context) (db.Map, error) {
	return db.Map{}, s.firstMapErr
}

func (s stubQuerier) GetLatestSetting(context.Context, uuid.UUID) (db.Setting, error) {
	return db.Setting{}, s.settingErr
}

func TestFirstMapIDNoRows(t *testing.T) {
	repo := NewRepository(stubQuerier{firstMapErr: sql.ErrNoRows}, nil, LastWriteWins)
	_, err := repo.FirstMapID(context.Background())
	assert.ErrorIs(t, err, ErrNoMap)
}

func TestLatestSettingNoRows(t *testing.T) {
	repo := NewRepository(stubQuerier{settingErr: sql.ErrNoRows}, nil, LastWriteWins)
	setting, err := repo.LatestSetting(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, setting)
}

func TestEmptyWritesSkipDatabase(t *testing.T) {
	repo := NewRepository(stubQuerier{}, nil, NewerWins)
	ctx := context.Background()
	assert.NoError(t, repo.UpsertCells(ctx, uuid.New(), nil))
	assert.NoError(t, repo.UpsertOptions(ctx, uuid.New(), nil))
	assert.NoError(t, repo.DeleteCells(ctx, uuid.New(), nil))
	assert.NoError(t, repo.DeleteOptions(ctx, uuid.New(), nil))
}

// openTestDB connects to the database named by DEEPDESERT_TEST_DSN
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DEEPDESERT_TEST_DSN")
	if dsn == "" {
		t.Skip("DEEPDESERT_TEST_DSN not set")
	}
	database, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(context.Background(), database))
	return database
}

func newTestMap(t *testing.T, database *sql.DB) uuid.UUID {
	t.Helper()
	m, err := db.New(database).CreateMap(context.Background(), uuid.New())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = database.Exec(`DELETE FROM maps WHERE id = $1`, m.ID)
	})
	return m.ID
}

func TestRepositoryRoundTrip(t *testing.T) {
	database := openTestDB(t)
	mapID := newTestMap(t, database)
	repo := NewRepository(db.New(database), database, LastWriteWins)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	selections := json.RawMessage(`[{"optionId":"spice","houseId":""}]`)
	require.NoError(t, repo.UpsertCells(ctx, mapID, []CellRecord{{CellID: "A1", Selections: selections, UpdatedAt: at}}))
	require.NoError(t, repo.UpsertOptions(ctx, mapID, []OptionRecord{{
		OptionID: "spice", Label: "Spice", Color: "orange", RestrictedRows: []string{"A", "B"}, UpdatedAt: at,
	}}))
	storm := at.Add(48 * time.Hour)
	require.NoError(t, repo.UpsertSetting(ctx, mapID, SettingRecord{NextStormDate: &storm, UpdatedAt: at}))

	cells, err := repo.ListCells(ctx, mapID)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "A1", cells[0].CellID)
	assert.JSONEq(t, string(selections), string(cells[0].Selections))

	options, err := repo.ListOptions(ctx, mapID)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, []string{"A", "B"}, options[0].RestrictedRows)

	setting, err := repo.LatestSetting(ctx, mapID)
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.True(t, storm.Equal(*setting.NextStormDate))

	require.NoError(t, repo.DeleteCells(ctx, mapID, []string{"A1"}))
	cells, err = repo.ListCells(ctx, mapID)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestNewerWinsKeepsNewerRecord(t *testing.T) {
	database := openTestDB(t)
	mapID := newTestMap(t, database)
	repo := NewRepository(db.New(database), database, NewerWins)
	ctx := context.Background()
	newer := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Minute)

	require.NoError(t, repo.UpsertOptions(ctx, mapID, []OptionRecord{{OptionID: "spice", Label: "Spice", Color: "orange", UpdatedAt: newer}}))
	require.NoError(t, repo.UpsertOptions(ctx, mapID, []OptionRecord{{OptionID: "spice", Label: "Stale", Color: "red", UpdatedAt: older}}))

	options, err := repo.ListOptions(ctx, mapID)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Spice", options[0].Label)
}
