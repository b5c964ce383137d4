package mapsync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mcdev12/deepdesert/go/internal/catalog"
	"github.com/mcdev12/deepdesert/go/internal/grid"
	"github.com/mcdev12/deepdesert/go/internal/mapstate"
	"github.com/mcdev12/deepdesert/go/internal/remote"
)

type harness struct {
	store  *mapstate.Store
	remote *fakeRemote
	clock  *clockwork.FakeClock
	syncer *Syncer
	cancel context.CancelFunc
	done   chan struct{}
}

func startSyncer(t *testing.T, f *fakeRemote, cfg Config) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := mapstate.NewStore(clock)
	s := NewSyncer(store, f, clock, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	select {
	case <-s.Loaded():
	case <-time.After(5 * time.Second):
		t.Fatal("syncer did not finish loading")
	}

	h := &harness{store: store, remote: f, clock: clock, syncer: s, cancel: cancel, done: done}
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func durableConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeDurable
	cfg.RetryDelay = 100 * time.Millisecond
	cfg.MaxRetryDelay = time.Second
	return cfg
}

func TestLoadWithoutMapStaysIdle(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	f.mapID = uuid.Nil
	h := startSyncer(t, f, DefaultConfig())

	assert.Equal(t, Idle, h.syncer.State().Load)

	_, err := h.store.Toggle("E-5", catalog.KindLab, "")
	require.NoError(t, err)
	h.syncer.Wait()

	assert.Zero(t, f.callCount("UpsertCells"))
	assert.Zero(t, f.callCount("UpsertSetting"))
	h.stop()
}

func TestLoadFailureKeepsDefaults(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	f.putCell("E-5", `[{"optionId":"lab"}]`)
	f.fail("ListCells", 1)
	h := startSyncer(t, f, DefaultConfig())

	st := h.syncer.State()
	assert.Equal(t, Idle, st.Load)
	assert.NotEmpty(t, st.LastError)
	assert.Empty(t, h.store.Snapshot().Grid)

	_, _ = h.store.Toggle("A-1", catalog.KindLab, "")
	h.syncer.Wait()
	assert.Zero(t, f.callCount("UpsertCells"))
	h.stop()
}

func TestLoadHydratesStore(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	f.putCell("E-5", `[{"optionId":"lab"}]`)
	f.putCell("bogus", `[{"optionId":"lab"}]`)
	storm := time.Date(2025, 7, 7, 11, 0, 0, 0, time.UTC)
	f.setting = &remote.SettingRecord{NextStormDate: &storm}
	h := startSyncer(t, f, DefaultConfig())

	st := h.syncer.State()
	assert.Equal(t, Ready, st.Load)
	assert.Equal(t, f.mapID, st.MapID)

	snap := h.store.Snapshot()
	assert.Equal(t, grid.State{"E-5": {{KindID: catalog.KindLab}}}, snap.Grid)
	assert.Len(t, snap.Kinds, 7, "empty option table keeps built-ins")
	require.NotNil(t, snap.StormTarget)
	assert.True(t, storm.Equal(*snap.StormTarget))

	// loading alone writes nothing
	h.syncer.Wait()
	assert.Zero(t, f.callCount("UpsertCells"))
	h.stop()
}

func TestLegacySavePushesWholeState(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, DefaultConfig())

	_, err := h.store.Toggle("E-5", catalog.KindLab, "")
	require.NoError(t, err)
	h.syncer.Wait()

	rec, ok := f.cell("E-5")
	require.True(t, ok)
	assert.JSONEq(t, `[{"optionId":"lab"}]`, string(rec.Selections))
	for _, id := range catalog.ProtectedIDs() {
		_, ok := f.option(id)
		assert.True(t, ok, id)
	}
	require.NotNil(t, f.storedSetting())
	assert.True(t, mapstate.DefaultStormTarget.Equal(*f.storedSetting().NextStormDate))

	_, err = h.store.Toggle("E-5", catalog.KindLab, "")
	require.NoError(t, err)
	h.syncer.Wait()

	_, ok = f.cell("E-5")
	assert.False(t, ok, "emptied cell is deleted remotely")
	assert.Equal(t, Clean, h.syncer.State().Save)
	h.stop()
}

func TestLegacyFailedDeleteIsNotRetried(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, DefaultConfig())

	_, _ = h.store.Toggle("E-5", catalog.KindLab, "")
	h.syncer.Wait()

	f.fail("DeleteCells", 1)
	_, _ = h.store.Toggle("E-5", catalog.KindLab, "")
	h.syncer.Wait()
	assert.NotEmpty(t, h.syncer.State().LastError)

	_, _ = h.store.Toggle("B-2", catalog.KindTitanium, "")
	h.syncer.Wait()

	_, ok := f.cell("E-5")
	assert.True(t, ok, "orphaned row stays after a failed delete")
	_, ok = f.cell("B-2")
	assert.True(t, ok)
	h.stop()
}

func TestLegacyDeleteRunsWhenUpsertFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, DefaultConfig())

	_, _ = h.store.Toggle("E-5", catalog.KindLab, "")
	_, _ = h.store.Toggle("B-2", catalog.KindTitanium, "")
	h.syncer.Wait()
	deletes := f.callCount("DeleteCells")

	f.fail("UpsertCells", 1)
	_, _ = h.store.Toggle("E-5", catalog.KindLab, "")
	h.syncer.Wait()

	assert.Equal(t, deletes+1, f.callCount("DeleteCells"))
	_, ok := f.cell("E-5")
	assert.False(t, ok, "emptied cell is deleted even though the upsert failed")
	assert.NotEmpty(t, h.syncer.State().LastError)
	h.stop()
}

func TestLegacyOptionDeleteRunsWhenUpsertFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, DefaultConfig())

	k, err := h.store.AddKind("Cave")
	require.NoError(t, err)
	h.syncer.Wait()

	f.fail("UpsertOptions", 1)
	require.True(t, h.store.RemoveKind(k.ID))
	h.syncer.Wait()

	_, ok := f.option(k.ID)
	assert.False(t, ok)
	h.stop()
}

func TestRunTwiceIsRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, DefaultConfig())

	assert.NotPanics(t, func() {
		assert.Error(t, h.syncer.Run(context.Background()))
	})
	assert.Equal(t, 1, f.callCount("FirstMapID"))
	h.stop()
}

func TestLegacyRemovedKindIsDeleted(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, DefaultConfig())

	k, err := h.store.AddKind("Cave")
	require.NoError(t, err)
	h.syncer.Wait()
	_, ok := f.option(k.ID)
	require.True(t, ok)

	require.True(t, h.store.RemoveKind(k.ID))
	h.syncer.Wait()
	_, ok = f.option(k.ID)
	assert.False(t, ok)
	h.stop()
}

func TestDurableWritesVersionedRecords(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, durableConfig())

	_, err := h.store.Toggle("E-5", catalog.KindLab, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := f.cell("E-5")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	rec, _ := f.cell("E-5")
	assert.Equal(t, h.store.Snapshot().CellVersions["E-5"], rec.UpdatedAt)

	var placements []map[string]string
	require.NoError(t, json.Unmarshal(rec.Selections, &placements))
	assert.Equal(t, []map[string]string{{"optionId": "lab"}}, placements)

	// only changed records are written
	_, ok := f.option(catalog.KindLab)
	assert.False(t, ok)
	assert.Nil(t, f.storedSetting())
	h.stop()
}

func TestDurableRetriesDeletesUntilConfirmed(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	cfg := durableConfig()
	h := startSyncer(t, f, cfg)

	_, _ = h.store.Toggle("E-5", catalog.KindLab, "")
	require.Eventually(t, func() bool {
		_, ok := f.cell("E-5")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	f.fail("DeleteCells", 2)
	_, _ = h.store.Toggle("E-5", catalog.KindLab, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, h.syncer.State().Pending)
	h.clock.Advance(cfg.RetryDelay)

	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(2 * cfg.RetryDelay)

	require.Eventually(t, func() bool {
		_, ok := f.cell("E-5")
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, f.callCount("DeleteCells"))

	require.Eventually(t, func() bool {
		st := h.syncer.State()
		return st.Pending == 0 && st.Save == Clean
	}, 5*time.Second, 10*time.Millisecond)
	h.stop()
}

func TestDurableStormSetting(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFakeRemote()
	h := startSyncer(t, f, durableConfig())

	next := time.Date(2025, 7, 14, 11, 0, 0, 0, time.UTC)
	require.NoError(t, h.store.SetStormTarget(next))

	require.Eventually(t, func() bool { return f.storedSetting() != nil }, 5*time.Second, 10*time.Millisecond)
	got := f.storedSetting()
	assert.True(t, next.Equal(*got.NextStormDate))
	assert.Equal(t, h.store.Snapshot().StormVersion, got.UpdatedAt)
	h.stop()
}

func TestBackoff(t *testing.T) {
	cfg := Config{RetryDelay: time.Second, MaxRetryDelay: 5 * time.Second}
	assert.Equal(t, time.Second, cfg.backoff(1))
	assert.Equal(t, 2*time.Second, cfg.backoff(2))
	assert.Equal(t, 4*time.Second, cfg.backoff(3))
	assert.Equal(t, 5*time.Second, cfg.backoff(4))
	assert.Equal(t, 5*time.Second, cfg.backoff(10))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, m)

	m, err = ParseMode("durable")
	require.NoError(t, err)
	assert.Equal(t, ModeDurable, m)

	_, err = ParseMode("eventual")
	assert.Error(t, err)
}
