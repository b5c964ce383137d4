package mapsync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdev12/deepdesert/go/internal/remote"
)

var errUnavailable = errors.New("remote unavailable")

// fakeRemote is an in-memory remote store. failures[op] makes the next n
// calls of op fail.
type fakeRemote struct {
	mu       sync.Mutex
	mapID    uuid.UUID
	cells    map[string]remote.CellRecord
	options  map[string]remote.OptionRecord
	setting  *remote.SettingRecord
	failures map[string]int
	calls    map[string]int
	loadErr  error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		mapID:    uuid.MustParse("4d6f2b1e-9c1a-4f7e-8b1d-2a3c4e5f6a7b"),
		cells:    make(map[string]remote.CellRecord),
		options:  make(map[string]remote.OptionRecord),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (f *fakeRemote) fail(op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = n
}

// enter must hold f.mu
func (f *fakeRemote) enter(op string) error {
	f.calls[op]++
	if f.failures[op] > 0 {
		f.failures[op]--
		return errUnavailable
	}
	return nil
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) cellIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.cells))
	for id := range f.cells {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeRemote) cell(id string) (remote.CellRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cells[id]
	return c, ok
}

func (f *fakeRemote) option(id string) (remote.OptionRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.options[id]
	return o, ok
}

func (f *fakeRemote) storedSetting() *remote.SettingRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setting
}

func (f *fakeRemote) putCell(id string, selections string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cells[id] = remote.CellRecord{CellID: id, Selections: json.RawMessage(selections)}
}

func (f *fakeRemote) FirstMapID(context.Context) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FirstMapID"); err != nil {
		return uuid.Nil, err
	}
	if f.loadErr != nil {
		return uuid.Nil, f.loadErr
	}
	if f.mapID == uuid.Nil {
		return uuid.Nil, remote.ErrNoMap
	}
	return f.mapID, nil
}

func (f *fakeRemote) ListCells(context.Context, uuid.UUID) ([]remote.CellRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListCells"); err != nil {
		return nil, err
	}
	out := make([]remote.CellRecord, 0, len(f.cells))
	for _, c := range f.cells {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRemote) ListOptions(context.Context, uuid.UUID) ([]remote.OptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]remote.OptionRecord, 0, len(f.options))
	for _, o := range f.options {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeRemote) LatestSetting(context.Context, uuid.UUID) (*remote.SettingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setting, nil
}

func (f *fakeRemote) UpsertCells(_ context.Context, _ uuid.UUID, cells []remote.CellRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertCells"); err != nil {
		return err
	}
	for _, c := range cells {
		f.cells[c.CellID] = c
	}
	return nil
}

func (f *fakeRemote) DeleteCells(_ context.Context, _ uuid.UUID, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteCells"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(f.cells, id)
	}
	return nil
}

func (f *fakeRemote) UpsertOptions(_ context.Context, _ uuid.UUID, options []remote.OptionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertOptions"); err != nil {
		return err
	}
	for _, o := range options {
		f.options[o.OptionID] = o
	}
	return nil
}

func (f *fakeRemote) DeleteOptions(_ context.Context, _ uuid.UUID, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteOptions"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(f.options, id)
	}
	return nil
}

func (f *fakeRemote) UpsertSetting(_ context.Context, _ uuid.UUID, setting remote.SettingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertSetting"); err != nil {
		return err
	}
	f.setting = &setting
	return nil
}
