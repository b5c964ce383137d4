package mapsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/deepdesert/go/internal/mapstate"
	"github.com/mcdev12/deepdesert/go/internal/models"
	"github.com/mcdev12/deepdesert/go/internal/remote"
)

// Syncer loads the store from the remote store once and then pushes every
// local change back out
type Syncer struct {
	store  *mapstate.Store
	remote Remote
	clock  clockwork.Clock
	config Config

	mu      sync.Mutex
	load    LoadState
	mapID   uuid.UUID
	lastErr error
	loaded  chan struct{}
	once    sync.Once
	baseCtx context.Context

	// legacy
	inflight int
	wg       sync.WaitGroup

	// durable
	queue *writeQueue
	wake  chan struct{}
}

// NewSyncer creates a syncer for the store. Nothing happens until Run.
func NewSyncer(store *mapstate.Store, r Remote, clock clockwork.Clock, cfg Config) *Syncer {
	if cfg.Mode == "" {
		cfg.Mode = ModeLegacy
	}
	return &Syncer{
		store:  store,
		remote: r,
		clock:  clock,
		config: cfg,
		loaded: make(chan struct{}),
		queue:  newWriteQueue(),
		wake:   make(chan struct{}, 1),
	}
}

// Loaded is closed once the initial load has finished, whatever its outcome
func (s *Syncer) Loaded() <-chan struct{} {
	return s.loaded
}

// State returns the current sync status
func (s *Syncer) State() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Load:  s.load,
		MapID: s.mapID,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	switch s.config.Mode {
	case ModeDurable:
		st.Pending = s.queue.len()
		switch {
		case s.queue.flushing:
			st.Save = Syncing
		case st.Pending > 0:
			st.Save = Dirty
		}
	default:
		if s.inflight > 0 {
			st.Save = Syncing
		}
	}
	return st
}

// Run loads the remote state, then saves store changes until ctx is done.
// In legacy mode it waits for in-flight saves before returning.
func (s *Syncer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.load != Unloaded {
		s.mu.Unlock()
		return fmt.Errorf("syncer already started")
	}
	s.load = Loading
	s.baseCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	unsubscribe := s.store.Subscribe(s.onChange)
	s.loadRemote(ctx)

	log.Info().
		Str("mode", string(s.config.Mode)).
		Str("state", s.State().Load.String()).
		Msg("map sync running")

	if s.config.Mode == ModeDurable {
		s.runWorker(ctx)
	} else {
		<-ctx.Done()
	}
	unsubscribe()
	s.wg.Wait()

	log.Info().Msg("map sync stopped")
	return nil
}

// loadRemote fetches the map id, cells, options and storm setting and
// hydrates the store. A missing map or any failure leaves the store at its
// defaults and the syncer idle.
func (s *Syncer) loadRemote(ctx context.Context) {
	defer s.once.Do(func() { close(s.loaded) })

	mapID, err := s.remote.FirstMapID(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrNoMap) {
			log.Warn().Msg("no map record found, sync disabled")
			s.setLoad(Idle, uuid.Nil, nil)
			return
		}
		log.Error().Err(err).Msg("failed to load map id")
		s.setLoad(Idle, uuid.Nil, err)
		return
	}

	var (
		cells   []remote.CellRecord
		options []remote.OptionRecord
		setting *remote.SettingRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cells, err = s.remote.ListCells(gctx, mapID)
		return err
	})
	g.Go(func() error {
		var err error
		options, err = s.remote.ListOptions(gctx, mapID)
		return err
	})
	g.Go(func() error {
		var err error
		setting, err = s.remote.LatestSetting(gctx, mapID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("map_id", mapID.String()).Msg("failed to load map state")
		s.setLoad(Idle, uuid.Nil, err)
		return
	}

	storm := s.store.StormTarget()
	if setting != nil && setting.NextStormDate != nil {
		storm = setting.NextStormDate
	}
	s.store.Hydrate(DecodeOptions(options), DecodeCells(cells), storm)
	s.setLoad(Ready, mapID, nil)

	log.Info().
		Str("map_id", mapID.String()).
		Int("cells", len(cells)).
		Int("options", len(options)).
		Msg("map state loaded")
}

func (s *Syncer) setLoad(state LoadState, mapID uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load = state
	s.mapID = mapID
	s.lastErr = err
}

func (s *Syncer) onChange(c mapstate.Change) {
	if c.Loaded {
		return
	}
	s.mu.Lock()
	ready := s.load == Ready
	mapID := s.mapID
	ctx := s.baseCtx
	s.mu.Unlock()
	if !ready {
		return
	}

	if s.config.Mode == ModeDurable {
		s.enqueue(c)
		return
	}
	s.saveAll(ctx, mapID, c)
}

// saveAll issues the three independent save calls for the whole state.
// Pending deletions are drained before the calls and never requeued.
func (s *Syncer) saveAll(ctx context.Context, mapID uuid.UUID, c mapstate.Change) {
	snap := s.store.Snapshot()
	deletedCells, deletedKinds := s.store.DrainPendingDeletes()

	cells := make([]remote.CellRecord, 0, len(snap.Grid))
	for _, cell := range snap.Grid.Cells() {
		rec, err := EncodeCell(cell, snap.Grid[cell], c.At)
		if err != nil {
			log.Error().Err(err).Msg("skipping cell on save")
			continue
		}
		cells = append(cells, rec)
	}
	options := make([]remote.OptionRecord, 0, len(snap.Kinds))
	for _, k := range snap.Kinds {
		options = append(options, EncodeOption(k, c.At))
	}
	setting := remote.SettingRecord{NextStormDate: snap.StormTarget, UpdatedAt: c.At}

	// The delete is sent whether or not the upsert succeeded
	s.spawn(ctx, "cells", func(ctx context.Context) error {
		upsertErr := s.remote.UpsertCells(ctx, mapID, cells)
		deleteErr := s.remote.DeleteCells(ctx, mapID, cellIDs(deletedCells))
		return errors.Join(upsertErr, deleteErr)
	})
	s.spawn(ctx, "options", func(ctx context.Context) error {
		upsertErr := s.remote.UpsertOptions(ctx, mapID, options)
		deleteErr := s.remote.DeleteOptions(ctx, mapID, deletedKinds)
		return errors.Join(upsertErr, deleteErr)
	})
	s.spawn(ctx, "setting", func(ctx context.Context) error {
		return s.remote.UpsertSetting(ctx, mapID, setting)
	})
}

func (s *Syncer) spawn(ctx context.Context, what string, fn func(context.Context) error) {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		err := fn(ctx)

		s.mu.Lock()
		s.inflight--
		if err != nil {
			s.lastErr = err
		}
		s.mu.Unlock()

		if err != nil {
			log.Error().Err(err).Str("save", what).Msg("map save failed")
		}
	}()
}

// Wait blocks until in-flight legacy saves have returned
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func cellIDs(cells []models.CellID) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = string(c)
	}
	return out
}
