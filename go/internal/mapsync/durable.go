package mapsync

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/mapstate"
	"github.com/mcdev12/deepdesert/go/internal/models"
	"github.com/mcdev12/deepdesert/go/internal/remote"
)

// writeQueue holds the records that still need writing. Guarded by Syncer.mu.
type writeQueue struct {
	cells       map[models.CellID]struct{}
	kinds       map[string]struct{}
	storm       bool
	deleteCells map[models.CellID]struct{}
	deleteKinds map[string]struct{}
	flushing    bool
}

func newWriteQueue() *writeQueue {
	return &writeQueue{
		cells:       make(map[models.CellID]struct{}),
		kinds:       make(map[string]struct{}),
		deleteCells: make(map[models.CellID]struct{}),
		deleteKinds: make(map[string]struct{}),
	}
}

func (q *writeQueue) len() int {
	n := len(q.cells) + len(q.kinds) + len(q.deleteCells) + len(q.deleteKinds)
	if q.storm {
		n++
	}
	return n
}

// take moves every queued record into a batch and empties the queue
func (q *writeQueue) take() *writeQueue {
	b := &writeQueue{
		cells:       q.cells,
		kinds:       q.kinds,
		storm:       q.storm,
		deleteCells: q.deleteCells,
		deleteKinds: q.deleteKinds,
	}
	q.cells = make(map[models.CellID]struct{})
	q.kinds = make(map[string]struct{})
	q.storm = false
	q.deleteCells = make(map[models.CellID]struct{})
	q.deleteKinds = make(map[string]struct{})
	return b
}

// enqueue records a change for the writer and wakes it
func (s *Syncer) enqueue(c mapstate.Change) {
	deletedCells, deletedKinds := s.store.DrainPendingDeletes()

	s.mu.Lock()
	q := s.queue
	for _, cell := range c.Cells {
		q.cells[cell] = struct{}{}
		delete(q.deleteCells, cell)
	}
	for _, cell := range deletedCells {
		q.deleteCells[cell] = struct{}{}
		delete(q.cells, cell)
	}
	for _, id := range c.Kinds {
		q.kinds[id] = struct{}{}
	}
	for _, id := range deletedKinds {
		q.deleteKinds[id] = struct{}{}
		delete(q.kinds, id)
	}
	if c.Storm {
		q.storm = true
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Syncer) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		s.flushWithRetry(ctx)
	}
}

// flushWithRetry writes the queue until it succeeds or ctx is done. Each
// failed attempt backs off exponentially on the syncer's clock.
func (s *Syncer) flushWithRetry(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := s.config.backoff(attempt)
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(delay):
			}
		}

		err := s.flush(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info().Int("attempts", attempt+1).Msg("map writes recovered")
			}
			return
		}
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("next_retry", s.config.backoff(attempt+1)).
			Msg("map write failed, retrying")
	}
}

// flush writes one batch. Records whose write fails go back on the queue.
func (s *Syncer) flush(ctx context.Context) error {
	s.mu.Lock()
	mapID := s.mapID
	if s.queue.len() == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := s.queue.take()
	s.queue.flushing = true
	s.mu.Unlock()

	err := s.writeBatch(ctx, mapID, batch)

	s.mu.Lock()
	s.queue.flushing = false
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func (s *Syncer) writeBatch(ctx context.Context, mapID uuid.UUID, batch *writeQueue) error {
	snap := s.store.Snapshot()
	var errs []error

	var cells []remote.CellRecord
	for _, cell := range slices.Sorted(maps.Keys(batch.cells)) {
		placements, ok := snap.Grid[cell]
		if !ok {
			continue
		}
		rec, err := EncodeCell(cell, placements, snap.CellVersions[cell])
		if err != nil {
			log.Error().Err(err).Msg("dropping unencodable cell")
			continue
		}
		cells = append(cells, rec)
	}
	if err := s.remote.UpsertCells(ctx, mapID, cells); err != nil {
		errs = append(errs, err)
		s.requeue(func(q *writeQueue) {
			for cell := range batch.cells {
				q.cells[cell] = struct{}{}
			}
		})
	}

	var deleteCells []models.CellID
	for cell := range batch.deleteCells {
		if _, refilled := snap.Grid[cell]; !refilled {
			deleteCells = append(deleteCells, cell)
		}
	}
	slices.Sort(deleteCells)
	if err := s.remote.DeleteCells(ctx, mapID, cellIDs(deleteCells)); err != nil {
		errs = append(errs, err)
		s.requeue(func(q *writeQueue) {
			for _, cell := range deleteCells {
				if _, requeued := q.cells[cell]; !requeued {
					q.deleteCells[cell] = struct{}{}
				}
			}
		})
	}

	var options []remote.OptionRecord
	for _, k := range snap.Kinds {
		if _, ok := batch.kinds[k.ID]; ok {
			options = append(options, EncodeOption(k, k.UpdatedAt))
		}
	}
	if err := s.remote.UpsertOptions(ctx, mapID, options); err != nil {
		errs = append(errs, err)
		s.requeue(func(q *writeQueue) {
			for id := range batch.kinds {
				q.kinds[id] = struct{}{}
			}
		})
	}

	deleteKinds := slices.Sorted(maps.Keys(batch.deleteKinds))
	if err := s.remote.DeleteOptions(ctx, mapID, deleteKinds); err != nil {
		errs = append(errs, err)
		s.requeue(func(q *writeQueue) {
			for _, id := range deleteKinds {
				q.deleteKinds[id] = struct{}{}
			}
		})
	}

	if batch.storm {
		setting := remote.SettingRecord{NextStormDate: snap.StormTarget, UpdatedAt: snap.StormVersion}
		if err := s.remote.UpsertSetting(ctx, mapID, setting); err != nil {
			errs = append(errs, err)
			s.requeue(func(q *writeQueue) { q.storm = true })
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("map write: %w", errors.Join(errs...))
	}
	log.Debug().
		Int("cells", len(cells)).
		Int("deleted_cells", len(deleteCells)).
		Int("options", len(options)).
		Int("deleted_options", len(deleteKinds)).
		Bool("storm", batch.storm).
		Msg("map writes flushed")
	return nil
}

func (s *Syncer) requeue(fn func(q *writeQueue)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.queue)
}
