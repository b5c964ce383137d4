package events

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/countdown"
	"github.com/mcdev12/deepdesert/go/internal/grid"
	"github.com/mcdev12/deepdesert/go/internal/mapstate"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

// Bridge turns store changes and countdown ticks into published map events.
// It also keeps the countdown pointed at the store's storm target.
type Bridge struct {
	store     *mapstate.Store
	timer     *countdown.Timer
	publisher Publisher
}

// NewBridge creates a bridge between the store, the timer and a publisher
func NewBridge(store *mapstate.Store, timer *countdown.Timer, publisher Publisher) *Bridge {
	return &Bridge{
		store:     store,
		timer:     timer,
		publisher: publisher,
	}
}

// Attach starts forwarding and returns a func that stops it
func (b *Bridge) Attach() func() {
	unsubscribe := b.store.Subscribe(b.onChange)
	b.timer.OnTick(b.onTick)
	if target := b.store.StormTarget(); target != nil {
		b.timer.SetTarget(*target)
	}
	return func() {
		unsubscribe()
		b.timer.OnTick(nil)
	}
}

// Run forwards events until ctx is done
func (b *Bridge) Run(ctx context.Context) {
	detach := b.Attach()
	defer detach()
	<-ctx.Done()
}

func (b *Bridge) onChange(c mapstate.Change) {
	if c.Storm || c.Loaded {
		if target := b.store.StormTarget(); target != nil {
			b.timer.SetTarget(*target)
		}
	}

	if c.Loaded {
		b.publishGrid(c.At, b.store.Snapshot().Grid.Cells(), nil)
		b.publishCatalog(c.At, nil)
		b.publishStorm(c.At)
		return
	}
	if c.GridChanged() {
		b.publishGrid(c.At, c.Cells, c.RemovedCells)
	}
	if c.CatalogChanged() {
		b.publishCatalog(c.At, c.RemovedKinds)
	}
	if c.Storm {
		b.publishStorm(c.At)
	}
}

func (b *Bridge) onTick(t countdown.Tick) {
	b.publish(EventTypeCountdownTick, t.At, CountdownTickPayload{
		Text:         t.Text,
		Passed:       t.Passed,
		RemainingSec: int64(t.Remaining / time.Second),
	})
}

func (b *Bridge) publishGrid(at time.Time, cells, removed []models.CellID) {
	views := make([]CellView, 0, len(cells))
	for _, cell := range cells {
		views = append(views, CellView{CellID: cell, Entries: b.store.ResolveDisplay(cell)})
	}
	b.publish(EventTypeGridChanged, at, GridChangedPayload{Cells: views, Removed: removed})
}

func (b *Bridge) publishCatalog(at time.Time, removed []string) {
	kinds := b.store.Kinds()
	b.publish(EventTypeCatalogChanged, at, CatalogChangedPayload{
		Kinds:   kinds,
		Legend:  grid.Legend(kinds),
		Removed: removed,
	})
}

func (b *Bridge) publishStorm(at time.Time) {
	target := b.store.StormTarget()
	if target == nil {
		return
	}
	b.publish(EventTypeStormTargetChanged, at, StormTargetChangedPayload{Target: *target})
}

func (b *Bridge) publish(t EventType, at time.Time, payload any) {
	event, err := NewMapEvent(t, at, payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to build map event")
		return
	}
	if err := b.publisher.Publish(context.Background(), event); err != nil {
		log.Error().Err(err).Str("event_type", string(t)).Msg("failed to publish map event")
	}
}

// Snapshot returns the events that bring a new viewer up to date
func (b *Bridge) Snapshot() []*MapEvent {
	snap := b.store.Snapshot()
	tick := b.timer.Last()

	type entry struct {
		t EventType
		p any
	}
	views := make([]CellView, 0, len(snap.Grid))
	for _, cell := range snap.Grid.Cells() {
		views = append(views, CellView{CellID: cell, Entries: grid.ResolveDisplay(snap.Grid, cell, snap.Kinds)})
	}
	entries := []entry{
		{EventTypeCatalogChanged, CatalogChangedPayload{Kinds: snap.Kinds, Legend: grid.Legend(snap.Kinds)}},
		{EventTypeGridChanged, GridChangedPayload{Cells: views}},
	}
	if snap.StormTarget != nil {
		entries = append(entries, entry{EventTypeStormTargetChanged, StormTargetChangedPayload{Target: *snap.StormTarget}})
	}
	if tick.Text != "" {
		entries = append(entries, entry{EventTypeCountdownTick, CountdownTickPayload{
			Text:         tick.Text,
			Passed:       tick.Passed,
			RemainingSec: int64(tick.Remaining / time.Second),
		}})
	}

	out := make([]*MapEvent, 0, len(entries))
	for _, e := range entries {
		event, err := NewMapEvent(e.t, tick.At, e.p)
		if err != nil {
			log.Error().Err(err).Msg("failed to build snapshot event")
			continue
		}
		out = append(out, event)
	}
	return out
}
