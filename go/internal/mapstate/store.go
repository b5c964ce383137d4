package mapstate

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/catalog"
	"github.com/mcdev12/deepdesert/go/internal/grid"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

// DefaultStormTarget is the storm time used until one is loaded or set
var DefaultStormTarget = time.Date(2025, time.June, 30, 19, 0, 0, 0, time.FixedZone("UTC+8", 8*60*60))

// Snapshot is a consistent copy of the store's state
type Snapshot struct {
	Kinds       []models.MarkerKind
	Grid        grid.State
	StormTarget *time.Time
	// CellVersions holds the last write time of each present cell
	CellVersions map[models.CellID]time.Time
	StormVersion time.Time
}

// Store is the single application state shared by all views. Every
// mutation goes through its methods and is announced to listeners.
type Store struct {
	clock clockwork.Clock

	mu           sync.RWMutex
	kinds        []models.MarkerKind
	grid         grid.State
	cellVersions map[models.CellID]time.Time
	storm        *time.Time
	stormVersion time.Time
	lastStamp    time.Time
	lastKindID   int64

	pendingCells []models.CellID
	pendingKinds []string

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

// NewStore creates a store holding the built-in catalog, an empty grid and
// the default storm target
func NewStore(clock clockwork.Clock) *Store {
	storm := DefaultStormTarget
	return &Store{
		clock:        clock,
		kinds:        catalog.DefaultKinds(),
		grid:         grid.State{},
		cellVersions: make(map[models.CellID]time.Time),
		storm:        &storm,
		listeners:    make(map[int]Listener),
	}
}

// Subscribe registers a listener and returns a func that removes it
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(c Change) {
	s.listenersMu.RLock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenersMu.RUnlock()

	for _, l := range ls {
		l(c)
	}
}

// stamp returns a strictly increasing write time. Must hold s.mu.
func (s *Store) stamp() time.Time {
	now := s.clock.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := make([]models.MarkerKind, len(s.kinds))
	for i, k := range s.kinds {
		kinds[i] = k.Clone()
	}
	versions := make(map[models.CellID]time.Time, len(s.cellVersions))
	for c, v := range s.cellVersions {
		versions[c] = v
	}
	var storm *time.Time
	if s.storm != nil {
		t := *s.storm
		storm = &t
	}
	return Snapshot{
		Kinds:        kinds,
		Grid:         s.grid.Clone(),
		StormTarget:  storm,
		CellVersions: versions,
		StormVersion: s.stormVersion,
	}
}

// Kinds returns a copy of the marker catalog
func (s *Store) Kinds() []models.MarkerKind {
	return s.Snapshot().Kinds
}

// Hydrate replaces the whole state with one read from storage. Pending
// deletions are discarded. A nil or empty kinds slice keeps the current
// catalog.
func (s *Store) Hydrate(kinds []models.MarkerKind, g grid.State, storm *time.Time) {
	s.mu.Lock()
	if len(kinds) > 0 {
		s.kinds = make([]models.MarkerKind, len(kinds))
		for i, k := range kinds {
			s.kinds[i] = k.Clone()
		}
	}
	if g == nil {
		g = grid.State{}
	}
	s.grid = g.Clone()
	s.cellVersions = make(map[models.CellID]time.Time, len(g))
	if storm != nil {
		t := *storm
		s.storm = &t
	}
	s.pendingCells = nil
	s.pendingKinds = nil
	at := s.stamp()
	s.mu.Unlock()

	log.Info().
		Int("kinds", len(kinds)).
		Int("cells", len(g)).
		Msg("map state hydrated")

	s.notify(Change{At: at, Loaded: true})
}

// Toggle adds or removes a placement in a cell. Removing is always allowed;
// adding checks the catalog, the row restriction and house uniqueness.
func (s *Store) Toggle(cell models.CellID, kindID, houseID string) (bool, error) {
	_, row, _, err := models.ParseCellID(string(cell))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidCell, err)
	}
	p := models.Placement{KindID: kindID, HouseID: houseID}

	s.mu.Lock()
	removing := grid.IsSelected(s.grid, cell, p)
	if !removing {
		if err := s.validatePlacement(cell, row, p); err != nil {
			s.mu.Unlock()
			return false, err
		}
	}

	next, emptied := grid.Toggle(s.grid, cell, p)
	s.grid = next
	at := s.stamp()
	change := Change{At: at}
	if emptied {
		delete(s.cellVersions, cell)
		s.queueCellDeletes(cell)
		change.RemovedCells = []models.CellID{cell}
	} else {
		s.cellVersions[cell] = at
		s.unqueueCellDelete(cell)
		change.Cells = []models.CellID{cell}
	}
	s.mu.Unlock()

	log.Debug().
		Str("cell", string(cell)).
		Str("kind", kindID).
		Str("house", houseID).
		Bool("selected", !removing).
		Msg("selection toggled")

	s.notify(change)
	return !removing, nil
}

// validatePlacement must hold s.mu
func (s *Store) validatePlacement(cell models.CellID, row models.RowLabel, p models.Placement) error {
	k, ok := catalog.Find(s.kinds, p.KindID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, p.KindID)
	}
	if !k.AllowsRow(row) {
		return fmt.Errorf("%w: %s on row %s", ErrKindUnavailable, k.ID, row)
	}
	if !k.HasSubChoices {
		if p.HouseID != "" {
			return fmt.Errorf("%w: %s", ErrUnexpectedHouse, k.ID)
		}
		return nil
	}
	if p.HouseID == "" {
		return fmt.Errorf("%w: %s", ErrHouseRequired, k.ID)
	}
	if _, ok := catalog.FindHouse(p.HouseID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHouse, p.HouseID)
	}
	if grid.HousesHeldElsewhere(s.grid, cell)[p.HouseID] {
		return fmt.Errorf("%w: %s is in %s", ErrHouseInUse, p.HouseID, grid.UsedHouses(s.grid)[p.HouseID])
	}
	return nil
}

// IsSelected reports whether the cell holds the placement
func (s *Store) IsSelected(cell models.CellID, kindID, houseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grid.IsSelected(s.grid, cell, models.Placement{KindID: kindID, HouseID: houseID})
}

// IsAvailable reports whether the kind may be placed on the row
func (s *Store) IsAvailable(kindID string, row models.RowLabel) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grid.IsAvailable(s.kinds, kindID, row)
}

// ResolveDisplay returns the rendered placements of a cell
func (s *Store) ResolveDisplay(cell models.CellID) []grid.DisplayEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grid.ResolveDisplay(s.grid, cell, s.kinds)
}

// HouseOptions returns the house picker entries for the active cell
func (s *Store) HouseOptions(cell models.CellID) []grid.HouseOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grid.HouseOptions(s.grid, cell)
}

// AddKind appends a user-defined kind with a fresh time-derived id, the
// default color and no row restriction
func (s *Store) AddKind(label string) (models.MarkerKind, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.MarkerKind{}, ErrEmptyLabel
	}

	s.mu.Lock()
	at := s.stamp()
	id := at.UnixMilli()
	if id <= s.lastKindID {
		id = s.lastKindID + 1
	}
	s.lastKindID = id
	k := models.MarkerKind{
		ID:        strconv.FormatInt(id, 10),
		Label:     label,
		Color:     models.DefaultColor,
		UpdatedAt: at,
	}
	s.kinds = append(s.kinds, k)
	s.mu.Unlock()

	log.Info().Str("kind_id", k.ID).Str("label", k.Label).Msg("marker kind added")

	s.notify(Change{At: at, Kinds: []string{k.ID}})
	return k.Clone(), nil
}

// RemoveKind deletes a user-defined kind and every placement referencing it.
// Built-in and unknown kinds are left alone and false is returned.
func (s *Store) RemoveKind(id string) bool {
	if catalog.IsProtected(id) {
		log.Debug().Str("kind_id", id).Msg("refusing to remove built-in marker kind")
		return false
	}

	s.mu.Lock()
	idx := slices.IndexFunc(s.kinds, func(k models.MarkerKind) bool { return k.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.kinds = slices.Delete(s.kinds, idx, idx+1)

	before := s.grid
	next, emptied := grid.RemoveKind(before, id)
	s.grid = next
	at := s.stamp()

	var touched []models.CellID
	for cell, ps := range next {
		if len(ps) != len(before[cell]) {
			s.cellVersions[cell] = at
			touched = append(touched, cell)
		}
	}
	slices.Sort(touched)
	for _, cell := range emptied {
		delete(s.cellVersions, cell)
	}
	s.queueCellDeletes(emptied...)
	if !slices.Contains(s.pendingKinds, id) {
		s.pendingKinds = append(s.pendingKinds, id)
	}
	s.mu.Unlock()

	log.Info().
		Str("kind_id", id).
		Int("cells_touched", len(touched)).
		Int("cells_emptied", len(emptied)).
		Msg("marker kind removed")

	s.notify(Change{
		At:           at,
		Cells:        touched,
		RemovedCells: emptied,
		RemovedKinds: []string{id},
	})
	return true
}

// SetRowRestriction replaces a kind's row restriction. An empty set makes
// the kind usable on every row.
func (s *Store) SetRowRestriction(id string, rows []models.RowLabel) error {
	for _, r := range rows {
		if !r.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidRow, r)
		}
	}
	_, err := s.updateRestriction(id, func([]models.RowLabel) []models.RowLabel { return rows })
	return err
}

// ToggleRestrictedRow adds the row to the kind's restriction set, or
// removes it if already present
func (s *Store) ToggleRestrictedRow(id string, row models.RowLabel) ([]models.RowLabel, error) {
	if !row.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRow, row)
	}
	return s.updateRestriction(id, func(current []models.RowLabel) []models.RowLabel {
		if i := slices.Index(current, row); i >= 0 {
			return slices.Delete(slices.Clone(current), i, i+1)
		}
		return append(slices.Clone(current), row)
	})
}

// updateRestriction derives the new restriction from the current one under
// the store lock
func (s *Store) updateRestriction(id string, next func([]models.RowLabel) []models.RowLabel) ([]models.RowLabel, error) {
	s.mu.Lock()
	idx := slices.IndexFunc(s.kinds, func(k models.MarkerKind) bool { return k.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, id)
	}
	var restricted []models.RowLabel
	for _, r := range next(s.kinds[idx].RestrictedRows) {
		if !slices.Contains(restricted, r) {
			restricted = append(restricted, r)
		}
	}
	at := s.stamp()
	s.kinds[idx].RestrictedRows = restricted
	s.kinds[idx].UpdatedAt = at
	s.mu.Unlock()

	log.Info().Str("kind_id", id).Interface("rows", restricted).Msg("row restriction updated")

	s.notify(Change{At: at, Kinds: []string{id}})
	return slices.Clone(restricted), nil
}

// ResetGrid clears every cell. The catalog is untouched.
func (s *Store) ResetGrid(confirmed bool) error {
	if !confirmed {
		return ErrResetNotConfirmed
	}

	s.mu.Lock()
	removed := s.grid.Cells()
	s.grid = grid.State{}
	s.cellVersions = make(map[models.CellID]time.Time)
	s.queueCellDeletes(removed...)
	at := s.stamp()
	s.mu.Unlock()

	log.Warn().Int("cells_cleared", len(removed)).Msg("grid reset")

	s.notify(Change{At: at, RemovedCells: removed})
	return nil
}

// StormTarget returns the current storm target, if any
func (s *Store) StormTarget() *time.Time {
	return s.Snapshot().StormTarget
}

// SetStormTarget replaces the storm target
func (s *Store) SetStormTarget(at time.Time) error {
	if at.IsZero() {
		return ErrInvalidStormTarget
	}

	s.mu.Lock()
	t := at
	s.storm = &t
	stamp := s.stamp()
	s.stormVersion = stamp
	s.mu.Unlock()

	log.Info().Time("next_storm", at).Msg("storm target set")

	s.notify(Change{At: stamp, Storm: true})
	return nil
}

// DrainPendingDeletes returns and clears the cells and kinds removed since
// the last drain
func (s *Store) DrainPendingDeletes() ([]models.CellID, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells, kinds := s.pendingCells, s.pendingKinds
	s.pendingCells, s.pendingKinds = nil, nil
	return cells, kinds
}

// queueCellDeletes must hold s.mu
func (s *Store) queueCellDeletes(cells ...models.CellID) {
	for _, c := range cells {
		if !slices.Contains(s.pendingCells, c) {
			s.pendingCells = append(s.pendingCells, c)
		}
	}
}

// unqueueCellDelete drops a cell that was refilled before the next save.
// Must hold s.mu.
func (s *Store) unqueueCellDelete(cell models.CellID) {
	s.pendingCells = slices.DeleteFunc(s.pendingCells, func(c models.CellID) bool { return c == cell })
}
