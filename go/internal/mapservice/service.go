package mapservice

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/auth"
	"github.com/mcdev12/deepdesert/go/internal/catalog"
	"github.com/mcdev12/deepdesert/go/internal/grid"
	"github.com/mcdev12/deepdesert/go/internal/mapstate"
	"github.com/mcdev12/deepdesert/go/internal/mapsync"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

// ServiceName is the fully-qualified name of the map service
const ServiceName = "deepdesert.map.v1.MapService"

// MapStore defines what the service needs from the map state
type MapStore interface {
	Snapshot() mapstate.Snapshot
	Toggle(cell models.CellID, kindID, houseID string) (bool, error)
	HouseOptions(cell models.CellID) []grid.HouseOption
	AddKind(label string) (models.MarkerKind, error)
	RemoveKind(id string) bool
	SetRowRestriction(id string, rows []models.RowLabel) error
	ToggleRestrictedRow(id string, row models.RowLabel) ([]models.RowLabel, error)
	ResetGrid(confirmed bool) error
	SetStormTarget(at time.Time) error
}

// Countdown provides the current countdown text
type Countdown interface {
	Text() string
}

// Authenticator checks credentials and sessions
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(token string)
}

// HouseDirectory lists the managed houses
type HouseDirectory interface {
	ListHouseLocations(ctx context.Context) ([]models.HouseLocation, error)
}

// SyncStatus reports the sync layer state
type SyncStatus interface {
	State() mapsync.Status
}

// Service implements the MapService Connect procedures
type Service struct {
	store     MapStore
	countdown Countdown
	auth      Authenticator
	houses    HouseDirectory
	sync      SyncStatus
}

// NewService creates a new map service. houses and sync may be nil.
func NewService(store MapStore, countdown Countdown, authenticator Authenticator, houses HouseDirectory, sync SyncStatus) *Service {
	return &Service{
		store:     store,
		countdown: countdown,
		auth:      authenticator,
		houses:    houses,
		sync:      sync,
	}
}

// GetMap returns everything the public view renders
func (s *Service) GetMap(ctx context.Context, req *connect.Request[GetMapRequest]) (*connect.Response[GetMapResponse], error) {
	snap := s.store.Snapshot()

	cells := make([]CellView, 0, models.GridSize*models.GridSize)
	for _, id := range models.AllCells() {
		cells = append(cells, cellView(snap, id))
	}

	resp := &GetMapResponse{
		Rows:        models.Rows,
		Columns:     models.GridSize,
		Legend:      grid.Legend(snap.Kinds),
		Cells:       cells,
		Houses:      catalog.Houses(),
		Countdown:   s.countdown.Text(),
		StormTarget: snap.StormTarget,
	}
	if s.sync != nil {
		st := s.sync.State()
		resp.Sync = &SyncView{Load: st.Load.String(), Save: st.Save.String(), Pending: st.Pending}
	}
	return connect.NewResponse(resp), nil
}

// GetCell returns the rendered placements of one cell
func (s *Service) GetCell(ctx context.Context, req *connect.Request[GetCellRequest]) (*connect.Response[GetCellResponse], error) {
	cell, err := parseCell(req.Msg.CellID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetCellResponse{Cell: cellView(s.store.Snapshot(), cell)}), nil
}

// Login opens a manager session
func (s *Service) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	session, err := s.auth.Login(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LoginResponse{
		Token:     session.Token,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	}), nil
}

// Logout ends the caller's session
func (s *Service) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	s.auth.SignOut(auth.BearerToken(req.Header()))
	return connect.NewResponse(&LogoutResponse{}), nil
}

// Session reports whether the caller is signed in
func (s *Service) Session(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionResponse], error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return connect.NewResponse(&SessionResponse{}), nil
	}
	return connect.NewResponse(&SessionResponse{
		Authenticated: true,
		Email:         session.Email,
		ExpiresAt:     &session.ExpiresAt,
	}), nil
}

// GetManageCell returns a cell with the kinds and houses it can take
func (s *Service) GetManageCell(ctx context.Context, req *connect.Request[GetManageCellRequest]) (*connect.Response[GetManageCellResponse], error) {
	cell, err := parseCell(req.Msg.CellID)
	if err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()

	kinds := make([]KindOption, 0, len(snap.Kinds))
	for _, k := range snap.Kinds {
		opt := KindOption{
			Kind:      k,
			Available: grid.IsAvailable(snap.Kinds, k.ID, cell.Row()),
		}
		if !k.HasSubChoices {
			opt.Selected = grid.IsSelected(snap.Grid, cell, models.Placement{KindID: k.ID})
		} else {
			for _, p := range snap.Grid.Placements(cell) {
				if p.KindID == k.ID {
					opt.Selected = true
				}
			}
		}
		kinds = append(kinds, opt)
	}

	return connect.NewResponse(&GetManageCellResponse{
		Cell:   cellView(snap, cell),
		Kinds:  kinds,
		Houses: grid.HouseOptions(snap.Grid, cell),
	}), nil
}

// ToggleSelection adds or removes a placement
func (s *Service) ToggleSelection(ctx context.Context, req *connect.Request[ToggleSelectionRequest]) (*connect.Response[ToggleSelectionResponse], error) {
	cell, err := parseCell(req.Msg.CellID)
	if err != nil {
		return nil, err
	}
	selected, err := s.store.Toggle(cell, req.Msg.KindID, req.Msg.HouseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ToggleSelectionResponse{
		Selected: selected,
		Cell:     cellView(s.store.Snapshot(), cell),
	}), nil
}

// HouseOptions returns the house picker for a cell
func (s *Service) HouseOptions(ctx context.Context, req *connect.Request[HouseOptionsRequest]) (*connect.Response[HouseOptionsResponse], error) {
	cell, err := parseCell(req.Msg.CellID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&HouseOptionsResponse{Options: s.store.HouseOptions(cell)}), nil
}

// AddKind adds a user-defined marker kind
func (s *Service) AddKind(ctx context.Context, req *connect.Request[AddKindRequest]) (*connect.Response[AddKindResponse], error) {
	k, err := s.store.AddKind(req.Msg.Label)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AddKindResponse{Kind: k}), nil
}

// RemoveKind removes a user-defined marker kind. Built-in kinds are refused
// without an error.
func (s *Service) RemoveKind(ctx context.Context, req *connect.Request[RemoveKindRequest]) (*connect.Response[RemoveKindResponse], error) {
	return connect.NewResponse(&RemoveKindResponse{Removed: s.store.RemoveKind(req.Msg.ID)}), nil
}

// SetRowRestriction replaces a kind's row restriction
func (s *Service) SetRowRestriction(ctx context.Context, req *connect.Request[SetRowRestrictionRequest]) (*connect.Response[SetRowRestrictionResponse], error) {
	if err := s.store.SetRowRestriction(req.Msg.ID, req.Msg.Rows); err != nil {
		return nil, toConnectError(err)
	}
	k, _ := catalog.Find(s.store.Snapshot().Kinds, req.Msg.ID)
	return connect.NewResponse(&SetRowRestrictionResponse{Kind: k}), nil
}

// ToggleRestrictedRow flips one row of a kind's restriction
func (s *Service) ToggleRestrictedRow(ctx context.Context, req *connect.Request[ToggleRestrictedRowRequest]) (*connect.Response[ToggleRestrictedRowResponse], error) {
	rows, err := s.store.ToggleRestrictedRow(req.Msg.ID, req.Msg.Row)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ToggleRestrictedRowResponse{Rows: rows}), nil
}

// ResetGrid clears every cell once confirmed
func (s *Service) ResetGrid(ctx context.Context, req *connect.Request[ResetGridRequest]) (*connect.Response[ResetGridResponse], error) {
	if err := s.store.ResetGrid(req.Msg.Confirmed); err != nil {
		return nil, toConnectError(err)
	}
	if session, ok := auth.SessionFromContext(ctx); ok {
		log.Warn().Str("email", session.Email).Msg("grid reset by manager")
	}
	return connect.NewResponse(&ResetGridResponse{}), nil
}

// SetStormTarget replaces the storm target
func (s *Service) SetStormTarget(ctx context.Context, req *connect.Request[SetStormTargetRequest]) (*connect.Response[SetStormTargetResponse], error) {
	if err := s.store.SetStormTarget(req.Msg.Target); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SetStormTargetResponse{
		Target:    req.Msg.Target,
		Countdown: s.countdown.Text(),
	}), nil
}

// ListHouseLocations returns the managed houses listing
func (s *Service) ListHouseLocations(ctx context.Context, req *connect.Request[ListHouseLocationsRequest]) (*connect.Response[ListHouseLocationsResponse], error) {
	if s.houses == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errors.New("house directory not configured"))
	}
	houses, err := s.houses.ListHouseLocations(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list house locations")
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListHouseLocationsResponse{Houses: houses}), nil
}

func cellView(snap mapstate.Snapshot, cell models.CellID) CellView {
	_, row, col, _ := models.ParseCellID(string(cell))
	entries := grid.ResolveDisplay(snap.Grid, cell, snap.Kinds)
	if entries == nil {
		entries = []grid.DisplayEntry{}
	}
	return CellView{CellID: cell, Row: row, Col: col, Entries: entries}
}

func parseCell(s string) (models.CellID, error) {
	cell, _, _, err := models.ParseCellID(s)
	if err != nil {
		return "", connect.NewError(connect.CodeInvalidArgument, err)
	}
	return cell, nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, auth.ErrIncorrectPassword):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, mapstate.ErrKindUnavailable),
		errors.Is(err, mapstate.ErrHouseInUse),
		errors.Is(err, mapstate.ErrResetNotConfirmed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, mapstate.ErrInvalidCell),
		errors.Is(err, mapstate.ErrUnknownKind),
		errors.Is(err, mapstate.ErrHouseRequired),
		errors.Is(err, mapstate.ErrUnexpectedHouse),
		errors.Is(err, mapstate.ErrUnknownHouse),
		errors.Is(err, mapstate.ErrEmptyLabel),
		errors.Is(err, mapstate.ErrInvalidRow),
		errors.Is(err, mapstate.ErrInvalidStormTarget):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		log.Error().Err(err).Msg("unexpected map service error")
		return connect.NewError(connect.CodeInternal, err)
	}
}
