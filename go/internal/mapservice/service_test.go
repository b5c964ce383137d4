package mapservice

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcdev12/deepdesert/go/internal/auth"
	"github.com/mcdev12/deepdesert/go/internal/catalog"
	"github.com/mcdev12/deepdesert/go/internal/countdown"
	"github.com/mcdev12/deepdesert/go/internal/mapstate"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

type fakeHouses struct {
	houses []models.HouseLocation
	err    error
}

func (f fakeHouses) ListHouseLocations(context.Context) ([]models.HouseLocation, error) {
	return f.houses, f.err
}

type testEnv struct {
	client *Client
	store  *mapstate.Store
	clock  *clockwork.FakeClock
}

func newTestEnv(t *testing.T, houses HouseDirectory) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 30, 10, 0, 0, 0, time.UTC))
	store := mapstate.NewStore(clock)
	timer := countdown.NewTimer(clock)
	timer.SetTarget(*store.StormTarget())

	hash, err := bcrypt.GenerateFromPassword([]byte("spice"), bcrypt.MinCost)
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(clock, time.Hour, auth.Credentials{Email: "warden@example.com", PasswordHash: hash})

	svc := NewService(store, timer, authenticator, houses, nil)
	path, handler := NewHandler(svc, connect.WithInterceptors(auth.NewInterceptor(authenticator, IsManageProcedure)))
	require.Equal(t, "/deepdesert.map.v1.MapService/", path)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testEnv{
		client: NewClient(srv.Client(), srv.URL),
		store:  store,
		clock:  clock,
	}
}

func call[Req, Res any](t *testing.T, env *testEnv, procedure, token string, msg *Req) (*Res, error) {
	t.Helper()
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	resp, err := Call[Req, Res](context.Background(), env.client, procedure, req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func login(t *testing.T, env *testEnv) string {
	t.Helper()
	resp, err := call[LoginRequest, LoginResponse](t, env, LoginProcedure, "", &LoginRequest{Email: "warden@example.com", Password: "spice"})
	require.NoError(t, err)
	return resp.Token
}

func TestGetMapIsPublic(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.store.Toggle("E-5", catalog.KindLab, "")
	require.NoError(t, err)

	resp, err := call[GetMapRequest, GetMapResponse](t, env, GetMapProcedure, "", &GetMapRequest{})
	require.NoError(t, err)

	assert.Len(t, resp.Cells, 81)
	assert.Equal(t, models.Rows, resp.Rows)
	assert.Equal(t, 9, resp.Columns)
	assert.Len(t, resp.Legend, 6)
	assert.Len(t, resp.Houses, 25)
	assert.Equal(t, "0d 1h 0m 0s", resp.Countdown)

	var e5 CellView
	for _, c := range resp.Cells {
		if c.CellID == "E-5" {
			e5 = c
		}
	}
	require.Len(t, e5.Entries, 1)
	assert.Equal(t, "Lab", e5.Entries[0].Label)
	assert.Equal(t, models.RowLabel("E"), e5.Row)
	assert.Equal(t, 5, e5.Col)
}

func TestGetCellValidatesID(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := call[GetCellRequest, GetCellResponse](t, env, GetCellProcedure, "", &GetCellRequest{CellID: "K-1"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestLoginFailureMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := call[LoginRequest, LoginResponse](t, env, LoginProcedure, "", &LoginRequest{Email: "warden@example.com", Password: "nope"})
	require.Error(t, err)

	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, connect.CodeUnauthenticated, cerr.Code())
	assert.Equal(t, "Incorrect password", cerr.Message())
}

func TestManageProceduresRequireSession(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := call[ToggleSelectionRequest, ToggleSelectionResponse](t, env, ToggleSelectionProcedure, "",
		&ToggleSelectionRequest{CellID: "E-5", KindID: catalog.KindLab})
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	assert.Empty(t, env.store.Snapshot().Grid)

	token := login(t, env)
	resp, err := call[ToggleSelectionRequest, ToggleSelectionResponse](t, env, ToggleSelectionProcedure, token,
		&ToggleSelectionRequest{CellID: "E-5", KindID: catalog.KindLab})
	require.NoError(t, err)
	assert.True(t, resp.Selected)
	require.Len(t, resp.Cell.Entries, 1)

	session, err := call[SessionRequest, SessionResponse](t, env, SessionProcedure, token, &SessionRequest{})
	require.NoError(t, err)
	assert.True(t, session.Authenticated)
	assert.Equal(t, "warden@example.com", session.Email)

	_, err = call[LogoutRequest, LogoutResponse](t, env, LogoutProcedure, token, &LogoutRequest{})
	require.NoError(t, err)
	_, err = call[AddKindRequest, AddKindResponse](t, env, AddKindProcedure, token, &AddKindRequest{Label: "Cave"})
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestSessionExpires(t *testing.T) {
	env := newTestEnv(t, nil)
	token := login(t, env)
	env.clock.Advance(2 * time.Hour)

	session, err := call[SessionRequest, SessionResponse](t, env, SessionProcedure, token, &SessionRequest{})
	require.NoError(t, err)
	assert.False(t, session.Authenticated)
}

func TestErrorCodes(t *testing.T) {
	env := newTestEnv(t, nil)
	token := login(t, env)

	_, err := call[ToggleSelectionRequest, ToggleSelectionResponse](t, env, ToggleSelectionProcedure, token,
		&ToggleSelectionRequest{CellID: "I-1", KindID: catalog.KindFwdBase})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err), "restricted row")

	_, err = call[ToggleSelectionRequest, ToggleSelectionResponse](t, env, ToggleSelectionProcedure, token,
		&ToggleSelectionRequest{CellID: "A-1", KindID: "nope"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "unknown kind")

	_, err = call[ResetGridRequest, ResetGridResponse](t, env, ResetGridProcedure, token, &ResetGridRequest{})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err), "unconfirmed reset")

	_, err = call[AddKindRequest, AddKindResponse](t, env, AddKindProcedure, token, &AddKindRequest{Label: "  "})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "empty label")

	_, err = call[SetRowRestrictionRequest, SetRowRestrictionResponse](t, env, SetRowRestrictionProcedure, token,
		&SetRowRestrictionRequest{ID: catalog.KindLab, Rows: []models.RowLabel{"Q"}})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "invalid row")
}

func TestHouseFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token := login(t, env)

	_, err := call[ToggleSelectionRequest, ToggleSelectionResponse](t, env, ToggleSelectionProcedure, token,
		&ToggleSelectionRequest{CellID: "A-1", KindID: catalog.KindHouse, HouseID: "sor"})
	require.NoError(t, err)

	opts, err := call[HouseOptionsRequest, HouseOptionsResponse](t, env, HouseOptionsProcedure, token, &HouseOptionsRequest{CellID: "B-1"})
	require.NoError(t, err)
	require.Len(t, opts.Options, 25)
	for _, o := range opts.Options {
		assert.Equal(t, o.ID == "sor", o.Disabled, o.ID)
	}

	_, err = call[ToggleSelectionRequest, ToggleSelectionResponse](t, env, ToggleSelectionProcedure, token,
		&ToggleSelectionRequest{CellID: "B-1", KindID: catalog.KindHouse, HouseID: "sor"})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	cell, err := call[GetManageCellRequest, GetManageCellResponse](t, env, GetManageCellProcedure, token, &GetManageCellRequest{CellID: "A-1"})
	require.NoError(t, err)
	for _, k := range cell.Kinds {
		if k.Kind.ID == catalog.KindHouse {
			assert.True(t, k.Selected)
		}
		if k.Kind.ID == catalog.KindFwdBase {
			assert.True(t, k.Available, "fwd base allowed on row A")
		}
	}
}

func TestCatalogManagement(t *testing.T) {
	env := newTestEnv(t, nil)
	token := login(t, env)

	added, err := call[AddKindRequest, AddKindResponse](t, env, AddKindProcedure, token, &AddKindRequest{Label: "Cave"})
	require.NoError(t, err)
	assert.Equal(t, "Cave", added.Kind.Label)

	restricted, err := call[SetRowRestrictionRequest, SetRowRestrictionResponse](t, env, SetRowRestrictionProcedure, token,
		&SetRowRestrictionRequest{ID: added.Kind.ID, Rows: []models.RowLabel{"I"}})
	require.NoError(t, err)
	assert.Equal(t, []models.RowLabel{"I"}, restricted.Kind.RestrictedRows)

	rows, err := call[ToggleRestrictedRowRequest, ToggleRestrictedRowResponse](t, env, ToggleRestrictedRowProcedure, token,
		&ToggleRestrictedRowRequest{ID: added.Kind.ID, Row: "H"})
	require.NoError(t, err)
	assert.Equal(t, []models.RowLabel{"I", "H"}, rows.Rows)

	removed, err := call[RemoveKindRequest, RemoveKindResponse](t, env, RemoveKindProcedure, token, &RemoveKindRequest{ID: catalog.KindLab})
	require.NoError(t, err)
	assert.False(t, removed.Removed, "built-in kinds stay")

	removed, err = call[RemoveKindRequest, RemoveKindResponse](t, env, RemoveKindProcedure, token, &RemoveKindRequest{ID: added.Kind.ID})
	require.NoError(t, err)
	assert.True(t, removed.Removed)
}

func TestSetStormTarget(t *testing.T) {
	env := newTestEnv(t, nil)
	token := login(t, env)
	target := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	resp, err := call[SetStormTargetRequest, SetStormTargetResponse](t, env, SetStormTargetProcedure, token, &SetStormTargetRequest{Target: target})
	require.NoError(t, err)
	assert.True(t, target.Equal(resp.Target))
	assert.True(t, target.Equal(*env.store.StormTarget()))

	_, err = call[SetStormTargetRequest, SetStormTargetResponse](t, env, SetStormTargetProcedure, token, &SetStormTargetRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestResetGrid(t *testing.T) {
	env := newTestEnv(t, nil)
	token := login(t, env)
	_, err := env.store.Toggle("C-3", catalog.KindTitanium, "")
	require.NoError(t, err)

	_, err = call[ResetGridRequest, ResetGridResponse](t, env, ResetGridProcedure, token, &ResetGridRequest{Confirmed: true})
	require.NoError(t, err)
	assert.Empty(t, env.store.Snapshot().Grid)
}

func TestListHouseLocations(t *testing.T) {
	houses := []models.HouseLocation{{Name: "House Ecaz", Location: "B-4", IconURL: "/Ecaz.webp"}}
	env := newTestEnv(t, fakeHouses{houses: houses})
	token := login(t, env)

	resp, err := call[ListHouseLocationsRequest, ListHouseLocationsResponse](t, env, ListHouseLocationsProcedure, token, &ListHouseLocationsRequest{})
	require.NoError(t, err)
	assert.Equal(t, houses, resp.Houses)

	failing := newTestEnv(t, fakeHouses{err: errors.New("db down")})
	_, err = call[ListHouseLocationsRequest, ListHouseLocationsResponse](t, failing, ListHouseLocationsProcedure, login(t, failing), &ListHouseLocationsRequest{})
	assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))
}
