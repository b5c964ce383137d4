package mapservice

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Procedure paths of the map service
const (
	GetMapProcedure              = "/" + ServiceName + "/GetMap"
	GetCellProcedure             = "/" + ServiceName + "/GetCell"
	LoginProcedure               = "/" + ServiceName + "/Login"
	LogoutProcedure              = "/" + ServiceName + "/Logout"
	SessionProcedure             = "/" + ServiceName + "/Session"
	GetManageCellProcedure       = "/" + ServiceName + "/GetManageCell"
	ToggleSelectionProcedure     = "/" + ServiceName + "/ToggleSelection"
	HouseOptionsProcedure        = "/" + ServiceName + "/HouseOptions"
	AddKindProcedure             = "/" + ServiceName + "/AddKind"
	RemoveKindProcedure          = "/" + ServiceName + "/RemoveKind"
	SetRowRestrictionProcedure   = "/" + ServiceName + "/SetRowRestriction"
	ToggleRestrictedRowProcedure = "/" + ServiceName + "/ToggleRestrictedRow"
	ResetGridProcedure           = "/" + ServiceName + "/ResetGrid"
	SetStormTargetProcedure      = "/" + ServiceName + "/SetStormTarget"
	ListHouseLocationsProcedure  = "/" + ServiceName + "/ListHouseLocations"
)

var publicProcedures = map[string]bool{
	GetMapProcedure:  true,
	GetCellProcedure: true,
	LoginProcedure:   true,
	LogoutProcedure:  true,
	SessionProcedure: true,
}

// IsManageProcedure reports whether a procedure requires a manager session
func IsManageProcedure(procedure string) bool {
	return !publicProcedures[procedure]
}

// CodecOption returns the option every map service handler and client needs
func CodecOption() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

// NewHandler builds an HTTP handler serving every procedure, in the shape
// of a generated Connect service handler
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{CodecOption()}, opts...)
	mux := http.NewServeMux()

	mux.Handle(GetMapProcedure, connect.NewUnaryHandler(GetMapProcedure, svc.GetMap, opts...))
	mux.Handle(GetCellProcedure, connect.NewUnaryHandler(GetCellProcedure, svc.GetCell, opts...))
	mux.Handle(LoginProcedure, connect.NewUnaryHandler(LoginProcedure, svc.Login, opts...))
	mux.Handle(LogoutProcedure, connect.NewUnaryHandler(LogoutProcedure, svc.Logout, opts...))
	mux.Handle(SessionProcedure, connect.NewUnaryHandler(SessionProcedure, svc.Session, opts...))
	mux.Handle(GetManageCellProcedure, connect.NewUnaryHandler(GetManageCellProcedure, svc.GetManageCell, opts...))
	mux.Handle(ToggleSelectionProcedure, connect.NewUnaryHandler(ToggleSelectionProcedure, svc.ToggleSelection, opts...))
	mux.Handle(HouseOptionsProcedure, connect.NewUnaryHandler(HouseOptionsProcedure, svc.HouseOptions, opts...))
	mux.Handle(AddKindProcedure, connect.NewUnaryHandler(AddKindProcedure, svc.AddKind, opts...))
	mux.Handle(RemoveKindProcedure, connect.NewUnaryHandler(RemoveKindProcedure, svc.RemoveKind, opts...))
	mux.Handle(SetRowRestrictionProcedure, connect.NewUnaryHandler(SetRowRestrictionProcedure, svc.SetRowRestriction, opts...))
	mux.Handle(ToggleRestrictedRowProcedure, connect.NewUnaryHandler(ToggleRestrictedRowProcedure, svc.ToggleRestrictedRow, opts...))
	mux.Handle(ResetGridProcedure, connect.NewUnaryHandler(ResetGridProcedure, svc.ResetGrid, opts...))
	mux.Handle(SetStormTargetProcedure, connect.NewUnaryHandler(SetStormTargetProcedure, svc.SetStormTarget, opts...))
	mux.Handle(ListHouseLocationsProcedure, connect.NewUnaryHandler(ListHouseLocationsProcedure, svc.ListHouseLocations, opts...))

	return "/" + ServiceName + "/", mux
}

// Client calls the map service over Connect
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

// NewClient creates a client for the service at baseURL
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		opts:       append([]connect.ClientOption{CodecOption()}, opts...),
	}
}

// Call invokes one unary procedure
func Call[Req, Res any](ctx context.Context, c *Client, procedure string, req *connect.Request[Req]) (*connect.Response[Res], error) {
	return connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...).CallUnary(ctx, req)
}
