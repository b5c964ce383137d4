package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/mapsync"
)

// pendingWarnThreshold is the queued record count reported as an error
const pendingWarnThreshold = 1000

type Status struct {
	Healthy           bool     `json:"healthy"`
	DatabaseConnected bool     `json:"database_connected"`
	NATSConnected     bool     `json:"nats_connected"`
	Load              string   `json:"sync_load"`
	Save              string   `json:"sync_save"`
	MapID             string   `json:"map_id,omitempty"`
	PendingRecords    int      `json:"pending_records"`
	Connections       int      `json:"connections"`
	Errors            []string `json:"errors"`
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Connection interface {
	IsConnected() bool
}

type SyncStatus interface {
	State() mapsync.Status
}

type Viewers interface {
	Connections() int
}

// Checker reports the health of the map server's dependencies
type Checker struct {
	db      Pinger
	nats    Connection
	sync    SyncStatus
	viewers Viewers
}

// NewChecker creates a checker. nats may be nil when events stay in process.
func NewChecker(db Pinger, nats Connection, sync SyncStatus, viewers Viewers) *Checker {
	return &Checker{db: db, nats: nats, sync: sync, viewers: viewers}
}

func (h *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy: true,
		Errors:  []string{},
	}

	// Check database connection
	if err := h.db.PingContext(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	// Check NATS connection
	if h.nats != nil {
		status.NATSConnected = h.nats.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	st := h.sync.State()
	status.Load = st.Load.String()
	status.Save = st.Save.String()
	status.PendingRecords = st.Pending
	if st.Load == mapsync.Ready {
		status.MapID = st.MapID.String()
	}
	if st.Load == mapsync.Idle && st.LastError != "" {
		status.Healthy = false
		status.Errors = append(status.Errors, "map load failed: "+st.LastError)
	} else if st.LastError != "" {
		status.Errors = append(status.Errors, "last sync error: "+st.LastError)
	}
	if st.Pending > pendingWarnThreshold {
		status.Errors = append(status.Errors, fmt.Sprintf("high pending record count: %d", st.Pending))
	}

	if h.viewers != nil {
		status.Connections = h.viewers.Connections()
	}
	return status
}

// ServeHTTP writes the status as JSON, with 503 when unhealthy
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}

// Export renders the status as Prometheus text gauges
func (h *Checker) Export(ctx context.Context) string {
	status := h.Check(ctx)

	var b strings.Builder
	gauge := func(name, help string, value int) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, value)
	}
	gauge("deepdesert_healthy", "Whether the map server is healthy", boolToInt(status.Healthy))
	gauge("deepdesert_database_connected", "Whether the database is reachable", boolToInt(status.DatabaseConnected))
	gauge("deepdesert_nats_connected", "Whether NATS is connected", boolToInt(status.NATSConnected))
	gauge("deepdesert_map_loaded", "Whether the map was loaded from the database", boolToInt(status.Load == mapsync.Ready.String()))
	gauge("deepdesert_sync_pending_records", "Records waiting to be written", status.PendingRecords)
	gauge("deepdesert_viewer_connections", "Open live map connections", status.Connections)
	return b.String()
}

// MetricsHandler serves Export over HTTP
func (h *Checker) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		if _, err := w.Write([]byte(h.Export(ctx))); err != nil {
			log.Error().Err(err).Msg("failed to write metrics response")
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
