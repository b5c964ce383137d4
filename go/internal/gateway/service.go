package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/events"
)

// Service fans map events out to WebSocket viewers
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	subscriber        events.Subscriber
}

// NewService creates a gateway fed by subscriber
func NewService(config ConnectionConfig, clock clockwork.Clock, subscriber events.Subscriber, snapshots SnapshotProvider) *Service {
	cm := NewConnectionManager(config, clock)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, snapshots),
		subscriber:        subscriber,
	}
}

// Start runs the broadcaster and the event subscription until ctx is done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting map gateway")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.connectionManager.Start(ctx)
	}()

	err := s.subscriber.Subscribe(ctx, s.connectionManager.Broadcast)
	<-done

	log.Info().Msg("map gateway stopped")
	if err != nil {
		return fmt.Errorf("map event subscription: %w", err)
	}
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
}

// Connections returns the number of connected viewers
func (s *Service) Connections() int {
	return s.connectionManager.Count()
}
