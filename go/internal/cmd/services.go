package main

import (
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/auth"
	"github.com/mcdev12/deepdesert/go/internal/countdown"
	"github.com/mcdev12/deepdesert/go/internal/events"
	"github.com/mcdev12/deepdesert/go/internal/gateway"
	"github.com/mcdev12/deepdesert/go/internal/health"
	"github.com/mcdev12/deepdesert/go/internal/mapservice"
	"github.com/mcdev12/deepdesert/go/internal/mapstate"
	"github.com/mcdev12/deepdesert/go/internal/mapsync"
	"github.com/mcdev12/deepdesert/go/internal/remote"
	remotedb "github.com/mcdev12/deepdesert/go/internal/remote/db"
)

type Services struct {
	Store   *mapstate.Store
	Timer   *countdown.Timer
	Syncer  *mapsync.Syncer
	Auth    *auth.Authenticator
	Bridge  *events.Bridge
	Map     *mapservice.Service
	Gateway *gateway.Service
	Health  *health.Checker

	nats *events.NATSBus
}

type eventBus interface {
	events.Publisher
	events.Subscriber
}

func setupServices(config *Config, database *sql.DB) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()

	syncCfg, err := config.syncConfig()
	if err != nil {
		return nil, err
	}
	policy := remote.LastWriteWins
	if syncCfg.Mode == mapsync.ModeDurable {
		policy = remote.NewerWins
	}

	queries := remotedb.New(database)
	repo := remote.NewRepository(queries, database, policy)

	store := mapstate.NewStore(clock)
	timer := countdown.NewTimer(clock)
	syncer := mapsync.NewSyncer(store, repo, clock, syncCfg)

	managers, err := config.managers()
	if err != nil {
		return nil, err
	}
	if len(managers) == 0 {
		log.Warn().Msg("no managers configured, manage procedures are unreachable")
	}
	authenticator := auth.NewAuthenticator(clock, config.Auth.SessionTTL, managers...)

	services := &Services{
		Store:  store,
		Timer:  timer,
		Syncer: syncer,
		Auth:   authenticator,
	}

	var bus eventBus
	if config.NATS.URL != "" {
		natsCfg := events.DefaultNATSConfig()
		natsCfg.URL = config.NATS.URL
		if config.NATS.SubjectPrefix != "" {
			natsCfg.SubjectPrefix = config.NATS.SubjectPrefix
		}
		natsCfg.Stream = config.NATS.Stream
		if config.NATS.StreamMaxAge > 0 {
			natsCfg.StreamMaxAge = config.NATS.StreamMaxAge
		}
		natsBus, err := events.ConnectNATS(natsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up event bus: %w", err)
		}
		services.nats = natsBus
		bus = natsBus
	} else {
		log.Info().Msg("NATS not configured, delivering map events in process")
		bus = events.NewLocalBus()
	}

	services.Bridge = events.NewBridge(store, timer, bus)
	services.Gateway = gateway.NewService(gateway.DefaultConnectionConfig(), clock, bus, services.Bridge)
	services.Map = mapservice.NewService(store, timer, authenticator, repo, syncer)

	var natsConn health.Connection
	if services.nats != nil {
		natsConn = services.nats
	}
	services.Health = health.NewChecker(database, natsConn, syncer, services.Gateway)

	return services, nil
}

// Close releases connections held by the services
func (s *Services) Close() {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close NATS connection")
		}
	}
}
