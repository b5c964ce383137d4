package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// SubjectPrefix is prepended to the event type to form the NATS subject
const SubjectPrefix = "deepdesert.map.events"

// NATSConfig holds connection settings for the NATS bus
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration

	// Stream, when set, persists published events in a JetStream stream
	// so late subscribers can replay them
	Stream       string
	StreamMaxAge time.Duration
}

// DefaultNATSConfig returns default NATS settings
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: SubjectPrefix,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		StreamMaxAge:  24 * time.Hour,
	}
}

// NATSBus publishes and subscribes to map events over core NATS
type NATSBus struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
}

// ConnectNATS dials the NATS server
func ConnectNATS(config NATSConfig) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("deepdesert-map"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	prefix := config.SubjectPrefix
	if prefix == "" {
		prefix = SubjectPrefix
	}

	bus := &NATSBus{nc: nc, prefix: prefix}
	if config.Stream != "" {
		if err := bus.setupStream(config); err != nil {
			nc.Close()
			return nil, err
		}
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("prefix", prefix).Str("stream", config.Stream).Msg("connected to NATS")
	return bus, nil
}

func (b *NATSBus) setupStream(config NATSConfig) error {
	js, err := jetstream.New(b.nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     config.Stream,
		Subjects: []string{b.prefix + ".>"},
		MaxAge:   config.StreamMaxAge,
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", config.Stream, err)
	}
	b.js = js
	return nil
}

// Subject returns the subject an event type is published on
func (b *NATSBus) Subject(t EventType) string {
	return Subject(b.prefix, t)
}

// Subject joins a prefix and an event type
func Subject(prefix string, t EventType) string {
	return prefix + "." + string(t)
}

// Publish sends the event on its type's subject
func (b *NATSBus) Publish(ctx context.Context, event *MapEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if b.js != nil {
		if _, err := b.js.Publish(ctx, b.Subject(event.Type), data, jetstream.WithMsgID(event.ID)); err != nil {
			return fmt.Errorf("publish %s to stream: %w", event.Type, err)
		}
		return nil
	}
	if err := b.nc.Publish(b.Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Subscribe delivers every map event to handler until ctx is done
func (b *NATSBus) Subscribe(ctx context.Context, handler func(*MapEvent)) error {
	sub, err := b.nc.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		var event MapEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal map event")
			return
		}
		handler(&event)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s.>: %w", b.prefix, err)
	}

	log.Info().Str("subject", sub.Subject).Msg("subscribed to map events")
	<-ctx.Done()

	if err := sub.Unsubscribe(); err != nil {
		log.Warn().Err(err).Msg("failed to unsubscribe from map events")
	}
	return nil
}

// Close drains and closes the connection
func (b *NATSBus) Close() error {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

// IsConnected reports whether the NATS connection is up
func (b *NATSBus) IsConnected() bool {
	return b.nc.IsConnected()
}
