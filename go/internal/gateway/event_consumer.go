package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/aviator/go/internal/events"
)

// NATSConsumerConfig holds configuration for the NATS consumer.
type NATSConsumerConfig struct {
	URL           string
	SubjectFilter string // e.g. "crash.rounds.>"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConsumerConfig returns defaults matching the engine publisher.
func DefaultNATSConsumerConfig() NATSConsumerConfig {
	return NATSConsumerConfig{
		URL:           nats.DefaultURL,
		SubjectFilter: "crash.rounds.>",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// EventConsumer subscribes to round events on NATS and hands them to the
// connection manager for WebSocket fan-out. It lets the gateway run as a
// separate process from the engine. Delivery stays at-least-once: a gateway
// reconnect simply misses events until observers re-sync via snapshot.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	sub               *nats.Subscription
	config            NATSConsumerConfig
}

// NewEventConsumer connects to NATS and prepares the subscription.
func NewEventConsumer(cm *ConnectionManager, config NATSConsumerConfig) (*EventConsumer, error) {
	opts := []nats.Option{
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

	return &EventConsumer{
		connectionManager: cm,
		nc:                nc,
		config:            config,
	}, nil
}

// Start subscribes and forwards events until ctx is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	sub, err := ec.nc.Subscribe(ec.config.SubjectFilter, ec.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", ec.config.SubjectFilter, err)
	}
	ec.sub = sub

	log.Info().
		Str("subject", ec.config.SubjectFilter).
		Msg("event consumer started")

	<-ctx.Done()
	return ec.Stop()
}

func (ec *EventConsumer) handleMessage(msg *nats.Msg) {
	var event events.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error().
			Err(err).
			Str("subject", msg.Subject).
			Msg("failed to unmarshal event")
		return
	}
	ec.connectionManager.Announce(&event)
}

// Stop unsubscribes and drains the connection.
func (ec *EventConsumer) Stop() error {
	if ec.sub != nil {
		if err := ec.sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe")
		}
	}
	if err := ec.nc.Drain(); err != nil {
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
