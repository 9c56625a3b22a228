package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Broadcaster fans round events out to observers. Implementations do not
// retry individual deliveries; a disconnected observer catches up through
// the snapshot endpoint.
type Broadcaster interface {
	Announce(event *Event)
}

// NATSPublisherConfig holds connection settings for the NATS bridge.
type NATSPublisherConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSPublisherConfig returns defaults matching the gateway consumer.
func DefaultNATSPublisherConfig() NATSPublisherConfig {
	return NATSPublisherConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "crash.rounds",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher publishes round events to NATS so the gateway (and any other
// consumer) can run as a separate process from the engine.
type NATSPublisher struct {
	nc     *nats.Conn
	config NATSPublisherConfig
}

func NewNATSPublisher(config NATSPublisherConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, config: config}, nil
}

// Announce publishes the event on <prefix>.<type>. Failures are logged, not
// retried: the engine's authoritative state never depends on delivery.
func (p *NATSPublisher) Announce(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to marshal event")
		return
	}

	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, event.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		log.Error().
			Err(err).
			Str("subject", subject).
			Str("round_id", event.RoundID).
			Msg("failed to publish event")
	}
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}

// FanoutBroadcaster announces one event to several broadcasters, e.g. the
// in-process WebSocket manager plus the NATS bridge.
type FanoutBroadcaster []Broadcaster

func (f FanoutBroadcaster) Announce(event *Event) {
	for _, b := range f {
		b.Announce(event)
	}
}

// NopBroadcaster drops events.
type NopBroadcaster struct{}

func (NopBroadcaster) Announce(event *Event) {}
