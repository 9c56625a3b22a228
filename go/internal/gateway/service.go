package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the observer-facing gateway: WebSocket fan-out, the inbound
// bet/cash-out commands and the snapshot/history queries.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	handlers          *Handlers
	eventConsumer     *EventConsumer
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
	NATSConfig       NATSConsumerConfig
	// UseNATS selects the NATS bridge; when false the engine announces
	// straight into the connection manager (single-binary deployment).
	UseNATS bool
}

// DefaultConfig returns default configuration for the gateway.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		NATSConfig:       DefaultNATSConsumerConfig(),
		UseNATS:          false,
	}
}

// NewService creates the gateway service around a round engine.
func NewService(config Config, engine Engine) (*Service, error) {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	wsHandler := NewWebSocketHandler(connectionManager, engine)
	handlers := NewHandlers(engine)

	s := &Service{
		connectionManager: connectionManager,
		wsHandler:         wsHandler,
		handlers:          handlers,
	}

	if config.UseNATS {
		consumer, err := NewEventConsumer(connectionManager, config.NATSConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = consumer
	}

	return s, nil
}

// ConnectionManager exposes the fan-out so the engine can announce into it
// directly when NATS is not in play. Implements events.Broadcaster.
func (s *Service) ConnectionManager() *ConnectionManager {
	return s.connectionManager
}

// Start begins the gateway service and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("gateway service shutting down")
	return nil
}

// RegisterRoutes registers the HTTP routes on the mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.wsHandler.HandleObserverConnection)
	mux.HandleFunc("/ws/stats", s.wsHandler.HandleConnectionStats)
	mux.HandleFunc("/api/bets/place", s.handlers.HandlePlaceBet)
	mux.HandleFunc("/api/bets/cashout", s.handlers.HandleCashOut)
	mux.HandleFunc("/api/rounds/current", s.handlers.HandleCurrentRound)
	mux.HandleFunc("/api/rounds/history", s.handlers.HandleHistory)
	mux.HandleFunc("/api/rounds/", s.handlers.HandleRoundByID)
	log.Info().Msg("gateway routes registered")
}
