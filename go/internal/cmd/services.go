package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/aviator/go/internal/crashpoint"
	"github.com/mcdev12/aviator/go/internal/events"
	"github.com/mcdev12/aviator/go/internal/gateway"
	"github.com/mcdev12/aviator/go/internal/ledger"
	"github.com/mcdev12/aviator/go/internal/round"
)

type Services struct {
	Ledger    *ledger.App
	Scheduler *round.Scheduler
	Gateway   *gateway.Service
	Publisher *events.NATSPublisher
}

// setupServices wires the dependency chain: stores -> ledger -> scheduler ->
// gateway, with the broadcaster selected by the NATS setting.
func setupServices(config *Config, pool *pgxpool.Pool) (*Services, error) {
	var accountStore ledger.AccountStore
	var roundStore round.Store
	if pool != nil {
		accountStore = ledger.NewPostgresStore(pool)
		roundStore = round.NewPostgresStore(pool)
	} else {
		accountStore = ledger.NewMemoryStore()
		roundStore = round.NewMemoryStore()
	}

	ledgerApp := ledger.NewApp(accountStore)
	generator := crashpoint.NewRandomGenerator()

	curve, err := buildCurve(config)
	if err != nil {
		return nil, err
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.UseNATS = config.NATS.Enabled
	gatewayConfig.NATSConfig.URL = config.NATS.URL

	services := &Services{Ledger: ledgerApp}

	// With NATS the engine publishes to the bus and the gateway's consumer
	// bridges events onto the sockets; without it the engine announces
	// straight into the connection manager.
	var broadcaster events.Broadcaster
	if config.NATS.Enabled {
		publisherConfig := events.DefaultNATSPublisherConfig()
		publisherConfig.URL = config.NATS.URL
		publisher, err := events.NewNATSPublisher(publisherConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		services.Publisher = publisher
		broadcaster = publisher
	}

	scheduler := round.NewScheduler(
		config.Round,
		clockwork.NewRealClock(),
		generator,
		ledgerApp,
		roundStore,
		events.NopBroadcaster{}, // replaced below once the gateway exists
		curve,
	)

	gatewayService, err := gateway.NewService(gatewayConfig, scheduler)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	services.Gateway = gatewayService

	if broadcaster == nil {
		broadcaster = gatewayService.ConnectionManager()
	}
	scheduler.SetBroadcaster(broadcaster)
	services.Scheduler = scheduler

	return services, nil
}

func buildCurve(config *Config) (round.Curve, error) {
	switch config.Curve {
	case "", "step":
		step, err := decimal.NewFromString(config.Step)
		if err != nil || !step.IsPositive() {
			return nil, fmt.Errorf("invalid step %q", config.Step)
		}
		return round.StepCurve{Step: step, Interval: config.Round.TickInterval}, nil
	case "expo":
		if config.ExpoRate <= 0 {
			return nil, fmt.Errorf("invalid expo rate %v", config.ExpoRate)
		}
		return round.ExpoCurve{Rate: config.ExpoRate}, nil
	default:
		return nil, fmt.Errorf("unknown curve %q", config.Curve)
	}
}
