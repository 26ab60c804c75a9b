package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/clients"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/config"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/db"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/events"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/registry"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/relay"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/repository"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/services"
)

// ServiceContainer wires the whole application together: database,
// repositories, the capability-guarded relay, the proof registry and the
// bridge orchestrator with its delivery fan-out.
type ServiceContainer struct {
	Config *config.Config
	DB     *gorm.DB

	// Repositories
	TxRepo          repository.BridgeTransactionRepository
	EventRepo       repository.TransactionEventRepository
	ProofRecordRepo repository.ProofRecordRepository

	// Relay capabilities. The admin and relayer handles gate the
	// privileged API surfaces; the operator handle serves reads.
	RelayAdmin    relay.AdminCap
	RelayRelayer  relay.RelayerCap
	RelayOperator relay.OperatorCap

	Registry     *registry.Registry
	Orchestrator *services.BridgeOrchestrator
	PushService  *services.WebSocketPushService
	NATS         *events.NATSPublisher

	log *logrus.Entry
}

// Initialize builds the full service graph from configuration.
func Initialize(cfg *config.Config) (*ServiceContainer, error) {
	c := &ServiceContainer{
		Config: cfg,
		log:    logrus.WithField("service", "app"),
	}

	database, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	c.DB = database

	c.TxRepo = repository.NewBridgeTransactionRepository(database)
	c.EventRepo = repository.NewTransactionEventRepository(database)
	c.ProofRecordRepo = repository.NewProofRecordRepository(database)

	if err := c.initRelay(); err != nil {
		return nil, err
	}
	if err := c.initRegistry(); err != nil {
		return nil, err
	}
	if err := c.initOrchestrator(); err != nil {
		return nil, err
	}

	c.log.Info("Service container initialized")
	return c, nil
}

// initRelay anchors the header relay on the persisted header store, so a
// restart resumes from the last appended header.
func (c *ServiceContainer) initRelay() error {
	store := repository.NewHeaderStore(c.DB)
	_, admin, relayer, operator, err := relay.New(
		store,
		c.Config.GenesisHash(),
		c.Config.Relay.GenesisTimestamp,
		relay.WithMaxFutureDrift(time.Duration(c.Config.Relay.MaxFutureDriftSeconds)*time.Second),
		relay.WithEmergencyCooldown(time.Duration(c.Config.Relay.EmergencyCooldownSeconds)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize header relay: %w", err)
	}
	c.RelayAdmin = admin
	c.RelayRelayer = relayer
	c.RelayOperator = operator
	return nil
}

func (c *ServiceContainer) initRegistry() error {
	verifier := clients.NewVerifierClient(c.Config.Verifier.BaseURL, c.Config.VerifierTimeout())
	c.Registry = registry.New(verifier,
		registry.WithCooldown(time.Duration(c.Config.Registry.CooldownSeconds)*time.Second),
		registry.WithVerificationTimeout(time.Duration(c.Config.Registry.VerificationTimeoutSeconds)*time.Second),
		registry.WithMaxBatchSize(c.Config.Registry.MaxBatchSize),
		registry.WithRecordSink(c.ProofRecordRepo),
	)

	for _, circuit := range c.Config.Registry.Circuits {
		if err := c.Registry.RegisterCircuit(registry.CircuitConfig{
			CircuitID:          circuit.CircuitID,
			VerificationKeyRef: circuit.VerificationKeyRef,
			MaxPublicInputs:    circuit.MaxPublicInputs,
			ExpectedProofSize:  circuit.ExpectedProofSize,
			Active:             circuit.Active,
		}); err != nil {
			return fmt.Errorf("failed to register circuit %s: %w", circuit.CircuitID, err)
		}
	}
	return nil
}

func (c *ServiceContainer) initOrchestrator() error {
	chain := clients.NewChainClient(c.Config.Chain.BaseURL, c.Config.ChainTimeout())
	prover := clients.NewProverClient(c.Config.Prover.BaseURL, c.Config.ProverTimeout())

	c.PushService = services.NewWebSocketPushService()
	opts := []services.OrchestratorOption{
		services.WithConfirmationThreshold(c.Config.Bridge.ConfirmationThreshold),
		services.WithPollInterval(c.Config.PollInterval()),
		services.WithNotifier(c.PushService),
	}

	if c.Config.NATS.Enabled && c.Config.NATS.URL != "" {
		publisher, err := events.NewNATSPublisher(c.Config.NATS.URL)
		if err != nil {
			return err
		}
		c.NATS = publisher
		opts = append(opts, services.WithNotifier(publisher))
	}

	c.Orchestrator = services.NewBridgeOrchestrator(
		c.TxRepo, c.EventRepo, chain, prover,
		c.Registry, c.RelayOperator,
		c.Config.Bridge.CircuitID,
		opts...,
	)
	return nil
}

// Start launches the background services.
func (c *ServiceContainer) Start() {
	c.Orchestrator.Start()
}

// Stop shuts the background services down in reverse dependency order.
func (c *ServiceContainer) Stop() {
	c.Orchestrator.Stop()
	c.PushService.Stop()
	if c.NATS != nil {
		c.NATS.Close()
	}
	c.log.Info("Service container stopped")
}
