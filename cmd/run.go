package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/api"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/bot"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/config"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/infrastructure"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/infrastructure/observability"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/vrf"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

const serviceName = "raffle-service"

// Run initializes and starts the raffle service
func Run(ctx context.Context) error {
	log.Info("Starting raffle service...")

	cfg := config.Get()

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	log.Info("Running database migrations...")
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Randomness transport: NATS oracle in production, in-process mock for local development
	var (
		coordinator interfaces.RandomnessCoordinator
		natsClient  *infrastructure.NATSClient
		mock        *vrf.MockCoordinator
		transport   infrastructure.MessagePublisher
	)
	if cfg.UseMockCoordinator {
		mock = vrf.NewMockCoordinator(common.HexToAddress(cfg.CoordinatorAddress), 0)
		coordinator = mock
		log.WithField("coordinator", mock.Address().Hex()).Warn("Using in-process mock randomness coordinator")
	} else {
		natsClient = infrastructure.NewNATSClient(serviceName, cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		if err := infrastructure.EnsureVRFStream(natsClient); err != nil {
			return fmt.Errorf("failed to ensure vrf stream: %w", err)
		}
		coordinator = infrastructure.NewNATSCoordinator(natsClient)
		transport = natsClient
	}

	// Event publisher: NATS when connected, local handlers always
	subjectMapper := infrastructure.NewEventSubjectMapper()
	if natsClient != nil {
		if err := infrastructure.EnsureRaffleEventStream(natsClient, subjectMapper); err != nil {
			return fmt.Errorf("failed to ensure raffle event stream: %w", err)
		}
	}
	publisher := infrastructure.NewNATSEventPublisher(transport, subjectMapper, serviceName)
	publisher.RegisterAllEventsHandler(observability.GetMetrics().HandleEvent)

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	contract := application.NewRaffleContract(uowFactory, coordinator, time.Now)

	if mock != nil {
		mock.SetConsumer(contract)
		if err := setupMockSubscription(mock, cfg); err != nil {
			return err
		}
		raffle, deployed, err := ensureDeployed(ctx, contract, cfg)
		if err != nil {
			return fmt.Errorf("failed to deploy local raffle: %w", err)
		}
		if deployed {
			log.WithField("raffleID", raffle.ID).Info("Deployed local raffle")
		}
	} else if nc, ok := coordinator.(*infrastructure.NATSCoordinator); ok {
		if err := nc.SubscribeFulfillments(contract); err != nil {
			return fmt.Errorf("failed to subscribe to fulfillments: %w", err)
		}
	}

	// Discord announcements
	var discordBot *bot.Bot
	if cfg.DiscordToken != "" {
		log.Info("Initializing Discord bot...")
		discordBot, err = bot.New(bot.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.RaffleChannelID,
		}, contract)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		publisher.RegisterAllEventsHandler(discordBot.Announcer().HandleEvent)
	}

	// Automation
	worker := application.NewUpkeepWorker(contract, cfg.UpkeepPollInterval, observability.GetMetrics())
	stopWorker := worker.Start(ctx)

	// HTTP API
	var (
		fulfiller api.Fulfiller
		faucet    api.Faucet
	)
	if mock != nil {
		fulfiller = mock
		faucet = contract
	}
	server := api.NewServer(api.NewAPIHandler(contract, fulfiller, faucet), cfg.APIListenAddr)
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.APIListenAddr).Info("API server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.WithField("environment", cfg.Environment).Info("Raffle service is running")
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.WithError(err).Error("API server failed")
	}

	log.Info("Shutting down raffle service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down API server")
	}
	stopWorker()

	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord bot")
		}
	}

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

// setupMockSubscription creates and funds the local subscription and registers
// the configured raffle as its consumer
func setupMockSubscription(mock *vrf.MockCoordinator, cfg *config.Config) error {
	subID := mock.CreateSubscription()
	if err := mock.FundSubscription(subID, 1_000_000); err != nil {
		return fmt.Errorf("failed to fund mock subscription: %w", err)
	}
	if err := mock.AddConsumer(subID, cfg.RaffleID); err != nil {
		return fmt.Errorf("failed to add mock consumer: %w", err)
	}
	if subID.String() != cfg.SubscriptionID {
		log.WithFields(log.Fields{
			"mockSubscriptionID":       subID.String(),
			"configuredSubscriptionID": cfg.SubscriptionID,
		}).Warn("Configured subscription does not match the mock subscription, draws will fail")
	}
	return nil
}
