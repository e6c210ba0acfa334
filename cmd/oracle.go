package cmd

import (
	"context"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/config"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/infrastructure"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/infrastructure/observability"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/vrf"

	log "github.com/sirupsen/logrus"
)

// Oracle runs the randomness oracle, answering requests published on NATS
func Oracle(ctx context.Context) error {
	cfg := config.Get()
	if cfg.OraclePrivateKey == "" {
		return fmt.Errorf("ORACLE_PRIVATE_KEY is required")
	}

	oracle, err := vrf.NewOracleFromHex(cfg.OraclePrivateKey)
	if err != nil {
		return err
	}

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	client := infrastructure.NewNATSClient("raffle-oracle", cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer client.Close()

	if err := infrastructure.EnsureVRFStream(client); err != nil {
		return fmt.Errorf("failed to ensure vrf stream: %w", err)
	}

	if err := infrastructure.NewNATSOracle(client, oracle).Start(); err != nil {
		return fmt.Errorf("failed to start oracle: %w", err)
	}

	log.WithField("address", oracle.Address().Hex()).Info("Randomness oracle is running")
	<-ctx.Done()

	log.Info("Shutting down randomness oracle...")
	if err := observability.ShutdownGlobalMetrics(context.Background()); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}
	return nil
}
