package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/config"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/infrastructure"

	log "github.com/sirupsen/logrus"
)

// Deploy creates the configured raffle if it does not exist yet
func Deploy(ctx context.Context) error {
	cfg := config.Get()

	contract, closeDB, err := offlineContract(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	raffle, deployed, err := ensureDeployed(ctx, contract, cfg)
	if err != nil {
		return fmt.Errorf("failed to deploy raffle: %w", err)
	}

	fields := log.Fields{
		"raffleID":    raffle.ID,
		"entranceFee": raffle.Config.EntranceFee,
		"interval":    raffle.Config.Interval,
		"owner":       raffle.Config.Owner.Hex(),
		"coordinator": raffle.Config.Coordinator.Hex(),
	}
	if deployed {
		log.WithFields(fields).Info("Raffle deployed")
	} else {
		log.WithFields(fields).Info("Raffle already deployed")
	}
	return nil
}

// offlineContract opens a contract for administrative commands. It has no
// randomness coordinator and its events are dropped.
func offlineContract(ctx context.Context, cfg *config.Config) (*application.RaffleContract, func(), error) {
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	return application.NewRaffleContract(uowFactory, nil, time.Now), db.Close, nil
}

// ensureDeployed returns the configured raffle, deploying it when missing
func ensureDeployed(ctx context.Context, contract *application.RaffleContract, cfg *config.Config) (*entities.Raffle, bool, error) {
	raffle, err := contract.GetRaffle(ctx, cfg.RaffleID)
	if err == nil {
		return raffle, false, nil
	}
	if entities.KindOf(err) != entities.ErrorKindNotFound {
		return nil, false, err
	}

	raffleCfg, err := cfg.RaffleConfig()
	if err != nil {
		return nil, false, err
	}
	raffle, err = contract.Deploy(ctx, raffleCfg)
	if err != nil {
		return nil, false, err
	}
	return raffle, true, nil
}
