package cmd

import (
	"context"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/config"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Reset performs the owner reset of the configured raffle. caller defaults
// to the configured owner.
func Reset(ctx context.Context, caller string) error {
	cfg := config.Get()
	if caller == "" {
		caller = cfg.OwnerAddress
	}
	if !common.IsHexAddress(caller) {
		return fmt.Errorf("caller %q is not an address", caller)
	}

	contract, closeDB, err := offlineContract(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := contract.ResetRound(ctx, cfg.RaffleID, common.HexToAddress(caller)); err != nil {
		return fmt.Errorf("failed to reset raffle %d: %w", cfg.RaffleID, err)
	}

	raffle, err := contract.GetRaffle(ctx, cfg.RaffleID)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"raffleID": raffle.ID,
		"round":    raffle.Round,
		"state":    raffle.State.String(),
	}).Info("Raffle reset")
	return nil
}
