package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/config"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Deposit credits amount to the account of address so it can pay for entries
func Deposit(ctx context.Context, address, amount string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("address %q is not an address", address)
	}
	value, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	cfg := config.Get()
	contract, closeDB, err := offlineContract(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	account, err := contract.Deposit(ctx, common.HexToAddress(address), value)
	if err != nil {
		return fmt.Errorf("failed to deposit to %s: %w", address, err)
	}

	log.WithFields(log.Fields{
		"address": account.Address.Hex(),
		"amount":  value,
		"balance": account.Balance,
	}).Info("Deposit credited")
	return nil
}
