package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionType represents the reason for a balance change
type TransactionType string

const (
	TransactionTypeRaffleWin   TransactionType = "raffle_win"
	TransactionTypeRaffleEntry TransactionType = "raffle_entry"
	TransactionTypeDeposit     TransactionType = "deposit"
)

// Account holds the withdrawable balance credited to an address
type Account struct {
	Address   common.Address `db:"address"`
	Balance   int64          `db:"balance"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// BalanceHistory tracks every balance change for audit purposes
type BalanceHistory struct {
	ID                  int64                  `db:"id"`
	Address             common.Address         `db:"address"`
	RaffleID            int64                  `db:"raffle_id"`
	BalanceBefore       int64                  `db:"balance_before"`
	BalanceAfter        int64                  `db:"balance_after"`
	ChangeAmount        int64                  `db:"change_amount"`
	TransactionType     TransactionType        `db:"transaction_type"`
	TransactionMetadata map[string]interface{} `db:"transaction_metadata"`
	CreatedAt           time.Time              `db:"created_at"`
}
