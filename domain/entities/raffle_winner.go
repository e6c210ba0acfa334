package entities

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RaffleWinner records the outcome of a resolved round
type RaffleWinner struct {
	ID          int64
	RaffleID    int64
	Round       int64
	RequestID   *big.Int
	RandomWord  *big.Int
	WinnerIndex int64
	PlayerCount int64
	Winner      common.Address
	Amount      int64
	CreatedAt   time.Time
}
