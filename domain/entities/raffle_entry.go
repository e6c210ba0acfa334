package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RaffleEntry is a single paid slot in a round
type RaffleEntry struct {
	ID        int64          `db:"id"`
	RaffleID  int64          `db:"raffle_id"`
	Round     int64          `db:"round"`
	Slot      int64          `db:"slot"` // insertion order within the round, starting at 0
	Player    common.Address `db:"player"`
	Amount    int64          `db:"amount"`
	EnteredAt time.Time      `db:"entered_at"`
}
