package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"
)

// RaffleRepository defines the interface for raffle state persistence.
// Getters return nil, nil when the raffle does not exist.
type RaffleRepository interface {
	// Create stores a newly deployed raffle and sets its ID
	Create(ctx context.Context, raffle *entities.Raffle) error

	// GetByID retrieves a raffle without locking it
	GetByID(ctx context.Context, id int64) (*entities.Raffle, error)

	// GetByIDForUpdate retrieves a raffle and holds a row lock until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Raffle, error)

	// Update persists the live round state. Configuration columns are never written.
	Update(ctx context.Context, raffle *entities.Raffle) error

	// ListIDs returns the IDs of every deployed raffle
	ListIDs(ctx context.Context) ([]int64, error)
}

// RaffleEntryRepository defines the interface for the ordered participant list
type RaffleEntryRepository interface {
	// Create appends an entry to a round
	Create(ctx context.Context, entry *entities.RaffleEntry) error

	// GetBySlot returns the entry at slot in the given round, or nil
	GetBySlot(ctx context.Context, raffleID, round, slot int64) (*entities.RaffleEntry, error)

	// GetByRound returns all entries of a round ordered by slot
	GetByRound(ctx context.Context, raffleID, round int64) ([]*entities.RaffleEntry, error)
}

// RaffleWinnerRepository defines the interface for resolved round history
type RaffleWinnerRepository interface {
	Create(ctx context.Context, winner *entities.RaffleWinner) error
	GetRecentByRaffle(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error)
}

// AccountRepository defines the interface for payout account balances
type AccountRepository interface {
	// GetOrCreate returns the account for addr, creating it with a zero balance
	GetOrCreate(ctx context.Context, addr common.Address) (*entities.Account, error)

	UpdateBalance(ctx context.Context, addr common.Address, newBalance int64) error
}

// BalanceHistoryRepository defines the interface for balance audit records
type BalanceHistoryRepository interface {
	Record(ctx context.Context, history *entities.BalanceHistory) error
	GetByAddress(ctx context.Context, addr common.Address, limit int) ([]*entities.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}
