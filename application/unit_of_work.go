package application

import (
	"context"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction. It is a no-op after Commit.
	Rollback() error

	// Repository getters
	RaffleRepository() interfaces.RaffleRepository
	RaffleEntryRepository() interfaces.RaffleEntryRepository
	RaffleWinnerRepository() interfaces.RaffleWinnerRepository
	AccountRepository() interfaces.AccountRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
