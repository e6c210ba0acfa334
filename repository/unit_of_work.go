package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork runs the raffle repositories inside one database transaction
type unitOfWork struct {
	db                 *database.DB
	tx                 pgx.Tx
	ctx                context.Context
	eventPublisher     interfaces.EventPublisher
	raffleRepo         interfaces.RaffleRepository
	entryRepo          interfaces.RaffleEntryRepository
	winnerRepo         interfaces.RaffleWinnerRepository
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
}

// UnitOfWorkFactory creates transaction-scoped units of work
type UnitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// CreateWithPublisher creates a UnitOfWork whose EventBus is eventPublisher
func (f *UnitOfWorkFactory) CreateWithPublisher(eventPublisher interfaces.EventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:             f.db,
		eventPublisher: eventPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.raffleRepo = newRaffleRepositoryWithTx(tx)
	u.entryRepo = newRaffleEntryRepositoryWithTx(tx)
	u.winnerRepo = newRaffleWinnerRepositoryWithTx(tx)
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil
	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

func (u *unitOfWork) RaffleRepository() interfaces.RaffleRepository {
	return u.raffleRepo
}

func (u *unitOfWork) RaffleEntryRepository() interfaces.RaffleEntryRepository {
	return u.entryRepo
}

func (u *unitOfWork) RaffleWinnerRepository() interfaces.RaffleWinnerRepository {
	return u.winnerRepo
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.accountRepo
}

func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.balanceHistoryRepo
}

// EventBus returns the publisher events raised inside this unit of work go to
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.eventPublisher
}
