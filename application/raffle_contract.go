package application

import (
	"context"
	"fmt"
	"math/big"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/services"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// RaffleContract runs every raffle operation in its own unit of work.
// Mutations commit atomically with their events; queries always roll back.
type RaffleContract struct {
	uowFactory  UnitOfWorkFactory
	coordinator interfaces.RandomnessCoordinator
	clock       interfaces.Clock
}

// NewRaffleContract creates a new raffle contract. A nil clock defaults to time.Now.
func NewRaffleContract(uowFactory UnitOfWorkFactory, coordinator interfaces.RandomnessCoordinator, clock interfaces.Clock) *RaffleContract {
	return &RaffleContract{
		uowFactory:  uowFactory,
		coordinator: coordinator,
		clock:       clock,
	}
}

// Authorization is a caller identity proven by a signature over one raffle
// round as it stood when signed. It is rejected once the round or its player
// count has moved on, so a signature authorizes a single call.
type Authorization struct {
	Caller      common.Address
	Round       int64
	PlayerCount int64
}

// AccountView is an account balance with its most recent changes
type AccountView struct {
	Account *entities.Account
	History []*entities.BalanceHistory
}

// Deploy creates a raffle from its construction parameters
func (c *RaffleContract) Deploy(ctx context.Context, cfg entities.RaffleConfig) (*entities.Raffle, error) {
	var raffle *entities.Raffle
	err := c.mutate(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		raffle, err = svc.Deploy(ctx, cfg)
		return err
	})
	return raffle, err
}

// Enter appends caller to the current round
func (c *RaffleContract) Enter(ctx context.Context, raffleID int64, caller common.Address, amount int64) (*entities.RaffleEntry, error) {
	var entry *entities.RaffleEntry
	err := c.mutate(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		entry, err = svc.Enter(ctx, raffleID, caller, amount)
		return err
	})
	return entry, err
}

// EnterAuthorized is Enter for a caller whose signature pins the round and slot
func (c *RaffleContract) EnterAuthorized(ctx context.Context, raffleID int64, auth Authorization, amount int64) (*entities.RaffleEntry, error) {
	var entry *entities.RaffleEntry
	err := c.mutate(ctx, func(svc interfaces.RaffleService, uow UnitOfWork) error {
		if err := checkAuthorization(ctx, uow, raffleID, auth); err != nil {
			return err
		}
		var err error
		entry, err = svc.Enter(ctx, raffleID, auth.Caller, amount)
		return err
	})
	return entry, err
}

// Deposit credits amount to the account of addr
func (c *RaffleContract) Deposit(ctx context.Context, addr common.Address, amount int64) (*entities.Account, error) {
	var account *entities.Account
	err := c.mutate(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		account, err = svc.Deposit(ctx, addr, amount)
		return err
	})
	return account, err
}

// CheckUpkeep reports whether a draw is due
func (c *RaffleContract) CheckUpkeep(ctx context.Context, raffleID int64, checkData []byte) (bool, []byte, error) {
	var (
		needed      bool
		performData []byte
	)
	err := c.query(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		needed, performData, err = svc.CheckUpkeep(ctx, raffleID, checkData)
		return err
	})
	return needed, performData, err
}

// PerformUpkeep closes entry and requests randomness
func (c *RaffleContract) PerformUpkeep(ctx context.Context, raffleID int64, performData []byte) (*big.Int, error) {
	var requestID *big.Int
	err := c.mutate(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		requestID, err = svc.PerformUpkeep(ctx, raffleID, performData)
		return err
	})
	return requestID, err
}

// FulfillRandomWords resolves the outstanding draw. It implements RandomnessConsumer.
func (c *RaffleContract) FulfillRandomWords(ctx context.Context, fulfillment *entities.RandomWordsFulfillment) error {
	return c.mutate(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		_, err := svc.FulfillRandomWords(ctx, fulfillment)
		return err
	})
}

// ResetRound forces the raffle back to an empty open round. Owner only.
func (c *RaffleContract) ResetRound(ctx context.Context, raffleID int64, caller common.Address) error {
	return c.mutate(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		return svc.ResetRound(ctx, raffleID, caller)
	})
}

// ResetRoundAuthorized is ResetRound for a caller whose signature pins the round
func (c *RaffleContract) ResetRoundAuthorized(ctx context.Context, raffleID int64, auth Authorization) error {
	return c.mutate(ctx, func(svc interfaces.RaffleService, uow UnitOfWork) error {
		if err := checkAuthorization(ctx, uow, raffleID, auth); err != nil {
			return err
		}
		return svc.ResetRound(ctx, raffleID, auth.Caller)
	})
}

func (c *RaffleContract) GetRaffle(ctx context.Context, raffleID int64) (*entities.Raffle, error) {
	var raffle *entities.Raffle
	err := c.query(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		raffle, err = svc.GetRaffle(ctx, raffleID)
		return err
	})
	return raffle, err
}

func (c *RaffleContract) GetPlayer(ctx context.Context, raffleID, index int64) (common.Address, error) {
	var player common.Address
	err := c.query(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		player, err = svc.GetPlayer(ctx, raffleID, index)
		return err
	})
	return player, err
}

func (c *RaffleContract) GetPlayers(ctx context.Context, raffleID int64) ([]*entities.RaffleEntry, error) {
	var entries []*entities.RaffleEntry
	err := c.query(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		entries, err = svc.GetPlayers(ctx, raffleID)
		return err
	})
	return entries, err
}

func (c *RaffleContract) GetRecentWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	var winners []*entities.RaffleWinner
	err := c.query(ctx, func(svc interfaces.RaffleService, _ UnitOfWork) error {
		var err error
		winners, err = svc.GetRecentWinners(ctx, raffleID, limit)
		return err
	})
	return winners, err
}

// ListRaffleIDs returns the IDs of every deployed raffle
func (c *RaffleContract) ListRaffleIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := c.query(ctx, func(_ interfaces.RaffleService, uow UnitOfWork) error {
		var err error
		ids, err = uow.RaffleRepository().ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list raffles: %w", err)
		}
		return nil
	})
	return ids, err
}

// GetAccount returns the credited balance of addr and its latest history
func (c *RaffleContract) GetAccount(ctx context.Context, addr common.Address, historyLimit int) (*AccountView, error) {
	view := &AccountView{}
	err := c.query(ctx, func(_ interfaces.RaffleService, uow UnitOfWork) error {
		account, err := uow.AccountRepository().GetOrCreate(ctx, addr)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		history, err := uow.BalanceHistoryRepository().GetByAddress(ctx, addr, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to get balance history: %w", err)
		}
		view.Account = account
		view.History = history
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// checkAuthorization locks the raffle and compares it with the signed snapshot.
// The lock is held until the unit of work ends, so the check cannot go stale.
func checkAuthorization(ctx context.Context, uow UnitOfWork, raffleID int64, auth Authorization) error {
	raffle, err := uow.RaffleRepository().GetByIDForUpdate(ctx, raffleID)
	if err != nil {
		return fmt.Errorf("failed to lock raffle: %w", err)
	}
	if raffle == nil {
		return fmt.Errorf("%w: %d", entities.ErrRaffleNotFound, raffleID)
	}
	if raffle.Round != auth.Round || raffle.PlayerCount != auth.PlayerCount {
		return fmt.Errorf("%w: signed round %d with %d players, raffle is at round %d with %d players",
			entities.ErrStaleSignature, auth.Round, auth.PlayerCount, raffle.Round, raffle.PlayerCount)
	}
	return nil
}

// mutate runs fn in a unit of work and commits when it succeeds
func (c *RaffleContract) mutate(ctx context.Context, fn func(interfaces.RaffleService, UnitOfWork) error) error {
	return c.run(ctx, true, fn)
}

// query runs fn in a unit of work that is always rolled back
func (c *RaffleContract) query(ctx context.Context, fn func(interfaces.RaffleService, UnitOfWork) error) error {
	return c.run(ctx, false, fn)
}

func (c *RaffleContract) run(ctx context.Context, commit bool, fn func(interfaces.RaffleService, UnitOfWork) error) error {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := uow.Rollback(); err != nil {
			log.WithError(err).Error("Failed to roll back raffle transaction")
		}
	}()

	svc := services.NewRaffleService(
		uow.RaffleRepository(),
		uow.RaffleEntryRepository(),
		uow.RaffleWinnerRepository(),
		uow.AccountRepository(),
		uow.BalanceHistoryRepository(),
		c.coordinator,
		uow.EventBus(),
		c.clock,
	)

	if err := fn(svc, uow); err != nil {
		return err
	}

	if !commit {
		return nil
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
