package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/utils"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// raffleService implements the raffle state machine
type raffleService struct {
	raffleRepo         interfaces.RaffleRepository
	entryRepo          interfaces.RaffleEntryRepository
	winnerRepo         interfaces.RaffleWinnerRepository
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	coordinator        interfaces.RandomnessCoordinator
	eventPublisher     interfaces.EventPublisher
	now                interfaces.Clock
}

// NewRaffleService creates a new raffle service. A nil clock defaults to time.Now.
func NewRaffleService(
	raffleRepo interfaces.RaffleRepository,
	entryRepo interfaces.RaffleEntryRepository,
	winnerRepo interfaces.RaffleWinnerRepository,
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	coordinator interfaces.RandomnessCoordinator,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.RaffleService {
	if clock == nil {
		clock = time.Now
	}
	return &raffleService{
		raffleRepo:         raffleRepo,
		entryRepo:          entryRepo,
		winnerRepo:         winnerRepo,
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		coordinator:        coordinator,
		eventPublisher:     eventPublisher,
		now:                clock,
	}
}

// Deploy creates a raffle from its construction parameters
func (s *raffleService) Deploy(ctx context.Context, cfg entities.RaffleConfig) (*entities.Raffle, error) {
	raffle, err := entities.NewRaffle(cfg, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to create raffle: %w", err)
	}

	log.WithFields(log.Fields{
		"raffleID":    raffle.ID,
		"entranceFee": raffle.Config.EntranceFee,
		"interval":    raffle.Config.Interval,
		"owner":       raffle.Config.Owner.Hex(),
		"coordinator": raffle.Config.Coordinator.Hex(),
	}).Info("Raffle deployed")

	return raffle, nil
}

// Enter appends caller to the current round, paying amount into the pool
func (s *raffleService) Enter(ctx context.Context, raffleID int64, caller common.Address, amount int64) (*entities.RaffleEntry, error) {
	if caller == (common.Address{}) {
		return nil, fmt.Errorf("%w: player address is required", entities.ErrInvalidAddress)
	}

	raffle, err := s.lockRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	slot, err := raffle.Enter(amount)
	if err != nil {
		return nil, err
	}

	// Pay the entry from the caller's account
	if err := s.debitEntry(ctx, raffle, caller, amount); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &entities.RaffleEntry{
		RaffleID:  raffle.ID,
		Round:     raffle.Round,
		Slot:      slot,
		Player:    caller,
		Amount:    amount,
		EnteredAt: now,
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create raffle entry: %w", err)
	}

	raffle.UpdatedAt = now
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to update raffle: %w", err)
	}

	s.publish(events.RaffleEnteredEvent{
		RaffleID: raffle.ID,
		Round:    raffle.Round,
		Slot:     slot,
		Player:   caller,
		Amount:   amount,
	})

	return entry, nil
}

// Deposit credits amount to the account of addr
func (s *raffleService) Deposit(ctx context.Context, addr common.Address, amount int64) (*entities.Account, error) {
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%w: deposit address is required", entities.ErrInvalidAddress)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", entities.ErrInvalidAmount, amount)
	}

	account, err := s.accountRepo.GetOrCreate(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account.Balance > math.MaxInt64-amount {
		return nil, fmt.Errorf("%w: balance of %s would overflow", entities.ErrInvalidAmount, addr.Hex())
	}

	newBalance := account.Balance + amount
	if err := s.accountRepo.UpdateBalance(ctx, addr, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	history := &entities.BalanceHistory{
		Address:         addr,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    amount,
		TransactionType: entities.TransactionTypeDeposit,
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	account.Balance = newBalance
	return account, nil
}

// CheckUpkeep reports whether a draw is due. The returned perform data is always empty.
func (s *raffleService) CheckUpkeep(ctx context.Context, raffleID int64, checkData []byte) (bool, []byte, error) {
	raffle, err := s.GetRaffle(ctx, raffleID)
	if err != nil {
		return false, nil, err
	}

	check := raffle.CheckUpkeep(s.now())
	return check.Needed(), []byte{}, nil
}

// PerformUpkeep closes entry and requests randomness. Eligibility is always
// recomputed here; performData is not trusted.
func (s *raffleService) PerformUpkeep(ctx context.Context, raffleID int64, performData []byte) (*big.Int, error) {
	raffle, err := s.lockRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := raffle.CheckUpkeep(now).Err(); err != nil {
		return nil, err
	}

	requestID, err := s.coordinator.RequestRandomWords(ctx, entities.NewRandomWordsRequest(raffle))
	if err != nil {
		return nil, fmt.Errorf("failed to request random words: %w", err)
	}

	if err := raffle.BeginDraw(requestID); err != nil {
		return nil, err
	}

	raffle.UpdatedAt = now.UTC()
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to update raffle: %w", err)
	}

	s.publish(events.RaffleDrawRequestedEvent{
		RaffleID:  raffle.ID,
		Round:     raffle.Round,
		RequestID: requestID.String(),
	})

	log.WithFields(log.Fields{
		"raffleID":    raffle.ID,
		"round":       raffle.Round,
		"requestID":   requestID.String(),
		"playerCount": raffle.PlayerCount,
		"poolBalance": raffle.PoolBalance,
	}).Info("Requested raffle winner")

	return requestID, nil
}

// FulfillRandomWords resolves the outstanding draw. The winner is credited
// before any state is written; a failed payout leaves the raffle untouched.
func (s *raffleService) FulfillRandomWords(ctx context.Context, fulfillment *entities.RandomWordsFulfillment) (*entities.RaffleWinner, error) {
	if fulfillment == nil {
		return nil, errors.New("fulfillment is required")
	}

	raffle, err := s.lockRaffle(ctx, fulfillment.RaffleID)
	if err != nil {
		return nil, err
	}

	if fulfillment.Sender != raffle.Config.Coordinator {
		return nil, fmt.Errorf("%w: %s", entities.ErrNotCoordinator, fulfillment.Sender.Hex())
	}
	if err := raffle.ValidateFulfillment(fulfillment.RequestID); err != nil {
		return nil, err
	}

	winnerIndex, err := raffle.WinnerIndex(fulfillment.RandomWords)
	if err != nil {
		return nil, err
	}

	entry, err := s.entryRepo.GetBySlot(ctx, raffle.ID, raffle.Round, winnerIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("winning slot %d of round %d has no entry", winnerIndex, raffle.Round)
	}

	round := raffle.Round
	playerCount := raffle.PlayerCount
	now := s.now().UTC()
	amount := raffle.Settle(entry.Player, now)

	if err := s.payout(ctx, raffle.ID, round, entry.Player, amount); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrPayoutFailed, err)
	}

	winner := &entities.RaffleWinner{
		RaffleID:    raffle.ID,
		Round:       round,
		RequestID:   new(big.Int).Set(fulfillment.RequestID),
		RandomWord:  new(big.Int).Set(fulfillment.RandomWords[0]),
		WinnerIndex: winnerIndex,
		PlayerCount: playerCount,
		Winner:      entry.Player,
		Amount:      amount,
		CreatedAt:   now,
	}
	if err := s.winnerRepo.Create(ctx, winner); err != nil {
		return nil, fmt.Errorf("failed to record raffle winner: %w", err)
	}

	raffle.UpdatedAt = now
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to update raffle: %w", err)
	}

	s.publish(events.RaffleWinnerPickedEvent{
		RaffleID:    raffle.ID,
		Round:       round,
		Winner:      entry.Player,
		Amount:      amount,
		PlayerCount: playerCount,
		RequestID:   winner.RequestID.String(),
	})

	log.WithFields(log.Fields{
		"raffleID":    raffle.ID,
		"round":       round,
		"winner":      entry.Player.Hex(),
		"winnerIndex": winnerIndex,
		"amount":      amount,
		"playerCount": playerCount,
	}).Info("Raffle winner picked")

	return winner, nil
}

// ResetRound forces the raffle back to an empty open round. Owner only.
func (s *raffleService) ResetRound(ctx context.Context, raffleID int64, caller common.Address) error {
	raffle, err := s.lockRaffle(ctx, raffleID)
	if err != nil {
		return err
	}

	if !raffle.IsOwner(caller) {
		return fmt.Errorf("%w: %s", entities.ErrNotOwner, caller.Hex())
	}

	previousState := raffle.State
	previousRound := raffle.Round
	previousPlayers := raffle.PlayerCount
	now := s.now().UTC()
	discarded := raffle.Reset(now)

	raffle.UpdatedAt = now
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return fmt.Errorf("failed to update raffle: %w", err)
	}

	s.publish(events.RaffleResetEvent{
		RaffleID:         raffle.ID,
		PreviousState:    previousState,
		DiscardedPool:    discarded,
		DiscardedRound:   previousRound,
		DiscardedPlayers: previousPlayers,
	})

	log.WithFields(log.Fields{
		"raffleID":      raffle.ID,
		"previousState": previousState.String(),
		"discardedPool": discarded,
		"round":         previousRound,
		"players":       previousPlayers,
	}).Warn("Raffle reset by owner")

	return nil
}

// GetRaffle returns the current raffle state
func (s *raffleService) GetRaffle(ctx context.Context, raffleID int64) (*entities.Raffle, error) {
	raffle, err := s.raffleRepo.GetByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrRaffleNotFound, raffleID)
	}
	return raffle, nil
}

// GetPlayer returns the player occupying slot index in the current round
func (s *raffleService) GetPlayer(ctx context.Context, raffleID, index int64) (common.Address, error) {
	raffle, err := s.GetRaffle(ctx, raffleID)
	if err != nil {
		return common.Address{}, err
	}

	if index < 0 || index >= raffle.PlayerCount {
		return common.Address{}, fmt.Errorf("%w: index %d, players %d", entities.ErrPlayerIndexOutOfRange, index, raffle.PlayerCount)
	}

	entry, err := s.entryRepo.GetBySlot(ctx, raffle.ID, raffle.Round, index)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get raffle entry: %w", err)
	}
	if entry == nil {
		return common.Address{}, fmt.Errorf("%w: index %d", entities.ErrPlayerIndexOutOfRange, index)
	}

	return entry.Player, nil
}

// GetPlayers returns the entries of the current round in slot order
func (s *raffleService) GetPlayers(ctx context.Context, raffleID int64) ([]*entities.RaffleEntry, error) {
	raffle, err := s.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.GetByRound(ctx, raffle.ID, raffle.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle entries: %w", err)
	}
	return entries, nil
}

// GetRecentWinners returns the latest resolved rounds, newest first
func (s *raffleService) GetRecentWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	winners, err := s.winnerRepo.GetRecentByRaffle(ctx, raffleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle winners: %w", err)
	}
	return winners, nil
}

// lockRaffle loads a raffle holding its row lock for the rest of the transaction
func (s *raffleService) lockRaffle(ctx context.Context, raffleID int64) (*entities.Raffle, error) {
	raffle, err := s.raffleRepo.GetByIDForUpdate(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrRaffleNotFound, raffleID)
	}
	return raffle, nil
}

// debitEntry moves an entry payment out of the caller's account
func (s *raffleService) debitEntry(ctx context.Context, raffle *entities.Raffle, caller common.Address, amount int64) error {
	account, err := s.accountRepo.GetOrCreate(ctx, caller)
	if err != nil {
		return fmt.Errorf("failed to get player account: %w", err)
	}
	if account.Balance < amount {
		return fmt.Errorf("%w: balance %d is below payment %d", entities.ErrNotEnoughFunds, account.Balance, amount)
	}

	newBalance := account.Balance - amount
	if err := s.accountRepo.UpdateBalance(ctx, caller, newBalance); err != nil {
		return fmt.Errorf("failed to update player balance: %w", err)
	}

	history := &entities.BalanceHistory{
		Address:         caller,
		RaffleID:        raffle.ID,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    -amount,
		TransactionType: entities.TransactionTypeRaffleEntry,
		TransactionMetadata: map[string]interface{}{
			"raffle_id": raffle.ID,
			"round":     raffle.Round,
			"slot":      raffle.PlayerCount - 1,
		},
	}
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}
	return nil
}

// payout credits amount to the winner's account
func (s *raffleService) payout(ctx context.Context, raffleID, round int64, winner common.Address, amount int64) error {
	account, err := s.accountRepo.GetOrCreate(ctx, winner)
	if err != nil {
		return fmt.Errorf("failed to get winner account: %w", err)
	}
	if account.Balance > math.MaxInt64-amount {
		return fmt.Errorf("balance of %s would overflow", winner.Hex())
	}

	newBalance := account.Balance + amount
	if err := s.accountRepo.UpdateBalance(ctx, winner, newBalance); err != nil {
		return fmt.Errorf("failed to update winner balance: %w", err)
	}

	history := &entities.BalanceHistory{
		Address:         winner,
		RaffleID:        raffleID,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    amount,
		TransactionType: entities.TransactionTypeRaffleWin,
		TransactionMetadata: map[string]interface{}{
			"raffle_id": raffleID,
			"round":     round,
		},
	}
	return utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history)
}

func (s *raffleService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish raffle event")
	}
}
