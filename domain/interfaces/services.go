package interfaces

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
)

// RaffleService defines the raffle state machine operations.
// Mutating methods expect to run inside a single transaction.
type RaffleService interface {
	// Enter appends caller to the current round, moving amount from the
	// caller's account into the pool
	Enter(ctx context.Context, raffleID int64, caller common.Address, amount int64) (*entities.RaffleEntry, error)

	// CheckUpkeep reports whether a draw is due. It never mutates state.
	CheckUpkeep(ctx context.Context, raffleID int64, checkData []byte) (bool, []byte, error)

	// PerformUpkeep re-derives eligibility, closes entry and requests randomness
	PerformUpkeep(ctx context.Context, raffleID int64, performData []byte) (*big.Int, error)

	// FulfillRandomWords resolves the outstanding draw with the coordinator's random words
	FulfillRandomWords(ctx context.Context, fulfillment *entities.RandomWordsFulfillment) (*entities.RaffleWinner, error)

	// ResetRound forces the raffle back to an empty open round. Owner only.
	ResetRound(ctx context.Context, raffleID int64, caller common.Address) error

	// Deposit credits amount to the account of addr
	Deposit(ctx context.Context, addr common.Address, amount int64) (*entities.Account, error)

	// Deploy creates a raffle from its construction parameters
	Deploy(ctx context.Context, cfg entities.RaffleConfig) (*entities.Raffle, error)

	GetRaffle(ctx context.Context, raffleID int64) (*entities.Raffle, error)
	GetPlayer(ctx context.Context, raffleID, index int64) (common.Address, error)
	GetPlayers(ctx context.Context, raffleID int64) ([]*entities.RaffleEntry, error)
	GetRecentWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error)
}

// RandomnessCoordinator is the outbound side of the oracle protocol
type RandomnessCoordinator interface {
	// RequestRandomWords submits a request and returns its identifier.
	// The fulfillment arrives later through a RandomnessConsumer.
	RequestRandomWords(ctx context.Context, req *entities.RandomWordsRequest) (*big.Int, error)
}

// RandomnessConsumer is the inbound side of the oracle protocol
type RandomnessConsumer interface {
	FulfillRandomWords(ctx context.Context, fulfillment *entities.RandomWordsFulfillment) error
}

// Clock returns the current time
type Clock func() time.Time
