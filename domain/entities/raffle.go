package entities

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// DefaultRequestConfirmations is the block confirmation depth asked of the coordinator
	DefaultRequestConfirmations uint16 = 3

	// NumWords is the number of random words requested per draw
	NumWords uint32 = 1
)

// RaffleState represents the state of the current round
type RaffleState int

const (
	RaffleStateOpen RaffleState = iota
	RaffleStateCalculating
)

// String returns the lower-case name of the state
func (s RaffleState) String() string {
	switch s {
	case RaffleStateOpen:
		return "open"
	case RaffleStateCalculating:
		return "calculating"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseRaffleState is the inverse of RaffleState.String
func ParseRaffleState(s string) (RaffleState, error) {
	switch s {
	case "open":
		return RaffleStateOpen, nil
	case "calculating":
		return RaffleStateCalculating, nil
	default:
		return 0, fmt.Errorf("unknown raffle state %q", s)
	}
}

// RaffleConfig holds the construction parameters of a raffle.
// It is never modified after the raffle is deployed.
type RaffleConfig struct {
	EntranceFee          int64
	Interval             time.Duration
	KeyHash              common.Hash
	SubscriptionID       *big.Int
	CallbackGasLimit     uint32
	RequestConfirmations uint16
	Owner                common.Address
	Coordinator          common.Address

	// ResetTimestampOnAdminReset makes ResetRound restart the interval clock
	ResetTimestampOnAdminReset bool
}

// Validate checks that the configuration can back a live raffle
func (c *RaffleConfig) Validate() error {
	if c.EntranceFee <= 0 {
		return fmt.Errorf("entrance fee must be positive, got %d", c.EntranceFee)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %v", c.Interval)
	}
	if c.Owner == (common.Address{}) {
		return fmt.Errorf("owner address is required")
	}
	if c.Coordinator == (common.Address{}) {
		return fmt.Errorf("coordinator address is required")
	}
	if c.SubscriptionID == nil || c.SubscriptionID.Sign() <= 0 {
		return fmt.Errorf("subscription ID is required")
	}
	if c.CallbackGasLimit == 0 {
		return fmt.Errorf("callback gas limit must be positive")
	}
	return nil
}

// Raffle is the round state of a single deployed raffle
type Raffle struct {
	ID                   int64
	Config               RaffleConfig
	State                RaffleState
	Round                int64 // bumped every time the participant list is cleared
	PlayerCount          int64
	PoolBalance          int64
	LastDrawAt           time.Time
	OutstandingRequestID *big.Int // nil unless State == RaffleStateCalculating
	RecentWinner         *common.Address
	DeployedAt           time.Time
	UpdatedAt            time.Time
}

// NewRaffle creates a freshly deployed raffle in the open state
func NewRaffle(cfg RaffleConfig, now time.Time) (*Raffle, error) {
	if cfg.RequestConfirmations == 0 {
		cfg.RequestConfirmations = DefaultRequestConfirmations
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid raffle config: %w", err)
	}

	return &Raffle{
		Config:     cfg,
		State:      RaffleStateOpen,
		Round:      1,
		LastDrawAt: now,
		DeployedAt: now,
		UpdatedAt:  now,
	}, nil
}

// IsOpen returns true if the raffle accepts entries
func (r *Raffle) IsOpen() bool {
	return r.State == RaffleStateOpen
}

// IsOwner returns true if addr is the configured admin
func (r *Raffle) IsOwner(addr common.Address) bool {
	return r.Config.Owner == addr
}

// CheckUpkeep evaluates whether a draw should be triggered at the given time.
// It never mutates the raffle.
func (r *Raffle) CheckUpkeep(now time.Time) UpkeepCheck {
	elapsed := now.Sub(r.LastDrawAt)
	return UpkeepCheck{
		IsOpen:      r.IsOpen(),
		TimePassed:  elapsed >= r.Config.Interval,
		HasBalance:  r.PoolBalance > 0,
		HasPlayers:  r.PlayerCount > 0,
		State:       r.State,
		Elapsed:     elapsed,
		PoolBalance: r.PoolBalance,
		PlayerCount: r.PlayerCount,
	}
}

// Enter records a paid entry and returns the slot it occupies in the current round.
// Repeat entries by the same player are separate slots.
func (r *Raffle) Enter(amount int64) (int64, error) {
	if amount < r.Config.EntranceFee {
		return 0, fmt.Errorf("%w: paid %d, entrance fee is %d", ErrNotEnoughFunds, amount, r.Config.EntranceFee)
	}
	if !r.IsOpen() {
		return 0, fmt.Errorf("%w: raffle %d is %s", ErrRaffleNotOpen, r.ID, r.State)
	}
	if r.PoolBalance > math.MaxInt64-amount {
		return 0, fmt.Errorf("%w: pool %d cannot take %d more", ErrPoolOverflow, r.PoolBalance, amount)
	}

	slot := r.PlayerCount
	r.PlayerCount++
	r.PoolBalance += amount
	return slot, nil
}

// BeginDraw closes entry and records the outstanding randomness request
func (r *Raffle) BeginDraw(requestID *big.Int) error {
	if !r.IsOpen() {
		return fmt.Errorf("%w: raffle %d is %s", ErrRaffleNotOpen, r.ID, r.State)
	}
	if requestID == nil || requestID.Sign() <= 0 {
		return fmt.Errorf("invalid request ID %v", requestID)
	}

	r.State = RaffleStateCalculating
	r.OutstandingRequestID = new(big.Int).Set(requestID)
	return nil
}

// ValidateFulfillment checks that requestID is the single outstanding request
func (r *Raffle) ValidateFulfillment(requestID *big.Int) error {
	if r.State != RaffleStateCalculating || r.OutstandingRequestID == nil {
		return fmt.Errorf("%w: raffle %d has no outstanding request (state %s)", ErrRequestMismatch, r.ID, r.State)
	}
	if requestID == nil || r.OutstandingRequestID.Cmp(requestID) != 0 {
		return fmt.Errorf("%w: got %v, outstanding %s", ErrRequestMismatch, requestID, r.OutstandingRequestID)
	}
	return nil
}

// WinnerIndex selects the winning slot as randomWords[0] mod playerCount.
// The result is slightly biased toward low slots when playerCount does not
// divide 2^256; that bias is accepted.
func (r *Raffle) WinnerIndex(randomWords []*big.Int) (int64, error) {
	if len(randomWords) == 0 || randomWords[0] == nil {
		return 0, ErrNoRandomWords
	}
	if r.PlayerCount <= 0 {
		return 0, fmt.Errorf("%w: raffle %d has no players", ErrPlayerIndexOutOfRange, r.ID)
	}

	idx := new(big.Int).Mod(randomWords[0], big.NewInt(r.PlayerCount))
	return idx.Int64(), nil
}

// Settle records the winner and resets the ledger for the next round.
// It returns the captured pool balance that must be paid to the winner.
func (r *Raffle) Settle(winner common.Address, now time.Time) int64 {
	payout := r.PoolBalance

	r.RecentWinner = &winner
	r.Round++
	r.PlayerCount = 0
	r.PoolBalance = 0
	r.State = RaffleStateOpen
	r.LastDrawAt = now
	r.OutstandingRequestID = nil

	return payout
}

// Reset forces the raffle back to an empty open round and returns the pool
// balance that was discarded
func (r *Raffle) Reset(now time.Time) int64 {
	discarded := r.PoolBalance

	r.Round++
	r.PlayerCount = 0
	r.PoolBalance = 0
	r.State = RaffleStateOpen
	r.OutstandingRequestID = nil
	if r.Config.ResetTimestampOnAdminReset {
		r.LastDrawAt = now
	}

	return discarded
}

// Clone returns a deep copy of the raffle
func (r *Raffle) Clone() *Raffle {
	c := *r
	if r.Config.SubscriptionID != nil {
		c.Config.SubscriptionID = new(big.Int).Set(r.Config.SubscriptionID)
	}
	if r.OutstandingRequestID != nil {
		c.OutstandingRequestID = new(big.Int).Set(r.OutstandingRequestID)
	}
	if r.RecentWinner != nil {
		w := *r.RecentWinner
		c.RecentWinner = &w
	}
	return &c
}
