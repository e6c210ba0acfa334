package events

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRaffleEntered       EventType = "raffle_entered"
	EventTypeRaffleDrawRequested EventType = "raffle_draw_requested"
	EventTypeRaffleWinnerPicked  EventType = "raffle_winner_picked"
	EventTypeRaffleReset         EventType = "raffle_reset"
	EventTypeBalanceChange       EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RaffleEnteredEvent is emitted for every accepted entry
type RaffleEnteredEvent struct {
	RaffleID int64          `json:"raffle_id"`
	Round    int64          `json:"round"`
	Slot     int64          `json:"slot"`
	Player   common.Address `json:"player"`
	Amount   int64          `json:"amount"`
}

func (e RaffleEnteredEvent) Type() EventType {
	return EventTypeRaffleEntered
}

// RaffleDrawRequestedEvent is emitted when a draw closes entry and randomness is requested.
// RequestID is the decimal form of the coordinator's request identifier.
type RaffleDrawRequestedEvent struct {
	RaffleID  int64  `json:"raffle_id"`
	Round     int64  `json:"round"`
	RequestID string `json:"request_id"`
}

func (e RaffleDrawRequestedEvent) Type() EventType {
	return EventTypeRaffleDrawRequested
}

// RaffleWinnerPickedEvent is emitted once a round has been resolved and paid out
type RaffleWinnerPickedEvent struct {
	RaffleID    int64          `json:"raffle_id"`
	Round       int64          `json:"round"`
	Winner      common.Address `json:"winner"`
	Amount      int64          `json:"amount"`
	PlayerCount int64          `json:"player_count"`
	RequestID   string         `json:"request_id"`
}

func (e RaffleWinnerPickedEvent) Type() EventType {
	return EventTypeRaffleWinnerPicked
}

// RaffleResetEvent is emitted when the owner forces the raffle back to open
type RaffleResetEvent struct {
	RaffleID         int64                `json:"raffle_id"`
	PreviousState    entities.RaffleState `json:"previous_state"`
	DiscardedPool    int64                `json:"discarded_pool"`
	DiscardedRound   int64                `json:"discarded_round"`
	DiscardedPlayers int64                `json:"discarded_players"`
}

func (e RaffleResetEvent) Type() EventType {
	return EventTypeRaffleReset
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	Address         common.Address           `json:"address"`
	RaffleID        int64                    `json:"raffle_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                    `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}
