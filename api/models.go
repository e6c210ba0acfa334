package api

import (
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ModelError is the body of every error response
type ModelError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RaffleResponse is the public state of a raffle
type RaffleResponse struct {
	ID                   int64  `json:"id"`
	State                string `json:"state"`
	Round                int64  `json:"round"`
	EntranceFee          int64  `json:"entrance_fee"`
	IntervalSeconds      int64  `json:"interval_seconds"`
	PlayerCount          int64  `json:"player_count"`
	PoolBalance          int64  `json:"pool_balance"`
	LastTimestamp        int64  `json:"last_timestamp"`
	RecentWinner         string `json:"recent_winner,omitempty"`
	OutstandingRequestID string `json:"outstanding_request_id,omitempty"`
	Owner                string `json:"owner"`
	Coordinator          string `json:"coordinator"`
	KeyHash              string `json:"key_hash"`
	SubscriptionID       string `json:"subscription_id"`
	CallbackGasLimit     uint32 `json:"callback_gas_limit"`
	RequestConfirmations uint16 `json:"request_confirmations"`
	NumWords             uint32 `json:"num_words"`
}

func toRaffleResponse(r *entities.Raffle) RaffleResponse {
	resp := RaffleResponse{
		ID:                   r.ID,
		State:                r.State.String(),
		Round:                r.Round,
		EntranceFee:          r.Config.EntranceFee,
		IntervalSeconds:      int64(r.Config.Interval.Seconds()),
		PlayerCount:          r.PlayerCount,
		PoolBalance:          r.PoolBalance,
		LastTimestamp:        r.LastDrawAt.Unix(),
		Owner:                r.Config.Owner.Hex(),
		Coordinator:          r.Config.Coordinator.Hex(),
		KeyHash:              r.Config.KeyHash.Hex(),
		CallbackGasLimit:     r.Config.CallbackGasLimit,
		RequestConfirmations: r.Config.RequestConfirmations,
		NumWords:             entities.NumWords,
	}
	if r.Config.SubscriptionID != nil {
		resp.SubscriptionID = r.Config.SubscriptionID.String()
	}
	if r.RecentWinner != nil {
		resp.RecentWinner = r.RecentWinner.Hex()
	}
	if r.OutstandingRequestID != nil {
		resp.OutstandingRequestID = r.OutstandingRequestID.String()
	}
	return resp
}

// EnterRequest is the body of an entry. Signature covers the raffle round and
// player count as last read, so the entry lands in the slot the player saw.
type EnterRequest struct {
	Player      string        `json:"player,omitempty"`
	Amount      int64         `json:"amount"`
	Round       int64         `json:"round"`
	PlayerCount int64         `json:"player_count"`
	Signature   hexutil.Bytes `json:"signature"`
}

// EntryResponse is a paid slot in the current round
type EntryResponse struct {
	Round     int64  `json:"round"`
	Slot      int64  `json:"slot"`
	Player    string `json:"player"`
	Amount    int64  `json:"amount"`
	EnteredAt int64  `json:"entered_at"`
}

func toEntryResponse(e *entities.RaffleEntry) EntryResponse {
	return EntryResponse{
		Round:     e.Round,
		Slot:      e.Slot,
		Player:    e.Player.Hex(),
		Amount:    e.Amount,
		EnteredAt: e.EnteredAt.Unix(),
	}
}

// PlayerResponse is the player occupying a slot
type PlayerResponse struct {
	Index  int64  `json:"index"`
	Player string `json:"player"`
}

// UpkeepResponse is the result of an upkeep check
type UpkeepResponse struct {
	UpkeepNeeded bool   `json:"upkeep_needed"`
	PerformData  string `json:"perform_data"`
}

// PerformUpkeepResponse carries the randomness request started by a draw
type PerformUpkeepResponse struct {
	RequestID string `json:"request_id"`
}

// CallerRequest authorizes an admin operation. The caller is the signer;
// Caller only cross-checks it.
type CallerRequest struct {
	Caller      string        `json:"caller,omitempty"`
	Round       int64         `json:"round"`
	PlayerCount int64         `json:"player_count"`
	Signature   hexutil.Bytes `json:"signature"`
}

// DepositRequest is the body of a faucet deposit
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// WinnerResponse is a resolved round
type WinnerResponse struct {
	Round       int64  `json:"round"`
	Winner      string `json:"winner"`
	Amount      int64  `json:"amount"`
	PlayerCount int64  `json:"player_count"`
	WinnerIndex int64  `json:"winner_index"`
	RequestID   string `json:"request_id"`
	RandomWord  string `json:"random_word"`
	CreatedAt   int64  `json:"created_at"`
}

func toWinnerResponse(w *entities.RaffleWinner) WinnerResponse {
	resp := WinnerResponse{
		Round:       w.Round,
		Winner:      w.Winner.Hex(),
		Amount:      w.Amount,
		PlayerCount: w.PlayerCount,
		WinnerIndex: w.WinnerIndex,
		CreatedAt:   w.CreatedAt.Unix(),
	}
	if w.RequestID != nil {
		resp.RequestID = w.RequestID.String()
	}
	if w.RandomWord != nil {
		resp.RandomWord = w.RandomWord.String()
	}
	return resp
}

// BalanceChangeResponse is one balance history record
type BalanceChangeResponse struct {
	RaffleID        int64  `json:"raffle_id"`
	BalanceBefore   int64  `json:"balance_before"`
	BalanceAfter    int64  `json:"balance_after"`
	ChangeAmount    int64  `json:"change_amount"`
	TransactionType string `json:"transaction_type"`
	CreatedAt       int64  `json:"created_at"`
}

// AccountResponse is an account balance with recent history
type AccountResponse struct {
	Address string                  `json:"address"`
	Balance int64                   `json:"balance"`
	History []BalanceChangeResponse `json:"history"`
}
