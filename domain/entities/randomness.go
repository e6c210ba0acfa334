package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RandomWordsRequest is sent to the randomness coordinator when a draw is triggered
type RandomWordsRequest struct {
	RaffleID             int64 // callback target
	KeyHash              common.Hash
	SubscriptionID       *big.Int
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
}

// NewRandomWordsRequest builds the request for a raffle from its configuration
func NewRandomWordsRequest(r *Raffle) *RandomWordsRequest {
	return &RandomWordsRequest{
		RaffleID:             r.ID,
		KeyHash:              r.Config.KeyHash,
		SubscriptionID:       r.Config.SubscriptionID,
		RequestConfirmations: r.Config.RequestConfirmations,
		CallbackGasLimit:     r.Config.CallbackGasLimit,
		NumWords:             NumWords,
	}
}

// RandomWordsFulfillment is delivered by the coordinator once randomness is available
type RandomWordsFulfillment struct {
	RaffleID    int64
	RequestID   *big.Int
	RandomWords []*big.Int
	Sender      common.Address // address of the coordinator that delivered the words
}
