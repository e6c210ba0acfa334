package vrf

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// RequestSubject carries randomness requests from raffles to oracles
	RequestSubject = "vrf.requests"

	// FulfillmentSubject carries signed fulfillments back to raffles
	FulfillmentSubject = "vrf.fulfillments"

	// StreamName is the JetStream stream backing both subjects
	StreamName = "vrf"
)

var ErrInvalidProof = errors.New("invalid randomness proof")

// RequestMessage is the wire form of a randomness request.
// Big integers travel as decimal strings.
type RequestMessage struct {
	RequestID            string      `json:"request_id"`
	RaffleID             int64       `json:"raffle_id"`
	KeyHash              common.Hash `json:"key_hash"`
	SubscriptionID       string      `json:"subscription_id"`
	RequestConfirmations uint16      `json:"request_confirmations"`
	CallbackGasLimit     uint32      `json:"callback_gas_limit"`
	NumWords             uint32      `json:"num_words"`
}

// NewRequestMessage builds the wire form of req under requestID
func NewRequestMessage(requestID *big.Int, req *entities.RandomWordsRequest) *RequestMessage {
	msg := &RequestMessage{
		RequestID:            requestID.String(),
		RaffleID:             req.RaffleID,
		KeyHash:              req.KeyHash,
		RequestConfirmations: req.RequestConfirmations,
		CallbackGasLimit:     req.CallbackGasLimit,
		NumWords:             req.NumWords,
	}
	if req.SubscriptionID != nil {
		msg.SubscriptionID = req.SubscriptionID.String()
	}
	return msg
}

// Parse returns the request ID and request carried by the message
func (m *RequestMessage) Parse() (*big.Int, *entities.RandomWordsRequest, error) {
	requestID, err := parseBigInt("request_id", m.RequestID)
	if err != nil {
		return nil, nil, err
	}
	subID, err := parseBigInt("subscription_id", m.SubscriptionID)
	if err != nil {
		return nil, nil, err
	}
	if m.NumWords == 0 || m.NumWords > MaxNumWords {
		return nil, nil, fmt.Errorf("num words must be in [1, %d], got %d", MaxNumWords, m.NumWords)
	}

	return requestID, &entities.RandomWordsRequest{
		RaffleID:             m.RaffleID,
		KeyHash:              m.KeyHash,
		SubscriptionID:       subID,
		RequestConfirmations: m.RequestConfirmations,
		CallbackGasLimit:     m.CallbackGasLimit,
		NumWords:             m.NumWords,
	}, nil
}

// FulfillmentMessage is the wire form of a fulfillment. Proof is the oracle's
// signature over the request seed; every random word is derived from it.
type FulfillmentMessage struct {
	RequestID   string        `json:"request_id"`
	RaffleID    int64         `json:"raffle_id"`
	KeyHash     common.Hash   `json:"key_hash"`
	Proof       hexutil.Bytes `json:"proof"`
	RandomWords []string      `json:"random_words"`
}

// Verify recovers the oracle address from the proof and checks that every
// word was derived from it. The returned fulfillment has Sender set to the
// recovered address.
func (m *FulfillmentMessage) Verify() (*entities.RandomWordsFulfillment, error) {
	requestID, err := parseBigInt("request_id", m.RequestID)
	if err != nil {
		return nil, err
	}
	if len(m.Proof) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: proof must be %d bytes, got %d", ErrInvalidProof, crypto.SignatureLength, len(m.Proof))
	}
	if len(m.RandomWords) == 0 {
		return nil, entities.ErrNoRandomWords
	}

	// Only the low-s form is accepted so each request has exactly one valid proof
	r := new(big.Int).SetBytes(m.Proof[:32])
	s := new(big.Int).SetBytes(m.Proof[32:64])
	if !crypto.ValidateSignatureValues(m.Proof[64], r, s, true) {
		return nil, fmt.Errorf("%w: non-canonical signature", ErrInvalidProof)
	}

	seed := Seed(m.KeyHash, m.RaffleID, requestID)
	pub, err := crypto.SigToPub(seed, m.Proof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	expected := DeriveWords(m.Proof, uint32(len(m.RandomWords)))
	words := make([]*big.Int, len(m.RandomWords))
	for i, raw := range m.RandomWords {
		word, err := parseBigInt("random_words", raw)
		if err != nil {
			return nil, err
		}
		if word.Cmp(expected[i]) != 0 {
			return nil, fmt.Errorf("%w: word %d does not match proof", ErrInvalidProof, i)
		}
		words[i] = word
	}

	return &entities.RandomWordsFulfillment{
		RaffleID:    m.RaffleID,
		RequestID:   requestID,
		RandomWords: words,
		Sender:      crypto.PubkeyToAddress(*pub),
	}, nil
}

// ComputeRequestID derives a request identifier from the request and a caller nonce
func ComputeRequestID(keyHash common.Hash, raffleID int64, subID *big.Int, nonce []byte) *big.Int {
	digest := crypto.Keccak256(
		keyHash.Bytes(),
		common.LeftPadBytes(big.NewInt(raffleID).Bytes(), 32),
		common.LeftPadBytes(subID.Bytes(), 32),
		nonce,
	)
	return new(big.Int).SetBytes(digest)
}

// Seed is the 32-byte digest an oracle signs to answer a request
func Seed(keyHash common.Hash, raffleID int64, requestID *big.Int) []byte {
	return crypto.Keccak256(
		keyHash.Bytes(),
		common.LeftPadBytes(big.NewInt(raffleID).Bytes(), 32),
		common.LeftPadBytes(requestID.Bytes(), 32),
	)
}

// DeriveWords expands a proof into numWords words as keccak256(proof[:64], i)
func DeriveWords(proof []byte, numWords uint32) []*big.Int {
	words := make([]*big.Int, numWords)
	for i := uint32(0); i < numWords; i++ {
		digest := crypto.Keccak256(
			proof[:64],
			common.LeftPadBytes(big.NewInt(int64(i)).Bytes(), 32),
		)
		words[i] = new(big.Int).SetBytes(digest)
	}
	return words
}

func parseBigInt(field, value string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", field, value)
	}
	return n, nil
}
