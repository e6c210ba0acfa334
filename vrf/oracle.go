package vrf

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

// Oracle answers randomness requests by signing their seed with its key.
// The signature is the proof; random words are derived from it, so anyone
// holding the oracle address can check a fulfillment.
type Oracle struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewOracle creates an oracle signing with key
func NewOracle(key *ecdsa.PrivateKey) *Oracle {
	return &Oracle{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewOracleFromHex creates an oracle from a hex encoded secp256k1 private key
func NewOracleFromHex(hexKey string) (*Oracle, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse oracle private key: %w", err)
	}
	return NewOracle(key), nil
}

// Address returns the address fulfillments recover to
func (o *Oracle) Address() common.Address {
	return o.address
}

// Respond produces the signed fulfillment for a request
func (o *Oracle) Respond(msg *RequestMessage) (*FulfillmentMessage, error) {
	requestID, req, err := msg.Parse()
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	proof, err := crypto.Sign(Seed(req.KeyHash, req.RaffleID, requestID), o.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request seed: %w", err)
	}

	words := DeriveWords(proof, req.NumWords)
	encoded := make([]string, len(words))
	for i, w := range words {
		encoded[i] = w.String()
	}

	log.WithFields(log.Fields{
		"requestID": msg.RequestID,
		"raffleID":  req.RaffleID,
		"numWords":  req.NumWords,
	}).Debug("Oracle signed randomness request")

	return &FulfillmentMessage{
		RequestID:   requestID.String(),
		RaffleID:    req.RaffleID,
		KeyHash:     req.KeyHash,
		Proof:       proof,
		RandomWords: encoded,
	}, nil
}
