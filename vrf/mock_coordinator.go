package vrf

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

// MaxNumWords is the largest number of words a single request may ask for
const MaxNumWords uint32 = 500

var (
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrInvalidConsumer     = errors.New("consumer not registered on subscription")
	ErrInsufficientBalance = errors.New("insufficient subscription balance")
	ErrInvalidRequest      = errors.New("nonexistent request")
	ErrNoConsumer          = errors.New("no randomness consumer attached")
)

type subscription struct {
	balance   int64
	consumers map[int64]bool
}

type pendingRequest struct {
	id  *big.Int
	req entities.RandomWordsRequest
}

// MockCoordinator is an in-process randomness coordinator for local development
// and tests. Requests stay pending until FulfillRandomWords is called.
type MockCoordinator struct {
	mu            sync.Mutex
	address       common.Address
	baseFee       int64
	nextSubID     int64
	nextRequestID int64
	subscriptions map[string]*subscription
	requests      map[string]*pendingRequest
	consumer      interfaces.RandomnessConsumer
}

// NewMockCoordinator creates a mock coordinator that charges baseFee per request
func NewMockCoordinator(address common.Address, baseFee int64) *MockCoordinator {
	return &MockCoordinator{
		address:       address,
		baseFee:       baseFee,
		subscriptions: make(map[string]*subscription),
		requests:      make(map[string]*pendingRequest),
	}
}

// Address returns the address fulfillments are sent from
func (c *MockCoordinator) Address() common.Address {
	return c.address
}

// SetConsumer attaches the callback target for fulfillments
func (c *MockCoordinator) SetConsumer(consumer interfaces.RandomnessConsumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumer = consumer
}

// CreateSubscription opens a new, unfunded subscription
func (c *MockCoordinator) CreateSubscription() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	subID := big.NewInt(c.nextSubID)
	c.subscriptions[subID.String()] = &subscription{consumers: make(map[int64]bool)}
	return subID
}

// FundSubscription adds amount to the subscription balance
func (c *MockCoordinator) FundSubscription(subID *big.Int, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, err := c.subscription(subID)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("fund amount must be positive, got %d", amount)
	}
	sub.balance += amount
	return nil
}

// AddConsumer authorizes raffleID to request randomness on the subscription
func (c *MockCoordinator) AddConsumer(subID *big.Int, raffleID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, err := c.subscription(subID)
	if err != nil {
		return err
	}
	sub.consumers[raffleID] = true
	return nil
}

// SubscriptionBalance returns the remaining balance of a subscription
func (c *MockCoordinator) SubscriptionBalance(subID *big.Int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, err := c.subscription(subID)
	if err != nil {
		return 0, err
	}
	return sub.balance, nil
}

// PendingRequests returns the number of requests awaiting fulfillment
func (c *MockCoordinator) PendingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// RequestRandomWords records a request and returns its ID
func (c *MockCoordinator) RequestRandomWords(ctx context.Context, req *entities.RandomWordsRequest) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, err := c.subscription(req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.consumers[req.RaffleID] {
		return nil, fmt.Errorf("%w: raffle %d", ErrInvalidConsumer, req.RaffleID)
	}
	if req.NumWords == 0 || req.NumWords > MaxNumWords {
		return nil, fmt.Errorf("num words must be in [1, %d], got %d", MaxNumWords, req.NumWords)
	}
	if sub.balance < c.baseFee {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, sub.balance, c.baseFee)
	}
	sub.balance -= c.baseFee

	c.nextRequestID++
	requestID := big.NewInt(c.nextRequestID)
	c.requests[requestID.String()] = &pendingRequest{id: requestID, req: *req}

	log.WithFields(log.Fields{
		"requestID": requestID.String(),
		"raffleID":  req.RaffleID,
		"numWords":  req.NumWords,
	}).Debug("Mock coordinator received random words request")

	return new(big.Int).Set(requestID), nil
}

// FulfillRandomWords fulfills a pending request with words derived from its ID
func (c *MockCoordinator) FulfillRandomWords(ctx context.Context, requestID *big.Int) error {
	c.mu.Lock()
	pending, ok := c.requests[requestKey(requestID)]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, requestID)
	}
	return c.FulfillRandomWordsWithOverride(ctx, requestID, DeriveMockWords(requestID, pending.req.NumWords))
}

// FulfillRandomWordsWithOverride delivers the given words for a pending request.
// The request stays pending if the consumer rejects it, so it can be retried.
func (c *MockCoordinator) FulfillRandomWordsWithOverride(ctx context.Context, requestID *big.Int, words []*big.Int) error {
	c.mu.Lock()
	pending, ok := c.requests[requestKey(requestID)]
	consumer := c.consumer
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, requestID)
	}
	if consumer == nil {
		return ErrNoConsumer
	}

	fulfillment := &entities.RandomWordsFulfillment{
		RaffleID:    pending.req.RaffleID,
		RequestID:   new(big.Int).Set(pending.id),
		RandomWords: words,
		Sender:      c.address,
	}
	if err := consumer.FulfillRandomWords(ctx, fulfillment); err != nil {
		return fmt.Errorf("consumer rejected fulfillment of request %s: %w", pending.id, err)
	}

	c.mu.Lock()
	delete(c.requests, requestKey(requestID))
	c.mu.Unlock()
	return nil
}

func (c *MockCoordinator) subscription(subID *big.Int) (*subscription, error) {
	if subID == nil {
		return nil, ErrInvalidSubscription
	}
	sub, ok := c.subscriptions[subID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSubscription, subID)
	}
	return sub, nil
}

func requestKey(requestID *big.Int) string {
	if requestID == nil {
		return ""
	}
	return requestID.String()
}

// DeriveMockWords returns keccak256(requestID, i) for i in [0, numWords)
func DeriveMockWords(requestID *big.Int, numWords uint32) []*big.Int {
	words := make([]*big.Int, numWords)
	for i := uint32(0); i < numWords; i++ {
		digest := crypto.Keccak256(
			common.LeftPadBytes(requestID.Bytes(), 32),
			common.LeftPadBytes(big.NewInt(int64(i)).Bytes(), 32),
		)
		words[i] = new(big.Int).SetBytes(digest)
	}
	return words
}
