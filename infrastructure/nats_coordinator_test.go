package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/vrf"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackBus delivers published messages synchronously to subscribers
type loopbackBus struct {
	mu        sync.Mutex
	handlers  map[string]func([]byte) error
	published map[string][][]byte
	errs      []error
}

func newLoopbackBus() *loopbackBus {
	return &loopbackBus{
		handlers:  make(map[string]func([]byte) error),
		published: make(map[string][][]byte),
	}
}

func (b *loopbackBus) Publish(ctx context.Context, subject string, data []byte) error {
	b.mu.Lock()
	b.published[subject] = append(b.published[subject], data)
	handler := b.handlers[subject]
	b.mu.Unlock()

	if handler != nil {
		if err := handler(data); err != nil {
			b.mu.Lock()
			b.errs = append(b.errs, err)
			b.mu.Unlock()
		}
	}
	return nil
}

func (b *loopbackBus) Subscribe(subject string, handler func([]byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[subject]; exists {
		return fmt.Errorf("already subscribed to %s", subject)
	}
	b.handlers[subject] = handler
	return nil
}

type recordingConsumer struct {
	received []*entities.RandomWordsFulfillment
	err      error
}

func (c *recordingConsumer) FulfillRandomWords(ctx context.Context, f *entities.RandomWordsFulfillment) error {
	if c.err != nil {
		return c.err
	}
	c.received = append(c.received, f)
	return nil
}

func testWordsRequest() *entities.RandomWordsRequest {
	return &entities.RandomWordsRequest{
		RaffleID:             4,
		KeyHash:              common.HexToHash("0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"),
		SubscriptionID:       big.NewInt(9),
		RequestConfirmations: 3,
		CallbackGasLimit:     500000,
		NumWords:             1,
	}
}

func TestNATSCoordinator_RequestRandomWords(t *testing.T) {
	bus := newLoopbackBus()
	coordinator := NewNATSCoordinator(bus)

	first, err := coordinator.RequestRandomWords(context.Background(), testWordsRequest())
	require.NoError(t, err)
	second, err := coordinator.RequestRandomWords(context.Background(), testWordsRequest())
	require.NoError(t, err)
	assert.NotZero(t, first.Cmp(second), "request IDs must be unique")

	require.Len(t, bus.published[vrf.RequestSubject], 2)
	var msg vrf.RequestMessage
	require.NoError(t, json.Unmarshal(bus.published[vrf.RequestSubject][0], &msg))

	requestID, req, err := msg.Parse()
	require.NoError(t, err)
	assert.Zero(t, first.Cmp(requestID))
	assert.Equal(t, testWordsRequest(), req)

	noSub := testWordsRequest()
	noSub.SubscriptionID = nil
	_, err = coordinator.RequestRandomWords(context.Background(), noSub)
	assert.ErrorIs(t, err, vrf.ErrInvalidSubscription)
}

func TestNATSCoordinator_RoundTripThroughOracle(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	oracle := vrf.NewOracle(key)

	bus := newLoopbackBus()
	consumer := &recordingConsumer{}
	coordinator := NewNATSCoordinator(bus)
	require.NoError(t, coordinator.SubscribeFulfillments(consumer))
	require.NoError(t, NewNATSOracle(bus, oracle).Start())

	requestID, err := coordinator.RequestRandomWords(context.Background(), testWordsRequest())
	require.NoError(t, err)

	require.Empty(t, bus.errs)
	require.Len(t, consumer.received, 1)
	got := consumer.received[0]
	assert.Equal(t, oracle.Address(), got.Sender)
	assert.Equal(t, int64(4), got.RaffleID)
	assert.Zero(t, requestID.Cmp(got.RequestID))
	require.Len(t, got.RandomWords, 1)
}

func TestNATSCoordinator_HandleFulfillment(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	oracle := vrf.NewOracle(key)

	requestID := vrf.ComputeRequestID(common.Hash{}, 4, big.NewInt(9), []byte("n"))
	resp, err := oracle.Respond(vrf.NewRequestMessage(requestID, testWordsRequest()))
	require.NoError(t, err)
	valid, err := json.Marshal(resp)
	require.NoError(t, err)

	tampered := *resp
	tampered.RandomWords = []string{"1"}
	invalid, err := json.Marshal(&tampered)
	require.NoError(t, err)

	tests := []struct {
		name        string
		data        []byte
		consumerErr error
		wantErr     bool
		wantCalls   int
	}{
		{name: "accepted", data: valid, wantCalls: 1},
		{name: "malformed json is dropped", data: []byte("{"), wantCalls: 0},
		{name: "bad proof is dropped", data: invalid, wantCalls: 0},
		{name: "stale request is acknowledged", data: valid, consumerErr: entities.ErrRequestMismatch},
		{name: "wrong sender is acknowledged", data: valid, consumerErr: entities.ErrNotCoordinator},
		{name: "payout failure is retried", data: valid, consumerErr: fmt.Errorf("%w: db down", entities.ErrPayoutFailed), wantErr: true},
		{name: "infrastructure failure is retried", data: valid, consumerErr: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := &recordingConsumer{err: tt.consumerErr}
			coordinator := NewNATSCoordinator(newLoopbackBus())
			require.NoError(t, coordinator.SubscribeFulfillments(consumer))

			err := coordinator.handleFulfillment(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, consumer.received, tt.wantCalls)
		})
	}
}

func TestNATSOracle_RefusesBadRequests(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	bus := newLoopbackBus()
	o := NewNATSOracle(bus, vrf.NewOracle(key))

	assert.NoError(t, o.handleRequest([]byte("not json")))
	assert.NoError(t, o.handleRequest([]byte(`{"request_id":"1","subscription_id":"1","num_words":0}`)))
	assert.Empty(t, bus.published[vrf.FulfillmentSubject])
}
