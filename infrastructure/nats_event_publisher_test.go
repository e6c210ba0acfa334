package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakeTransport struct {
	messages []publishedMessage
	err      error
}

func (f *fakeTransport) Publish(ctx context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func TestNATSEventPublisher_PublishesEnvelope(t *testing.T) {
	transport := &fakeTransport{}
	publisher := NewNATSEventPublisher(transport, NewEventSubjectMapper(), "raffle-test")

	event := events.RaffleWinnerPickedEvent{
		RaffleID:    3,
		Round:       2,
		Winner:      common.HexToAddress("0x01"),
		Amount:      40,
		PlayerCount: 4,
		RequestID:   "77",
	}
	require.NoError(t, publisher.Publish(event))

	require.Len(t, transport.messages, 1)
	assert.Equal(t, "raffle.winner_picked", transport.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(transport.messages[0].data, &envelope))
	assert.Equal(t, string(events.EventTypeRaffleWinnerPicked), envelope.EventType)
	assert.Equal(t, "raffle-test", envelope.SourceService)
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.RaffleWinnerPickedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventPublisher_LocalHandlers(t *testing.T) {
	transport := &fakeTransport{}
	publisher := NewNATSEventPublisher(transport, NewEventSubjectMapper(), "raffle-test")

	var calls []string
	publisher.RegisterLocalHandler(events.EventTypeRaffleReset, func(ctx context.Context, e events.Event) error {
		calls = append(calls, "failing")
		return errors.New("handler failed")
	})
	publisher.RegisterLocalHandler(events.EventTypeRaffleReset, func(ctx context.Context, e events.Event) error {
		calls = append(calls, "second")
		return nil
	})

	require.NoError(t, publisher.Publish(events.RaffleResetEvent{RaffleID: 1}))
	require.NoError(t, publisher.Publish(events.RaffleEnteredEvent{RaffleID: 1}))

	// A failing handler neither stops later handlers nor the NATS publish
	assert.Equal(t, []string{"failing", "second"}, calls)
	assert.Len(t, transport.messages, 2)
}

func TestNATSEventPublisher_AllEventsHandler(t *testing.T) {
	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper(), "raffle-test")

	var seen []events.EventType
	publisher.RegisterAllEventsHandler(func(ctx context.Context, e events.Event) error {
		seen = append(seen, e.Type())
		return nil
	})

	require.NoError(t, publisher.Publish(events.RaffleEnteredEvent{}))
	require.NoError(t, publisher.Publish(events.BalanceChangeEvent{}))

	assert.Equal(t, []events.EventType{events.EventTypeRaffleEntered, events.EventTypeBalanceChange}, seen)
}

func TestNATSEventPublisher_TransportErrors(t *testing.T) {
	publisher := NewNATSEventPublisher(&fakeTransport{err: errors.New("connection refused")}, NewEventSubjectMapper(), "raffle-test")
	assert.Error(t, publisher.Publish(events.RaffleEnteredEvent{}))

	publisher = NewNATSEventPublisher(&fakeTransport{err: errors.New("nats: no response from stream")}, NewEventSubjectMapper(), "raffle-test")
	assert.NoError(t, publisher.Publish(events.RaffleEnteredEvent{}))
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	for _, subject := range mapper.GetAllSubjects() {
		eventType := mapper.MapSubjectToEventType(subject)
		assert.Equal(t, subject, mapper.MapEventTypeToSubject(eventType))
	}

	assert.Equal(t, "unknown.mystery", mapper.MapEventTypeToSubject("mystery"))
	assert.Equal(t, events.EventTypeRaffleEntered, mapper.MapSubjectToEventType("raffle.entered"))
}
