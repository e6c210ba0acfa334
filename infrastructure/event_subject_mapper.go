package infrastructure

import (
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"
)

// RaffleEventStream is the JetStream stream holding every raffle domain event
const RaffleEventStream = "raffle_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByEventType = map[events.EventType]string{
	events.EventTypeRaffleEntered:       "raffle.entered",
	events.EventTypeRaffleDrawRequested: "raffle.draw_requested",
	events.EventTypeRaffleWinnerPicked:  "raffle.winner_picked",
	events.EventTypeRaffleReset:         "raffle.reset",
	events.EventTypeBalanceChange:       "accounts.balance_changed",
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.MapEventTypeToSubject(event.Type())
}

// MapEventTypeToSubject converts an event type to its NATS subject
func (m *EventSubjectMapper) MapEventTypeToSubject(eventType events.EventType) string {
	if subject, ok := subjectsByEventType[eventType]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", eventType)
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByEventType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects raffle events are published to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"raffle.entered",
		"raffle.draw_requested",
		"raffle.winner_picked",
		"raffle.reset",
		"accounts.balance_changed",
	}
}
