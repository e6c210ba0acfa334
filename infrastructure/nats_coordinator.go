package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/infrastructure/observability"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/vrf"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessageBus publishes to and subscribes on subjects
type MessageBus interface {
	MessagePublisher
	Subscribe(subject string, handler func([]byte) error) error
}

// NATSCoordinator implements RandomnessCoordinator by publishing requests for
// an external oracle and routing its signed fulfillments back to a consumer
type NATSCoordinator struct {
	bus      MessageBus
	consumer interfaces.RandomnessConsumer
}

// NewNATSCoordinator creates a new NATS randomness coordinator
func NewNATSCoordinator(bus MessageBus) *NATSCoordinator {
	return &NATSCoordinator{bus: bus}
}

// EnsureVRFStream ensures the stream carrying requests and fulfillments exists
func EnsureVRFStream(client *NATSClient) error {
	return client.EnsureStream(vrf.StreamName, "Randomness requests and fulfillments",
		[]string{vrf.RequestSubject, vrf.FulfillmentSubject})
}

// RequestRandomWords publishes the request and returns its identifier
func (c *NATSCoordinator) RequestRandomWords(ctx context.Context, req *entities.RandomWordsRequest) (*big.Int, error) {
	if req.SubscriptionID == nil {
		return nil, vrf.ErrInvalidSubscription
	}

	nonce := uuid.New()
	requestID := vrf.ComputeRequestID(req.KeyHash, req.RaffleID, req.SubscriptionID, nonce[:])

	data, err := json.Marshal(vrf.NewRequestMessage(requestID, req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal randomness request: %w", err)
	}

	if err := c.bus.Publish(ctx, vrf.RequestSubject, data); err != nil {
		return nil, fmt.Errorf("failed to publish randomness request: %w", err)
	}
	observability.GetMetrics().RecordNATSMessagePublished(vrf.RequestSubject)

	log.WithFields(log.Fields{
		"raffleID":  req.RaffleID,
		"requestID": requestID.String(),
		"numWords":  req.NumWords,
	}).Info("Published randomness request")

	return requestID, nil
}

// SubscribeFulfillments routes verified fulfillments to consumer
func (c *NATSCoordinator) SubscribeFulfillments(consumer interfaces.RandomnessConsumer) error {
	c.consumer = consumer
	return c.bus.Subscribe(vrf.FulfillmentSubject, c.handleFulfillment)
}

// handleFulfillment returns an error only when redelivery could succeed.
// Malformed messages, bad proofs and domain rejections are acknowledged.
func (c *NATSCoordinator) handleFulfillment(data []byte) error {
	metrics := observability.GetMetrics()
	metrics.RecordNATSMessageReceived(vrf.FulfillmentSubject)

	var msg vrf.FulfillmentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.WithError(err).Error("Dropping malformed fulfillment")
		metrics.RecordFulfillment(observability.FulfillmentInvalid)
		return nil
	}

	fulfillment, err := msg.Verify()
	if err != nil {
		log.WithFields(log.Fields{
			"requestID": msg.RequestID,
			"raffleID":  msg.RaffleID,
			"error":     err,
		}).Warn("Dropping unverifiable fulfillment")
		metrics.RecordFulfillment(observability.FulfillmentInvalid)
		return nil
	}

	if c.consumer == nil {
		return vrf.ErrNoConsumer
	}

	if err := c.consumer.FulfillRandomWords(context.Background(), fulfillment); err != nil {
		if isDomainRejection(err) {
			log.WithFields(log.Fields{
				"requestID": msg.RequestID,
				"raffleID":  msg.RaffleID,
				"sender":    fulfillment.Sender.Hex(),
				"error":     err,
			}).Warn("Fulfillment rejected")
			metrics.RecordFulfillment(observability.FulfillmentRejected)
			return nil
		}
		metrics.RecordFulfillment(observability.FulfillmentFailed)
		return fmt.Errorf("failed to apply fulfillment %s: %w", msg.RequestID, err)
	}

	metrics.RecordFulfillment(observability.FulfillmentAccepted)
	return nil
}

func isDomainRejection(err error) bool {
	return !errors.Is(err, entities.ErrPayoutFailed) && entities.KindOf(err) != entities.ErrorKindInternal
}

// NATSOracle answers randomness requests read from NATS with signed fulfillments
type NATSOracle struct {
	bus    MessageBus
	oracle *vrf.Oracle
}

// NewNATSOracle creates a NATS bound oracle
func NewNATSOracle(bus MessageBus, oracle *vrf.Oracle) *NATSOracle {
	return &NATSOracle{bus: bus, oracle: oracle}
}

// Start subscribes to randomness requests
func (o *NATSOracle) Start() error {
	log.WithField("address", o.oracle.Address().Hex()).Info("Oracle listening for randomness requests")
	return o.bus.Subscribe(vrf.RequestSubject, o.handleRequest)
}

func (o *NATSOracle) handleRequest(data []byte) error {
	observability.GetMetrics().RecordNATSMessageReceived(vrf.RequestSubject)

	var msg vrf.RequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.WithError(err).Error("Dropping malformed randomness request")
		return nil
	}

	resp, err := o.oracle.Respond(&msg)
	if err != nil {
		log.WithFields(log.Fields{
			"requestID": msg.RequestID,
			"error":     err,
		}).Warn("Refusing randomness request")
		return nil
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal fulfillment: %w", err)
	}

	if err := o.bus.Publish(context.Background(), vrf.FulfillmentSubject, payload); err != nil {
		return fmt.Errorf("failed to publish fulfillment: %w", err)
	}
	observability.GetMetrics().RecordNATSMessagePublished(vrf.FulfillmentSubject)

	log.WithFields(log.Fields{
		"requestID": resp.RequestID,
		"raffleID":  resp.RaffleID,
	}).Info("Published randomness fulfillment")
	return nil
}
