package observability

// Metric name prefixes
const (
	MetricPrefix = "raffle"
)

// Metric names
const (
	// Raffle lifecycle metrics
	EntriesTotal        = MetricPrefix + ".entries_total"
	EntryAmountTotal    = MetricPrefix + ".entries.amount_total"
	DrawsRequestedTotal = MetricPrefix + ".draws.requested_total"
	WinnersPickedTotal  = MetricPrefix + ".winners.picked_total"
	PayoutAmountTotal   = MetricPrefix + ".winners.payout_total"
	ResetsTotal         = MetricPrefix + ".resets_total"
	PoolBalance         = MetricPrefix + ".pool.balance"

	// Automation metrics
	UpkeepChecksTotal = MetricPrefix + ".upkeep.checks_total"
	UpkeepDuration    = MetricPrefix + ".upkeep.duration"

	// Randomness metrics
	FulfillmentsTotal = MetricPrefix + ".vrf.fulfillments_total"

	// NATS metrics
	NATSMessagesReceivedTotal  = MetricPrefix + ".nats.messages_received_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelRaffleID  = "raffle_id"
	LabelResult    = "result"
	LabelState     = "previous_state"
)

// Upkeep check results
const (
	UpkeepResultNeeded    = "needed"
	UpkeepResultNotNeeded = "not_needed"
	UpkeepResultPerformed = "performed"
	UpkeepResultFailed    = "failed"
)

// Fulfillment results
const (
	FulfillmentAccepted = "accepted"
	FulfillmentRejected = "rejected"
	FulfillmentInvalid  = "invalid_proof"
	FulfillmentFailed   = "failed"
)
