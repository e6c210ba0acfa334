package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/config"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the raffle service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	entriesCounter               metric.Int64Counter
	entryAmountCounter           metric.Int64Counter
	drawsRequestedCounter        metric.Int64Counter
	winnersPickedCounter         metric.Int64Counter
	payoutAmountCounter          metric.Int64Counter
	resetsCounter                metric.Int64Counter
	poolBalanceGauge             metric.Int64UpDownCounter
	upkeepChecksCounter          metric.Int64Counter
	upkeepDurationHist           metric.Float64Histogram
	fulfillmentsCounter          metric.Int64Counter
	natsMessagesReceivedCounter  metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
	balanceTransactionsCounter   metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	return mp.initialize(ctx, nil)
}

// InitializeWithReader sets up the provider on an explicit reader instead of
// the configured exporter
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	return mp.initialize(context.Background(), reader)
}

func (mp *MetricsProvider) initialize(ctx context.Context, reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Info("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	if reader == nil {
		var exporter sdkmetric.Exporter
		switch mp.config.OTelExporterType {
		case "console":
			exporter, err = stdoutmetric.New()
			if err != nil {
				return fmt.Errorf("failed to create console exporter: %w", err)
			}
			log.Info("Using console metric exporter")

		case "otlp":
			dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			exporter, err = otlpmetricgrpc.New(dialCtx,
				otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
				otlpmetricgrpc.WithInsecure(),
			)
			if err != nil {
				return fmt.Errorf("failed to create OTLP exporter: %w", err)
			}
			log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

		case "none":
			log.Info("Metrics export disabled (exporter_type='none')")
			mp.initialized = true
			return nil

		default:
			return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
		}

		reader = sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
		)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("raffle")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.entriesCounter, EntriesTotal, "Total number of raffle entries"},
		{&mp.entryAmountCounter, EntryAmountTotal, "Total value paid into raffle pools"},
		{&mp.drawsRequestedCounter, DrawsRequestedTotal, "Total number of randomness requests"},
		{&mp.winnersPickedCounter, WinnersPickedTotal, "Total number of resolved rounds"},
		{&mp.payoutAmountCounter, PayoutAmountTotal, "Total value paid out to winners"},
		{&mp.resetsCounter, ResetsTotal, "Total number of owner resets"},
		{&mp.upkeepChecksCounter, UpkeepChecksTotal, "Total number of upkeep evaluations"},
		{&mp.fulfillmentsCounter, FulfillmentsTotal, "Total number of randomness fulfillments received"},
		{&mp.natsMessagesReceivedCounter, NATSMessagesReceivedTotal, "Total number of NATS messages received"},
		{&mp.natsMessagesPublishedCounter, NATSMessagesPublishedTotal, "Total number of NATS messages published"},
		{&mp.balanceTransactionsCounter, BalanceTransactionsTotal, "Total number of balance transactions"},
	}

	var err error
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	// UpDownCounter for gauge-like behavior
	mp.poolBalanceGauge, err = mp.meter.Int64UpDownCounter(
		PoolBalance,
		metric.WithDescription("Current value held in raffle pools"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pool balance gauge: %w", err)
	}

	mp.upkeepDurationHist, err = mp.meter.Float64Histogram(
		UpkeepDuration,
		metric.WithDescription("Duration of upkeep passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create upkeep duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// HandleEvent records the metrics carried by a raffle domain event
func (mp *MetricsProvider) HandleEvent(ctx context.Context, event events.Event) error {
	if !mp.isEnabled() {
		return nil
	}

	switch e := event.(type) {
	case events.RaffleEnteredEvent:
		raffle := metric.WithAttributes(attribute.Int64(LabelRaffleID, e.RaffleID))
		mp.entriesCounter.Add(ctx, 1, raffle)
		mp.entryAmountCounter.Add(ctx, e.Amount, raffle)
		mp.poolBalanceGauge.Add(ctx, e.Amount, raffle)
	case events.RaffleDrawRequestedEvent:
		mp.drawsRequestedCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int64(LabelRaffleID, e.RaffleID)))
	case events.RaffleWinnerPickedEvent:
		raffle := metric.WithAttributes(attribute.Int64(LabelRaffleID, e.RaffleID))
		mp.winnersPickedCounter.Add(ctx, 1, raffle)
		mp.payoutAmountCounter.Add(ctx, e.Amount, raffle)
		mp.poolBalanceGauge.Add(ctx, -e.Amount, raffle)
	case events.RaffleResetEvent:
		mp.resetsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Int64(LabelRaffleID, e.RaffleID),
			attribute.String(LabelState, e.PreviousState.String()),
		))
		mp.poolBalanceGauge.Add(ctx, -e.DiscardedPool, metric.WithAttributes(attribute.Int64(LabelRaffleID, e.RaffleID)))
	case events.BalanceChangeEvent:
		mp.balanceTransactionsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelType, string(e.TransactionType)),
		))
	}

	return nil
}

// RecordUpkeepCheck records one upkeep evaluation of a raffle
func (mp *MetricsProvider) RecordUpkeepCheck(raffleID int64, result string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Int64(LabelRaffleID, raffleID),
		attribute.String(LabelResult, result),
	)
	mp.upkeepChecksCounter.Add(context.Background(), 1, attrs)
	mp.upkeepDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordFulfillment records a randomness fulfillment and how it was handled
func (mp *MetricsProvider) RecordFulfillment(result string) {
	if !mp.isEnabled() {
		return
	}

	mp.fulfillmentsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelResult, result),
		),
	)
}

// RecordNATSMessageReceived records a NATS message being received
func (mp *MetricsProvider) RecordNATSMessageReceived(subject string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesReceivedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, subject),
		),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(subject string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, subject),
		),
	)
}

// isEnabled checks if metrics are enabled and instruments exist. Safe on a nil provider.
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. The result may be nil, and
// every recording method is a no-op on a nil provider.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
