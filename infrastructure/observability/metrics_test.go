package observability

import (
	"context"
	"testing"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/config"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	reader := sdkmetric.NewManualReader()

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.InitializeWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	return totals
}

func TestMetricsProvider_HandleEvent(t *testing.T) {
	mp, reader := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, mp.HandleEvent(ctx, events.RaffleEnteredEvent{RaffleID: 1, Amount: 10}))
	require.NoError(t, mp.HandleEvent(ctx, events.RaffleEnteredEvent{RaffleID: 1, Amount: 15}))
	require.NoError(t, mp.HandleEvent(ctx, events.RaffleDrawRequestedEvent{RaffleID: 1}))
	require.NoError(t, mp.HandleEvent(ctx, events.RaffleWinnerPickedEvent{RaffleID: 1, Amount: 25}))
	require.NoError(t, mp.HandleEvent(ctx, events.RaffleResetEvent{RaffleID: 1, PreviousState: entities.RaffleStateOpen}))
	require.NoError(t, mp.HandleEvent(ctx, events.BalanceChangeEvent{TransactionType: entities.TransactionTypeRaffleWin}))

	totals := collect(t, reader)
	assert.Equal(t, int64(2), totals[EntriesTotal])
	assert.Equal(t, int64(25), totals[EntryAmountTotal])
	assert.Equal(t, int64(1), totals[DrawsRequestedTotal])
	assert.Equal(t, int64(1), totals[WinnersPickedTotal])
	assert.Equal(t, int64(25), totals[PayoutAmountTotal])
	assert.Equal(t, int64(1), totals[ResetsTotal])
	assert.Equal(t, int64(0), totals[PoolBalance])
	assert.Equal(t, int64(1), totals[BalanceTransactionsTotal])
}

func TestMetricsProvider_Recorders(t *testing.T) {
	mp, reader := newTestProvider(t)

	mp.RecordUpkeepCheck(1, UpkeepResultNotNeeded, time.Millisecond)
	mp.RecordUpkeepCheck(1, UpkeepResultPerformed, time.Millisecond)
	mp.RecordFulfillment(FulfillmentAccepted)
	mp.RecordNATSMessageReceived("vrf.fulfillments")
	mp.RecordNATSMessagePublished("vrf.requests")

	totals := collect(t, reader)
	assert.Equal(t, int64(2), totals[UpkeepChecksTotal])
	assert.Equal(t, int64(1), totals[FulfillmentsTotal])
	assert.Equal(t, int64(1), totals[NATSMessagesReceivedTotal])
	assert.Equal(t, int64(1), totals[NATSMessagesPublishedTotal])
}

func TestMetricsProvider_Disabled(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = false

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))

	// Recording on a disabled or nil provider is a no-op
	assert.NoError(t, mp.HandleEvent(context.Background(), events.RaffleEnteredEvent{Amount: 1}))
	mp.RecordFulfillment(FulfillmentAccepted)

	var nilProvider *MetricsProvider
	assert.NoError(t, nilProvider.HandleEvent(context.Background(), events.RaffleEnteredEvent{}))
	nilProvider.RecordUpkeepCheck(1, UpkeepResultNeeded, time.Second)
}

func TestMetricsProvider_NoneExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.NoError(t, mp.HandleEvent(context.Background(), events.RaffleEnteredEvent{Amount: 1}))
}
