package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upkeepRecord struct {
	raffleID int64
	result   string
}

type recordingUpkeepRecorder struct {
	mu      sync.Mutex
	records []upkeepRecord
}

func (r *recordingUpkeepRecorder) RecordUpkeepCheck(raffleID int64, result string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, upkeepRecord{raffleID: raffleID, result: result})
}

func (r *recordingUpkeepRecorder) results() []upkeepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]upkeepRecord(nil), r.records...)
}

func TestUpkeepWorker_RunOnce(t *testing.T) {
	f := newContractFixture(t)
	due := f.deploy(t, 10, time.Minute)
	empty := f.deploy(t, 10, time.Minute)

	f.fund(t, player(0), 10)
	_, err := f.contract.Enter(f.ctx, due, player(0), 10)
	require.NoError(t, err)

	recorder := &recordingUpkeepRecorder{}
	worker := application.NewUpkeepWorker(f.contract, time.Second, recorder)

	// Interval not elapsed yet
	performed, err := worker.RunOnce(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, performed)

	f.clock.Advance(time.Minute)
	performed, err = worker.RunOnce(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, performed)
	assert.Equal(t, 1, f.coordinator.PendingRequests())

	raffle, err := f.contract.GetRaffle(f.ctx, due)
	require.NoError(t, err)
	assert.Equal(t, entities.RaffleStateCalculating, raffle.State)

	// A calculating raffle is not drawn twice
	performed, err = worker.RunOnce(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, performed)
	assert.Len(t, f.recorder.OfType(events.EventTypeRaffleDrawRequested), 1)

	assert.Equal(t, []upkeepRecord{
		{due, application.UpkeepNotNeeded},
		{empty, application.UpkeepNotNeeded},
		{due, application.UpkeepPerformed},
		{empty, application.UpkeepNotNeeded},
		{due, application.UpkeepNotNeeded},
		{empty, application.UpkeepNotNeeded},
	}, recorder.results())
}

func TestUpkeepWorker_StartAndStop(t *testing.T) {
	f := newContractFixture(t)
	raffleID := f.deploy(t, 10, 0)

	f.fund(t, player(0), 10)
	_, err := f.contract.Enter(f.ctx, raffleID, player(0), 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := application.NewUpkeepWorker(f.contract, 10*time.Millisecond, nil)
	stop := worker.Start(ctx)
	defer stop()

	require.Eventually(t, func() bool {
		return f.coordinator.PendingRequests() == 1
	}, 2*time.Second, 10*time.Millisecond)

	raffle, err := f.contract.GetRaffle(f.ctx, raffleID)
	require.NoError(t, err)
	assert.Equal(t, entities.RaffleStateCalculating, raffle.State)
}
