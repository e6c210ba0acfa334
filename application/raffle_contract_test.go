package application_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application/testutil"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/testhelpers"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/vrf"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddr       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	coordinatorAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type contractFixture struct {
	ctx         context.Context
	recorder    *testhelpers.EventRecorder
	factory     *testutil.MemoryUnitOfWorkFactory
	coordinator *vrf.MockCoordinator
	clock       *manualClock
	contract    *application.RaffleContract
	subID       *big.Int
}

func newContractFixture(t *testing.T) *contractFixture {
	t.Helper()

	f := &contractFixture{
		ctx:         context.Background(),
		recorder:    &testhelpers.EventRecorder{},
		coordinator: vrf.NewMockCoordinator(coordinatorAddr, 1),
		clock:       &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	f.factory = testutil.NewMemoryUnitOfWorkFactory(f.recorder)
	f.contract = application.NewRaffleContract(f.factory, f.coordinator, f.clock.Now)
	f.coordinator.SetConsumer(f.contract)

	f.subID = f.coordinator.CreateSubscription()
	require.NoError(t, f.coordinator.FundSubscription(f.subID, 100))
	return f
}

func (f *contractFixture) deploy(t *testing.T, fee int64, interval time.Duration) int64 {
	t.Helper()

	raffle, err := f.contract.Deploy(f.ctx, entities.RaffleConfig{
		EntranceFee:      fee,
		Interval:         interval,
		KeyHash:          common.HexToHash("0x02"),
		SubscriptionID:   f.subID,
		CallbackGasLimit: 500000,
		Owner:            ownerAddr,
		Coordinator:      coordinatorAddr,
	})
	require.NoError(t, err)
	require.NoError(t, f.coordinator.AddConsumer(f.subID, raffle.ID))
	return raffle.ID
}

// fund credits amount to addr so it can pay for entries
func (f *contractFixture) fund(t *testing.T, addr common.Address, amount int64) {
	t.Helper()

	_, err := f.contract.Deposit(f.ctx, addr, amount)
	require.NoError(t, err)
}

func player(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x2000 + i)))
}

func TestRaffleContract_FullRound(t *testing.T) {
	f := newContractFixture(t)
	raffleID := f.deploy(t, 10, 30*time.Second)

	for i := 0; i < 3; i++ {
		f.fund(t, player(i), 10)
		entry, err := f.contract.Enter(f.ctx, raffleID, player(i), 10)
		require.NoError(t, err)
		assert.Equal(t, int64(i), entry.Slot)
	}

	needed, performData, err := f.contract.CheckUpkeep(f.ctx, raffleID, nil)
	require.NoError(t, err)
	assert.False(t, needed)
	assert.Empty(t, performData)

	f.clock.Advance(30 * time.Second)
	needed, _, err = f.contract.CheckUpkeep(f.ctx, raffleID, nil)
	require.NoError(t, err)
	require.True(t, needed)

	requestID, err := f.contract.PerformUpkeep(f.ctx, raffleID, nil)
	require.NoError(t, err)

	raffle, err := f.contract.GetRaffle(f.ctx, raffleID)
	require.NoError(t, err)
	assert.Equal(t, entities.RaffleStateCalculating, raffle.State)

	_, err = f.contract.Enter(f.ctx, raffleID, player(9), 10)
	assert.ErrorIs(t, err, entities.ErrRaffleNotOpen)

	require.NoError(t, f.coordinator.FulfillRandomWords(f.ctx, requestID))

	word := vrf.DeriveMockWords(requestID, 1)[0]
	expected := player(int(new(big.Int).Mod(word, big.NewInt(3)).Int64()))

	raffle, err = f.contract.GetRaffle(f.ctx, raffleID)
	require.NoError(t, err)
	assert.Equal(t, entities.RaffleStateOpen, raffle.State)
	assert.Zero(t, raffle.PlayerCount)
	assert.Zero(t, raffle.PoolBalance)
	require.NotNil(t, raffle.RecentWinner)
	assert.Equal(t, expected, *raffle.RecentWinner)
	assert.Equal(t, f.clock.Now(), raffle.LastDrawAt)

	account, err := f.contract.GetAccount(f.ctx, expected, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.Account.Balance)
	require.Len(t, account.History, 3)
	assert.Equal(t, int64(30), account.History[0].ChangeAmount)
	assert.Equal(t, entities.TransactionTypeRaffleEntry, account.History[1].TransactionType)
	assert.Equal(t, int64(-10), account.History[1].ChangeAmount)
	assert.Equal(t, entities.TransactionTypeDeposit, account.History[2].TransactionType)

	winners, err := f.contract.GetRecentWinners(f.ctx, raffleID, 5)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, expected, winners[0].Winner)

	players, err := f.contract.GetPlayers(f.ctx, raffleID)
	require.NoError(t, err)
	assert.Empty(t, players)

	// Events are published in commit order
	types := make([]events.EventType, 0)
	for _, e := range f.recorder.Events() {
		types = append(types, e.Type())
	}
	assert.Equal(t, []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeBalanceChange,
		events.EventTypeRaffleEntered,
		events.EventTypeBalanceChange,
		events.EventTypeBalanceChange,
		events.EventTypeRaffleEntered,
		events.EventTypeBalanceChange,
		events.EventTypeBalanceChange,
		events.EventTypeRaffleEntered,
		events.EventTypeRaffleDrawRequested,
		events.EventTypeBalanceChange,
		events.EventTypeRaffleWinnerPicked,
	}, types)
}

func TestRaffleContract_RejectedOperationsRollBack(t *testing.T) {
	f := newContractFixture(t)
	raffleID := f.deploy(t, 10, time.Minute)
	commits := f.factory.Commits()

	_, err := f.contract.Enter(f.ctx, raffleID, player(0), 9)
	assert.ErrorIs(t, err, entities.ErrNotEnoughFunds)

	err = f.contract.ResetRound(f.ctx, raffleID, player(0))
	assert.ErrorIs(t, err, entities.ErrNotOwner)

	_, err = f.contract.PerformUpkeep(f.ctx, raffleID, nil)
	var notNeeded *entities.UpkeepNotNeededError
	assert.ErrorAs(t, err, &notNeeded)

	assert.Equal(t, commits, f.factory.Commits())
	assert.Empty(t, f.recorder.OfType(events.EventTypeRaffleEntered))
	assert.Empty(t, f.recorder.OfType(events.EventTypeRaffleReset))

	_, err = f.contract.GetPlayer(f.ctx, raffleID, 0)
	assert.ErrorIs(t, err, entities.ErrPlayerIndexOutOfRange)
}

func TestRaffleContract_PayoutFailureIsRetried(t *testing.T) {
	f := newContractFixture(t)
	raffleID := f.deploy(t, 5, 0)
	f.fund(t, player(1), 5)

	_, err := f.contract.Enter(f.ctx, raffleID, player(1), 5)
	require.NoError(t, err)
	requestID, err := f.contract.PerformUpkeep(f.ctx, raffleID, nil)
	require.NoError(t, err)

	f.factory.Store.UpdateBalanceErr = errors.New("disk full")
	err = f.coordinator.FulfillRandomWords(f.ctx, requestID)
	assert.ErrorIs(t, err, entities.ErrPayoutFailed)

	raffle, err := f.contract.GetRaffle(f.ctx, raffleID)
	require.NoError(t, err)
	assert.Equal(t, entities.RaffleStateCalculating, raffle.State)
	assert.Equal(t, int64(5), raffle.PoolBalance)
	assert.Empty(t, f.recorder.OfType(events.EventTypeRaffleWinnerPicked))
	assert.Equal(t, 1, f.coordinator.PendingRequests())

	f.factory.Store.UpdateBalanceErr = nil
	require.NoError(t, f.coordinator.FulfillRandomWords(f.ctx, requestID))
	assert.Equal(t, int64(5), f.factory.Store.Balance(player(1)))
	assert.Len(t, f.recorder.OfType(events.EventTypeRaffleWinnerPicked), 1)
}

func TestRaffleContract_OwnerReset(t *testing.T) {
	f := newContractFixture(t)
	raffleID := f.deploy(t, 5, 0)
	f.fund(t, player(1), 5)

	_, err := f.contract.Enter(f.ctx, raffleID, player(1), 5)
	require.NoError(t, err)
	requestID, err := f.contract.PerformUpkeep(f.ctx, raffleID, nil)
	require.NoError(t, err)

	require.NoError(t, f.contract.ResetRound(f.ctx, raffleID, ownerAddr))

	raffle, err := f.contract.GetRaffle(f.ctx, raffleID)
	require.NoError(t, err)
	assert.Equal(t, entities.RaffleStateOpen, raffle.State)
	assert.Nil(t, raffle.OutstandingRequestID)

	// The abandoned request can no longer resolve the raffle
	err = f.coordinator.FulfillRandomWords(f.ctx, requestID)
	assert.ErrorIs(t, err, entities.ErrRequestMismatch)

	resets := f.recorder.OfType(events.EventTypeRaffleReset)
	require.Len(t, resets, 1)
	reset := resets[0].(events.RaffleResetEvent)
	assert.Equal(t, entities.RaffleStateCalculating, reset.PreviousState)
	assert.Equal(t, int64(5), reset.DiscardedPool)
}

func TestRaffleContract_ListRaffleIDs(t *testing.T) {
	f := newContractFixture(t)
	first := f.deploy(t, 1, time.Minute)
	second := f.deploy(t, 2, time.Minute)

	ids, err := f.contract.ListRaffleIDs(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{first, second}, ids)

	_, err = f.contract.GetRaffle(f.ctx, 99)
	assert.ErrorIs(t, err, entities.ErrRaffleNotFound)
}

func TestRaffleContract_AuthorizedCallsPinTheRound(t *testing.T) {
	f := newContractFixture(t)
	raffleID := f.deploy(t, 5, 0)
	f.fund(t, player(1), 10)

	auth := application.Authorization{Caller: player(1), Round: 1, PlayerCount: 0}
	entry, err := f.contract.EnterAuthorized(f.ctx, raffleID, auth, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.Slot)

	// The same signature cannot buy a second slot
	_, err = f.contract.EnterAuthorized(f.ctx, raffleID, auth, 5)
	assert.ErrorIs(t, err, entities.ErrStaleSignature)
	assert.Equal(t, int64(5), f.factory.Store.Balance(player(1)))

	// A reset signed before the entry is refused
	reset := application.Authorization{Caller: ownerAddr, Round: 1, PlayerCount: 0}
	err = f.contract.ResetRoundAuthorized(f.ctx, raffleID, reset)
	assert.ErrorIs(t, err, entities.ErrStaleSignature)
	assert.Empty(t, f.recorder.OfType(events.EventTypeRaffleReset))

	reset.PlayerCount = 1
	require.NoError(t, f.contract.ResetRoundAuthorized(f.ctx, raffleID, reset))
	assert.Len(t, f.recorder.OfType(events.EventTypeRaffleReset), 1)

	raffle, err := f.contract.GetRaffle(f.ctx, raffleID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), raffle.Round)

	// Only the owner may reset even with a current signature
	stranger := application.Authorization{Caller: player(1), Round: raffle.Round, PlayerCount: 0}
	err = f.contract.ResetRoundAuthorized(f.ctx, raffleID, stranger)
	assert.ErrorIs(t, err, entities.ErrNotOwner)

	_, err = f.contract.EnterAuthorized(f.ctx, 99, auth, 5)
	assert.ErrorIs(t, err, entities.ErrRaffleNotFound)
}
