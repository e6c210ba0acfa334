package repository

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaffleRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	raffle := testutil.CreateTestRaffle()
	require.NoError(t, repo.Create(ctx, raffle))
	require.NotZero(t, raffle.ID)

	t.Run("round trips configuration", func(t *testing.T) {
		got, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, raffle.Config.EntranceFee, got.Config.EntranceFee)
		assert.Equal(t, raffle.Config.Interval, got.Config.Interval)
		assert.Equal(t, raffle.Config.KeyHash, got.Config.KeyHash)
		assert.Zero(t, raffle.Config.SubscriptionID.Cmp(got.Config.SubscriptionID))
		assert.Equal(t, raffle.Config.CallbackGasLimit, got.Config.CallbackGasLimit)
		assert.Equal(t, entities.DefaultRequestConfirmations, got.Config.RequestConfirmations)
		assert.Equal(t, testutil.TestOwner, got.Config.Owner)
		assert.Equal(t, testutil.TestCoordinator, got.Config.Coordinator)
		assert.Equal(t, entities.RaffleStateOpen, got.State)
		assert.Equal(t, int64(1), got.Round)
		assert.True(t, raffle.LastDrawAt.Equal(got.LastDrawAt))
		assert.Nil(t, got.OutstandingRequestID)
		assert.Nil(t, got.RecentWinner)
	})

	t.Run("missing raffle returns nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update writes live state only", func(t *testing.T) {
		got, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)

		_, err = got.Enter(10)
		require.NoError(t, err)
		requestID, _ := new(big.Int).SetString("98765432109876543210987654321", 10)
		require.NoError(t, got.BeginDraw(requestID))
		got.Config.EntranceFee = 1
		got.UpdatedAt = time.Now().UTC()
		require.NoError(t, repo.Update(ctx, got))

		reloaded, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RaffleStateCalculating, reloaded.State)
		assert.Equal(t, int64(1), reloaded.PlayerCount)
		assert.Equal(t, int64(10), reloaded.PoolBalance)
		assert.Zero(t, requestID.Cmp(reloaded.OutstandingRequestID))
		assert.Equal(t, int64(10), reloaded.Config.EntranceFee)

		winner := testutil.PlayerAddress(0)
		reloaded.Settle(winner, time.Now().UTC())
		require.NoError(t, repo.Update(ctx, reloaded))

		settled, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RaffleStateOpen, settled.State)
		assert.Equal(t, int64(2), settled.Round)
		require.NotNil(t, settled.RecentWinner)
		assert.Equal(t, winner, *settled.RecentWinner)
	})

	t.Run("state constraint rejects calculating without request", func(t *testing.T) {
		got, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		got.State = entities.RaffleStateCalculating
		got.OutstandingRequestID = nil
		assert.Error(t, repo.Update(ctx, got))
	})

	t.Run("list IDs", func(t *testing.T) {
		second := testutil.CreateTestRaffle()
		require.NoError(t, repo.Create(ctx, second))

		ids, err := repo.ListIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{raffle.ID, second.ID}, ids)
	})
}

func TestRaffleEntryRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	raffleRepo := NewRaffleRepository(testDB.DB)
	repo := NewRaffleEntryRepository(testDB.DB)
	ctx := context.Background()

	raffle := testutil.CreateTestRaffle()
	require.NoError(t, raffleRepo.Create(ctx, raffle))

	for i := 0; i < 3; i++ {
		entry := &entities.RaffleEntry{
			RaffleID:  raffle.ID,
			Round:     1,
			Slot:      int64(i),
			Player:    testutil.PlayerAddress(i),
			Amount:    10,
			EnteredAt: time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, entry))
		assert.NotZero(t, entry.ID)
	}

	t.Run("duplicate slot rejected", func(t *testing.T) {
		err := repo.Create(ctx, &entities.RaffleEntry{
			RaffleID: raffle.ID, Round: 1, Slot: 1,
			Player: testutil.PlayerAddress(9), Amount: 10, EnteredAt: time.Now().UTC(),
		})
		assert.Error(t, err)
	})

	t.Run("get by slot", func(t *testing.T) {
		entry, err := repo.GetBySlot(ctx, raffle.ID, 1, 2)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, testutil.PlayerAddress(2), entry.Player)

		missing, err := repo.GetBySlot(ctx, raffle.ID, 1, 3)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("get by round is slot ordered and round scoped", func(t *testing.T) {
		entries, err := repo.GetByRound(ctx, raffle.ID, 1)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for i, e := range entries {
			assert.Equal(t, int64(i), e.Slot)
		}

		next, err := repo.GetByRound(ctx, raffle.ID, 2)
		require.NoError(t, err)
		assert.Empty(t, next)
	})
}

func TestRaffleWinnerRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	raffleRepo := NewRaffleRepository(testDB.DB)
	repo := NewRaffleWinnerRepository(testDB.DB)
	ctx := context.Background()

	raffle := testutil.CreateTestRaffle()
	require.NoError(t, raffleRepo.Create(ctx, raffle))

	word, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	for round := int64(1); round <= 3; round++ {
		winner := &entities.RaffleWinner{
			RaffleID:    raffle.ID,
			Round:       round,
			RequestID:   big.NewInt(round * 100),
			RandomWord:  word,
			WinnerIndex: 0,
			PlayerCount: 1,
			Winner:      testutil.PlayerAddress(int(round)),
			Amount:      10 * round,
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, winner))
	}

	winners, err := repo.GetRecentByRaffle(ctx, raffle.ID, 2)
	require.NoError(t, err)
	require.Len(t, winners, 2)
	assert.Equal(t, int64(3), winners[0].Round)
	assert.Equal(t, int64(2), winners[1].Round)
	assert.Zero(t, word.Cmp(winners[0].RandomWord))
	assert.Equal(t, int64(300), winners[0].RequestID.Int64())
	assert.Equal(t, testutil.PlayerAddress(3), winners[0].Winner)

	err = repo.Create(ctx, &entities.RaffleWinner{
		RaffleID: raffle.ID, Round: 3, RequestID: big.NewInt(1), RandomWord: big.NewInt(1),
		Winner: testutil.PlayerAddress(1), CreatedAt: time.Now().UTC(),
	})
	assert.Error(t, err, "a round resolves at most once")
}

func TestAccountAndBalanceHistoryRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	raffleRepo := NewRaffleRepository(testDB.DB)
	accountRepo := NewAccountRepository(testDB.DB)
	historyRepo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()

	raffle := testutil.CreateTestRaffle()
	require.NoError(t, raffleRepo.Create(ctx, raffle))

	addr := testutil.PlayerAddress(1)
	account, err := accountRepo.GetOrCreate(ctx, addr)
	require.NoError(t, err)
	assert.Zero(t, account.Balance)

	require.NoError(t, accountRepo.UpdateBalance(ctx, addr, 50))
	account, err = accountRepo.GetOrCreate(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, int64(50), account.Balance)

	assert.Error(t, accountRepo.UpdateBalance(ctx, testutil.PlayerAddress(2), 10))
	assert.Error(t, accountRepo.UpdateBalance(ctx, addr, -1), "balance cannot go negative")

	for i := int64(1); i <= 3; i++ {
		history := &entities.BalanceHistory{
			Address:         addr,
			RaffleID:        raffle.ID,
			BalanceBefore:   (i - 1) * 10,
			BalanceAfter:    i * 10,
			ChangeAmount:    10,
			TransactionType: entities.TransactionTypeRaffleWin,
			TransactionMetadata: map[string]interface{}{
				"raffle_id": raffle.ID,
				"round":     i,
			},
		}
		require.NoError(t, historyRepo.Record(ctx, history))
		assert.NotZero(t, history.ID)
	}

	histories, err := historyRepo.GetByAddress(ctx, addr, 2)
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, int64(30), histories[0].BalanceAfter)
	assert.Equal(t, raffle.ID, histories[0].RaffleID)
	assert.Equal(t, entities.TransactionTypeRaffleWin, histories[0].TransactionType)
	assert.Equal(t, float64(3), histories[0].TransactionMetadata["round"])
}
