package testutil

import (
	"math/big"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

var (
	TestOwner       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	TestCoordinator = common.HexToAddress("0x00000000000000000000000000000000000000c0")
)

// CreateTestRaffle returns an undeployed raffle with a 10 unit fee and 30s interval
func CreateTestRaffle() *entities.Raffle {
	raffle, err := entities.NewRaffle(entities.RaffleConfig{
		EntranceFee:      10,
		Interval:         30 * time.Second,
		KeyHash:          common.HexToHash("0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"),
		SubscriptionID:   new(big.Int).Lsh(big.NewInt(1), 200),
		CallbackGasLimit: 500000,
		Owner:            TestOwner,
		Coordinator:      TestCoordinator,
	}, time.Now().UTC().Truncate(time.Millisecond))
	if err != nil {
		panic(err)
	}
	return raffle
}

// PlayerAddress returns a deterministic player address for index i
func PlayerAddress(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x1000 + i)))
}
