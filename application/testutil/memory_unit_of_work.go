package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/testhelpers"
)

// MemoryUnitOfWorkFactory creates units of work over a MemoryStore. Units of
// work are serialized; a rollback restores the store as it was at Begin and
// events reach Publisher only after commit.
type MemoryUnitOfWorkFactory struct {
	Store     *testhelpers.MemoryStore
	Publisher interfaces.EventPublisher
	txLock    sync.Mutex

	mu        sync.Mutex
	commits   int
	rollbacks int
}

// NewMemoryUnitOfWorkFactory creates a factory over a fresh store
func NewMemoryUnitOfWorkFactory(publisher interfaces.EventPublisher) *MemoryUnitOfWorkFactory {
	return &MemoryUnitOfWorkFactory{
		Store:     testhelpers.NewMemoryStore(),
		Publisher: publisher,
	}
}

func (f *MemoryUnitOfWorkFactory) Create() application.UnitOfWork {
	return &memoryUnitOfWork{factory: f}
}

// Commits returns the number of committed units of work
func (f *MemoryUnitOfWorkFactory) Commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

// Rollbacks returns the number of units of work rolled back before commit
func (f *MemoryUnitOfWorkFactory) Rollbacks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rollbacks
}

type memoryUnitOfWork struct {
	factory  *MemoryUnitOfWorkFactory
	snapshot *testhelpers.Snapshot
	pending  []events.Event
	active   bool
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	u.factory.txLock.Lock()
	u.snapshot = u.factory.Store.Snapshot()
	u.active = true
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.active = false
	u.factory.txLock.Unlock()

	u.factory.mu.Lock()
	u.factory.commits++
	u.factory.mu.Unlock()

	pending := u.pending
	u.pending = nil
	for _, e := range pending {
		if u.factory.Publisher != nil {
			_ = u.factory.Publisher.Publish(e)
		}
	}
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if !u.active {
		return nil
	}
	u.factory.Store.Restore(u.snapshot)
	u.pending = nil
	u.active = false
	u.factory.txLock.Unlock()

	u.factory.mu.Lock()
	u.factory.rollbacks++
	u.factory.mu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) Publish(event events.Event) error {
	u.pending = append(u.pending, event)
	return nil
}

func (u *memoryUnitOfWork) RaffleRepository() interfaces.RaffleRepository {
	return u.factory.Store.RaffleRepository()
}

func (u *memoryUnitOfWork) RaffleEntryRepository() interfaces.RaffleEntryRepository {
	return u.factory.Store.EntryRepository()
}

func (u *memoryUnitOfWork) RaffleWinnerRepository() interfaces.RaffleWinnerRepository {
	return u.factory.Store.WinnerRepository()
}

func (u *memoryUnitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.factory.Store.AccountRepository()
}

func (u *memoryUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.factory.Store.BalanceHistoryRepository()
}

func (u *memoryUnitOfWork) EventBus() interfaces.EventPublisher {
	return u
}
