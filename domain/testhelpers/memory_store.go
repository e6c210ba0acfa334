package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryStore is an in-memory backing store for the raffle repositories.
// Every read returns a copy so callers cannot mutate stored state without Update.
type MemoryStore struct {
	mu           sync.Mutex
	nextRaffleID int64
	nextEntryID  int64
	raffles      map[int64]*entities.Raffle
	entries      []*entities.RaffleEntry
	winners      []*entities.RaffleWinner
	accounts     map[common.Address]*entities.Account
	history      []*entities.BalanceHistory

	// UpdateBalanceErr, when set, is returned by every account balance update
	UpdateBalanceErr error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		raffles:  make(map[int64]*entities.Raffle),
		accounts: make(map[common.Address]*entities.Account),
	}
}

func (s *MemoryStore) RaffleRepository() interfaces.RaffleRepository {
	return &memoryRaffleRepository{s}
}

func (s *MemoryStore) EntryRepository() interfaces.RaffleEntryRepository {
	return &memoryEntryRepository{s}
}

func (s *MemoryStore) WinnerRepository() interfaces.RaffleWinnerRepository {
	return &memoryWinnerRepository{s}
}

func (s *MemoryStore) AccountRepository() interfaces.AccountRepository {
	return &memoryAccountRepository{s}
}

func (s *MemoryStore) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return &memoryBalanceHistoryRepository{s}
}

// Balance returns the credited balance of addr
func (s *MemoryStore) Balance(addr common.Address) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[addr]; ok {
		return acc.Balance
	}
	return 0
}

// Winners returns every recorded winner in insertion order
func (s *MemoryStore) Winners() []*entities.RaffleWinner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.RaffleWinner, len(s.winners))
	copy(out, s.winners)
	return out
}

type memoryRaffleRepository struct{ s *MemoryStore }

func (r *memoryRaffleRepository) Create(ctx context.Context, raffle *entities.Raffle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextRaffleID++
	raffle.ID = r.s.nextRaffleID
	r.s.raffles[raffle.ID] = raffle.Clone()
	return nil
}

func (r *memoryRaffleRepository) GetByID(ctx context.Context, id int64) (*entities.Raffle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	raffle, ok := r.s.raffles[id]
	if !ok {
		return nil, nil
	}
	return raffle.Clone(), nil
}

func (r *memoryRaffleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Raffle, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRaffleRepository) Update(ctx context.Context, raffle *entities.Raffle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.raffles[raffle.ID]
	if !ok {
		return fmt.Errorf("raffle with ID %d not found", raffle.ID)
	}
	updated := raffle.Clone()
	updated.Config = existing.Config
	r.s.raffles[raffle.ID] = updated
	return nil
}

func (r *memoryRaffleRepository) ListIDs(ctx context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int64, 0, len(r.s.raffles))
	for id := range r.s.raffles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memoryEntryRepository struct{ s *MemoryStore }

func (r *memoryEntryRepository) Create(ctx context.Context, entry *entities.RaffleEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.RaffleID == entry.RaffleID && e.Round == entry.Round && e.Slot == entry.Slot {
			return fmt.Errorf("slot %d of round %d already taken", entry.Slot, entry.Round)
		}
	}
	r.s.nextEntryID++
	entry.ID = r.s.nextEntryID
	stored := *entry
	r.s.entries = append(r.s.entries, &stored)
	return nil
}

func (r *memoryEntryRepository) GetBySlot(ctx context.Context, raffleID, round, slot int64) (*entities.RaffleEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.RaffleID == raffleID && e.Round == round && e.Slot == slot {
			found := *e
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryEntryRepository) GetByRound(ctx context.Context, raffleID, round int64) ([]*entities.RaffleEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.RaffleEntry
	for _, e := range r.s.entries {
		if e.RaffleID == raffleID && e.Round == round {
			found := *e
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

type memoryWinnerRepository struct{ s *MemoryStore }

func (r *memoryWinnerRepository) Create(ctx context.Context, winner *entities.RaffleWinner) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	winner.ID = int64(len(r.s.winners) + 1)
	stored := *winner
	r.s.winners = append(r.s.winners, &stored)
	return nil
}

func (r *memoryWinnerRepository) GetRecentByRaffle(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.RaffleWinner
	for i := len(r.s.winners) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.winners[i].RaffleID == raffleID {
			found := *r.s.winners[i]
			out = append(out, &found)
		}
	}
	return out, nil
}

type memoryAccountRepository struct{ s *MemoryStore }

func (r *memoryAccountRepository) GetOrCreate(ctx context.Context, addr common.Address) (*entities.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[addr]
	if !ok {
		acc = &entities.Account{Address: addr}
		r.s.accounts[addr] = acc
	}
	found := *acc
	return &found, nil
}

func (r *memoryAccountRepository) UpdateBalance(ctx context.Context, addr common.Address, newBalance int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UpdateBalanceErr != nil {
		return r.s.UpdateBalanceErr
	}
	acc, ok := r.s.accounts[addr]
	if !ok {
		return fmt.Errorf("account %s not found", addr.Hex())
	}
	acc.Balance = newBalance
	return nil
}

type memoryBalanceHistoryRepository struct{ s *MemoryStore }

func (r *memoryBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	history.ID = int64(len(r.s.history) + 1)
	stored := *history
	r.s.history = append(r.s.history, &stored)
	return nil
}

func (r *memoryBalanceHistoryRepository) GetByAddress(ctx context.Context, addr common.Address, limit int) ([]*entities.BalanceHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.BalanceHistory
	for i := len(r.s.history) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.history[i].Address == addr {
			found := *r.s.history[i]
			out = append(out, &found)
		}
	}
	return out, nil
}

// EventRecorder collects published events in order
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *EventRecorder) Publish(event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns every recorded event
func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of the given type
func (r *EventRecorder) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range r.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}
