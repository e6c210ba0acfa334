package testhelpers

import (
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is a point-in-time copy of a MemoryStore
type Snapshot struct {
	nextRaffleID int64
	nextEntryID  int64
	raffles      map[int64]*entities.Raffle
	entries      []*entities.RaffleEntry
	winners      []*entities.RaffleWinner
	accounts     map[common.Address]*entities.Account
	history      []*entities.BalanceHistory
}

// Snapshot copies the current contents of the store
func (s *MemoryStore) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		nextRaffleID: s.nextRaffleID,
		nextEntryID:  s.nextEntryID,
		raffles:      make(map[int64]*entities.Raffle, len(s.raffles)),
		entries:      append([]*entities.RaffleEntry(nil), s.entries...),
		winners:      append([]*entities.RaffleWinner(nil), s.winners...),
		accounts:     make(map[common.Address]*entities.Account, len(s.accounts)),
		history:      append([]*entities.BalanceHistory(nil), s.history...),
	}
	for id, r := range s.raffles {
		snap.raffles[id] = r.Clone()
	}
	for addr, acc := range s.accounts {
		copied := *acc
		snap.accounts[addr] = &copied
	}
	return snap
}

// Restore replaces the contents of the store with snap
func (s *MemoryStore) Restore(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRaffleID = snap.nextRaffleID
	s.nextEntryID = snap.nextEntryID
	s.raffles = snap.raffles
	s.entries = snap.entries
	s.winners = snap.winners
	s.accounts = snap.accounts
	s.history = snap.history
}
