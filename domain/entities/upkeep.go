package entities

import (
	"fmt"
	"time"
)

// UpkeepCheck is the result of evaluating the upkeep predicate.
// A draw is needed only when all four conditions hold.
type UpkeepCheck struct {
	IsOpen     bool
	TimePassed bool
	HasBalance bool
	HasPlayers bool

	State       RaffleState
	Elapsed     time.Duration
	PoolBalance int64
	PlayerCount int64
}

// Needed returns true if a draw should be triggered
func (c UpkeepCheck) Needed() bool {
	return c.IsOpen && c.TimePassed && c.HasBalance && c.HasPlayers
}

// Err returns an UpkeepNotNeededError describing the failed conditions, or nil
func (c UpkeepCheck) Err() error {
	if c.Needed() {
		return nil
	}
	return &UpkeepNotNeededError{Check: c}
}

// UpkeepNotNeededError carries the predicate values observed when a draw was refused
type UpkeepNotNeededError struct {
	Check UpkeepCheck
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf("upkeep not needed: open=%t interval_elapsed=%t has_balance=%t has_players=%t (state=%s balance=%d players=%d elapsed=%v)",
		e.Check.IsOpen, e.Check.TimePassed, e.Check.HasBalance, e.Check.HasPlayers,
		e.Check.State, e.Check.PoolBalance, e.Check.PlayerCount, e.Check.Elapsed)
}

// Is allows errors.Is(err, ErrUpkeepNotNeeded)
func (e *UpkeepNotNeededError) Is(target error) bool {
	return target == ErrUpkeepNotNeeded
}
