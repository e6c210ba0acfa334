package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ErrorKindInternal},
		{"unknown", errors.New("boom"), ErrorKindInternal},
		{"payout failed", fmt.Errorf("%w: db down", ErrPayoutFailed), ErrorKindInternal},
		{"not enough funds", fmt.Errorf("wrapped: %w", ErrNotEnoughFunds), ErrorKindValidation},
		{"invalid address", ErrInvalidAddress, ErrorKindValidation},
		{"invalid amount", ErrInvalidAmount, ErrorKindValidation},
		{"stale signature", fmt.Errorf("%w: round 3", ErrStaleSignature), ErrorKindConflict},
		{"bad signature", ErrBadSignature, ErrorKindUnauthorized},
		{"not open", ErrRaffleNotOpen, ErrorKindConflict},
		{"upkeep not needed", UpkeepCheck{}.Err(), ErrorKindConflict},
		{"request mismatch", ErrRequestMismatch, ErrorKindConflict},
		{"index out of range", ErrPlayerIndexOutOfRange, ErrorKindNotFound},
		{"raffle not found", ErrRaffleNotFound, ErrorKindNotFound},
		{"not owner", ErrNotOwner, ErrorKindUnauthorized},
		{"not coordinator", fmt.Errorf("%w: 0x01", ErrNotCoordinator), ErrorKindUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUpkeepNotNeededError_Message(t *testing.T) {
	t.Parallel()

	err := UpkeepCheck{IsOpen: true, HasBalance: true, State: RaffleStateOpen, PoolBalance: 5}.Err()
	assert.Contains(t, err.Error(), "open=true")
	assert.Contains(t, err.Error(), "interval_elapsed=false")
	assert.Contains(t, err.Error(), "has_players=false")
	assert.Contains(t, err.Error(), "balance=5")
}
