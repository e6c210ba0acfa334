package entities

import "errors"

var (
	// Input validation
	ErrNotEnoughFunds = errors.New("not enough funds entered")
	ErrPoolOverflow   = errors.New("pool balance overflow")
	ErrNoRandomWords  = errors.New("fulfillment carried no random words")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("amount must be positive")

	// State conflicts
	ErrRaffleNotOpen         = errors.New("raffle not open")
	ErrUpkeepNotNeeded       = errors.New("upkeep not needed")
	ErrRequestMismatch       = errors.New("request ID does not match outstanding request")
	ErrPlayerIndexOutOfRange = errors.New("player index out of range")
	ErrRaffleNotFound        = errors.New("raffle not found")
	ErrStaleSignature        = errors.New("signed round no longer current")

	// Authorization
	ErrNotOwner       = errors.New("caller is not the raffle owner")
	ErrNotCoordinator = errors.New("caller is not the randomness coordinator")
	ErrBadSignature   = errors.New("invalid caller signature")

	// Fatal
	ErrPayoutFailed = errors.New("winner payout failed")
)

// ErrorKind classifies domain errors for callers that need to map them to a transport
type ErrorKind int

const (
	ErrorKindInternal ErrorKind = iota
	ErrorKindValidation
	ErrorKindConflict
	ErrorKindNotFound
	ErrorKindUnauthorized
)

// KindOf returns the classification of err
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindInternal
	case errors.Is(err, ErrNotEnoughFunds), errors.Is(err, ErrPoolOverflow), errors.Is(err, ErrNoRandomWords),
		errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidAmount):
		return ErrorKindValidation
	case errors.Is(err, ErrRaffleNotOpen), errors.Is(err, ErrUpkeepNotNeeded), errors.Is(err, ErrRequestMismatch),
		errors.Is(err, ErrStaleSignature):
		return ErrorKindConflict
	case errors.Is(err, ErrPlayerIndexOutOfRange), errors.Is(err, ErrRaffleNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotCoordinator), errors.Is(err, ErrBadSignature):
		return ErrorKindUnauthorized
	default:
		return ErrorKindInternal
	}
}
