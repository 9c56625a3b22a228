package ledger

import "errors"

var (
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnknownAccount is returned when no account exists for the user.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInvalidAmount is returned for negative debit/credit amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached. Callers may retry.
	ErrStoreUnavailable = errors.New("account store unavailable")
)
