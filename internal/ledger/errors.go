package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a debit would push a balance
	// below zero. It is a user-facing condition, not a defect.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrAccountNotFound is returned when an operation references an
	// account id that does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUsernameTaken is returned by CreateAccount on a username clash.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidAmount is returned when a top-up amount is outside the
	// configured per-request range.
	ErrInvalidAmount = errors.New("invalid top-up amount")
)

// DailyLimitError reports a top-up that would exceed the daily cap,
// carrying the allowance still available today.
type DailyLimitError struct {
	Remaining int64
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily top-up limit exceeded, remaining allowance %d", e.Remaining)
}
