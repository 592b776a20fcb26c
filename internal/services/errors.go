package services

import "errors"

var (
	// ErrInvalidBet covers zero, negative or otherwise malformed stakes.
	ErrInvalidBet = errors.New("invalid bet amount")

	// ErrInvalidMineCount is returned when the requested mine count is
	// outside 1..gridSize-1.
	ErrInvalidMineCount = errors.New("invalid mine count")

	// ErrRoundInProgress is returned when a start request arrives while a
	// round for the same game is still active. Replacing the round would
	// silently forfeit the staked bet, so the request is rejected.
	ErrRoundInProgress = errors.New("a round is already in progress")

	// ErrNoActiveRound is returned for hit/stand/double/reveal/cashout
	// actions with no active round to act on.
	ErrNoActiveRound = errors.New("no active round")

	// ErrDoubleNotAllowed is returned when double-down is attempted after
	// the opening two cards.
	ErrDoubleNotAllowed = errors.New("double is only allowed on the opening hand")

	// ErrInvalidCell is returned when a mines reveal targets a cell
	// outside the grid.
	ErrInvalidCell = errors.New("invalid cell")

	// ErrCellRevealed is returned when a mines reveal targets an already
	// revealed cell.
	ErrCellRevealed = errors.New("cell already revealed")

	// ErrInvalidPayout is returned when a client-claimed payout exceeds
	// what the server-held round state allows.
	ErrInvalidPayout = errors.New("invalid payout")

	// ErrPayoutMismatch is returned when a client-claimed settlement
	// disagrees with the outcome computed from server-held round state.
	ErrPayoutMismatch = errors.New("claimed result does not match round state")
)
