package models

import "time"

// Card is a single playing card. Rank is one of A,2..10,J,Q,K and Suit is
// one of spade, heart, diamond, club.
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// BlackjackRound is the in-flight state of one blackjack hand, from bet to
// settlement. It lives in the round coordinator, never in the ledger.
type BlackjackRound struct {
	ID           string    `json:"id"`
	Bet          int64     `json:"bet"`
	Deck         []Card    `json:"deck"`
	Player       []Card    `json:"player"`
	Dealer       []Card    `json:"dealer"`
	DealerHidden bool      `json:"dealer_hidden"`
	Doubled      bool      `json:"doubled"`
	Active       bool      `json:"active"`
	StartedAt    time.Time `json:"started_at"`
}

// MinesRound is the in-flight state of one mines round. The mine layout is
// assigned once at start and never mutated afterwards.
type MinesRound struct {
	ID        string `json:"id"`
	Bet       int64  `json:"bet"`
	MineCount int    `json:"mine_count"`

	Mines    []bool `json:"mines"`    // len == grid size, true = mine
	Revealed []bool `json:"revealed"` // len == grid size

	SafeRevealed int `json:"safe_revealed"`

	// Last safe-reveal count for which a tile reward was credited, so the
	// reward endpoint cannot credit the same step twice.
	LastRewardedStep int `json:"last_rewarded_step"`

	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
}
