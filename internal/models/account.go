package models

import "time"

// Account is a user's persisted identity plus credit balance. The balance
// is only ever mutated through the ledger store.
type Account struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`

	Balance int64 `json:"balance"`
	Wins    int   `json:"wins"`

	// Daily top-up bookkeeping. The counter resets when the stored date
	// is not the current UTC calendar day.
	DailyAddedCredits int64      `json:"daily_added_credits"`
	LastTopUpDate     *time.Time `json:"last_credit_topup_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
