package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"betwise-backend/internal/database"
	"betwise-backend/internal/models"
)

const defaultHistoryLimit = 20

// Store is the single point of truth for account balance mutation and
// transaction history. Every balance change goes through one database
// transaction that locks the account row, so concurrent settlements for
// the same account serialize instead of overwriting each other.
type Store struct {
	db *database.DB

	topUpMax      int64
	topUpDailyCap int64

	log *logrus.Entry
}

// NewStore creates a ledger store. topUpMax bounds a single wallet top-up
// request, topUpDailyCap bounds the total added per UTC calendar day.
func NewStore(db *database.DB, topUpMax, topUpDailyCap int64) *Store {
	return &Store{
		db:            db,
		topUpMax:      topUpMax,
		topUpDailyCap: topUpDailyCap,
		log:           logrus.WithField("component", "ledger"),
	}
}

// CreateAccount registers a new account with the given starting balance.
func (s *Store) CreateAccount(ctx context.Context, username, passwordHash string, startingBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO users (username, password_hash, balance)
		VALUES ($1, $2, $3)
		RETURNING user_id, username, password_hash, balance, wins, daily_added_credits, last_credit_topup_date, created_at, updated_at
	`

	var account models.Account
	err := s.db.QueryRow(ctx, query, username, passwordHash, startingBalance).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Balance,
		&account.Wins,
		&account.DailyAddedCredits,
		&account.LastTopUpDate,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create account %q: %w", username, err)
	}

	return &account, nil
}

// AccountByUsername retrieves an account by username. Returns nil without
// error when no such account exists.
func (s *Store) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.fetchAccount(ctx, `WHERE username = $1`, username)
}

// AccountByID retrieves an account by id. Returns nil without error when
// no such account exists.
func (s *Store) AccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	return s.fetchAccount(ctx, `WHERE user_id = $1`, accountID)
}

func (s *Store) fetchAccount(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `
		SELECT user_id, username, password_hash, balance, wins, daily_added_credits, last_credit_topup_date, created_at, updated_at
		FROM users ` + where

	var account models.Account
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Balance,
		&account.Wins,
		&account.DailyAddedCredits,
		&account.LastTopUpDate,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// Balance returns the current balance with no side effect.
func (s *Store) Balance(ctx context.Context, accountID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT balance FROM users WHERE user_id = $1`, accountID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for account %d: %w", accountID, err)
	}
	return balance, nil
}

// Wins returns the account's win counter.
func (s *Store) Wins(ctx context.Context, accountID int64) (int, error) {
	var wins int
	err := s.db.QueryRow(ctx, `SELECT wins FROM users WHERE user_id = $1`, accountID).Scan(&wins)
	if err == pgx.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get wins for account %d: %w", accountID, err)
	}
	return wins, nil
}

// AdjustBalance applies a signed delta to the account balance and appends
// the matching transaction row as one atomic unit. A delta that would push
// the balance below zero fails with ErrInsufficientFunds and leaves the
// account untouched.
func (s *Store) AdjustBalance(ctx context.Context, accountID, delta int64, txType models.TransactionType, description string) (int64, error) {
	var newBalance int64

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var balance int64
		err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE user_id = $1 FOR UPDATE`, accountID).Scan(&balance)
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock account %d: %w", accountID, err)
		}

		newBalance = balance + delta
		if newBalance < 0 {
			return ErrInsufficientFunds
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET balance = $1, updated_at = NOW() WHERE user_id = $2`,
			newBalance, accountID,
		); err != nil {
			return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO transactions (user_id, type, amount, description) VALUES ($1, $2, $3, $4)`,
			accountID, txType, delta, description,
		); err != nil {
			return fmt.Errorf("failed to record transaction for account %d: %w", accountID, err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": accountID,
		"type":    txType,
		"amount":  delta,
		"balance": newBalance,
	}).Debug("balance adjusted")

	return newBalance, nil
}

// RecordWin increments the account's win counter.
func (s *Store) RecordWin(ctx context.Context, accountID int64) error {
	result, err := s.db.Exec(ctx,
		`UPDATE users SET wins = wins + 1, updated_at = NOW() WHERE user_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to record win for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// RecentTransactions returns the account's newest transactions, most
// recent first. limit is clamped to the wallet page size.
func (s *Store) RecentTransactions(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, user_id, type, amount, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// AddCredits tops up the account balance, enforcing the per-request
// ceiling and the per-day cap. The daily counter resets when the stored
// top-up date is not the current UTC calendar day.
func (s *Store) AddCredits(ctx context.Context, accountID, amount int64) (int64, error) {
	if amount < 1 || amount > s.topUpMax {
		return 0, ErrInvalidAmount
	}

	var newBalance int64

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var (
			balance    int64
			dailyAdded int64
			lastTopUp  *time.Time
		)
		err := tx.QueryRow(ctx,
			`SELECT balance, daily_added_credits, last_credit_topup_date FROM users WHERE user_id = $1 FOR UPDATE`,
			accountID,
		).Scan(&balance, &dailyAdded, &lastTopUp)
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock account %d: %w", accountID, err)
		}

		now := time.Now().UTC()
		remaining := TopUpAllowance(dailyAdded, lastTopUp, now, s.topUpDailyCap)
		if amount > remaining {
			return &DailyLimitError{Remaining: remaining}
		}

		if !sameCalendarDay(lastTopUp, now) {
			dailyAdded = 0
		}

		newBalance = balance + amount
		if _, err := tx.Exec(ctx,
			`UPDATE users
			 SET balance = $1, daily_added_credits = $2, last_credit_topup_date = $3, updated_at = NOW()
			 WHERE user_id = $4`,
			newBalance, dailyAdded+amount, now, accountID,
		); err != nil {
			return fmt.Errorf("failed to apply top-up for account %d: %w", accountID, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO transactions (user_id, type, amount, description) VALUES ($1, $2, $3, $4)`,
			accountID, models.TxWalletTopUp, amount, "Wallet top-up",
		); err != nil {
			return fmt.Errorf("failed to record top-up for account %d: %w", accountID, err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": accountID,
		"amount":  amount,
		"balance": newBalance,
	}).Info("wallet top-up applied")

	return newBalance, nil
}

// TopUpAllowance computes how many credits may still be added today given
// the stored daily counter and last top-up date. The counter only binds
// when the stored date falls on the same UTC calendar day as now.
func TopUpAllowance(dailyAdded int64, lastTopUp *time.Time, now time.Time, dailyCap int64) int64 {
	if !sameCalendarDay(lastTopUp, now) {
		return dailyCap
	}
	remaining := dailyCap - dailyAdded
	if remaining < 0 {
		return 0
	}
	return remaining
}

// sameCalendarDay reports whether t falls on the same UTC calendar day as
// now. A nil t (never topped up) never matches.
func sameCalendarDay(t *time.Time, now time.Time) bool {
	if t == nil {
		return false
	}
	y1, m1, d1 := t.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
