package services

import (
	"context"
	"sync"

	"betwise-backend/internal/ledger"
	"betwise-backend/internal/models"
)

// fakeLedger is an in-memory Ledger for engine tests. It enforces the
// same non-negative balance rule as the real store and records every
// transaction so tests can assert conservation.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	wins     map[int64]int
	txs      []recordedTx
}

type recordedTx struct {
	userID int64
	txType models.TransactionType
	amount int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[int64]int64),
		wins:     make(map[int64]int),
	}
}

func (f *fakeLedger) AdjustBalance(ctx context.Context, accountID, delta int64, txType models.TransactionType, description string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	newBalance := f.balances[accountID] + delta
	if newBalance < 0 {
		return 0, ledger.ErrInsufficientFunds
	}
	f.balances[accountID] = newBalance
	f.txs = append(f.txs, recordedTx{userID: accountID, txType: txType, amount: delta})
	return newBalance, nil
}

func (f *fakeLedger) Balance(ctx context.Context, accountID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[accountID], nil
}

func (f *fakeLedger) Wins(ctx context.Context, accountID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wins[accountID], nil
}

func (f *fakeLedger) RecordWin(ctx context.Context, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wins[accountID]++
	return nil
}

// txSum is the signed sum of all recorded amounts for a user. For any
// sequence of settlements it must equal the user's net balance change.
func (f *fakeLedger) txSum(accountID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sum int64
	for _, tx := range f.txs {
		if tx.userID == accountID {
			sum += tx.amount
		}
	}
	return sum
}

func (f *fakeLedger) txCount(accountID int64, txType models.TransactionType) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, tx := range f.txs {
		if tx.userID == accountID && tx.txType == txType {
			count++
		}
	}
	return count
}

// fakeRounds is an in-memory RoundStore.
type fakeRounds struct {
	mu        sync.Mutex
	blackjack map[int64]*models.BlackjackRound
	mines     map[int64]*models.MinesRound
}

func newFakeRounds() *fakeRounds {
	return &fakeRounds{
		blackjack: make(map[int64]*models.BlackjackRound),
		mines:     make(map[int64]*models.MinesRound),
	}
}

func (f *fakeRounds) Blackjack(ctx context.Context, userID int64) (*models.BlackjackRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blackjack[userID], nil
}

func (f *fakeRounds) SaveBlackjack(ctx context.Context, userID int64, round *models.BlackjackRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blackjack[userID] = round
	return nil
}

func (f *fakeRounds) ClearBlackjack(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blackjack, userID)
	return nil
}

func (f *fakeRounds) Mines(ctx context.Context, userID int64) (*models.MinesRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mines[userID], nil
}

func (f *fakeRounds) SaveMines(ctx context.Context, userID int64, round *models.MinesRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mines[userID] = round
	return nil
}

func (f *fakeRounds) ClearMines(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mines, userID)
	return nil
}
