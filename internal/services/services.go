package services

import (
	"context"

	"betwise-backend/internal/models"
)

// Ledger is the balance-and-transaction store the settlement engines
// settle against. Implemented by ledger.Store.
type Ledger interface {
	AdjustBalance(ctx context.Context, accountID, delta int64, txType models.TransactionType, description string) (int64, error)
	Balance(ctx context.Context, accountID int64) (int64, error)
	Wins(ctx context.Context, accountID int64) (int, error)
	RecordWin(ctx context.Context, accountID int64) error
}

// RoundStore holds in-flight round state per user and game. Implemented
// by rounds.Coordinator.
type RoundStore interface {
	Blackjack(ctx context.Context, userID int64) (*models.BlackjackRound, error)
	SaveBlackjack(ctx context.Context, userID int64, round *models.BlackjackRound) error
	ClearBlackjack(ctx context.Context, userID int64) error

	Mines(ctx context.Context, userID int64) (*models.MinesRound, error)
	SaveMines(ctx context.Context, userID int64, round *models.MinesRound) error
	ClearMines(ctx context.Context, userID int64) error
}

// BalanceBroadcaster pushes balance updates to connected clients after a
// settlement changes an account balance.
type BalanceBroadcaster interface {
	PushBalance(userID, balance int64)
}

// NoopBroadcaster satisfies BalanceBroadcaster when no live push channel
// is wired, e.g. in tests.
type NoopBroadcaster struct{}

func (NoopBroadcaster) PushBalance(userID, balance int64) {}
