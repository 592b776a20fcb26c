package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"betwise-backend/internal/ledger"
	"betwise-backend/internal/models"
)

// SlotSymbols is the fixed reel symbol set.
var SlotSymbols = []string{"🍒", "🔔", "🍋", "⭐", "7️⃣", "💎"}

const (
	symbolDiamond = "💎"
	symbolCherry  = "🍒"
)

// SpinResult is what a settled spin returns to the caller.
type SpinResult struct {
	Reels      [3]string `json:"reels"`
	Payout     int64     `json:"payout"`
	Net        int64     `json:"net"`
	NewBalance int64     `json:"newBalance"`
}

// SlotsEngine resolves slot spins. Stateless per spin; no round state is
// kept between requests.
type SlotsEngine struct {
	ledger      Ledger
	broadcaster BalanceBroadcaster

	mu  sync.Mutex
	rng *rand.Rand

	log *logrus.Entry
}

func NewSlotsEngine(ledger Ledger, broadcaster BalanceBroadcaster, rng *rand.Rand) *SlotsEngine {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &SlotsEngine{
		ledger:      ledger,
		broadcaster: broadcaster,
		rng:         rng,
		log:         logrus.WithField("game", "slots"),
	}
}

// SlotsPayout evaluates the payout table for a drawn reel triple.
// Priority: three of a kind (diamond ×10, cherry ×3, other ×2), then any
// pair (×2), else nothing.
func SlotsPayout(reels [3]string, bet int64) int64 {
	a, b, c := reels[0], reels[1], reels[2]

	if a == b && b == c {
		switch a {
		case symbolDiamond:
			return bet * 10
		case symbolCherry:
			return bet * 3
		default:
			return bet * 2
		}
	}
	if a == b || b == c || a == c {
		return bet * 2
	}
	return 0
}

// Spin validates the bet, draws three reels, and settles the result
// against the ledger: the bet is debited and any payout credited as two
// separate transactions, so the audit trail's signed sum equals the net.
func (e *SlotsEngine) Spin(ctx context.Context, accountID, bet int64) (*SpinResult, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}

	balance, err := e.ledger.Balance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if bet > balance {
		return nil, ledger.ErrInsufficientFunds
	}

	reels := e.draw()
	payout := SlotsPayout(reels, bet)

	newBalance, err := e.ledger.AdjustBalance(ctx, accountID, -bet, models.TxSlotsSpin,
		fmt.Sprintf("Slots spin, bet %d", bet))
	if err != nil {
		return nil, err
	}

	if payout > 0 {
		newBalance, err = e.ledger.AdjustBalance(ctx, accountID, payout, models.TxSlotsWin,
			fmt.Sprintf("Slots win %s%s%s", reels[0], reels[1], reels[2]))
		if err != nil {
			return nil, err
		}
		if err := e.ledger.RecordWin(ctx, accountID); err != nil {
			return nil, err
		}
	}

	e.log.WithFields(logrus.Fields{
		"user_id": accountID,
		"bet":     bet,
		"payout":  payout,
		"balance": newBalance,
	}).Info("spin settled")

	e.broadcaster.PushBalance(accountID, newBalance)

	return &SpinResult{
		Reels:      reels,
		Payout:     payout,
		Net:        payout - bet,
		NewBalance: newBalance,
	}, nil
}

func (e *SlotsEngine) draw() [3]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var reels [3]string
	for i := range reels {
		reels[i] = SlotSymbols[e.rng.Intn(len(SlotSymbols))]
	}
	return reels
}
