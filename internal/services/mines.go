package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"betwise-backend/internal/ledger"
	"betwise-backend/internal/models"
)

const (
	// GridSize is the fixed mines board size.
	GridSize = 25

	defaultMineCount = 5
)

// MinesState is the view of a mines round returned to the caller. The
// mine layout is only included once the round is over.
type MinesState struct {
	Revealed     []bool `json:"revealed"`
	Mines        []bool `json:"mines,omitempty"`
	MineCount    int    `json:"mineCount"`
	SafeRevealed int    `json:"safeRevealed"`
	Bet          int64  `json:"bet"`
	Active       bool   `json:"active"`
	Result       string `json:"result,omitempty"`
	Payout       int64  `json:"payout,omitempty"`
	TileReward   int64  `json:"tileReward,omitempty"`
	NewBalance   int64  `json:"newBalance"`
	Wins         int    `json:"wins,omitempty"`
}

// MinesEngine runs the mines game: a 25-cell grid with m hidden mines,
// each safe reveal earning an incremental tile reward, with an optional
// early cashout bounded by the multiplier curve.
type MinesEngine struct {
	ledger      Ledger
	rounds      RoundStore
	broadcaster BalanceBroadcaster

	mu  sync.Mutex
	rng *rand.Rand

	log *logrus.Entry
}

func NewMinesEngine(ledger Ledger, rounds RoundStore, broadcaster BalanceBroadcaster, rng *rand.Rand) *MinesEngine {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &MinesEngine{
		ledger:      ledger,
		rounds:      rounds,
		broadcaster: broadcaster,
		rng:         rng,
		log:         logrus.WithField("game", "mines"),
	}
}

// MinesFullClearPayout is the payout for revealing every safe cell:
// round(bet × (25/(25−m))^(25−m)).
func MinesFullClearPayout(bet int64, mineCount int) int64 {
	safe := GridSize - mineCount
	multiplier := math.Pow(float64(GridSize)/float64(safe), float64(safe))
	return int64(math.Round(float64(bet) * multiplier))
}

// MinesCashoutCeiling is the maximum payout allowed for cashing out with
// safeRevealed cells uncovered: bet × (25/(25−m))^safeRevealed.
func MinesCashoutCeiling(bet int64, mineCount, safeRevealed int) int64 {
	safe := GridSize - mineCount
	multiplier := math.Pow(float64(GridSize)/float64(safe), float64(safeRevealed))
	return int64(math.Floor(float64(bet) * multiplier))
}

// MinesTileReward is the incremental credit for the n-th safe reveal:
// floor(bet × m/25 × safeRevealed).
func MinesTileReward(bet int64, mineCount, safeRevealed int) int64 {
	return bet * int64(mineCount) * int64(safeRevealed) / GridSize
}

// Start debits the bet, lays out the board and stores the round. A zero
// mine count falls back to the default of 5.
func (e *MinesEngine) Start(ctx context.Context, userID, bet int64, mineCount int) (*MinesState, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}
	if mineCount == 0 {
		mineCount = defaultMineCount
	}
	if mineCount < 1 || mineCount > GridSize-1 {
		return nil, ErrInvalidMineCount
	}

	existing, err := e.rounds.Mines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Active {
		return nil, ErrRoundInProgress
	}

	balance, err := e.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bet > balance {
		return nil, ledger.ErrInsufficientFunds
	}

	newBalance, err := e.ledger.AdjustBalance(ctx, userID, -bet, models.TxMinesBet,
		fmt.Sprintf("Mines bet %d, %d mines", bet, mineCount))
	if err != nil {
		return nil, err
	}

	round := &models.MinesRound{
		ID:        uuid.New().String(),
		Bet:       bet,
		MineCount: mineCount,
		Mines:     e.layout(mineCount),
		Revealed:  make([]bool, GridSize),
		Active:    true,
		StartedAt: time.Now(),
	}

	if err := e.rounds.SaveMines(ctx, userID, round); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"user_id": userID, "bet": bet, "mines": mineCount}).Info("round started")

	return &MinesState{
		Revealed:   round.Revealed,
		MineCount:  mineCount,
		Bet:        bet,
		Active:     true,
		NewBalance: newBalance,
	}, nil
}

// Reveal uncovers one cell. A mine ends the round as a loss and the full
// layout comes back. A safe cell credits the incremental tile reward,
// and uncovering the last safe cell settles the full clear payout.
func (e *MinesEngine) Reveal(ctx context.Context, userID int64, cell int) (*MinesState, error) {
	if cell < 0 || cell >= GridSize {
		return nil, ErrInvalidCell
	}

	round, err := e.activeRound(ctx, userID)
	if err != nil {
		return nil, err
	}
	if round.Revealed[cell] {
		return nil, ErrCellRevealed
	}

	round.Revealed[cell] = true

	if round.Mines[cell] {
		return e.settleLoss(ctx, userID, round)
	}

	round.SafeRevealed++

	if round.SafeRevealed == GridSize-round.MineCount {
		return e.settleFullClear(ctx, userID, round)
	}

	reward := MinesTileReward(round.Bet, round.MineCount, round.SafeRevealed)
	newBalance, err := e.ledger.AdjustBalance(ctx, userID, reward, models.TxMinesTileReward,
		fmt.Sprintf("Mines tile reward, %d safe", round.SafeRevealed))
	if err != nil {
		return nil, err
	}
	round.LastRewardedStep = round.SafeRevealed

	if err := e.rounds.SaveMines(ctx, userID, round); err != nil {
		return nil, err
	}

	e.broadcaster.PushBalance(userID, newBalance)

	return &MinesState{
		Revealed:     round.Revealed,
		MineCount:    round.MineCount,
		SafeRevealed: round.SafeRevealed,
		Bet:          round.Bet,
		Active:       true,
		TileReward:   reward,
		NewBalance:   newBalance,
	}, nil
}

// TileReward credits the reward for the current reveal step when the
// client drives reveals itself. Each step is credited at most once:
// a step Reveal already paid for settles idempotently with the current
// balance and no further credit. When a credit is due, the claimed
// amount must match the server's own computation.
func (e *MinesEngine) TileReward(ctx context.Context, userID, claimed int64) (*MinesState, error) {
	round, err := e.activeRound(ctx, userID)
	if err != nil {
		return nil, err
	}
	if round.LastRewardedStep >= round.SafeRevealed {
		balance, err := e.ledger.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &MinesState{
			Revealed:     round.Revealed,
			MineCount:    round.MineCount,
			SafeRevealed: round.SafeRevealed,
			Bet:          round.Bet,
			Active:       true,
			NewBalance:   balance,
		}, nil
	}

	reward := MinesTileReward(round.Bet, round.MineCount, round.SafeRevealed)
	if claimed != reward {
		e.log.WithFields(logrus.Fields{
			"user_id": userID,
			"claimed": claimed,
			"actual":  reward,
		}).Warn("client-claimed tile reward disagrees with round state")
		return nil, ErrPayoutMismatch
	}

	newBalance, err := e.ledger.AdjustBalance(ctx, userID, reward, models.TxMinesTileReward,
		fmt.Sprintf("Mines tile reward, %d safe", round.SafeRevealed))
	if err != nil {
		return nil, err
	}
	round.LastRewardedStep = round.SafeRevealed

	if err := e.rounds.SaveMines(ctx, userID, round); err != nil {
		return nil, err
	}

	e.broadcaster.PushBalance(userID, newBalance)

	return &MinesState{
		Revealed:     round.Revealed,
		MineCount:    round.MineCount,
		SafeRevealed: round.SafeRevealed,
		Bet:          round.Bet,
		Active:       true,
		TileReward:   reward,
		NewBalance:   newBalance,
	}, nil
}

// Cashout ends the round early. The claimed payout is bounded by the
// multiplier curve for the number of safe reveals; a zero claim returns
// the flat stake. A "loss" result settles with no credit.
func (e *MinesEngine) Cashout(ctx context.Context, userID, claimed int64, resultType string) (*MinesState, error) {
	round, err := e.activeRound(ctx, userID)
	if err != nil {
		return nil, err
	}

	if resultType == ResultLoss {
		return e.settleLoss(ctx, userID, round)
	}

	payout := claimed
	if payout == 0 {
		payout = round.Bet
	}
	if payout < 0 || payout > MinesCashoutCeiling(round.Bet, round.MineCount, round.SafeRevealed) {
		e.log.WithFields(logrus.Fields{
			"user_id":       userID,
			"claimed":       claimed,
			"safe_revealed": round.SafeRevealed,
		}).Warn("client-claimed cashout exceeds round ceiling")
		return nil, ErrInvalidPayout
	}

	newBalance, err := e.ledger.AdjustBalance(ctx, userID, payout, models.TxMinesCashout,
		fmt.Sprintf("Mines cashout after %d safe", round.SafeRevealed))
	if err != nil {
		return nil, err
	}
	if resultType == ResultWin {
		if err := e.ledger.RecordWin(ctx, userID); err != nil {
			return nil, err
		}
	}

	if err := e.rounds.ClearMines(ctx, userID); err != nil {
		return nil, err
	}
	round.Active = false

	wins, err := e.ledger.Wins(ctx, userID)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"user_id": userID,
		"payout":  payout,
		"balance": newBalance,
	}).Info("round cashed out")

	e.broadcaster.PushBalance(userID, newBalance)

	return &MinesState{
		Revealed:     round.Revealed,
		Mines:        round.Mines,
		MineCount:    round.MineCount,
		SafeRevealed: round.SafeRevealed,
		Bet:          round.Bet,
		Result:       "cashout",
		Payout:       payout,
		NewBalance:   newBalance,
		Wins:         wins,
	}, nil
}

func (e *MinesEngine) settleLoss(ctx context.Context, userID int64, round *models.MinesRound) (*MinesState, error) {
	// Zero-amount row keeps the audit trail complete for losses.
	newBalance, err := e.ledger.AdjustBalance(ctx, userID, 0, models.TxMinesLoss,
		fmt.Sprintf("Mines loss after %d safe", round.SafeRevealed))
	if err != nil {
		return nil, err
	}

	if err := e.rounds.ClearMines(ctx, userID); err != nil {
		return nil, err
	}
	round.Active = false

	e.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"safe_revealed": round.SafeRevealed,
	}).Info("round lost")

	e.broadcaster.PushBalance(userID, newBalance)

	return &MinesState{
		Revealed:     round.Revealed,
		Mines:        round.Mines,
		MineCount:    round.MineCount,
		SafeRevealed: round.SafeRevealed,
		Bet:          round.Bet,
		Result:       ResultLoss,
		NewBalance:   newBalance,
	}, nil
}

func (e *MinesEngine) settleFullClear(ctx context.Context, userID int64, round *models.MinesRound) (*MinesState, error) {
	payout := MinesFullClearPayout(round.Bet, round.MineCount)

	newBalance, err := e.ledger.AdjustBalance(ctx, userID, payout, models.TxMinesWin,
		fmt.Sprintf("Mines full clear, %d mines", round.MineCount))
	if err != nil {
		return nil, err
	}
	if err := e.ledger.RecordWin(ctx, userID); err != nil {
		return nil, err
	}

	if err := e.rounds.ClearMines(ctx, userID); err != nil {
		return nil, err
	}
	round.Active = false

	wins, err := e.ledger.Wins(ctx, userID)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"user_id": userID,
		"payout":  payout,
		"balance": newBalance,
	}).Info("full clear")

	e.broadcaster.PushBalance(userID, newBalance)

	return &MinesState{
		Revealed:     round.Revealed,
		Mines:        round.Mines,
		MineCount:    round.MineCount,
		SafeRevealed: round.SafeRevealed,
		Bet:          round.Bet,
		Result:       ResultWin,
		Payout:       payout,
		NewBalance:   newBalance,
		Wins:         wins,
	}, nil
}

func (e *MinesEngine) activeRound(ctx context.Context, userID int64) (*models.MinesRound, error) {
	round, err := e.rounds.Mines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if round == nil || !round.Active {
		return nil, ErrNoActiveRound
	}
	return round, nil
}

// layout places mineCount mines uniformly without replacement.
func (e *MinesEngine) layout(mineCount int) []bool {
	e.mu.Lock()
	order := e.rng.Perm(GridSize)
	e.mu.Unlock()

	mines := make([]bool, GridSize)
	for _, cell := range order[:mineCount] {
		mines[cell] = true
	}
	return mines
}
