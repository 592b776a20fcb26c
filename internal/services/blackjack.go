package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"betwise-backend/internal/ledger"
	"betwise-backend/internal/models"
)

const blackjack = 21

var (
	cardSuits = []string{"spade", "heart", "diamond", "club"}
	cardRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// Round results.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultPush = "push"
)

// BlackjackState is the view of a round returned to the caller. While the
// round is active the dealer's hole card is masked and the dealer total
// omitted.
type BlackjackState struct {
	Player      []models.Card `json:"player"`
	Dealer      []models.Card `json:"dealer"`
	PlayerTotal int           `json:"playerTotal"`
	DealerTotal int           `json:"dealerTotal,omitempty"`
	Bet         int64         `json:"bet"`
	Active      bool          `json:"active"`
	Result      string        `json:"result,omitempty"`
	Payout      int64         `json:"payout,omitempty"`
	NewBalance  int64         `json:"newBalance"`
	Wins        int           `json:"wins,omitempty"`
}

// BlackjackEngine drives the round state machine: start, hit, double,
// stand. All payouts are computed from server-held round state; the
// ledger sees only the bet/double debits and the final payout credit.
type BlackjackEngine struct {
	ledger      Ledger
	rounds      RoundStore
	broadcaster BalanceBroadcaster

	mu  sync.Mutex
	rng *rand.Rand

	log *logrus.Entry
}

func NewBlackjackEngine(ledger Ledger, rounds RoundStore, broadcaster BalanceBroadcaster, rng *rand.Rand) *BlackjackEngine {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &BlackjackEngine{
		ledger:      ledger,
		rounds:      rounds,
		broadcaster: broadcaster,
		rng:         rng,
		log:         logrus.WithField("game", "blackjack"),
	}
}

// HandValue computes a blackjack hand total with standard soft/hard ace
// handling: aces count 11 and are downgraded to 1 one at a time while the
// total exceeds 21.
func HandValue(hand []models.Card) int {
	total := 0
	aces := 0
	for _, card := range hand {
		total += cardValue(card)
		if card.Rank == "A" {
			aces++
		}
	}
	for total > blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func cardValue(card models.Card) int {
	switch card.Rank {
	case "A":
		return 11
	case "K", "Q", "J", "10":
		return 10
	default:
		// Ranks 2..9 are single digits.
		return int(card.Rank[0] - '0')
	}
}

// BlackjackOutcome compares final totals and returns the result and gross
// payout: win pays bet×2, push returns the stake, loss pays nothing. A
// player bust is a loss regardless of the dealer's hand.
func BlackjackOutcome(playerTotal, dealerTotal int, bet int64) (string, int64) {
	switch {
	case playerTotal > blackjack:
		return ResultLoss, 0
	case dealerTotal > blackjack:
		return ResultWin, bet * 2
	case playerTotal > dealerTotal:
		return ResultWin, bet * 2
	case playerTotal < dealerTotal:
		return ResultLoss, 0
	default:
		return ResultPush, bet
	}
}

// Start debits the bet, deals the opening hands and stores the round. If
// either opening hand totals 21 the round settles immediately.
func (e *BlackjackEngine) Start(ctx context.Context, userID, bet int64) (*BlackjackState, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}

	existing, err := e.rounds.Blackjack(ctx, userID)
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

	newBalance, err := e.ledger.AdjustBalance(ctx, userID, -bet, models.TxBlackjackBet,
		fmt.Sprintf("Blackjack bet %d", bet))
	if err != nil {
		return nil, err
	}

	round := &models.BlackjackRound{
		ID:           uuid.New().String(),
		Bet:          bet,
		Deck:         e.shuffledDeck(),
		DealerHidden: true,
		Active:       true,
		StartedAt:    time.Now(),
	}

	// Deal order: player, dealer, player, dealer.
	round.Player = append(round.Player, e.deal(round))
	round.Dealer = append(round.Dealer, e.deal(round))
	round.Player = append(round.Player, e.deal(round))
	round.Dealer = append(round.Dealer, e.deal(round))

	if HandValue(round.Player) == blackjack || HandValue(round.Dealer) == blackjack {
		return e.settle(ctx, userID, round)
	}

	if err := e.rounds.SaveBlackjack(ctx, userID, round); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"user_id": userID, "bet": bet}).Info("round started")

	state := e.stateOf(round, newBalance)
	return state, nil
}

// Hit deals one card to the player. A bust settles the round as a loss.
func (e *BlackjackEngine) Hit(ctx context.Context, userID int64) (*BlackjackState, error) {
	round, err := e.activeRound(ctx, userID)
	if err != nil {
		return nil, err
	}

	round.Player = append(round.Player, e.deal(round))

	if HandValue(round.Player) > blackjack {
		return e.settle(ctx, userID, round)
	}

	if err := e.rounds.SaveBlackjack(ctx, userID, round); err != nil {
		return nil, err
	}

	balance, err := e.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.stateOf(round, balance), nil
}

// Double debits an additional stake (defaulting to the original bet),
// deals exactly one card and then stands. Only legal on the opening hand.
func (e *BlackjackEngine) Double(ctx context.Context, userID, extraBet int64) (*BlackjackState, error) {
	round, err := e.activeRound(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(round.Player) != 2 {
		return nil, ErrDoubleNotAllowed
	}

	if extraBet <= 0 {
		extraBet = round.Bet
	}

	balance, err := e.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if extraBet > balance {
		return nil, ledger.ErrInsufficientFunds
	}

	if _, err := e.ledger.AdjustBalance(ctx, userID, -extraBet, models.TxBlackjackDouble,
		fmt.Sprintf("Blackjack double down %d", extraBet)); err != nil {
		return nil, err
	}

	round.Bet += extraBet
	round.Doubled = true
	round.Player = append(round.Player, e.deal(round))

	// One card and done: settle whether it busted or not.
	return e.settle(ctx, userID, round)
}

// Stand ends the player's turn and settles the round.
func (e *BlackjackEngine) Stand(ctx context.Context, userID int64) (*BlackjackState, error) {
	round, err := e.activeRound(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.settle(ctx, userID, round)
}

// Settle handles the client-facing settle call. The outcome is computed
// from server-held round state; the client's claimed result and net
// payout are checked against it and rejected on mismatch rather than
// applied.
func (e *BlackjackEngine) Settle(ctx context.Context, userID int64, claimedResult string, claimedNet int64) (*BlackjackState, error) {
	round, err := e.activeRound(ctx, userID)
	if err != nil {
		return nil, err
	}

	state, err := e.settle(ctx, userID, round)
	if err != nil {
		return nil, err
	}

	if claimedResult != state.Result || claimedNet != state.Payout {
		e.log.WithFields(logrus.Fields{
			"user_id":        userID,
			"claimed_result": claimedResult,
			"claimed_payout": claimedNet,
			"actual_result":  state.Result,
			"actual_payout":  state.Payout,
		}).Warn("client-claimed settlement disagrees with round state")
		return nil, ErrPayoutMismatch
	}

	return state, nil
}

// settle reveals the hole card, runs the dealer to 17+, pays out through
// the ledger and discards the round.
func (e *BlackjackEngine) settle(ctx context.Context, userID int64, round *models.BlackjackRound) (*BlackjackState, error) {
	round.DealerHidden = false

	playerTotal := HandValue(round.Player)
	if playerTotal <= blackjack {
		for HandValue(round.Dealer) < 17 {
			round.Dealer = append(round.Dealer, e.deal(round))
		}
	}
	dealerTotal := HandValue(round.Dealer)

	result, payout := BlackjackOutcome(playerTotal, dealerTotal, round.Bet)

	var (
		newBalance int64
		err        error
	)
	switch result {
	case ResultWin:
		newBalance, err = e.ledger.AdjustBalance(ctx, userID, payout, models.TxBlackjackWin,
			fmt.Sprintf("Blackjack win %d vs %d", playerTotal, dealerTotal))
		if err == nil {
			err = e.ledger.RecordWin(ctx, userID)
		}
	case ResultPush:
		newBalance, err = e.ledger.AdjustBalance(ctx, userID, payout, models.TxBlackjackPush,
			fmt.Sprintf("Blackjack push at %d", playerTotal))
	default:
		// Zero-amount row keeps the audit trail complete for losses.
		newBalance, err = e.ledger.AdjustBalance(ctx, userID, 0, models.TxBlackjackLoss,
			fmt.Sprintf("Blackjack loss %d vs %d", playerTotal, dealerTotal))
	}
	if err != nil {
		return nil, err
	}

	if err := e.rounds.ClearBlackjack(ctx, userID); err != nil {
		return nil, err
	}

	round.Active = false

	wins, err := e.ledger.Wins(ctx, userID)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"user_id": userID,
		"result":  result,
		"payout":  payout,
		"balance": newBalance,
	}).Info("round settled")

	e.broadcaster.PushBalance(userID, newBalance)

	state := e.stateOf(round, newBalance)
	state.DealerTotal = dealerTotal
	state.Result = result
	state.Payout = payout
	state.Wins = wins
	return state, nil
}

func (e *BlackjackEngine) activeRound(ctx context.Context, userID int64) (*models.BlackjackRound, error) {
	round, err := e.rounds.Blackjack(ctx, userID)
	if err != nil {
		return nil, err
	}
	if round == nil || !round.Active {
		return nil, ErrNoActiveRound
	}
	return round, nil
}

// stateOf builds the caller-visible view, masking the dealer hole card
// while it is hidden.
func (e *BlackjackEngine) stateOf(round *models.BlackjackRound, balance int64) *BlackjackState {
	state := &BlackjackState{
		Player:      round.Player,
		PlayerTotal: HandValue(round.Player),
		Bet:         round.Bet,
		Active:      round.Active,
		NewBalance:  balance,
	}

	if round.DealerHidden && len(round.Dealer) > 0 {
		state.Dealer = append([]models.Card{{Rank: "?", Suit: "?"}}, round.Dealer[1:]...)
	} else {
		state.Dealer = round.Dealer
		state.DealerTotal = HandValue(round.Dealer)
	}
	return state
}

func (e *BlackjackEngine) shuffledDeck() []models.Card {
	deck := make([]models.Card, 0, len(cardSuits)*len(cardRanks))
	for _, suit := range cardSuits {
		for _, rank := range cardRanks {
			deck = append(deck, models.Card{Rank: rank, Suit: suit})
		}
	}

	e.mu.Lock()
	e.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	e.mu.Unlock()

	return deck
}

// deal pops the top card off the round's deck.
func (e *BlackjackEngine) deal(round *models.BlackjackRound) models.Card {
	card := round.Deck[len(round.Deck)-1]
	round.Deck = round.Deck[:len(round.Deck)-1]
	return card
}
