package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betwise-backend/internal/models"
)

func card(rank string) models.Card {
	return models.Card{Rank: rank, Suit: "spade"}
}

func hand(ranks ...string) []models.Card {
	cards := make([]models.Card, 0, len(ranks))
	for _, r := range ranks {
		cards = append(cards, card(r))
	}
	return cards
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		ranks []string
		total int
	}{
		{"two aces and nine", []string{"A", "A", "9"}, 21},
		{"three aces and nine", []string{"A", "A", "A", "9"}, 12},
		{"soft seventeen", []string{"A", "6"}, 17},
		{"hard seventeen", []string{"A", "6", "10"}, 17},
		{"face cards", []string{"K", "Q"}, 20},
		{"blackjack", []string{"A", "K"}, 21},
		{"bust", []string{"K", "Q", "5"}, 25},
		{"all aces", []string{"A", "A", "A", "A"}, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.total, HandValue(hand(tt.ranks...)))
		})
	}
}

func TestBlackjackOutcome(t *testing.T) {
	tests := []struct {
		name        string
		player      int
		dealer      int
		bet         int64
		result      string
		payout      int64
	}{
		{"player ahead", 20, 19, 10, ResultWin, 20},
		{"push", 18, 18, 10, ResultPush, 10},
		{"player bust", 22, 18, 10, ResultLoss, 0},
		{"dealer bust", 18, 22, 10, ResultWin, 20},
		{"both bust counts as player loss", 22, 23, 10, ResultLoss, 0},
		{"dealer ahead", 17, 20, 10, ResultLoss, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, payout := BlackjackOutcome(tt.player, tt.dealer, tt.bet)
			assert.Equal(t, tt.result, result)
			assert.Equal(t, tt.payout, payout)
		})
	}
}

func newBlackjackFixture(balance int64) (*BlackjackEngine, *fakeLedger, *fakeRounds) {
	fake := newFakeLedger()
	fake.balances[1] = balance
	roundStore := newFakeRounds()
	engine := NewBlackjackEngine(fake, roundStore, nil, rand.New(rand.NewSource(1)))
	return engine, fake, roundStore
}

// riggedRound stores a prepared round directly so the outcome is fixed.
func riggedRound(bet int64, player, dealer []models.Card, deck []models.Card) *models.BlackjackRound {
	return &models.BlackjackRound{
		ID:           "test-round",
		Bet:          bet,
		Deck:         deck,
		Player:       player,
		Dealer:       dealer,
		DealerHidden: true,
		Active:       true,
	}
}

func TestBlackjackStart(t *testing.T) {
	ctx := context.Background()
	engine, fake, roundStore := newBlackjackFixture(1000)

	state, err := engine.Start(ctx, 1, 50)
	require.NoError(t, err)

	assert.Len(t, state.Player, 2)
	assert.Len(t, state.Dealer, 2)
	assert.Equal(t, int64(50), state.Bet)
	assert.Equal(t, 1, fake.txCount(1, models.TxBlackjackBet))
	assert.Equal(t, int64(1000)+fake.txSum(1), fake.balances[1])

	if state.Active {
		// Hole card masked while the round runs.
		assert.Equal(t, "?", state.Dealer[0].Rank)
		assert.Zero(t, state.DealerTotal)
		saved, _ := roundStore.Blackjack(ctx, 1)
		require.NotNil(t, saved)
	}
}

func TestBlackjackStartDealOrder(t *testing.T) {
	ctx := context.Background()

	// Two identically seeded engines produce the same shuffle, so one
	// exposes the deck the other will deal from.
	reference := NewBlackjackEngine(newFakeLedger(), newFakeRounds(), nil, rand.New(rand.NewSource(3)))
	deck := reference.shuffledDeck()

	fake := newFakeLedger()
	fake.balances[1] = 1000
	roundStore := newFakeRounds()
	engine := NewBlackjackEngine(fake, roundStore, nil, rand.New(rand.NewSource(3)))

	state, err := engine.Start(ctx, 1, 10)
	require.NoError(t, err)

	// Cards pop off the top of the deck alternating player, dealer.
	top := len(deck) - 1
	assert.Equal(t, deck[top], state.Player[0])
	assert.Equal(t, deck[top-2], state.Player[1])

	dealer := state.Dealer
	if state.Active {
		saved, _ := roundStore.Blackjack(ctx, 1)
		require.NotNil(t, saved)
		dealer = saved.Dealer
	}
	assert.Equal(t, deck[top-1], dealer[0])
	assert.Equal(t, deck[top-3], dealer[1])
}

func TestBlackjackStartRejectsSecondRound(t *testing.T) {
	ctx := context.Background()
	engine, _, roundStore := newBlackjackFixture(1000)

	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("K", "9"), hand("K", "8"), nil))

	_, err := engine.Start(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrRoundInProgress)
}

func TestBlackjackStandWin(t *testing.T) {
	ctx := context.Background()
	engine, fake, roundStore := newBlackjackFixture(990)

	// Player 20 vs dealer 19; dealer stands, player wins bet×2.
	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("K", "10"), hand("K", "9"), nil))

	state, err := engine.Stand(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, ResultWin, state.Result)
	assert.Equal(t, int64(20), state.Payout)
	assert.Equal(t, int64(1010), state.NewBalance)
	assert.Equal(t, 20, state.PlayerTotal)
	assert.Equal(t, 19, state.DealerTotal)
	assert.Equal(t, 1, fake.wins[1])
	assert.Equal(t, 1, fake.txCount(1, models.TxBlackjackWin))

	cleared, _ := roundStore.Blackjack(ctx, 1)
	assert.Nil(t, cleared)
}

func TestBlackjackStandPush(t *testing.T) {
	ctx := context.Background()
	engine, fake, roundStore := newBlackjackFixture(990)

	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("10", "8"), hand("K", "8"), nil))

	state, err := engine.Stand(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, ResultPush, state.Result)
	assert.Equal(t, int64(10), state.Payout)
	assert.Equal(t, int64(1000), state.NewBalance)
	assert.Zero(t, fake.wins[1])
	assert.Equal(t, 1, fake.txCount(1, models.TxBlackjackPush))
}

func TestBlackjackHitBust(t *testing.T) {
	ctx := context.Background()
	engine, fake, roundStore := newBlackjackFixture(990)

	// Deck top card is a king: player K+9+K busts.
	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("K", "9"), hand("K", "8"), hand("K")))

	state, err := engine.Hit(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, ResultLoss, state.Result)
	assert.Zero(t, state.Payout)
	assert.Equal(t, int64(990), state.NewBalance)
	assert.False(t, state.Active)

	// A loss still writes a row, at amount zero.
	assert.Equal(t, 1, fake.txCount(1, models.TxBlackjackLoss))
	assert.Zero(t, fake.txSum(1))
}

func TestBlackjackDealerDrawsToSeventeen(t *testing.T) {
	ctx := context.Background()
	engine, _, roundStore := newBlackjackFixture(990)

	// Dealer 16 must draw; deck gives a 5 for 21.
	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("K", "10"), hand("K", "6"), hand("5")))

	state, err := engine.Stand(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 21, state.DealerTotal)
	assert.Equal(t, ResultLoss, state.Result)
}

func TestBlackjackDouble(t *testing.T) {
	ctx := context.Background()
	engine, fake, roundStore := newBlackjackFixture(990)

	// Player 11 doubles, draws a 9 for 20 against dealer 19.
	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("6", "5"), hand("K", "9"), hand("9")))

	state, err := engine.Double(ctx, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, ResultWin, state.Result)
	assert.Equal(t, int64(20), state.Bet)
	assert.Equal(t, int64(40), state.Payout)
	// 990 − 10 double + 40 payout.
	assert.Equal(t, int64(1020), state.NewBalance)
	assert.Equal(t, 1, fake.txCount(1, models.TxBlackjackDouble))
}

func TestBlackjackDoubleOnlyOnOpeningHand(t *testing.T) {
	ctx := context.Background()
	engine, _, roundStore := newBlackjackFixture(990)

	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("2", "3", "4"), hand("K", "9"), hand("9")))

	_, err := engine.Double(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrDoubleNotAllowed)
}

func TestBlackjackSettleRejectsMismatchedClaim(t *testing.T) {
	ctx := context.Background()
	engine, fake, roundStore := newBlackjackFixture(990)

	// Actual outcome is a 20 v 19 win paying 20; the claim says push.
	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("K", "10"), hand("K", "9"), nil))

	_, err := engine.Settle(ctx, 1, ResultPush, 10)
	assert.ErrorIs(t, err, ErrPayoutMismatch)

	// The authoritative settlement still stands.
	assert.Equal(t, int64(1010), fake.balances[1])
	assert.Equal(t, 1, fake.txCount(1, models.TxBlackjackWin))
}

func TestBlackjackSettleMatchingClaim(t *testing.T) {
	ctx := context.Background()
	engine, _, roundStore := newBlackjackFixture(990)

	roundStore.SaveBlackjack(ctx, 1, riggedRound(10, hand("K", "10"), hand("K", "9"), nil))

	state, err := engine.Settle(ctx, 1, ResultWin, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1010), state.NewBalance)
	assert.Equal(t, 1, state.Wins)
}

func TestBlackjackActionsRequireActiveRound(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newBlackjackFixture(1000)

	_, err := engine.Hit(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = engine.Stand(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = engine.Double(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrNoActiveRound)
}
