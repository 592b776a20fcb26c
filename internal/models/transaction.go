package models

import "time"

type TransactionType string

const (
	TxSlotsSpin       TransactionType = "slots_spin"
	TxSlotsWin        TransactionType = "slots_win"
	TxBlackjackBet    TransactionType = "blackjack_bet"
	TxBlackjackDouble TransactionType = "blackjack_double"
	TxBlackjackWin    TransactionType = "blackjack_win"
	TxBlackjackPush   TransactionType = "blackjack_push"
	TxBlackjackLoss   TransactionType = "blackjack_loss"
	TxMinesBet        TransactionType = "mines_bet"
	TxMinesWin        TransactionType = "mines_win"
	TxMinesLoss       TransactionType = "mines_loss"
	TxMinesCashout    TransactionType = "mines_cashout"
	TxMinesTileReward TransactionType = "mines_tile_reward"
	TxWalletTopUp     TransactionType = "wallet_topup"
)

// transactionLabels maps stored type codes to the labels shown in the
// wallet history view. Unknown codes pass through verbatim.
var transactionLabels = map[TransactionType]string{
	TxSlotsSpin:       "Slots Spin",
	TxSlotsWin:        "Slots Win",
	TxBlackjackBet:    "Blackjack Bet",
	TxBlackjackDouble: "Blackjack Double",
	TxBlackjackWin:    "Blackjack Win",
	TxBlackjackPush:   "Blackjack Push",
	TxBlackjackLoss:   "Blackjack Loss",
	TxMinesBet:        "Mines Bet",
	TxMinesWin:        "Mines Win",
	TxMinesLoss:       "Mines Loss",
	TxMinesCashout:    "Mines Cashout",
	TxMinesTileReward: "Mines Tile Reward",
	TxWalletTopUp:     "Wallet Top-Up",
}

// Label returns the display-friendly name for the transaction type.
func (t TransactionType) Label() string {
	if label, ok := transactionLabels[t]; ok {
		return label
	}
	return string(t)
}

// Transaction is one immutable row of the append-only audit trail.
// Positive amounts are credits, negative amounts are debits.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
