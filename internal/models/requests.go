package models

// Request bodies for the game and wallet endpoints. Field names mirror the
// JSON the web client sends.

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SpinRequest struct {
	Bet int64 `json:"bet" binding:"required,gt=0"`
}

type BlackjackStartRequest struct {
	Bet int64 `json:"bet" binding:"required,gt=0"`
}

type BlackjackDoubleRequest struct {
	// Zero means "double for the original bet".
	ExtraBet int64 `json:"extraBet" binding:"gte=0"`
}

type BlackjackSettleRequest struct {
	Result    string `json:"result" binding:"required,oneof=win loss push"`
	NetPayout int64  `json:"netPayout" binding:"gte=0"`
}

type MinesStartRequest struct {
	Bet int64 `json:"bet" binding:"required,gt=0"`
	// Zero means the default mine count.
	Mines int `json:"mines" binding:"gte=0,lte=24"`
}

type MinesRevealRequest struct {
	Cell int `json:"cell" binding:"gte=0,lte=24"`
}

type MinesTileRequest struct {
	TileReward int64 `json:"tileReward" binding:"gte=0"`
}

type MinesCashoutRequest struct {
	Payout     int64  `json:"payout" binding:"gte=0"`
	ResultType string `json:"resultType" binding:"omitempty,oneof=cashout win loss"`
}

type TopUpRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}
