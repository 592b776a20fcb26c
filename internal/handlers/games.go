package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"betwise-backend/internal/ledger"
	"betwise-backend/internal/models"
	"betwise-backend/internal/services"
)

type GameHandler struct {
	slots     *services.SlotsEngine
	blackjack *services.BlackjackEngine
	mines     *services.MinesEngine
}

func NewGameHandler(slots *services.SlotsEngine, blackjack *services.BlackjackEngine, mines *services.MinesEngine) *GameHandler {
	return &GameHandler{
		slots:     slots,
		blackjack: blackjack,
		mines:     mines,
	}
}

// respondGameError maps engine and ledger errors onto HTTP responses.
// Rule violations and bad stakes are the client's fault (400); anything
// else is a storage failure (500).
func respondGameError(c *gin.Context, err error) {
	var dailyErr *ledger.DailyLimitError
	if errors.As(err, &dailyErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Daily top-up limit exceeded",
			"remaining": dailyErr.Remaining,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidBet),
		errors.Is(err, services.ErrInvalidMineCount),
		errors.Is(err, services.ErrRoundInProgress),
		errors.Is(err, services.ErrNoActiveRound),
		errors.Is(err, services.ErrDoubleNotAllowed),
		errors.Is(err, services.ErrInvalidCell),
		errors.Is(err, services.ErrCellRevealed),
		errors.Is(err, services.ErrInvalidPayout),
		errors.Is(err, services.ErrPayoutMismatch),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func (h *GameHandler) SpinSlots(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, err := h.slots.Spin(c.Request.Context(), userID, req.Bet)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reels":      result.Reels,
		"payout":     result.Payout,
		"net":        result.Net,
		"newBalance": result.NewBalance,
	})
}

func (h *GameHandler) StartBlackjack(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.BlackjackStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	state, err := h.blackjack.Start(c.Request.Context(), userID, req.Bet)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "newBalance": state.NewBalance, "round": state})
}

func (h *GameHandler) HitBlackjack(c *gin.Context) {
	userID := c.GetInt64("user_id")

	state, err := h.blackjack.Hit(c.Request.Context(), userID)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "newBalance": state.NewBalance, "round": state})
}

func (h *GameHandler) DoubleBlackjack(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.BlackjackDoubleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	state, err := h.blackjack.Double(c.Request.Context(), userID, req.ExtraBet)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "newBalance": state.NewBalance, "round": state})
}

func (h *GameHandler) SettleBlackjack(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.BlackjackSettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	state, err := h.blackjack.Settle(c.Request.Context(), userID, req.Result, req.NetPayout)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"newBalance": state.NewBalance,
		"wins":       state.Wins,
		"round":      state,
	})
}

func (h *GameHandler) StartMines(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.MinesStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	state, err := h.mines.Start(c.Request.Context(), userID, req.Bet, req.Mines)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "newBalance": state.NewBalance, "round": state})
}

func (h *GameHandler) RevealMines(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.MinesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	state, err := h.mines.Reveal(c.Request.Context(), userID, req.Cell)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "newBalance": state.NewBalance, "round": state})
}

func (h *GameHandler) TileMines(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.MinesTileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	state, err := h.mines.TileReward(c.Request.Context(), userID, req.TileReward)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"newBalance": state.NewBalance, "round": state})
}

func (h *GameHandler) CashoutMines(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.MinesCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	state, err := h.mines.Cashout(c.Request.Context(), userID, req.Payout, req.ResultType)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "newBalance": state.NewBalance, "round": state})
}
