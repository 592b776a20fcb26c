package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"betwise-backend/internal/ledger"
	"betwise-backend/internal/models"
)

type WalletHandler struct {
	store    *ledger.Store
	pageSize int
}

func NewWalletHandler(store *ledger.Store, pageSize int) *WalletHandler {
	return &WalletHandler{
		store:    store,
		pageSize: pageSize,
	}
}

// GetWallet returns the balance plus the most recent transactions with
// human-readable type labels.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.GetInt64("user_id")

	account, err := h.store.AccountByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get wallet"})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	transactions, err := h.store.RecentTransactions(c.Request.Context(), userID, h.pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transactions"})
		return
	}

	history := make([]gin.H, 0, len(transactions))
	for _, t := range transactions {
		history = append(history, gin.H{
			"type":        t.Type.Label(),
			"amount":      t.Amount,
			"description": t.Description,
			"created_at":  t.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":      account.Balance,
		"wins":         account.Wins,
		"transactions": history,
	})
}

// AddCredits applies a wallet top-up, bounded per request and per UTC day.
func (h *WalletHandler) AddCredits(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	newBalance, err := h.store.AddCredits(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"newBalance": newBalance})
}
