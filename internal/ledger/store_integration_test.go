package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betwise-backend/internal/ledger"
	"betwise-backend/internal/ledger/testutil"
	"betwise-backend/internal/models"
)

func setupStore(t *testing.T) *ledger.Store {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	return ledger.NewStore(testDB.DB, 1000, 5000)
}

func createTestAccount(t *testing.T, store *ledger.Store, balance int64) *models.Account {
	account, err := store.CreateAccount(context.Background(), "player_"+t.Name(), "hash", balance)
	require.NoError(t, err)
	return account
}

func TestCreateAccount(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "alice", "hash", 1000)
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, int64(1000), account.Balance)
	assert.Zero(t, account.Wins)
	assert.Nil(t, account.LastTopUpDate)

	_, err = store.CreateAccount(ctx, "alice", "other-hash", 1000)
	assert.ErrorIs(t, err, ledger.ErrUsernameTaken)
}

func TestAccountLookup(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created := createTestAccount(t, store, 500)

	byName, err := store.AccountByUsername(ctx, created.Username)
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := store.AccountByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, created.Username, byID.Username)

	missing, err := store.AccountByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAdjustBalance(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	account := createTestAccount(t, store, 100)

	newBalance, err := store.AdjustBalance(ctx, account.ID, -30, models.TxSlotsSpin, "Slots spin, bet 30")
	require.NoError(t, err)
	assert.Equal(t, int64(70), newBalance)

	newBalance, err = store.AdjustBalance(ctx, account.ID, 60, models.TxSlotsWin, "Slots win")
	require.NoError(t, err)
	assert.Equal(t, int64(130), newBalance)

	// A debit past zero fails and leaves everything untouched.
	_, err = store.AdjustBalance(ctx, account.ID, -200, models.TxSlotsSpin, "Slots spin, bet 200")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	balance, err := store.Balance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(130), balance)

	transactions, err := store.RecentTransactions(ctx, account.ID, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	// Newest first.
	assert.Equal(t, models.TxSlotsWin, transactions[0].Type)
	assert.Equal(t, models.TxSlotsSpin, transactions[1].Type)

	var sum int64
	for _, tx := range transactions {
		sum += tx.Amount
	}
	assert.Equal(t, balance-100, sum)
}

func TestAdjustBalanceUnknownAccount(t *testing.T) {
	store := setupStore(t)

	_, err := store.AdjustBalance(context.Background(), 99999, 10, models.TxSlotsWin, "test")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestConcurrentDebits(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Balance covers exactly one of two concurrent 80-credit debits.
	account := createTestAccount(t, store, 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.AdjustBalance(ctx, account.ID, -80, models.TxSlotsSpin, "Slots spin, bet 80")
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	balance, err := store.Balance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)
}

func TestRecordWin(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	account := createTestAccount(t, store, 100)

	require.NoError(t, store.RecordWin(ctx, account.ID))
	require.NoError(t, store.RecordWin(ctx, account.ID))

	wins, err := store.Wins(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, wins)

	assert.ErrorIs(t, store.RecordWin(ctx, 99999), ledger.ErrAccountNotFound)
}

func TestAddCredits(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	account := createTestAccount(t, store, 100)

	newBalance, err := store.AddCredits(ctx, account.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(600), newBalance)

	transactions, err := store.RecentTransactions(ctx, account.ID, 5)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, models.TxWalletTopUp, transactions[0].Type)
	assert.Equal(t, int64(500), transactions[0].Amount)
}

func TestAddCreditsPerRequestBounds(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	account := createTestAccount(t, store, 0)

	_, err := store.AddCredits(ctx, account.ID, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = store.AddCredits(ctx, account.ID, 1001)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestAddCreditsDailyCap(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	account := createTestAccount(t, store, 0)

	// Five 1000-credit top-ups hit the 5000 daily cap.
	for i := 0; i < 5; i++ {
		_, err := store.AddCredits(ctx, account.ID, 1000)
		require.NoError(t, err)
	}

	_, err := store.AddCredits(ctx, account.ID, 100)
	var dailyErr *ledger.DailyLimitError
	require.ErrorAs(t, err, &dailyErr)
	assert.Equal(t, int64(0), dailyErr.Remaining)

	balance, err := store.Balance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
}

func TestAddCreditsReportsRemainingAllowance(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	account := createTestAccount(t, store, 0)

	// 4900 added today leaves 100.
	for i := 0; i < 4; i++ {
		_, err := store.AddCredits(ctx, account.ID, 1000)
		require.NoError(t, err)
	}
	_, err := store.AddCredits(ctx, account.ID, 900)
	require.NoError(t, err)

	_, err = store.AddCredits(ctx, account.ID, 200)
	var dailyErr *ledger.DailyLimitError
	require.ErrorAs(t, err, &dailyErr)
	assert.Equal(t, int64(100), dailyErr.Remaining)

	// The exact remainder still fits.
	newBalance, err := store.AddCredits(ctx, account.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), newBalance)
}
