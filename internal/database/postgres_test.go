package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betwise-backend/internal/ledger/testutil"
)

func TestWithTxCommitsOnSuccess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	err := testDB.DB.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (username, password_hash, balance) VALUES ($1, $2, $3)`,
			"committed", "hash", 100)
		return err
	})
	require.NoError(t, err)

	var balance int64
	err = testDB.DB.QueryRow(ctx, `SELECT balance FROM users WHERE username = $1`, "committed").Scan(&balance)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := testDB.DB.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (username, password_hash, balance) VALUES ($1, $2, $3)`,
			"rolled_back", "hash", 100); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	err = testDB.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, "rolled_back").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
