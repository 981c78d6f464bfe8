package dao_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tripsell/rewards-api/internal/repository/dao"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("skipping dao tests, docker is not available: %v", err)
		os.Exit(0)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Printf("skipping dao tests, docker is not available: %v", err)
		os.Exit(0)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=rewards_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	hostAndPort := resource.GetHostPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres:secret@%v/rewards_test?sslmode=disable", hostAndPort)

	_ = resource.Expire(120)

	pool.MaxWait = 60 * time.Second
	if err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return err
		}
		testDB = db

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}); err != nil {
		log.Fatalf("could not connect to postgres container: %v", err)
	}

	if err = dao.InitTables(testDB); err != nil {
		log.Fatalf("could not migrate tables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Fatalf("could not purge postgres container: %v", err)
	}

	os.Exit(code)
}

func cleanTables(t *testing.T) {
	t.Helper()

	for _, table := range []string{
		"coin_transactions", "campaign_progresses", "redemption_requests",
		"campaign_sellers", "campaigns", "bank_accounts", "accounts",
	} {
		require.NoError(t, testDB.Exec("DELETE FROM "+table).Error)
	}
}

func TestLedgerDAO_CreditDebit(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	ledger := dao.NewLedgerDAO(testDB)

	err := ledger.WithSeller(ctx, 1, true, func(tx *dao.SellerTx) error {
		entry, err := tx.Credit(dao.CreditParams{
			Amount: 1000, Pool: "redeemable", Type: "earn", SourceType: "booking",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), entry.BalanceBefore)
		assert.Equal(t, int64(1000), entry.BalanceAfter)

		_, err = tx.Debit(dao.DebitParams{Amount: 300, Pool: "redeemable", SourceType: "admin"})
		return err
	})
	require.NoError(t, err)

	account, err := ledger.FindAccountBySellerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(700), account.RedeemableBalance)
	assert.Equal(t, int64(1000), account.TotalEarned)
	assert.Equal(t, int64(300), account.TotalRedeemed)

	entries, total, err := ledger.ListTransactions(ctx, dao.TransactionFilter{SellerID: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	// Newest first: the debit entry with its negative amount.
	assert.Equal(t, "redeem", entries[0].Type)
	assert.Equal(t, int64(-300), entries[0].Amount)
}

func TestLedgerDAO_RollbackOnFailure(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	ledger := dao.NewLedgerDAO(testDB)

	err := ledger.WithSeller(ctx, 2, true, func(tx *dao.SellerTx) error {
		_, err := tx.Credit(dao.CreditParams{Amount: 500, Pool: "redeemable", Type: "earn", SourceType: "booking"})
		require.NoError(t, err)

		// Force the unit to fail after the credit.
		_, err = tx.Debit(dao.DebitParams{Amount: 9999, Pool: "redeemable", SourceType: "admin"})
		return err
	})
	require.ErrorIs(t, err, dao.ErrInsufficientBalance)

	// Both the account and the credited entry were rolled back.
	_, err = ledger.FindAccountBySellerID(ctx, 2)
	assert.ErrorIs(t, err, dao.ErrAccountNotFound)

	_, total, err := ledger.ListTransactions(ctx, dao.TransactionFilter{SellerID: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestLedgerDAO_MissingAccount(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	ledger := dao.NewLedgerDAO(testDB)

	err := ledger.WithSeller(ctx, 3, false, func(tx *dao.SellerTx) error {
		t.Fatal("unit must not run without an account")
		return nil
	})
	assert.ErrorIs(t, err, dao.ErrAccountNotFound)
}

func TestLedgerDAO_Unlock(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	ledger := dao.NewLedgerDAO(testDB)

	var earnID uint
	err := ledger.WithSeller(ctx, 4, true, func(tx *dao.SellerTx) error {
		entry, err := tx.Credit(dao.CreditParams{Amount: 250, Pool: "locked", Type: "earn", SourceType: "campaign"})
		if err != nil {
			return err
		}
		earnID = entry.ID
		return nil
	})
	require.NoError(t, err)

	err = ledger.WithSeller(ctx, 4, false, func(tx *dao.SellerTx) error {
		entry, err := tx.Unlock(dao.UnlockParams{EarnEntryID: earnID, Amount: 250})
		require.NoError(t, err)
		assert.Equal(t, "unlock", entry.Type)
		assert.Equal(t, "redeemable", entry.Pool)
		require.NotNil(t, entry.UnlockedFromEntryID)
		assert.Equal(t, earnID, *entry.UnlockedFromEntryID)
		return nil
	})
	require.NoError(t, err)

	account, err := ledger.FindAccountBySellerID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), account.LockedBalance)
	assert.Equal(t, int64(250), account.RedeemableBalance)
	assert.Equal(t, int64(250), account.TotalEarned)
	assert.Equal(t, int64(0), account.TotalRedeemed)

	// A redeemable earn cannot be unlocked.
	err = ledger.WithSeller(ctx, 4, false, func(tx *dao.SellerTx) error {
		entry, err := tx.Credit(dao.CreditParams{Amount: 50, Pool: "redeemable", Type: "earn", SourceType: "booking"})
		require.NoError(t, err)

		_, err = tx.Unlock(dao.UnlockParams{EarnEntryID: entry.ID, Amount: 50})
		assert.ErrorIs(t, err, dao.ErrEntryNotUnlockable)
		return nil
	})
	require.NoError(t, err)
}

func TestLedgerDAO_ProgressRows(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	ledger := dao.NewLedgerDAO(testDB)

	err := ledger.WithSeller(ctx, 5, true, func(tx *dao.SellerTx) error {
		progress, err := tx.ProgressFor(101)
		require.NoError(t, err)
		assert.False(t, progress.Condition1Completed)

		progress.Condition1Completed = true
		return tx.SaveProgress(progress)
	})
	require.NoError(t, err)

	err = ledger.WithSeller(ctx, 5, false, func(tx *dao.SellerTx) error {
		progress, err := tx.ProgressFor(101)
		require.NoError(t, err)
		assert.True(t, progress.Condition1Completed)
		return nil
	})
	require.NoError(t, err)
}

func TestCampaignDAO_ListRunning(t *testing.T) {
	cleanTables(t)
	ctx := context.Background()
	campaigns := dao.NewCampaignDAO(testDB)
	now := time.Now().UTC()

	open := dao.Campaign{
		Title: "everyone", StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
		IsActive: true, AudienceAll: true,
		Condition1Type: "booking_approved", Condition1RewardPool: "locked", Condition1RewardAmount: 100,
		Condition2Type: "sales_target_reached", Condition2Action: "unlock",
	}
	_, err := campaigns.Insert(ctx, open, nil)
	require.NoError(t, err)

	restricted := open
	restricted.Title = "only seller 8"
	restricted.AudienceAll = false
	_, err = campaigns.Insert(ctx, restricted, []uint{8})
	require.NoError(t, err)

	expired := open
	expired.Title = "over"
	expired.StartDate = now.Add(-3 * time.Hour)
	expired.EndDate = now.Add(-2 * time.Hour)
	_, err = campaigns.Insert(ctx, expired, nil)
	require.NoError(t, err)

	sellerID := uint(8)
	running, err := campaigns.ListRunning(ctx, now, &sellerID, nil)
	require.NoError(t, err)
	assert.Len(t, running, 2)

	other := uint(9)
	running, err = campaigns.ListRunning(ctx, now, &other, nil)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "everyone", running[0].Title)
}
