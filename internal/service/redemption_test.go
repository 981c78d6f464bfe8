package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/service"
)

type redemptionFixture struct {
	svc    *service.RedemptionService
	ledger *service.LedgerService
	banks  *service.BankAccountService
	store  *memStore
}

func newRedemptionFixture(t *testing.T) *redemptionFixture {
	t.Helper()

	store := newMemStore()
	ledgerRepo := &memLedgerRepo{store: store}
	bankRepo := &memBankRepo{store: store}

	return &redemptionFixture{
		svc: service.NewRedemptionService(
			&memRedemptionRepo{store: store},
			ledgerRepo,
			bankRepo,
			decimal.RequireFromString("0.10"),
		),
		ledger: service.NewLedgerService(ledgerRepo),
		banks:  service.NewBankAccountService(bankRepo),
		store:  store,
	}
}

func (f *redemptionFixture) seedSeller(t *testing.T, sellerID uint, redeemable int64) domain.BankAccount {
	t.Helper()
	ctx := context.Background()

	if redeemable > 0 {
		_, err := f.ledger.Credit(ctx, domain.CreditInput{
			SellerID: sellerID, Amount: redeemable, Pool: domain.PoolRedeemable, SourceType: domain.SourceBooking,
		})
		require.NoError(t, err)
	}

	bank, err := f.banks.Create(ctx, domain.BankAccount{
		SellerID:      sellerID,
		HolderName:    "Dewi Lestari",
		BankName:      "Bank Nusantara",
		AccountNumber: "NB12 3456 7890",
	})
	require.NoError(t, err)

	return bank
}

func TestRedemptionService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves the coins and opens a pending request", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)

		created, err := f.svc.Submit(ctx, 1, 400, bank.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.RedemptionPending, created.Status)
		assert.NotEmpty(t, created.Reference)
		assert.Equal(t, int64(400), created.CoinAmount)
		assert.True(t, created.CashAmount.Equal(decimal.RequireFromString("40.00")),
			"cash amount %v", created.CashAmount)
		assert.False(t, created.RequestedAt.IsZero())

		account, err := f.ledger.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(600), account.RedeemableBalance)
		assert.Equal(t, int64(400), account.TotalRedeemed)
		require.NoError(t, account.CheckInvariant())

		// The reserve is a regular redeem entry referencing the request.
		entries, _, err := f.ledger.ListTransactions(ctx, domain.TransactionQuery{SellerID: 1})
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		reserve := entries[0]
		assert.Equal(t, domain.TransactionRedeem, reserve.Type)
		assert.Equal(t, int64(-400), reserve.Amount)
		require.NotNil(t, reserve.SourceID)
		assert.Equal(t, created.Reference, *reserve.SourceID)
	})

	t.Run("fails atomically when the balance is short", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 100)

		_, err := f.svc.Submit(ctx, 1, 101, bank.ID)
		assert.ErrorIs(t, err, service.ErrInsufficientBalance)

		account, err := f.ledger.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), account.RedeemableBalance)
		assert.Empty(t, f.store.requests)
	})

	t.Run("hides other sellers' bank accounts", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)
		f.seedSeller(t, 2, 1000)

		_, err := f.svc.Submit(ctx, 2, 100, bank.ID)
		assert.ErrorIs(t, err, service.ErrBankAccountNotFound)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)

		_, err := f.svc.Submit(ctx, 1, 0, bank.ID)
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
	})
}

func TestRedemptionService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("approve flips the state and leaves balances alone", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)
		created, err := f.svc.Submit(ctx, 1, 400, bank.ID)
		require.NoError(t, err)

		decided, err := f.svc.Decide(ctx, created.ID, service.DecisionApprove, 77, "")
		require.NoError(t, err)

		assert.Equal(t, domain.RedemptionApproved, decided.Status)
		require.NotNil(t, decided.ApprovedBy)
		assert.Equal(t, uint(77), *decided.ApprovedBy)
		assert.NotNil(t, decided.ApprovedAt)

		account, err := f.ledger.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(600), account.RedeemableBalance)
		assert.Equal(t, int64(400), account.TotalRedeemed)
	})

	t.Run("reject refunds through a compensating credit", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)
		created, err := f.svc.Submit(ctx, 1, 400, bank.ID)
		require.NoError(t, err)

		decided, err := f.svc.Decide(ctx, created.ID, service.DecisionReject, 77, "missing bank verification")
		require.NoError(t, err)

		assert.Equal(t, domain.RedemptionRejected, decided.Status)
		assert.Equal(t, "missing bank verification", decided.RejectionReason)

		account, err := f.ledger.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), account.RedeemableBalance)
		// The refund is a new earn-side entry, so lifetime totals both grow.
		assert.Equal(t, int64(1400), account.TotalEarned)
		assert.Equal(t, int64(400), account.TotalRedeemed)
		require.NoError(t, account.CheckInvariant())

		entries, _, err := f.ledger.ListTransactions(ctx, domain.TransactionQuery{SellerID: 1})
		require.NoError(t, err)
		refund := entries[0]
		assert.Equal(t, domain.TransactionAdjustment, refund.Type)
		assert.Equal(t, domain.SourceAdmin, refund.SourceType)
		assert.Equal(t, int64(400), refund.Amount)
		require.NotNil(t, refund.SourceID)
		assert.Equal(t, created.Reference, *refund.SourceID)
	})

	t.Run("decided requests are terminal", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)
		created, err := f.svc.Submit(ctx, 1, 400, bank.ID)
		require.NoError(t, err)

		_, err = f.svc.Decide(ctx, created.ID, service.DecisionReject, 77, "duplicate")
		require.NoError(t, err)

		// A second reject must not refund twice.
		_, err = f.svc.Decide(ctx, created.ID, service.DecisionReject, 77, "again")
		assert.ErrorIs(t, err, service.ErrRequestNotPending)

		_, err = f.svc.Decide(ctx, created.ID, service.DecisionApprove, 77, "")
		assert.ErrorIs(t, err, service.ErrRequestNotPending)

		account, err := f.ledger.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), account.RedeemableBalance)
	})

	t.Run("unknown decision and unknown request", func(t *testing.T) {
		f := newRedemptionFixture(t)

		_, err := f.svc.Decide(ctx, 1, "defer", 77, "")
		assert.ErrorIs(t, err, service.ErrInvalidDecision)

		_, err = f.svc.Decide(ctx, 999, service.DecisionApprove, 77, "")
		assert.ErrorIs(t, err, service.ErrRequestNotFound)
	})
}

func TestRedemptionService_MarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("marks an approved request paid", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)
		created, err := f.svc.Submit(ctx, 1, 400, bank.ID)
		require.NoError(t, err)
		_, err = f.svc.Decide(ctx, created.ID, service.DecisionApprove, 77, "")
		require.NoError(t, err)

		paid, err := f.svc.MarkPaid(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RedemptionPaid, paid.Status)
		assert.NotNil(t, paid.PaidAt)

		// Payment is external; the ledger does not move again.
		account, err := f.ledger.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(600), account.RedeemableBalance)
	})

	t.Run("requires the approved state", func(t *testing.T) {
		f := newRedemptionFixture(t)
		bank := f.seedSeller(t, 1, 1000)
		created, err := f.svc.Submit(ctx, 1, 400, bank.ID)
		require.NoError(t, err)

		_, err = f.svc.MarkPaid(ctx, created.ID)
		assert.ErrorIs(t, err, service.ErrRequestNotApproved)

		_, err = f.svc.Decide(ctx, created.ID, service.DecisionReject, 77, "no")
		require.NoError(t, err)

		_, err = f.svc.MarkPaid(ctx, created.ID)
		assert.ErrorIs(t, err, service.ErrRequestNotApproved)
	})
}

func TestRedemptionService_List(t *testing.T) {
	ctx := context.Background()
	f := newRedemptionFixture(t)

	bank1 := f.seedSeller(t, 1, 1000)
	bank2 := f.seedSeller(t, 2, 1000)

	first, err := f.svc.Submit(ctx, 1, 100, bank1.ID)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, 1, 200, bank1.ID)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, 2, 300, bank2.ID)
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, first.ID, service.DecisionApprove, 77, "")
	require.NoError(t, err)

	sellerOne := uint(1)
	requests, total, err := f.svc.List(ctx, domain.RedemptionQuery{SellerID: &sellerOne})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, requests, 2)

	pending := domain.RedemptionPending
	requests, total, err = f.svc.List(ctx, domain.RedemptionQuery{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, request := range requests {
		assert.Equal(t, domain.RedemptionPending, request.Status)
	}
}
