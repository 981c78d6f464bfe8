package domain

import (
	"fmt"
	"time"
)

// Account holds the coin balances for one seller. Created lazily on the
// first credit; mutated only through an AccountTx.
type Account struct {
	ID       uint `json:"id"`
	SellerID uint `json:"seller_id"`

	RedeemableBalance int64 `json:"redeemable_balance"`
	LockedBalance     int64 `json:"locked_balance"`

	// Lifetime counters, monotonically non-decreasing.
	TotalEarned   int64 `json:"total_earned"`
	TotalRedeemed int64 `json:"total_redeemed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Balance returns the balance of the given pool.
func (a Account) Balance(pool CoinPool) int64 {
	if pool == PoolLocked {
		return a.LockedBalance
	}
	return a.RedeemableBalance
}

// CheckInvariant verifies the account equation:
// totalEarned - totalRedeemed == redeemableBalance + lockedBalance,
// with both pools non-negative.
func (a Account) CheckInvariant() error {
	if a.RedeemableBalance < 0 || a.LockedBalance < 0 {
		return fmt.Errorf("negative balance: redeemable=%d locked=%d", a.RedeemableBalance, a.LockedBalance)
	}
	if a.TotalEarned-a.TotalRedeemed != a.RedeemableBalance+a.LockedBalance {
		return fmt.Errorf("balance equation violated: earned=%d redeemed=%d redeemable=%d locked=%d",
			a.TotalEarned, a.TotalRedeemed, a.RedeemableBalance, a.LockedBalance)
	}
	return nil
}
