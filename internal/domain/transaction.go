package domain

import (
	"time"
)

type TransactionType string

const (
	TransactionEarn       TransactionType = "earn"
	TransactionRedeem     TransactionType = "redeem"
	TransactionBonus      TransactionType = "bonus"
	TransactionAdjustment TransactionType = "adjustment"
	TransactionUnlock     TransactionType = "unlock"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionEarn, TransactionRedeem, TransactionBonus, TransactionAdjustment, TransactionUnlock:
		return true
	}
	return false
}

type SourceType string

const (
	SourceBooking      SourceType = "booking"
	SourceSalesTarget  SourceType = "sales_target"
	SourceReferral     SourceType = "referral"
	SourceCampaign     SourceType = "campaign"
	SourceAdmin        SourceType = "admin"
	SourceGamification SourceType = "gamification"
)

// CoinPool identifies which balance an entry affected.
type CoinPool string

const (
	PoolLocked     CoinPool = "locked"
	PoolRedeemable CoinPool = "redeemable"
)

func (p CoinPool) Valid() bool {
	return p == PoolLocked || p == PoolRedeemable
}

// CoinTransaction is one immutable ledger entry. Entries are append-only:
// they are never updated or deleted, and corrections happen through new
// entries.
type CoinTransaction struct {
	ID       uint `json:"id"`
	SellerID uint `json:"seller_id"`

	Type       TransactionType `json:"transaction_type"`
	SourceType SourceType      `json:"source_type"`
	SourceID   *string         `json:"source_id,omitempty"`

	Pool   CoinPool `json:"coin_pool"`
	Amount int64    `json:"amount"`

	// Snapshots of the affected pool around this entry.
	BalanceBefore int64 `json:"balance_before"`
	BalanceAfter  int64 `json:"balance_after"`

	// Set only on unlock entries: the earn entry whose locked amount
	// is being released. Audit back-reference, never an ownership edge.
	UnlockedFromEntryID *uint `json:"unlocked_from_entry_id,omitempty"`

	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Consistent reports whether the entry's snapshots agree with its amount.
func (t CoinTransaction) Consistent() bool {
	return t.BalanceAfter == t.BalanceBefore+t.Amount
}

// TransactionQuery selects a page of a seller's ledger history.
type TransactionQuery struct {
	SellerID uint
	Type     *TransactionType
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize applies pagination defaults and caps.
func (q *TransactionQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// CreditInput describes a balance increase.
type CreditInput struct {
	SellerID    uint
	Amount      int64
	Pool        CoinPool
	Type        TransactionType // earn, bonus or adjustment
	SourceType  SourceType
	SourceID    *string
	Description string
	Metadata    map[string]any
}

// DebitInput describes a balance decrease.
type DebitInput struct {
	SellerID    uint
	Amount      int64
	Pool        CoinPool
	SourceType  SourceType
	SourceID    *string
	Description string
}

// UnlockInput moves a specific earn entry's locked amount into the
// redeemable pool.
type UnlockInput struct {
	SellerID    uint
	EarnEntryID uint
	Amount      int64
	SourceID    *string
	Description string
}
