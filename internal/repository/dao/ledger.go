package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Account struct {
	ID       uint `gorm:"primaryKey"`
	SellerID uint `gorm:"uniqueIndex;not null"`

	RedeemableBalance int64 `gorm:"not null;default:0"`
	LockedBalance     int64 `gorm:"not null;default:0"`
	TotalEarned       int64 `gorm:"not null;default:0"`
	TotalRedeemed     int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Account) TableName() string {
	return "accounts"
}

// CoinTransaction rows are append-only. No DAO method updates or deletes
// them; corrections are recorded as new rows.
type CoinTransaction struct {
	ID       uint `gorm:"primaryKey"`
	SellerID uint `gorm:"not null;index:idx_coin_tx_seller_created,priority:1"`

	Type       string `gorm:"not null"`
	SourceType string `gorm:"not null"`
	SourceID   *string

	Pool          string `gorm:"not null"`
	Amount        int64  `gorm:"not null"`
	BalanceBefore int64  `gorm:"not null"`
	BalanceAfter  int64  `gorm:"not null"`

	UnlockedFromEntryID *uint `gorm:"index"`

	Description string
	Metadata    datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;index:idx_coin_tx_seller_created,priority:2"`
}

func (CoinTransaction) TableName() string {
	return "coin_transactions"
}

type LedgerDAO struct {
	db *gorm.DB
}

func NewLedgerDAO(db *gorm.DB) *LedgerDAO {
	return &LedgerDAO{
		db: db,
	}
}

// FindAccountBySellerID is a plain read with no lock.
func (d *LedgerDAO) FindAccountBySellerID(ctx context.Context, sellerID uint) (Account, error) {
	var account Account

	result := d.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}

		return Account{}, result.Error
	}

	return account, nil
}

type TransactionFilter struct {
	SellerID uint
	Type     *string
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int
}

func (d *LedgerDAO) ListTransactions(ctx context.Context, filter TransactionFilter) ([]CoinTransaction, int64, error) {
	query := d.db.WithContext(ctx).Model(&CoinTransaction{}).Where("seller_id = ?", filter.SellerID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []CoinTransaction
	err := query.Order("created_at DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// WithSeller runs fn inside one database transaction holding a FOR UPDATE
// lock on the seller's account row. This is the per-seller atomic unit:
// concurrent operations on the same seller serialize here, and a failure
// anywhere in fn rolls back every balance update and appended entry.
//
// With create set, a missing account is created lazily (first credit).
func (d *LedgerDAO) WithSeller(ctx context.Context, sellerID uint, create bool, fn func(tx *SellerTx) error) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockAccount(tx, sellerID, create)
		if err != nil {
			return err
		}

		return fn(&SellerTx{tx: tx, account: account, now: time.Now().UTC()})
	})

	return translateError(err)
}

func lockAccount(tx *gorm.DB, sellerID uint, create bool) (*Account, error) {
	var account Account

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ?", sellerID).
		First(&account)
	if result.Error == nil {
		return &account, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}
	if !create {
		return nil, ErrAccountNotFound
	}

	account = Account{SellerID: sellerID}
	if err := tx.Create(&account).Error; err != nil {
		// Racing lazy creation hits the seller_id unique index and
		// aborts the transaction; the caller retries from scratch.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrConcurrencyConflict
		}

		return nil, err
	}

	return &account, nil
}

// translateError maps Postgres transaction-rollback errors (serialization
// failure, deadlock) onto the retryable conflict sentinel.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsTransactionRollback(pgErr.Code) {
		return ErrConcurrencyConflict
	}

	return err
}

// SellerTx is the storage side of the per-seller unit of work. All methods
// operate within the transaction opened by WithSeller.
type SellerTx struct {
	tx      *gorm.DB
	account *Account
	now     time.Time
}

func (s *SellerTx) Account() Account {
	return *s.account
}

func (s *SellerTx) poolBalance(pool string) *int64 {
	if pool == "locked" {
		return &s.account.LockedBalance
	}
	return &s.account.RedeemableBalance
}

func (s *SellerTx) saveAccount() error {
	s.account.UpdatedAt = s.now
	return s.tx.Save(s.account).Error
}

type CreditParams struct {
	Amount      int64
	Pool        string
	Type        string
	SourceType  string
	SourceID    *string
	Description string
	Metadata    datatypes.JSONMap
}

// Credit increments the target pool and totalEarned and appends the entry,
// all inside the unit of work.
func (s *SellerTx) Credit(p CreditParams) (CoinTransaction, error) {
	if p.Amount <= 0 {
		return CoinTransaction{}, ErrInvalidAmount
	}

	balance := s.poolBalance(p.Pool)
	before := *balance
	*balance += p.Amount
	s.account.TotalEarned += p.Amount

	entry := CoinTransaction{
		SellerID:      s.account.SellerID,
		Type:          p.Type,
		SourceType:    p.SourceType,
		SourceID:      p.SourceID,
		Pool:          p.Pool,
		Amount:        p.Amount,
		BalanceBefore: before,
		BalanceAfter:  before + p.Amount,
		Description:   p.Description,
		Metadata:      p.Metadata,
		CreatedAt:     s.now,
	}
	if err := s.tx.Create(&entry).Error; err != nil {
		return CoinTransaction{}, err
	}
	if err := s.saveAccount(); err != nil {
		return CoinTransaction{}, err
	}

	return entry, nil
}

type DebitParams struct {
	Amount      int64
	Pool        string
	SourceType  string
	SourceID    *string
	Description string
}

// Debit decrements the pool and increments totalRedeemed. The entry amount
// is recorded negative. Fails without side effects when the pool balance
// is short.
func (s *SellerTx) Debit(p DebitParams) (CoinTransaction, error) {
	if p.Amount <= 0 {
		return CoinTransaction{}, ErrInvalidAmount
	}

	balance := s.poolBalance(p.Pool)
	before := *balance
	if before < p.Amount {
		return CoinTransaction{}, ErrInsufficientBalance
	}
	*balance -= p.Amount
	s.account.TotalRedeemed += p.Amount

	entry := CoinTransaction{
		SellerID:      s.account.SellerID,
		Type:          "redeem",
		SourceType:    p.SourceType,
		SourceID:      p.SourceID,
		Pool:          p.Pool,
		Amount:        -p.Amount,
		BalanceBefore: before,
		BalanceAfter:  before - p.Amount,
		Description:   p.Description,
		CreatedAt:     s.now,
	}
	if err := s.tx.Create(&entry).Error; err != nil {
		return CoinTransaction{}, err
	}
	if err := s.saveAccount(); err != nil {
		return CoinTransaction{}, err
	}

	return entry, nil
}

type UnlockParams struct {
	EarnEntryID uint
	Amount      int64
	SourceID    *string
	Description string
}

// Unlock moves amount from the locked pool to the redeemable pool. This is
// an internal transfer: totalEarned and totalRedeemed are untouched. The
// referenced entry must be a locked earn entry of the same seller; the
// ledger does not deduplicate by source, the campaign engine does.
func (s *SellerTx) Unlock(p UnlockParams) (CoinTransaction, error) {
	if p.Amount <= 0 {
		return CoinTransaction{}, ErrInvalidAmount
	}

	var source CoinTransaction
	result := s.tx.Where("id = ? AND seller_id = ?", p.EarnEntryID, s.account.SellerID).First(&source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return CoinTransaction{}, ErrEntryNotFound
		}

		return CoinTransaction{}, result.Error
	}
	if source.Type != "earn" || source.Pool != "locked" {
		return CoinTransaction{}, ErrEntryNotUnlockable
	}

	if s.account.LockedBalance < p.Amount {
		return CoinTransaction{}, ErrInsufficientBalance
	}
	s.account.LockedBalance -= p.Amount
	before := s.account.RedeemableBalance
	s.account.RedeemableBalance += p.Amount

	entry := CoinTransaction{
		SellerID:            s.account.SellerID,
		Type:                "unlock",
		SourceType:          "campaign",
		SourceID:            p.SourceID,
		Pool:                "redeemable",
		Amount:              p.Amount,
		BalanceBefore:       before,
		BalanceAfter:        before + p.Amount,
		UnlockedFromEntryID: &source.ID,
		Description:         p.Description,
		CreatedAt:           s.now,
	}
	if err := s.tx.Create(&entry).Error; err != nil {
		return CoinTransaction{}, err
	}
	if err := s.saveAccount(); err != nil {
		return CoinTransaction{}, err
	}

	return entry, nil
}

// ProgressFor loads the seller's progress row for the campaign, creating
// an empty one on the first qualifying event. Runs under the account lock,
// so check-and-act on the flags is race-free.
func (s *SellerTx) ProgressFor(campaignID uint) (CampaignProgress, error) {
	var progress CampaignProgress

	result := s.tx.Where("campaign_id = ? AND seller_id = ?", campaignID, s.account.SellerID).First(&progress)
	if result.Error == nil {
		return progress, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return CampaignProgress{}, result.Error
	}

	progress = CampaignProgress{
		CampaignID: campaignID,
		SellerID:   s.account.SellerID,
	}
	if err := s.tx.Create(&progress).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return CampaignProgress{}, ErrConcurrencyConflict
		}

		return CampaignProgress{}, err
	}

	return progress, nil
}

func (s *SellerTx) SaveProgress(progress CampaignProgress) error {
	progress.UpdatedAt = s.now
	return s.tx.Save(&progress).Error
}

func (s *SellerTx) CreateRedemption(request RedemptionRequest) (RedemptionRequest, error) {
	if err := s.tx.Create(&request).Error; err != nil {
		return RedemptionRequest{}, err
	}
	return request, nil
}
