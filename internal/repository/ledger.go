package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository/dao"
)

var (
	ErrInvalidAmount       = dao.ErrInvalidAmount
	ErrInsufficientBalance = dao.ErrInsufficientBalance
	ErrAccountNotFound     = dao.ErrAccountNotFound
	ErrEntryNotFound       = dao.ErrEntryNotFound
	ErrEntryNotUnlockable  = dao.ErrEntryNotUnlockable
	ErrConcurrencyConflict = dao.ErrConcurrencyConflict
)

type LedgerDAO interface {
	FindAccountBySellerID(ctx context.Context, sellerID uint) (dao.Account, error)
	ListTransactions(ctx context.Context, filter dao.TransactionFilter) ([]dao.CoinTransaction, int64, error)
	WithSeller(ctx context.Context, sellerID uint, create bool, fn func(tx *dao.SellerTx) error) error
}

type LedgerRepository struct {
	dao LedgerDAO
}

func NewLedgerRepository(dao LedgerDAO) *LedgerRepository {
	return &LedgerRepository{
		dao: dao,
	}
}

func (r *LedgerRepository) GetAccount(ctx context.Context, sellerID uint) (domain.Account, error) {
	account, err := r.dao.FindAccountBySellerID(ctx, sellerID)
	if err != nil {
		return domain.Account{}, err
	}

	return accountDAOToDomain(account), nil
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.CoinTransaction, int64, error) {
	filter := dao.TransactionFilter{
		SellerID: q.SellerID,
		From:     q.From,
		To:       q.To,
		Offset:   (q.Page - 1) * q.PageSize,
		Limit:    q.PageSize,
	}
	if q.Type != nil {
		t := string(*q.Type)
		filter.Type = &t
	}

	entries, total, err := r.dao.ListTransactions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.ListTransactions -> %w", err)
	}

	transactions := make([]domain.CoinTransaction, len(entries))
	for i, entry := range entries {
		transactions[i] = entryDAOToDomain(entry)
	}

	return transactions, total, nil
}

// WithSellerAccount opens the per-seller atomic unit and hands it to fn as
// a domain unit of work.
func (r *LedgerRepository) WithSellerAccount(ctx context.Context, sellerID uint, create bool, fn func(tx domain.AccountTx) error) error {
	return r.dao.WithSeller(ctx, sellerID, create, func(tx *dao.SellerTx) error {
		return fn(&sellerTx{tx: tx})
	})
}

// sellerTx adapts dao.SellerTx to domain.AccountTx.
type sellerTx struct {
	tx *dao.SellerTx
}

func (s *sellerTx) Account() domain.Account {
	return accountDAOToDomain(s.tx.Account())
}

func (s *sellerTx) Credit(in domain.CreditInput) (domain.CoinTransaction, error) {
	entry, err := s.tx.Credit(dao.CreditParams{
		Amount:      in.Amount,
		Pool:        string(in.Pool),
		Type:        string(in.Type),
		SourceType:  string(in.SourceType),
		SourceID:    in.SourceID,
		Description: in.Description,
		Metadata:    datatypes.JSONMap(in.Metadata),
	})
	if err != nil {
		return domain.CoinTransaction{}, err
	}

	return entryDAOToDomain(entry), nil
}

func (s *sellerTx) Debit(in domain.DebitInput) (domain.CoinTransaction, error) {
	entry, err := s.tx.Debit(dao.DebitParams{
		Amount:      in.Amount,
		Pool:        string(in.Pool),
		SourceType:  string(in.SourceType),
		SourceID:    in.SourceID,
		Description: in.Description,
	})
	if err != nil {
		return domain.CoinTransaction{}, err
	}

	return entryDAOToDomain(entry), nil
}

func (s *sellerTx) Unlock(in domain.UnlockInput) (domain.CoinTransaction, error) {
	entry, err := s.tx.Unlock(dao.UnlockParams{
		EarnEntryID: in.EarnEntryID,
		Amount:      in.Amount,
		SourceID:    in.SourceID,
		Description: in.Description,
	})
	if err != nil {
		return domain.CoinTransaction{}, err
	}

	return entryDAOToDomain(entry), nil
}

func (s *sellerTx) ProgressFor(campaignID uint) (domain.CampaignProgress, error) {
	progress, err := s.tx.ProgressFor(campaignID)
	if err != nil {
		return domain.CampaignProgress{}, err
	}

	return progressDAOToDomain(progress), nil
}

func (s *sellerTx) SaveProgress(p domain.CampaignProgress) error {
	return s.tx.SaveProgress(progressDomainToDAO(p))
}

func (s *sellerTx) CreateRedemption(r domain.RedemptionRequest) (domain.RedemptionRequest, error) {
	created, err := s.tx.CreateRedemption(redemptionDomainToDAO(r))
	if err != nil {
		return domain.RedemptionRequest{}, err
	}

	return redemptionDAOToDomain(created), nil
}

func accountDAOToDomain(a dao.Account) domain.Account {
	return domain.Account{
		ID:                a.ID,
		SellerID:          a.SellerID,
		RedeemableBalance: a.RedeemableBalance,
		LockedBalance:     a.LockedBalance,
		TotalEarned:       a.TotalEarned,
		TotalRedeemed:     a.TotalRedeemed,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func entryDAOToDomain(e dao.CoinTransaction) domain.CoinTransaction {
	return domain.CoinTransaction{
		ID:                  e.ID,
		SellerID:            e.SellerID,
		Type:                domain.TransactionType(e.Type),
		SourceType:          domain.SourceType(e.SourceType),
		SourceID:            e.SourceID,
		Pool:                domain.CoinPool(e.Pool),
		Amount:              e.Amount,
		BalanceBefore:       e.BalanceBefore,
		BalanceAfter:        e.BalanceAfter,
		UnlockedFromEntryID: e.UnlockedFromEntryID,
		Description:         e.Description,
		Metadata:            map[string]any(e.Metadata),
		CreatedAt:           e.CreatedAt,
	}
}

func progressDAOToDomain(p dao.CampaignProgress) domain.CampaignProgress {
	return domain.CampaignProgress{
		ID:                    p.ID,
		CampaignID:            p.CampaignID,
		SellerID:              p.SellerID,
		Condition1Completed:   p.Condition1Completed,
		Condition1CompletedAt: p.Condition1CompletedAt,
		Condition1EntryID:     p.Condition1EntryID,
		Condition2Completed:   p.Condition2Completed,
		Condition2CompletedAt: p.Condition2CompletedAt,
		Condition2EntryID:     p.Condition2EntryID,
		BothCompleted:         p.BothCompleted,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func progressDomainToDAO(p domain.CampaignProgress) dao.CampaignProgress {
	return dao.CampaignProgress{
		ID:                    p.ID,
		CampaignID:            p.CampaignID,
		SellerID:              p.SellerID,
		Condition1Completed:   p.Condition1Completed,
		Condition1CompletedAt: p.Condition1CompletedAt,
		Condition1EntryID:     p.Condition1EntryID,
		Condition2Completed:   p.Condition2Completed,
		Condition2CompletedAt: p.Condition2CompletedAt,
		Condition2EntryID:     p.Condition2EntryID,
		BothCompleted:         p.BothCompleted,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}
