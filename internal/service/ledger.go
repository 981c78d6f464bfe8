package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository"
)

var (
	ErrInvalidAmount       = repository.ErrInvalidAmount
	ErrInsufficientBalance = repository.ErrInsufficientBalance
	ErrAccountNotFound     = repository.ErrAccountNotFound
	ErrEntryNotFound       = repository.ErrEntryNotFound
	ErrEntryNotUnlockable  = repository.ErrEntryNotUnlockable
	ErrConcurrencyConflict = repository.ErrConcurrencyConflict

	ErrInvalidPool = errors.New("invalid coin pool")
)

type LedgerRepository interface {
	GetAccount(ctx context.Context, sellerID uint) (domain.Account, error)
	ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.CoinTransaction, int64, error)
	WithSellerAccount(ctx context.Context, sellerID uint, create bool, fn func(tx domain.AccountTx) error) error
}

// LedgerService is the balance-mutation engine. Credit, Debit and Unlock
// are the only paths that change a seller's balances, and each runs inside
// the per-seller atomic unit.
type LedgerService struct {
	repo LedgerRepository
}

func NewLedgerService(repo LedgerRepository) *LedgerService {
	return &LedgerService{
		repo: repo,
	}
}

// withSeller opens the atomic unit, retrying once on a storage conflict.
// The conflict is the sole retryable error: nothing was committed.
func (s *LedgerService) withSeller(ctx context.Context, sellerID uint, create bool, fn func(tx domain.AccountTx) error) error {
	err := s.repo.WithSellerAccount(ctx, sellerID, create, fn)
	if errors.Is(err, ErrConcurrencyConflict) {
		err = s.repo.WithSellerAccount(ctx, sellerID, create, fn)
	}

	return err
}

// creditTypeFor maps the originating source onto the entry type recorded
// for a credit.
func creditTypeFor(source domain.SourceType) domain.TransactionType {
	switch source {
	case domain.SourceAdmin:
		return domain.TransactionAdjustment
	case domain.SourceGamification:
		return domain.TransactionBonus
	default:
		return domain.TransactionEarn
	}
}

// Credit increases a pool of the seller's account, lazily creating the
// account on first credit. The change and its entry become durable and
// visible before Credit returns.
func (s *LedgerService) Credit(ctx context.Context, in domain.CreditInput) (domain.CoinTransaction, error) {
	if in.Amount <= 0 {
		return domain.CoinTransaction{}, ErrInvalidAmount
	}
	if !in.Pool.Valid() {
		return domain.CoinTransaction{}, ErrInvalidPool
	}
	if !in.Type.Valid() {
		in.Type = creditTypeFor(in.SourceType)
	}

	var entry domain.CoinTransaction
	err := s.withSeller(ctx, in.SellerID, true, func(tx domain.AccountTx) error {
		var err error
		entry, err = tx.Credit(in)
		return err
	})
	if err != nil {
		return domain.CoinTransaction{}, err
	}

	return entry, nil
}

// Debit decreases a pool. Insufficient balance is reported, never retried.
func (s *LedgerService) Debit(ctx context.Context, in domain.DebitInput) (domain.CoinTransaction, error) {
	if in.Amount <= 0 {
		return domain.CoinTransaction{}, ErrInvalidAmount
	}
	if !in.Pool.Valid() {
		return domain.CoinTransaction{}, ErrInvalidPool
	}

	var entry domain.CoinTransaction
	err := s.withSeller(ctx, in.SellerID, false, func(tx domain.AccountTx) error {
		var err error
		entry, err = tx.Debit(in)
		return err
	})
	if err != nil {
		return domain.CoinTransaction{}, err
	}

	return entry, nil
}

// Unlock releases a locked earn entry's amount into the redeemable pool.
// Invoked at most once per seller and campaign by the campaign engine;
// the ledger enforces only the entry and balance preconditions.
func (s *LedgerService) Unlock(ctx context.Context, in domain.UnlockInput) (domain.CoinTransaction, error) {
	if in.Amount <= 0 {
		return domain.CoinTransaction{}, ErrInvalidAmount
	}

	var entry domain.CoinTransaction
	err := s.withSeller(ctx, in.SellerID, false, func(tx domain.AccountTx) error {
		var err error
		entry, err = tx.Unlock(in)
		return err
	})
	if err != nil {
		return domain.CoinTransaction{}, err
	}

	return entry, nil
}

// GetBalance returns the seller's balances. A seller who never earned has
// no account row yet and reads as all zeros.
func (s *LedgerService) GetBalance(ctx context.Context, sellerID uint) (domain.Account, error) {
	account, err := s.repo.GetAccount(ctx, sellerID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return domain.Account{SellerID: sellerID}, nil
		}

		return domain.Account{}, fmt.Errorf("s.repo.GetAccount -> %w", err)
	}

	return account, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.CoinTransaction, int64, error) {
	q.Normalize()

	entries, total, err := s.repo.ListTransactions(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("s.repo.ListTransactions -> %w", err)
	}

	return entries, total, nil
}

// RecordBookingEarn credits commission coins for a booking event reported
// by the booking subsystem.
func (s *LedgerService) RecordBookingEarn(ctx context.Context, sellerID uint, bookingID string, amount int64) (domain.CoinTransaction, error) {
	return s.Credit(ctx, domain.CreditInput{
		SellerID:    sellerID,
		Amount:      amount,
		Pool:        domain.PoolRedeemable,
		Type:        domain.TransactionEarn,
		SourceType:  domain.SourceBooking,
		SourceID:    &bookingID,
		Description: "booking commission",
	})
}
