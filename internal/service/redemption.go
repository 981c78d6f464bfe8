package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository"
)

var (
	ErrRequestNotFound    = repository.ErrRequestNotFound
	ErrRequestNotPending  = domain.ErrRequestNotPending
	ErrRequestNotApproved = domain.ErrRequestNotApproved

	ErrInvalidDecision = errors.New("decision must be approve or reject")
)

type RedemptionDecision string

const (
	DecisionApprove RedemptionDecision = "approve"
	DecisionReject  RedemptionDecision = "reject"
)

type RedemptionRepository interface {
	FindByID(ctx context.Context, id uint) (domain.RedemptionRequest, error)
	List(ctx context.Context, q domain.RedemptionQuery) ([]domain.RedemptionRequest, int64, error)
	WithRequest(ctx context.Context, id uint, fn func(tx domain.RedemptionTx) error) error
}

// RedemptionService runs the cash-out workflow. Submission reserves the
// coins immediately by debiting the redeemable pool, so a pending request
// can never overdraw: approval and payment only flip states, and
// rejection refunds through a compensating credit.
type RedemptionService struct {
	repo       RedemptionRepository
	ledgerRepo LedgerRepository
	bankRepo   BankAccountRepository

	mu             sync.RWMutex
	conversionRate decimal.Decimal

	now func() time.Time
}

func NewRedemptionService(repo RedemptionRepository, ledgerRepo LedgerRepository, bankRepo BankAccountRepository, conversionRate decimal.Decimal) *RedemptionService {
	return &RedemptionService{
		repo:           repo,
		ledgerRepo:     ledgerRepo,
		bankRepo:       bankRepo,
		conversionRate: conversionRate,
		now:            time.Now,
	}
}

// SetConversionRate swaps the coin-to-cash rate at runtime, e.g. on a
// config reload. In-flight requests keep the rate they captured.
func (s *RedemptionService) SetConversionRate(rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversionRate = rate
}

func (s *RedemptionService) rate() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversionRate
}

// Submit reserves coinAmount from the seller's redeemable pool and opens a
// pending request against the given payout account. The debit and the
// request row commit together.
func (s *RedemptionService) Submit(ctx context.Context, sellerID uint, coinAmount int64, bankAccountID uint) (domain.RedemptionRequest, error) {
	if coinAmount <= 0 {
		return domain.RedemptionRequest{}, ErrInvalidAmount
	}

	bank, err := s.bankRepo.FindByID(ctx, bankAccountID)
	if err != nil {
		return domain.RedemptionRequest{}, err
	}
	if bank.SellerID != sellerID {
		// Do not reveal other sellers' account IDs.
		return domain.RedemptionRequest{}, ErrBankAccountNotFound
	}

	reference := uuid.NewString()
	rate := s.rate()
	cash := rate.Mul(decimal.NewFromInt(coinAmount)).Round(2)
	at := s.now().UTC()

	var request domain.RedemptionRequest
	err = s.ledgerRepo.WithSellerAccount(ctx, sellerID, false, func(tx domain.AccountTx) error {
		_, err := tx.Debit(domain.DebitInput{
			SellerID:    sellerID,
			Amount:      coinAmount,
			Pool:        domain.PoolRedeemable,
			SourceType:  domain.SourceAdmin,
			SourceID:    &reference,
			Description: "redemption reserve",
		})
		if err != nil {
			return err
		}

		request, err = tx.CreateRedemption(domain.RedemptionRequest{
			Reference:      reference,
			SellerID:       sellerID,
			BankAccountID:  bankAccountID,
			CoinAmount:     coinAmount,
			ConversionRate: rate,
			CashAmount:     cash,
			Status:         domain.RedemptionPending,
			RequestedAt:    at,
		})
		return err
	})
	if err != nil {
		return domain.RedemptionRequest{}, err
	}

	return request, nil
}

// Decide approves or rejects a pending request. Rejection credits the
// reserved coins back in the same atomic unit as the state change; the
// refund is a new adjustment entry, never a removal of the reserve debit.
func (s *RedemptionService) Decide(ctx context.Context, requestID uint, decision RedemptionDecision, approverID uint, reason string) (domain.RedemptionRequest, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return domain.RedemptionRequest{}, ErrInvalidDecision
	}

	at := s.now().UTC()

	var decided domain.RedemptionRequest
	err := s.repo.WithRequest(ctx, requestID, func(tx domain.RedemptionTx) error {
		request := tx.Request()

		switch decision {
		case DecisionApprove:
			if err := request.Approve(approverID, at); err != nil {
				return err
			}
		case DecisionReject:
			if err := request.Reject(approverID, reason, at); err != nil {
				return err
			}

			account, err := tx.Account(request.SellerID)
			if err != nil {
				return err
			}

			_, err = account.Credit(domain.CreditInput{
				SellerID:    request.SellerID,
				Amount:      request.CoinAmount,
				Pool:        domain.PoolRedeemable,
				Type:        domain.TransactionAdjustment,
				SourceType:  domain.SourceAdmin,
				SourceID:    &request.Reference,
				Description: "redemption rejected refund",
			})
			if err != nil {
				return err
			}
		}

		decided = request
		return tx.Update(request)
	})
	if err != nil {
		return domain.RedemptionRequest{}, err
	}

	return decided, nil
}

// MarkPaid records that the external bank transfer for an approved
// request completed.
func (s *RedemptionService) MarkPaid(ctx context.Context, requestID uint) (domain.RedemptionRequest, error) {
	at := s.now().UTC()

	var paid domain.RedemptionRequest
	err := s.repo.WithRequest(ctx, requestID, func(tx domain.RedemptionTx) error {
		request := tx.Request()
		if err := request.MarkPaid(at); err != nil {
			return err
		}

		paid = request
		return tx.Update(request)
	})
	if err != nil {
		return domain.RedemptionRequest{}, err
	}

	return paid, nil
}

func (s *RedemptionService) Get(ctx context.Context, requestID uint) (domain.RedemptionRequest, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return domain.RedemptionRequest{}, err
		}

		return domain.RedemptionRequest{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return request, nil
}

func (s *RedemptionService) List(ctx context.Context, q domain.RedemptionQuery) ([]domain.RedemptionRequest, int64, error) {
	q.Normalize()

	requests, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("s.repo.List -> %w", err)
	}

	return requests, total, nil
}
