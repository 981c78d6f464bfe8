package repository

import (
	"context"
	"fmt"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository/dao"
)

var ErrRequestNotFound = dao.ErrRequestNotFound

type RedemptionDAO interface {
	FindByID(ctx context.Context, id uint) (dao.RedemptionRequest, error)
	List(ctx context.Context, filter dao.RedemptionFilter) ([]dao.RedemptionRequest, int64, error)
	WithRequest(ctx context.Context, id uint, fn func(tx *dao.RequestTx) error) error
}

type RedemptionRepository struct {
	dao RedemptionDAO
}

func NewRedemptionRepository(dao RedemptionDAO) *RedemptionRepository {
	return &RedemptionRepository{
		dao: dao,
	}
}

func (r *RedemptionRepository) FindByID(ctx context.Context, id uint) (domain.RedemptionRequest, error) {
	request, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.RedemptionRequest{}, err
	}

	return redemptionDAOToDomain(request), nil
}

func (r *RedemptionRepository) List(ctx context.Context, q domain.RedemptionQuery) ([]domain.RedemptionRequest, int64, error) {
	filter := dao.RedemptionFilter{
		SellerID: q.SellerID,
		Offset:   (q.Page - 1) * q.PageSize,
		Limit:    q.PageSize,
	}
	if q.Status != nil {
		s := string(*q.Status)
		filter.Status = &s
	}

	rows, total, err := r.dao.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.List -> %w", err)
	}

	requests := make([]domain.RedemptionRequest, len(rows))
	for i, row := range rows {
		requests[i] = redemptionDAOToDomain(row)
	}

	return requests, total, nil
}

// WithRequest opens the request's atomic unit and hands it to fn.
func (r *RedemptionRepository) WithRequest(ctx context.Context, id uint, fn func(tx domain.RedemptionTx) error) error {
	return r.dao.WithRequest(ctx, id, func(tx *dao.RequestTx) error {
		return fn(&requestTx{tx: tx})
	})
}

// requestTx adapts dao.RequestTx to domain.RedemptionTx.
type requestTx struct {
	tx *dao.RequestTx
}

func (r *requestTx) Request() domain.RedemptionRequest {
	return redemptionDAOToDomain(r.tx.Request())
}

func (r *requestTx) Update(request domain.RedemptionRequest) error {
	return r.tx.Save(redemptionDomainToDAO(request))
}

func (r *requestTx) Account(sellerID uint) (domain.AccountTx, error) {
	seller, err := r.tx.Seller(sellerID)
	if err != nil {
		return nil, err
	}

	return &sellerTx{tx: seller}, nil
}

func redemptionDAOToDomain(r dao.RedemptionRequest) domain.RedemptionRequest {
	return domain.RedemptionRequest{
		ID:              r.ID,
		Reference:       r.Reference,
		SellerID:        r.SellerID,
		BankAccountID:   r.BankAccountID,
		CoinAmount:      r.CoinAmount,
		ConversionRate:  r.ConversionRate,
		CashAmount:      r.CashAmount,
		Status:          domain.RedemptionStatus(r.Status),
		RequestedAt:     r.RequestedAt,
		ApprovedAt:      r.ApprovedAt,
		PaidAt:          r.PaidAt,
		ApprovedBy:      r.ApprovedBy,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func redemptionDomainToDAO(r domain.RedemptionRequest) dao.RedemptionRequest {
	return dao.RedemptionRequest{
		ID:              r.ID,
		Reference:       r.Reference,
		SellerID:        r.SellerID,
		BankAccountID:   r.BankAccountID,
		CoinAmount:      r.CoinAmount,
		ConversionRate:  r.ConversionRate,
		CashAmount:      r.CashAmount,
		Status:          string(r.Status),
		RequestedAt:     r.RequestedAt,
		ApprovedAt:      r.ApprovedAt,
		PaidAt:          r.PaidAt,
		ApprovedBy:      r.ApprovedBy,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
