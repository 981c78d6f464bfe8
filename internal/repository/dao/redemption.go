package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RedemptionRequest struct {
	ID        uint   `gorm:"primaryKey"`
	Reference string `gorm:"uniqueIndex;not null"`
	SellerID  uint   `gorm:"not null;index"`

	BankAccountID uint `gorm:"not null"`

	CoinAmount     int64           `gorm:"not null"`
	ConversionRate decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	CashAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	// Indexed with RequestedAt for the admin queue view.
	Status string `gorm:"not null;index:idx_redemption_status_requested,priority:1"`

	RequestedAt     time.Time `gorm:"not null;index:idx_redemption_status_requested,priority:2"`
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	ApprovedBy      *uint
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RedemptionRequest) TableName() string {
	return "redemption_requests"
}

type RedemptionDAO struct {
	db *gorm.DB
}

func NewRedemptionDAO(db *gorm.DB) *RedemptionDAO {
	return &RedemptionDAO{
		db: db,
	}
}

func (d *RedemptionDAO) FindByID(ctx context.Context, id uint) (RedemptionRequest, error) {
	var request RedemptionRequest

	result := d.db.WithContext(ctx).First(&request, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RedemptionRequest{}, ErrRequestNotFound
		}

		return RedemptionRequest{}, result.Error
	}

	return request, nil
}

type RedemptionFilter struct {
	SellerID *uint
	Status   *string
	Offset   int
	Limit    int
}

func (d *RedemptionDAO) List(ctx context.Context, filter RedemptionFilter) ([]RedemptionRequest, int64, error) {
	query := d.db.WithContext(ctx).Model(&RedemptionRequest{})
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []RedemptionRequest
	err := query.Order("requested_at DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// WithRequest runs fn inside one transaction holding a FOR UPDATE lock on
// the request row, so a decision can never be applied twice. The seller's
// account can be locked inside the same transaction through RequestTx for
// the rejection refund.
func (d *RedemptionDAO) WithRequest(ctx context.Context, id uint, fn func(tx *RequestTx) error) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request RedemptionRequest

		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}

			return result.Error
		}

		return fn(&RequestTx{tx: tx, request: &request, now: time.Now().UTC()})
	})

	return translateError(err)
}

type RequestTx struct {
	tx      *gorm.DB
	request *RedemptionRequest
	now     time.Time
}

func (r *RequestTx) Request() RedemptionRequest {
	return *r.request
}

func (r *RequestTx) Save(request RedemptionRequest) error {
	request.UpdatedAt = r.now
	if err := r.tx.Save(&request).Error; err != nil {
		return err
	}
	*r.request = request

	return nil
}

// Seller locks the seller's account within the same transaction. Lock
// order is request row then account row; submission locks only the
// account, so the orders cannot deadlock.
func (r *RequestTx) Seller(sellerID uint) (*SellerTx, error) {
	account, err := lockAccount(r.tx, sellerID, false)
	if err != nil {
		return nil, err
	}

	return &SellerTx{tx: r.tx, account: account, now: r.now}, nil
}
