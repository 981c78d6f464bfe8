package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrRequestNotPending  = errors.New("redemption request is not pending")
	ErrRequestNotApproved = errors.New("redemption request is not approved")
)

type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionRejected RedemptionStatus = "rejected"
	RedemptionPaid     RedemptionStatus = "paid"
)

func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionRejected, RedemptionPaid:
		return true
	}
	return false
}

// RedemptionRequest is a seller-initiated cash-out. Coins are debited at
// submission, so a pending request already holds its funds; rejection
// refunds them through a compensating credit.
type RedemptionRequest struct {
	ID        uint   `json:"id"`
	Reference string `json:"reference"`
	SellerID  uint   `json:"seller_id"`

	BankAccountID uint `json:"bank_account_id"`

	CoinAmount     int64           `json:"coin_amount"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	CashAmount     decimal.Decimal `json:"cash_amount"`

	Status RedemptionStatus `json:"status"`

	RequestedAt     time.Time  `json:"requested_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ApprovedBy      *uint      `json:"approved_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Approve transitions pending -> approved. The coins were already debited
// at submission, so approval touches no balances.
func (r *RedemptionRequest) Approve(approverID uint, at time.Time) error {
	if r.Status != RedemptionPending {
		return ErrRequestNotPending
	}
	r.Status = RedemptionApproved
	r.ApprovedAt = &at
	r.ApprovedBy = &approverID
	return nil
}

// Reject transitions pending -> rejected. The caller must refund the
// reserved coins in the same atomic unit.
func (r *RedemptionRequest) Reject(approverID uint, reason string, at time.Time) error {
	if r.Status != RedemptionPending {
		return ErrRequestNotPending
	}
	r.Status = RedemptionRejected
	r.ApprovedBy = &approverID
	r.RejectionReason = reason
	return nil
}

// MarkPaid transitions approved -> paid, recording that the external bank
// transfer completed. No ledger mutation.
func (r *RedemptionRequest) MarkPaid(at time.Time) error {
	if r.Status != RedemptionApproved {
		return ErrRequestNotApproved
	}
	r.Status = RedemptionPaid
	r.PaidAt = &at
	return nil
}

// RedemptionQuery selects a page of requests for the admin queue or a
// seller's own history.
type RedemptionQuery struct {
	SellerID *uint
	Status   *RedemptionStatus
	Page     int
	PageSize int
}

func (q *RedemptionQuery) Normalize() {
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
