package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/tripsell/rewards-api/internal/domain"
)

// RecordEarningRequest is posted by the booking subsystem when a booking
// is confirmed and commission coins should be credited.
type RecordEarningRequest struct {
	SellerID  uint   `json:"seller_id"`
	BookingID string `json:"booking_id"`
	Amount    int64  `json:"amount"`
}

func (req *RecordEarningRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.SellerID, validation.Required),
		validation.Field(&req.BookingID, validation.Required, validation.Length(1, 64)),
		validation.Field(&req.Amount, validation.Required, validation.Min(1)),
	)
}

// SellerEventRequest reports a seller milestone for campaign evaluation.
type SellerEventRequest struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data,omitempty"`
}

func (req *SellerEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventType, validation.Required, validation.In(
			string(domain.EventBookingApproved),
			string(domain.EventReferralCompleted),
			string(domain.EventSalesTargetReached),
			string(domain.EventFirstTripSold),
		)),
	)
}
