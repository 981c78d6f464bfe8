package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/tripsell/rewards-api/internal/domain"
)

var errInvalidCampaignWindow = errors.New("end_date must be after start_date")

type CampaignConditionOne struct {
	Type         string         `json:"type"`
	RewardPool   string         `json:"reward_pool"`
	RewardAmount int64          `json:"reward_amount"`
	Data         map[string]any `json:"data,omitempty"`
}

type CampaignConditionTwo struct {
	Type        string         `json:"type"`
	Action      string         `json:"action"`
	BonusAmount int64          `json:"bonus_amount,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

type CreateCampaignRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TripID      *uint     `json:"trip_id,omitempty"`

	Condition1 CampaignConditionOne `json:"condition1"`
	Condition2 CampaignConditionTwo `json:"condition2"`

	AudienceAll       bool   `json:"audience_all"`
	AudienceSellerIDs []uint `json:"audience_seller_ids,omitempty"`
}

func (req *CreateCampaignRequest) Validate() error {
	eventTypes := []interface{}{
		string(domain.EventBookingApproved),
		string(domain.EventReferralCompleted),
		string(domain.EventSalesTargetReached),
		string(domain.EventFirstTripSold),
	}

	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
	)
	if err != nil {
		return err
	}

	err = validation.ValidateStruct(
		&req.Condition1,
		validation.Field(&req.Condition1.Type, validation.Required, validation.In(eventTypes...)),
		validation.Field(&req.Condition1.RewardPool, validation.Required, validation.In(
			string(domain.PoolLocked),
			string(domain.PoolRedeemable),
		)),
		validation.Field(&req.Condition1.RewardAmount, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return err
	}

	err = validation.ValidateStruct(
		&req.Condition2,
		validation.Field(&req.Condition2.Type, validation.Required, validation.In(eventTypes...)),
		validation.Field(&req.Condition2.Action, validation.Required, validation.In(
			string(domain.ActionUnlock),
			string(domain.ActionBonus),
			string(domain.ActionNone),
		)),
		validation.Field(&req.Condition2.BonusAmount, validation.Min(0)),
	)
	if err != nil {
		return err
	}

	if !req.EndDate.After(req.StartDate) {
		return errInvalidCampaignWindow
	}

	return nil
}

// ToDomain maps the validated request onto a campaign. New campaigns are
// created active.
func (req *CreateCampaignRequest) ToDomain() domain.Campaign {
	return domain.Campaign{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    true,
		TripID:      req.TripID,
		Condition1: domain.ConditionOne{
			Type:         domain.EventType(req.Condition1.Type),
			RewardPool:   domain.CoinPool(req.Condition1.RewardPool),
			RewardAmount: req.Condition1.RewardAmount,
			Data:         req.Condition1.Data,
		},
		Condition2: domain.ConditionTwo{
			Type:        domain.EventType(req.Condition2.Type),
			Action:      domain.ConditionAction(req.Condition2.Action),
			BonusAmount: req.Condition2.BonusAmount,
			Data:        req.Condition2.Data,
		},
		AudienceAll:       req.AudienceAll,
		AudienceSellerIDs: req.AudienceSellerIDs,
	}
}
