package domain

import (
	"time"
)

// EventType is the closed set of seller events a campaign condition can
// match on. The evaluator switches exhaustively over these, so adding a
// new event is a compile-time-checked change.
type EventType string

const (
	EventBookingApproved    EventType = "booking_approved"
	EventReferralCompleted  EventType = "referral_completed"
	EventSalesTargetReached EventType = "sales_target_reached"
	EventFirstTripSold      EventType = "first_trip_sold"
)

func (e EventType) Valid() bool {
	switch e {
	case EventBookingApproved, EventReferralCompleted, EventSalesTargetReached, EventFirstTripSold:
		return true
	}
	return false
}

// ConditionAction is what completing condition 2 does with the coins
// earned under condition 1.
type ConditionAction string

const (
	ActionUnlock ConditionAction = "unlock"
	ActionBonus  ConditionAction = "bonus"
	ActionNone   ConditionAction = "none"
)

func (a ConditionAction) Valid() bool {
	switch a {
	case ActionUnlock, ActionBonus, ActionNone:
		return true
	}
	return false
}

// ConditionOne credits a reward when its event fires. Rewards usually go
// to the locked pool so the seller sees them as earned but cannot redeem
// until condition 2 is met.
type ConditionOne struct {
	Type         EventType      `json:"type"`
	RewardPool   CoinPool       `json:"reward_pool"`
	RewardAmount int64          `json:"reward_amount"`
	Data         map[string]any `json:"data,omitempty"`
}

// ConditionTwo releases or tops up the condition-1 reward.
type ConditionTwo struct {
	Type        EventType       `json:"type"`
	Action      ConditionAction `json:"action"`
	BonusAmount int64           `json:"bonus_amount,omitempty"`
	Data        map[string]any  `json:"data,omitempty"`
}

// Campaign is a time-boxed incentive with two independently evaluated
// conditions. The window is [StartDate, EndDate).
type Campaign struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`

	// Optional trip the campaign promotes.
	TripID *uint `json:"trip_id,omitempty"`

	Condition1 ConditionOne `json:"condition1"`
	Condition2 ConditionTwo `json:"condition2"`

	// AudienceAll targets every seller; otherwise AudienceSellerIDs
	// is the explicit set.
	AudienceAll       bool   `json:"audience_all"`
	AudienceSellerIDs []uint `json:"audience_seller_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunningAt reports whether the campaign is active and t falls inside
// its window.
func (c Campaign) RunningAt(t time.Time) bool {
	if !c.IsActive {
		return false
	}
	return !t.Before(c.StartDate) && t.Before(c.EndDate)
}

// InAudience reports whether the campaign targets the given seller.
func (c Campaign) InAudience(sellerID uint) bool {
	if c.AudienceAll {
		return true
	}
	for _, id := range c.AudienceSellerIDs {
		if id == sellerID {
			return true
		}
	}
	return false
}

// CampaignProgress tracks one seller's completion state for one campaign.
// Created on the first qualifying event, mutated only by the campaign
// engine, never deleted.
type CampaignProgress struct {
	ID         uint `json:"id"`
	CampaignID uint `json:"campaign_id"`
	SellerID   uint `json:"seller_id"`

	Condition1Completed   bool       `json:"condition1_completed"`
	Condition1CompletedAt *time.Time `json:"condition1_completed_at,omitempty"`
	Condition1EntryID     *uint      `json:"condition1_entry_id,omitempty"`

	Condition2Completed   bool       `json:"condition2_completed"`
	Condition2CompletedAt *time.Time `json:"condition2_completed_at,omitempty"`
	Condition2EntryID     *uint      `json:"condition2_entry_id,omitempty"`

	BothCompleted bool `json:"both_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
