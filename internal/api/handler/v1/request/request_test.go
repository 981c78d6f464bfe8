package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsell/rewards-api/internal/domain"
)

func TestCreateBankAccountRequest_Validate(t *testing.T) {
	valid := CreateBankAccountRequest{
		Label:         "main",
		HolderName:    "Linh Tran",
		BankName:      "Vietcombank",
		AccountNumber: "NB12 3456 7890",
	}

	tests := []struct {
		name    string
		mutate  func(req *CreateBankAccountRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(req *CreateBankAccountRequest) {}},
		{
			name:   "dashes allowed",
			mutate: func(req *CreateBankAccountRequest) { req.AccountNumber = "GB29-NWBK-6016" },
		},
		{
			name:   "no label",
			mutate: func(req *CreateBankAccountRequest) { req.Label = "" },
		},
		{
			name:    "missing holder name",
			mutate:  func(req *CreateBankAccountRequest) { req.HolderName = "" },
			wantErr: true,
		},
		{
			name:    "account number without a digit",
			mutate:  func(req *CreateBankAccountRequest) { req.AccountNumber = "ABCDEFGHIJ" },
			wantErr: true,
		},
		{
			name:    "account number too short",
			mutate:  func(req *CreateBankAccountRequest) { req.AccountNumber = "AB12345" },
			wantErr: true,
		},
		{
			name:    "lowercase rejected",
			mutate:  func(req *CreateBankAccountRequest) { req.AccountNumber = "nb12 3456 7890" },
			wantErr: true,
		},
		{
			name:    "cannot end with a space",
			mutate:  func(req *CreateBankAccountRequest) { req.AccountNumber = "NB12 3456 " },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateCampaignRequest_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	valid := CreateCampaignRequest{
		Title:     "Spring push",
		StartDate: now,
		EndDate:   now.AddDate(0, 1, 0),
		Condition1: CampaignConditionOne{
			Type:         string(domain.EventBookingApproved),
			RewardPool:   string(domain.PoolLocked),
			RewardAmount: 500,
		},
		Condition2: CampaignConditionTwo{
			Type:   string(domain.EventSalesTargetReached),
			Action: string(domain.ActionUnlock),
		},
		AudienceAll: true,
	}

	tests := []struct {
		name    string
		mutate  func(req *CreateCampaignRequest)
		wantErr error
	}{
		{name: "valid", mutate: func(req *CreateCampaignRequest) {}},
		{
			name:    "window inverted",
			mutate:  func(req *CreateCampaignRequest) { req.EndDate = req.StartDate.AddDate(0, 0, -1) },
			wantErr: errInvalidCampaignWindow,
		},
		{
			name:   "unknown condition1 event",
			mutate: func(req *CreateCampaignRequest) { req.Condition1.Type = "coupon_clipped" },
		},
		{
			name:   "unknown action",
			mutate: func(req *CreateCampaignRequest) { req.Condition2.Action = "double" },
		},
		{
			name:   "zero reward",
			mutate: func(req *CreateCampaignRequest) { req.Condition1.RewardAmount = 0 },
		},
		{
			name:   "negative bonus",
			mutate: func(req *CreateCampaignRequest) { req.Condition2.BonusAmount = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if tt.name == "valid" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCreateCampaignRequest_ToDomain(t *testing.T) {
	req := CreateCampaignRequest{
		Title:     "Referral month",
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Condition1: CampaignConditionOne{
			Type:         string(domain.EventReferralCompleted),
			RewardPool:   string(domain.PoolRedeemable),
			RewardAmount: 200,
		},
		Condition2: CampaignConditionTwo{
			Type:        string(domain.EventFirstTripSold),
			Action:      string(domain.ActionBonus),
			BonusAmount: 100,
		},
		AudienceSellerIDs: []uint{4, 5},
	}

	campaign := req.ToDomain()
	assert.True(t, campaign.IsActive)
	assert.Equal(t, domain.EventReferralCompleted, campaign.Condition1.Type)
	assert.Equal(t, domain.PoolRedeemable, campaign.Condition1.RewardPool)
	assert.Equal(t, domain.ActionBonus, campaign.Condition2.Action)
	assert.Equal(t, []uint{4, 5}, campaign.AudienceSellerIDs)
}

func TestRedemptionDecisionRequest_Validate(t *testing.T) {
	approve := RedemptionDecisionRequest{Decision: "approve"}
	assert.NoError(t, approve.Validate())

	rejectWithReason := RedemptionDecisionRequest{Decision: "reject", Reason: "bank account mismatch"}
	assert.NoError(t, rejectWithReason.Validate())

	rejectSilently := RedemptionDecisionRequest{Decision: "reject"}
	assert.ErrorIs(t, rejectSilently.Validate(), errMissingRejectionReason)

	unknown := RedemptionDecisionRequest{Decision: "escalate"}
	assert.Error(t, unknown.Validate())
}

func TestSubmitRedemptionRequest_Validate(t *testing.T) {
	valid := SubmitRedemptionRequest{CoinAmount: 400, BankAccountID: 1}
	assert.NoError(t, valid.Validate())

	zero := SubmitRedemptionRequest{CoinAmount: 0, BankAccountID: 1}
	assert.Error(t, zero.Validate())

	noBank := SubmitRedemptionRequest{CoinAmount: 400}
	assert.Error(t, noBank.Validate())
}

func TestSellerEventRequest_Validate(t *testing.T) {
	for _, eventType := range []string{
		string(domain.EventBookingApproved),
		string(domain.EventReferralCompleted),
		string(domain.EventSalesTargetReached),
		string(domain.EventFirstTripSold),
	} {
		req := SellerEventRequest{EventType: eventType}
		assert.NoError(t, req.Validate(), eventType)
	}

	unknown := SellerEventRequest{EventType: "trip_viewed"}
	assert.Error(t, unknown.Validate())
}

func TestRecordEarningRequest_Validate(t *testing.T) {
	valid := RecordEarningRequest{SellerID: 7, BookingID: "bk-2031", Amount: 150}
	assert.NoError(t, valid.Validate())

	negative := RecordEarningRequest{SellerID: 7, BookingID: "bk-2031", Amount: -5}
	assert.Error(t, negative.Validate())

	noBooking := RecordEarningRequest{SellerID: 7, Amount: 150}
	assert.Error(t, noBooking.Validate())
}
