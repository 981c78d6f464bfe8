package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

var errMissingRejectionReason = errors.New("reason is required when rejecting")

type SubmitRedemptionRequest struct {
	CoinAmount    int64 `json:"coin_amount"`
	BankAccountID uint  `json:"bank_account_id"`
}

func (req *SubmitRedemptionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CoinAmount, validation.Required, validation.Min(1)),
		validation.Field(&req.BankAccountID, validation.Required),
	)
}

type RedemptionDecisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

func (req *RedemptionDecisionRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Decision, validation.Required, validation.In("approve", "reject")),
		validation.Field(&req.Reason, validation.Length(0, 500)),
	)
	if err != nil {
		return err
	}

	if req.Decision == "reject" && req.Reason == "" {
		return errMissingRejectionReason
	}

	return nil
}
