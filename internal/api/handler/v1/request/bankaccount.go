package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Uppercase alphanumeric with optional spaces or dashes, 8 to 34 chars,
// and at least one digit. The lookahead needs regexp2; stdlib RE2 cannot
// express it.
const accountNumberPattern = `^(?=.*\d)[A-Z0-9][A-Z0-9 -]{6,32}[A-Z0-9]$`

var (
	accountNumberExp = regexp2.MustCompile(accountNumberPattern, regexp2.None)

	errInvalidAccountNumber = errors.New("account number must be 8-34 uppercase letters, digits, spaces or dashes, with at least one digit")
)

type CreateBankAccountRequest struct {
	Label         string `json:"label,omitempty"`
	HolderName    string `json:"holder_name"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
}

func (req *CreateBankAccountRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Label, validation.Length(0, 50)),
		validation.Field(&req.HolderName, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.BankName, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.AccountNumber, validation.Required),
	)
	if err != nil {
		return err
	}

	matched, err := accountNumberExp.MatchString(req.AccountNumber)
	if err != nil || !matched {
		return errInvalidAccountNumber
	}

	return nil
}
