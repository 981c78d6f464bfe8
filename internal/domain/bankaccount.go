package domain

import "time"

// BankAccount is a seller's registered payout destination for redemptions.
type BankAccount struct {
	ID       uint `json:"id"`
	SellerID uint `json:"seller_id"`

	Label         string `json:"label,omitempty"`
	HolderName    string `json:"holder_name"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
