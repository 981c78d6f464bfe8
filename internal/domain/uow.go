package domain

// AccountTx is the per-seller atomic unit. All mutations of one seller's
// account, progress rows and entry sequence happen through exactly one
// AccountTx, acquired per operation and released on every exit path.
// Implementations back it with a database transaction holding a row lock
// on the account, so operations on the same seller serialize while
// different sellers proceed in parallel.
type AccountTx interface {
	// Account returns the locked account as of the start of the unit.
	Account() Account

	Credit(in CreditInput) (CoinTransaction, error)
	Debit(in DebitInput) (CoinTransaction, error)
	Unlock(in UnlockInput) (CoinTransaction, error)

	// ProgressFor loads, or creates empty, the seller's progress row
	// for the campaign.
	ProgressFor(campaignID uint) (CampaignProgress, error)
	SaveProgress(p CampaignProgress) error

	// CreateRedemption persists a new request inside the same unit as
	// the reservation debit.
	CreateRedemption(r RedemptionRequest) (RedemptionRequest, error)
}

// RedemptionTx is the atomic unit for one redemption request's state
// transition. Account exposes the seller's AccountTx within the same
// storage transaction, for the rejection refund.
type RedemptionTx interface {
	Request() RedemptionRequest
	Update(r RedemptionRequest) error
	Account(sellerID uint) (AccountTx, error)
}
