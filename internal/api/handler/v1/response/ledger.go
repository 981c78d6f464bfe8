package response

import (
	"github.com/tripsell/rewards-api/internal/domain"
)

type BalanceResponse struct {
	SellerID          uint  `json:"seller_id"`
	RedeemableBalance int64 `json:"redeemable_balance"`
	LockedBalance     int64 `json:"locked_balance"`
	TotalBalance      int64 `json:"total_balance"`
	TotalEarned       int64 `json:"total_earned"`
	TotalRedeemed     int64 `json:"total_redeemed"`
}

func NewBalanceResponse(account domain.Account) BalanceResponse {
	return BalanceResponse{
		SellerID:          account.SellerID,
		RedeemableBalance: account.RedeemableBalance,
		LockedBalance:     account.LockedBalance,
		TotalBalance:      account.RedeemableBalance + account.LockedBalance,
		TotalEarned:       account.TotalEarned,
		TotalRedeemed:     account.TotalRedeemed,
	}
}

type TransactionListResponse struct {
	Transactions []domain.CoinTransaction `json:"transactions"`
	Total        int64                    `json:"total"`
	Page         int                      `json:"page"`
	PageSize     int                      `json:"page_size"`
}

type EvaluationResponse struct {
	Entries []domain.CoinTransaction `json:"entries"`
}
