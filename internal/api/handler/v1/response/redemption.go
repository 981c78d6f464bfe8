package response

import (
	"github.com/tripsell/rewards-api/internal/domain"
)

type RedemptionListResponse struct {
	Requests []domain.RedemptionRequest `json:"requests"`
	Total    int64                      `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
}
