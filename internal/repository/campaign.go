package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository/dao"
)

var ErrCampaignNotFound = dao.ErrCampaignNotFound

type CampaignDAO interface {
	Insert(ctx context.Context, campaign dao.Campaign, sellerIDs []uint) (dao.Campaign, error)
	FindByID(ctx context.Context, id uint) (dao.Campaign, error)
	ListRunning(ctx context.Context, at time.Time, sellerID *uint, tripID *uint) ([]dao.Campaign, error)
}

type CampaignRepository struct {
	dao CampaignDAO
}

func NewCampaignRepository(dao CampaignDAO) *CampaignRepository {
	return &CampaignRepository{
		dao: dao,
	}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	created, err := r.dao.Insert(ctx, campaignDomainToDAO(campaign), campaign.AudienceSellerIDs)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return campaignDAOToDomain(created), nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id uint) (domain.Campaign, error) {
	campaign, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Campaign{}, err
	}

	return campaignDAOToDomain(campaign), nil
}

func (r *CampaignRepository) ListRunning(ctx context.Context, at time.Time, sellerID *uint, tripID *uint) ([]domain.Campaign, error) {
	rows, err := r.dao.ListRunning(ctx, at, sellerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListRunning -> %w", err)
	}

	campaigns := make([]domain.Campaign, len(rows))
	for i, row := range rows {
		campaigns[i] = campaignDAOToDomain(row)
	}

	return campaigns, nil
}

func campaignDomainToDAO(c domain.Campaign) dao.Campaign {
	return dao.Campaign{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		IsActive:    c.IsActive,
		TripID:      c.TripID,

		Condition1Type:         string(c.Condition1.Type),
		Condition1RewardPool:   string(c.Condition1.RewardPool),
		Condition1RewardAmount: c.Condition1.RewardAmount,
		Condition1Data:         datatypes.JSONMap(c.Condition1.Data),

		Condition2Type:        string(c.Condition2.Type),
		Condition2Action:      string(c.Condition2.Action),
		Condition2BonusAmount: c.Condition2.BonusAmount,
		Condition2Data:        datatypes.JSONMap(c.Condition2.Data),

		AudienceAll: c.AudienceAll,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func campaignDAOToDomain(c dao.Campaign) domain.Campaign {
	campaign := domain.Campaign{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		IsActive:    c.IsActive,
		TripID:      c.TripID,

		Condition1: domain.ConditionOne{
			Type:         domain.EventType(c.Condition1Type),
			RewardPool:   domain.CoinPool(c.Condition1RewardPool),
			RewardAmount: c.Condition1RewardAmount,
			Data:         map[string]any(c.Condition1Data),
		},
		Condition2: domain.ConditionTwo{
			Type:        domain.EventType(c.Condition2Type),
			Action:      domain.ConditionAction(c.Condition2Action),
			BonusAmount: c.Condition2BonusAmount,
			Data:        map[string]any(c.Condition2Data),
		},

		AudienceAll: c.AudienceAll,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}

	for _, seller := range c.Sellers {
		campaign.AudienceSellerIDs = append(campaign.AudienceSellerIDs, seller.SellerID)
	}

	return campaign
}
