package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Campaign struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	IsActive  bool      `gorm:"not null;default:true"`

	TripID *uint `gorm:"index"`

	Condition1Type         string            `gorm:"not null"`
	Condition1RewardPool   string            `gorm:"not null"`
	Condition1RewardAmount int64             `gorm:"not null"`
	Condition1Data         datatypes.JSONMap `gorm:"type:jsonb"`

	Condition2Type        string            `gorm:"not null"`
	Condition2Action      string            `gorm:"not null"`
	Condition2BonusAmount int64             `gorm:"not null;default:0"`
	Condition2Data        datatypes.JSONMap `gorm:"type:jsonb"`

	AudienceAll bool             `gorm:"not null;default:true"`
	Sellers     []CampaignSeller `gorm:"foreignKey:CampaignID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Campaign) TableName() string {
	return "campaigns"
}

// CampaignSeller is one row of an explicit target audience.
type CampaignSeller struct {
	ID         uint `gorm:"primaryKey"`
	CampaignID uint `gorm:"not null;uniqueIndex:idx_campaign_sellers_pair,priority:1"`
	SellerID   uint `gorm:"not null;uniqueIndex:idx_campaign_sellers_pair,priority:2"`
}

func (CampaignSeller) TableName() string {
	return "campaign_sellers"
}

// CampaignProgress rows are historical records: created on the first
// qualifying event, never deleted.
type CampaignProgress struct {
	ID         uint `gorm:"primaryKey"`
	CampaignID uint `gorm:"not null;uniqueIndex:idx_campaign_progress_pair,priority:1"`
	SellerID   uint `gorm:"not null;uniqueIndex:idx_campaign_progress_pair,priority:2"`

	Condition1Completed   bool `gorm:"not null;default:false"`
	Condition1CompletedAt *time.Time
	Condition1EntryID     *uint

	Condition2Completed   bool `gorm:"not null;default:false"`
	Condition2CompletedAt *time.Time
	Condition2EntryID     *uint

	BothCompleted bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CampaignProgress) TableName() string {
	return "campaign_progresses"
}

type CampaignDAO struct {
	db *gorm.DB
}

func NewCampaignDAO(db *gorm.DB) *CampaignDAO {
	return &CampaignDAO{
		db: db,
	}
}

func (d *CampaignDAO) Insert(ctx context.Context, campaign Campaign, sellerIDs []uint) (Campaign, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}

		for _, sellerID := range sellerIDs {
			row := CampaignSeller{CampaignID: campaign.ID, SellerID: sellerID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			campaign.Sellers = append(campaign.Sellers, row)
		}

		return nil
	})
	if err != nil {
		return Campaign{}, err
	}

	return campaign, nil
}

func (d *CampaignDAO) FindByID(ctx context.Context, id uint) (Campaign, error) {
	var campaign Campaign

	result := d.db.WithContext(ctx).Preload("Sellers").First(&campaign, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Campaign{}, ErrCampaignNotFound
		}

		return Campaign{}, result.Error
	}

	return campaign, nil
}

// ListRunning returns campaigns that are active with at inside
// [start_date, end_date), optionally narrowed to a seller's audience and
// to a promoted trip.
func (d *CampaignDAO) ListRunning(ctx context.Context, at time.Time, sellerID *uint, tripID *uint) ([]Campaign, error) {
	query := d.db.WithContext(ctx).Preload("Sellers").
		Where("is_active = ?", true).
		Where("start_date <= ? AND end_date > ?", at, at)

	if sellerID != nil {
		query = query.Where(
			"audience_all = ? OR id IN (SELECT campaign_id FROM campaign_sellers WHERE seller_id = ?)",
			true, *sellerID,
		)
	}
	if tripID != nil {
		query = query.Where("trip_id = ?", *tripID)
	}

	var campaigns []Campaign
	if err := query.Order("start_date, id").Find(&campaigns).Error; err != nil {
		return nil, err
	}

	return campaigns, nil
}
