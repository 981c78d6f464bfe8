package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository"
)

var (
	ErrCampaignNotFound = repository.ErrCampaignNotFound

	ErrInvalidCampaign = errors.New("invalid campaign definition")
	ErrUnknownEvent    = errors.New("unknown event type")
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	FindByID(ctx context.Context, id uint) (domain.Campaign, error)
	ListRunning(ctx context.Context, at time.Time, sellerID *uint, tripID *uint) ([]domain.Campaign, error)
}

// CampaignService matches seller events against running campaigns and
// applies the resulting rewards through the ledger. Evaluation for one
// seller and campaign is idempotent: progress rows record which
// conditions already fired.
type CampaignService struct {
	repo       CampaignRepository
	ledgerRepo LedgerRepository
	now        func() time.Time
}

func NewCampaignService(repo CampaignRepository, ledgerRepo LedgerRepository) *CampaignService {
	return &CampaignService{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		now:        time.Now,
	}
}

func (s *CampaignService) Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	if err := validateCampaign(campaign); err != nil {
		return domain.Campaign{}, err
	}

	created, err := s.repo.Create(ctx, campaign)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *CampaignService) Get(ctx context.Context, id uint) (domain.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			return domain.Campaign{}, err
		}

		return domain.Campaign{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return campaign, nil
}

// ListActive returns campaigns running right now, optionally narrowed to
// those visible to one seller or attached to one trip.
func (s *CampaignService) ListActive(ctx context.Context, sellerID *uint, tripID *uint) ([]domain.Campaign, error) {
	campaigns, err := s.repo.ListRunning(ctx, s.now().UTC(), sellerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListRunning -> %w", err)
	}

	return campaigns, nil
}

// Evaluate feeds one seller event to every running campaign the seller is
// in the audience of, and returns the ledger entries the event produced.
// Re-delivering the same event is harmless: completed conditions are
// skipped.
func (s *CampaignService) Evaluate(ctx context.Context, sellerID uint, event domain.EventType, eventData map[string]any) ([]domain.CoinTransaction, error) {
	if !event.Valid() {
		return nil, ErrUnknownEvent
	}

	at := s.now().UTC()
	campaigns, err := s.repo.ListRunning(ctx, at, &sellerID, nil)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListRunning -> %w", err)
	}

	var entries []domain.CoinTransaction
	for _, campaign := range campaigns {
		if campaign.Condition1.Type != event && campaign.Condition2.Type != event {
			continue
		}

		err := s.ledgerRepo.WithSellerAccount(ctx, sellerID, true, func(tx domain.AccountTx) error {
			progress, err := tx.ProgressFor(campaign.ID)
			if err != nil {
				return err
			}

			applied, changed, err := s.applyEvent(tx, campaign, &progress, event, eventData, at)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}

			entries = append(entries, applied...)
			return tx.SaveProgress(progress)
		})
		if err != nil {
			return nil, fmt.Errorf("campaign %d: %w", campaign.ID, err)
		}
	}

	return entries, nil
}

// applyEvent advances one campaign's progress inside the seller's atomic
// unit. Condition 1 is handled before condition 2 so that a bonus action
// can complete both in a single pass; the unlock action requires
// condition 1 to have completed on an earlier pass, since it releases the
// locked reward a prior event deposited.
func (s *CampaignService) applyEvent(tx domain.AccountTx, campaign domain.Campaign, progress *domain.CampaignProgress, event domain.EventType, eventData map[string]any, at time.Time) ([]domain.CoinTransaction, bool, error) {
	var (
		entries []domain.CoinTransaction
		changed bool
	)
	sourceID := strconv.FormatUint(uint64(campaign.ID), 10)
	condition1WasDone := progress.Condition1Completed

	if campaign.Condition1.Type == event && !progress.Condition1Completed {
		entry, err := tx.Credit(domain.CreditInput{
			SellerID:    progress.SellerID,
			Amount:      campaign.Condition1.RewardAmount,
			Pool:        campaign.Condition1.RewardPool,
			Type:        domain.TransactionEarn,
			SourceType:  domain.SourceCampaign,
			SourceID:    &sourceID,
			Description: fmt.Sprintf("campaign %q reward", campaign.Title),
			Metadata:    eventData,
		})
		if err != nil {
			return nil, false, err
		}

		progress.Condition1Completed = true
		progress.Condition1CompletedAt = &at
		progress.Condition1EntryID = &entry.ID
		entries = append(entries, entry)
		changed = true
	}

	if campaign.Condition2.Type == event && !progress.Condition2Completed {
		switch campaign.Condition2.Action {
		case domain.ActionUnlock:
			if condition1WasDone && campaign.Condition1.RewardPool == domain.PoolLocked && progress.Condition1EntryID != nil {
				entry, err := tx.Unlock(domain.UnlockInput{
					SellerID:    progress.SellerID,
					EarnEntryID: *progress.Condition1EntryID,
					Amount:      campaign.Condition1.RewardAmount,
					SourceID:    &sourceID,
					Description: fmt.Sprintf("campaign %q unlock", campaign.Title),
				})
				if err != nil {
					return nil, false, err
				}

				progress.Condition2Completed = true
				progress.Condition2CompletedAt = &at
				progress.Condition2EntryID = &entry.ID
				entries = append(entries, entry)
				changed = true
			}
		case domain.ActionBonus:
			entry, err := tx.Credit(domain.CreditInput{
				SellerID:    progress.SellerID,
				Amount:      campaign.Condition2.BonusAmount,
				Pool:        domain.PoolRedeemable,
				Type:        domain.TransactionBonus,
				SourceType:  domain.SourceCampaign,
				SourceID:    &sourceID,
				Description: fmt.Sprintf("campaign %q bonus", campaign.Title),
				Metadata:    eventData,
			})
			if err != nil {
				return nil, false, err
			}

			progress.Condition2Completed = true
			progress.Condition2CompletedAt = &at
			progress.Condition2EntryID = &entry.ID
			entries = append(entries, entry)
			changed = true
		case domain.ActionNone:
			progress.Condition2Completed = true
			progress.Condition2CompletedAt = &at
			changed = true
		}
	}

	if changed {
		progress.BothCompleted = progress.Condition1Completed && progress.Condition2Completed
	}

	return entries, changed, nil
}

func validateCampaign(campaign domain.Campaign) error {
	if !campaign.EndDate.After(campaign.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidCampaign)
	}
	if !campaign.Condition1.Type.Valid() || !campaign.Condition2.Type.Valid() {
		return fmt.Errorf("%w: unknown condition event type", ErrInvalidCampaign)
	}
	if !campaign.Condition1.RewardPool.Valid() {
		return fmt.Errorf("%w: unknown reward pool", ErrInvalidCampaign)
	}
	if campaign.Condition1.RewardAmount <= 0 {
		return fmt.Errorf("%w: reward amount must be positive", ErrInvalidCampaign)
	}
	if !campaign.Condition2.Action.Valid() {
		return fmt.Errorf("%w: unknown condition action", ErrInvalidCampaign)
	}
	if campaign.Condition2.Action == domain.ActionBonus && campaign.Condition2.BonusAmount <= 0 {
		return fmt.Errorf("%w: bonus amount must be positive", ErrInvalidCampaign)
	}
	if campaign.Condition2.Action == domain.ActionUnlock && campaign.Condition1.RewardPool != domain.PoolLocked {
		return fmt.Errorf("%w: unlock action requires a locked condition 1 reward", ErrInvalidCampaign)
	}
	if !campaign.AudienceAll && len(campaign.AudienceSellerIDs) == 0 {
		return fmt.Errorf("%w: restricted audience must name at least one seller", ErrInvalidCampaign)
	}

	return nil
}
