package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres-backed repositories.
// A single mutex plays the role of the per-seller row lock: every atomic
// unit runs under it, and a failing unit restores the pre-unit snapshot
// the way a rolled-back transaction would.
type memStore struct {
	mu sync.Mutex

	accounts  map[uint]*domain.Account
	entries   []domain.CoinTransaction
	progress  map[string]*domain.CampaignProgress
	requests  map[uint]*domain.RedemptionRequest
	banks     map[uint]*domain.BankAccount
	campaigns map[uint]*domain.Campaign

	nextEntryID    uint
	nextProgressID uint
	nextRequestID  uint
	nextBankID     uint
	nextCampaignID uint
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  make(map[uint]*domain.Account),
		progress:  make(map[string]*domain.CampaignProgress),
		requests:  make(map[uint]*domain.RedemptionRequest),
		banks:     make(map[uint]*domain.BankAccount),
		campaigns: make(map[uint]*domain.Campaign),
	}
}

func progressKey(campaignID, sellerID uint) string {
	return fmt.Sprintf("%d/%d", campaignID, sellerID)
}

type memSnapshot struct {
	accounts map[uint]domain.Account
	entries  []domain.CoinTransaction
	progress map[string]domain.CampaignProgress
	requests map[uint]domain.RedemptionRequest

	nextEntryID    uint
	nextProgressID uint
	nextRequestID  uint
}

func (m *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		accounts:       make(map[uint]domain.Account, len(m.accounts)),
		entries:        append([]domain.CoinTransaction(nil), m.entries...),
		progress:       make(map[string]domain.CampaignProgress, len(m.progress)),
		requests:       make(map[uint]domain.RedemptionRequest, len(m.requests)),
		nextEntryID:    m.nextEntryID,
		nextProgressID: m.nextProgressID,
		nextRequestID:  m.nextRequestID,
	}
	for id, a := range m.accounts {
		snap.accounts[id] = *a
	}
	for key, p := range m.progress {
		snap.progress[key] = *p
	}
	for id, r := range m.requests {
		snap.requests[id] = *r
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.accounts = make(map[uint]*domain.Account, len(snap.accounts))
	for id, a := range snap.accounts {
		account := a
		m.accounts[id] = &account
	}
	m.entries = snap.entries
	m.progress = make(map[string]*domain.CampaignProgress, len(snap.progress))
	for key, p := range snap.progress {
		progress := p
		m.progress[key] = &progress
	}
	m.requests = make(map[uint]*domain.RedemptionRequest, len(snap.requests))
	for id, r := range snap.requests {
		request := r
		m.requests[id] = &request
	}
	m.nextEntryID = snap.nextEntryID
	m.nextProgressID = snap.nextProgressID
	m.nextRequestID = snap.nextRequestID
}

// ledgerRepo implements service.LedgerRepository.

type memLedgerRepo struct {
	store *memStore
}

func (r *memLedgerRepo) GetAccount(_ context.Context, sellerID uint) (domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[sellerID]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}
	return *account, nil
}

func (r *memLedgerRepo) ListTransactions(_ context.Context, q domain.TransactionQuery) ([]domain.CoinTransaction, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []domain.CoinTransaction
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		entry := r.store.entries[i]
		if entry.SellerID != q.SellerID {
			continue
		}
		if q.Type != nil && entry.Type != *q.Type {
			continue
		}
		if q.From != nil && entry.CreatedAt.Before(*q.From) {
			continue
		}
		if q.To != nil && !entry.CreatedAt.Before(*q.To) {
			continue
		}
		matched = append(matched, entry)
	}

	total := int64(len(matched))
	offset := (q.Page - 1) * q.PageSize
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *memLedgerRepo) WithSellerAccount(_ context.Context, sellerID uint, create bool, fn func(tx domain.AccountTx) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()

	account, ok := r.store.accounts[sellerID]
	if !ok {
		if !create {
			return repository.ErrAccountNotFound
		}
		account = &domain.Account{SellerID: sellerID}
		r.store.accounts[sellerID] = account
	}

	if err := fn(&memAccountTx{store: r.store, account: account}); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// memAccountTx implements domain.AccountTx with the same balance and
// entry semantics as the real storage layer.
type memAccountTx struct {
	store   *memStore
	account *domain.Account
}

func (t *memAccountTx) Account() domain.Account {
	return *t.account
}

func (t *memAccountTx) pool(pool domain.CoinPool) *int64 {
	if pool == domain.PoolLocked {
		return &t.account.LockedBalance
	}
	return &t.account.RedeemableBalance
}

func (t *memAccountTx) append(entry domain.CoinTransaction) domain.CoinTransaction {
	t.store.nextEntryID++
	entry.ID = t.store.nextEntryID
	entry.CreatedAt = time.Now().UTC()
	t.store.entries = append(t.store.entries, entry)
	return entry
}

func (t *memAccountTx) Credit(in domain.CreditInput) (domain.CoinTransaction, error) {
	if in.Amount <= 0 {
		return domain.CoinTransaction{}, repository.ErrInvalidAmount
	}

	balance := t.pool(in.Pool)
	before := *balance
	*balance += in.Amount
	t.account.TotalEarned += in.Amount

	return t.append(domain.CoinTransaction{
		SellerID:      t.account.SellerID,
		Type:          in.Type,
		SourceType:    in.SourceType,
		SourceID:      in.SourceID,
		Pool:          in.Pool,
		Amount:        in.Amount,
		BalanceBefore: before,
		BalanceAfter:  before + in.Amount,
		Description:   in.Description,
		Metadata:      in.Metadata,
	}), nil
}

func (t *memAccountTx) Debit(in domain.DebitInput) (domain.CoinTransaction, error) {
	if in.Amount <= 0 {
		return domain.CoinTransaction{}, repository.ErrInvalidAmount
	}

	balance := t.pool(in.Pool)
	before := *balance
	if before < in.Amount {
		return domain.CoinTransaction{}, repository.ErrInsufficientBalance
	}
	*balance -= in.Amount
	t.account.TotalRedeemed += in.Amount

	return t.append(domain.CoinTransaction{
		SellerID:      t.account.SellerID,
		Type:          domain.TransactionRedeem,
		SourceType:    in.SourceType,
		SourceID:      in.SourceID,
		Pool:          in.Pool,
		Amount:        -in.Amount,
		BalanceBefore: before,
		BalanceAfter:  before - in.Amount,
		Description:   in.Description,
	}), nil
}

func (t *memAccountTx) Unlock(in domain.UnlockInput) (domain.CoinTransaction, error) {
	if in.Amount <= 0 {
		return domain.CoinTransaction{}, repository.ErrInvalidAmount
	}

	var source *domain.CoinTransaction
	for i := range t.store.entries {
		if t.store.entries[i].ID == in.EarnEntryID && t.store.entries[i].SellerID == t.account.SellerID {
			source = &t.store.entries[i]
			break
		}
	}
	if source == nil {
		return domain.CoinTransaction{}, repository.ErrEntryNotFound
	}
	if source.Type != domain.TransactionEarn || source.Pool != domain.PoolLocked {
		return domain.CoinTransaction{}, repository.ErrEntryNotUnlockable
	}
	if t.account.LockedBalance < in.Amount {
		return domain.CoinTransaction{}, repository.ErrInsufficientBalance
	}

	t.account.LockedBalance -= in.Amount
	before := t.account.RedeemableBalance
	t.account.RedeemableBalance += in.Amount

	sourceEntryID := source.ID
	return t.append(domain.CoinTransaction{
		SellerID:            t.account.SellerID,
		Type:                domain.TransactionUnlock,
		SourceType:          domain.SourceCampaign,
		SourceID:            in.SourceID,
		Pool:                domain.PoolRedeemable,
		Amount:              in.Amount,
		BalanceBefore:       before,
		BalanceAfter:        before + in.Amount,
		UnlockedFromEntryID: &sourceEntryID,
		Description:         in.Description,
	}), nil
}

func (t *memAccountTx) ProgressFor(campaignID uint) (domain.CampaignProgress, error) {
	key := progressKey(campaignID, t.account.SellerID)
	if progress, ok := t.store.progress[key]; ok {
		return *progress, nil
	}

	t.store.nextProgressID++
	progress := &domain.CampaignProgress{
		ID:         t.store.nextProgressID,
		CampaignID: campaignID,
		SellerID:   t.account.SellerID,
	}
	t.store.progress[key] = progress
	return *progress, nil
}

func (t *memAccountTx) SaveProgress(p domain.CampaignProgress) error {
	saved := p
	t.store.progress[progressKey(p.CampaignID, p.SellerID)] = &saved
	return nil
}

func (t *memAccountTx) CreateRedemption(r domain.RedemptionRequest) (domain.RedemptionRequest, error) {
	t.store.nextRequestID++
	r.ID = t.store.nextRequestID
	saved := r
	t.store.requests[r.ID] = &saved
	return r, nil
}

// redemptionRepo implements service.RedemptionRepository.

type memRedemptionRepo struct {
	store *memStore
}

func (r *memRedemptionRepo) FindByID(_ context.Context, id uint) (domain.RedemptionRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok {
		return domain.RedemptionRequest{}, repository.ErrRequestNotFound
	}
	return *request, nil
}

func (r *memRedemptionRepo) List(_ context.Context, q domain.RedemptionQuery) ([]domain.RedemptionRequest, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []domain.RedemptionRequest
	for id := uint(1); id <= r.store.nextRequestID; id++ {
		request, ok := r.store.requests[id]
		if !ok {
			continue
		}
		if q.SellerID != nil && request.SellerID != *q.SellerID {
			continue
		}
		if q.Status != nil && request.Status != *q.Status {
			continue
		}
		matched = append(matched, *request)
	}
	return matched, int64(len(matched)), nil
}

func (r *memRedemptionRepo) WithRequest(_ context.Context, id uint, fn func(tx domain.RedemptionTx) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok {
		return repository.ErrRequestNotFound
	}

	snap := r.store.snapshot()
	if err := fn(&memRequestTx{store: r.store, request: request}); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

type memRequestTx struct {
	store   *memStore
	request *domain.RedemptionRequest
}

func (t *memRequestTx) Request() domain.RedemptionRequest {
	return *t.request
}

func (t *memRequestTx) Update(r domain.RedemptionRequest) error {
	saved := r
	t.store.requests[r.ID] = &saved
	return nil
}

func (t *memRequestTx) Account(sellerID uint) (domain.AccountTx, error) {
	account, ok := t.store.accounts[sellerID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &memAccountTx{store: t.store, account: account}, nil
}

// campaignRepo implements service.CampaignRepository.

type memCampaignRepo struct {
	store *memStore
}

func (r *memCampaignRepo) Create(_ context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextCampaignID++
	campaign.ID = r.store.nextCampaignID
	saved := campaign
	r.store.campaigns[campaign.ID] = &saved
	return campaign, nil
}

func (r *memCampaignRepo) FindByID(_ context.Context, id uint) (domain.Campaign, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	campaign, ok := r.store.campaigns[id]
	if !ok {
		return domain.Campaign{}, repository.ErrCampaignNotFound
	}
	return *campaign, nil
}

func (r *memCampaignRepo) ListRunning(_ context.Context, at time.Time, sellerID *uint, tripID *uint) ([]domain.Campaign, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []domain.Campaign
	for id := uint(1); id <= r.store.nextCampaignID; id++ {
		campaign, ok := r.store.campaigns[id]
		if !ok || !campaign.RunningAt(at) {
			continue
		}
		if sellerID != nil && !campaign.InAudience(*sellerID) {
			continue
		}
		if tripID != nil && (campaign.TripID == nil || *campaign.TripID != *tripID) {
			continue
		}
		matched = append(matched, *campaign)
	}
	return matched, nil
}

// bankRepo implements service.BankAccountRepository.

type memBankRepo struct {
	store *memStore
}

func (r *memBankRepo) Create(_ context.Context, account domain.BankAccount) (domain.BankAccount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.banks {
		if existing.SellerID == account.SellerID && existing.AccountNumber == account.AccountNumber {
			return domain.BankAccount{}, repository.ErrBankAccountExists
		}
	}

	r.store.nextBankID++
	account.ID = r.store.nextBankID
	saved := account
	r.store.banks[account.ID] = &saved
	return account, nil
}

func (r *memBankRepo) FindByID(_ context.Context, id uint) (domain.BankAccount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.banks[id]
	if !ok {
		return domain.BankAccount{}, repository.ErrBankAccountNotFound
	}
	return *account, nil
}

func (r *memBankRepo) ListBySeller(_ context.Context, sellerID uint) ([]domain.BankAccount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []domain.BankAccount
	for id := uint(1); id <= r.store.nextBankID; id++ {
		if account, ok := r.store.banks[id]; ok && account.SellerID == sellerID {
			matched = append(matched, *account)
		}
	}
	return matched, nil
}
