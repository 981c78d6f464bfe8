package dao

import "errors"

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrEntryNotFound       = errors.New("ledger entry not found")
	ErrEntryNotUnlockable  = errors.New("entry is not an unlockable locked earn entry")
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrRequestNotFound     = errors.New("redemption request not found")
	ErrBankAccountNotFound = errors.New("bank account not found")
	ErrBankAccountExists   = errors.New("bank account already registered")

	// ErrConcurrencyConflict reports a storage-level conflict (racing
	// lazy creation, serialization failure, deadlock). No partial effect
	// was committed, so the whole operation is safe to retry.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
)
