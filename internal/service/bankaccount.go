package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository"
)

var (
	ErrBankAccountNotFound = repository.ErrBankAccountNotFound
	ErrBankAccountExists   = repository.ErrBankAccountExists
)

type BankAccountRepository interface {
	Create(ctx context.Context, account domain.BankAccount) (domain.BankAccount, error)
	FindByID(ctx context.Context, id uint) (domain.BankAccount, error)
	ListBySeller(ctx context.Context, sellerID uint) ([]domain.BankAccount, error)
}

type BankAccountService struct {
	repo BankAccountRepository
}

func NewBankAccountService(repo BankAccountRepository) *BankAccountService {
	return &BankAccountService{
		repo: repo,
	}
}

func (s *BankAccountService) Create(ctx context.Context, account domain.BankAccount) (domain.BankAccount, error) {
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, ErrBankAccountExists) {
			return domain.BankAccount{}, err
		}

		return domain.BankAccount{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *BankAccountService) ListBySeller(ctx context.Context, sellerID uint) ([]domain.BankAccount, error) {
	accounts, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListBySeller -> %w", err)
	}

	return accounts, nil
}
