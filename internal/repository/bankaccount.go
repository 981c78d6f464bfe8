package repository

import (
	"context"
	"fmt"

	"github.com/tripsell/rewards-api/internal/domain"
	"github.com/tripsell/rewards-api/internal/repository/dao"
)

var (
	ErrBankAccountNotFound = dao.ErrBankAccountNotFound
	ErrBankAccountExists   = dao.ErrBankAccountExists
)

type BankAccountDAO interface {
	Insert(ctx context.Context, account dao.BankAccount) (dao.BankAccount, error)
	FindByID(ctx context.Context, id uint) (dao.BankAccount, error)
	FindBySellerID(ctx context.Context, sellerID uint) ([]dao.BankAccount, error)
}

type BankAccountRepository struct {
	dao BankAccountDAO
}

func NewBankAccountRepository(dao BankAccountDAO) *BankAccountRepository {
	return &BankAccountRepository{
		dao: dao,
	}
}

func (r *BankAccountRepository) Create(ctx context.Context, account domain.BankAccount) (domain.BankAccount, error) {
	created, err := r.dao.Insert(ctx, bankAccountDomainToDAO(account))
	if err != nil {
		return domain.BankAccount{}, err
	}

	return bankAccountDAOToDomain(created), nil
}

func (r *BankAccountRepository) FindByID(ctx context.Context, id uint) (domain.BankAccount, error) {
	account, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.BankAccount{}, err
	}

	return bankAccountDAOToDomain(account), nil
}

func (r *BankAccountRepository) ListBySeller(ctx context.Context, sellerID uint) ([]domain.BankAccount, error) {
	rows, err := r.dao.FindBySellerID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindBySellerID -> %w", err)
	}

	accounts := make([]domain.BankAccount, len(rows))
	for i, row := range rows {
		accounts[i] = bankAccountDAOToDomain(row)
	}

	return accounts, nil
}

func bankAccountDomainToDAO(a domain.BankAccount) dao.BankAccount {
	return dao.BankAccount{
		ID:            a.ID,
		SellerID:      a.SellerID,
		Label:         a.Label,
		HolderName:    a.HolderName,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func bankAccountDAOToDomain(a dao.BankAccount) domain.BankAccount {
	return domain.BankAccount{
		ID:            a.ID,
		SellerID:      a.SellerID,
		Label:         a.Label,
		HolderName:    a.HolderName,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
