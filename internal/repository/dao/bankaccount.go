package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type BankAccount struct {
	ID       uint `gorm:"primaryKey"`
	SellerID uint `gorm:"not null;uniqueIndex:idx_bank_accounts_seller_number,priority:1"`

	Label         string
	HolderName    string `gorm:"not null"`
	BankName      string `gorm:"not null"`
	AccountNumber string `gorm:"not null;uniqueIndex:idx_bank_accounts_seller_number,priority:2"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}

type BankAccountDAO struct {
	db *gorm.DB
}

func NewBankAccountDAO(db *gorm.DB) *BankAccountDAO {
	return &BankAccountDAO{
		db: db,
	}
}

func (d *BankAccountDAO) Insert(ctx context.Context, account BankAccount) (BankAccount, error) {
	result := d.db.WithContext(ctx).Create(&account)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return BankAccount{}, ErrBankAccountExists
		}

		return BankAccount{}, result.Error
	}

	return account, nil
}

func (d *BankAccountDAO) FindByID(ctx context.Context, id uint) (BankAccount, error) {
	var account BankAccount

	result := d.db.WithContext(ctx).First(&account, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return BankAccount{}, ErrBankAccountNotFound
		}

		return BankAccount{}, result.Error
	}

	return account, nil
}

func (d *BankAccountDAO) FindBySellerID(ctx context.Context, sellerID uint) ([]BankAccount, error) {
	var accounts []BankAccount

	result := d.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("id").Find(&accounts)
	if result.Error != nil {
		return nil, result.Error
	}

	return accounts, nil
}
