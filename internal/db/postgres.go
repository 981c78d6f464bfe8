package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tripsell/rewards-api/internal/config"
	"github.com/tripsell/rewards-api/internal/repository/dao"
)

func OpenPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%v port=%v user=%v password=%v dbname=%v sslmode=%v",
		conf.Host, conf.Port, conf.User, conf.Password, conf.DBName, conf.SSLMode)

	return open(postgres.Open(dsn))
}

func OpenPostgresWithURL(url string) (*gorm.DB, error) {
	return open(postgres.Open(url))
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	if err = dao.InitTables(db); err != nil {
		return nil, fmt.Errorf("dao.InitTables -> %w", err)
	}

	return db, nil
}
