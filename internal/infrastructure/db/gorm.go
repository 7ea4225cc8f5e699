package db

import (
	"time"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenGorm connects to MySQL using dsn.
func OpenGorm(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := OpenGormWithDialector(mysql.Open(dsn))
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("gorm: connected", zap.String("driver", "mysql"))
	}
	return db, nil
}

// OpenSQLite opens a sqlite database file, or an in-memory one for ":memory:".
// sqlite only tolerates a single writer, so the pool is pinned to one
// connection that is never recycled.
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	db, err := OpenGormWithDialector(sqlite.Open(path))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)
	if log != nil {
		log.Info("gorm: connected", zap.String("driver", "sqlite"), zap.String("path", path))
	}
	return db, nil
}

func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the loans and cash_flows tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&loan.Loan{}, &cashflow.CashFlow{})
}
