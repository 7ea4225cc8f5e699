package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
)

func TestOpenGormWithDialector_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New() // fake *sql.DB
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	// Expect a Ping from our code
	mock.ExpectPing()

	// Build a mysql dialector that uses our mocked *sql.DB
	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true, // don't query @@version
	})

	gdb, err := OpenGormWithDialector(dial)
	if err != nil {
		t.Fatalf("OpenGormWithDialector error: %v", err)
	}
	if gdb == nil {
		t.Fatalf("got nil gorm.DB")
	}

	// Ensure all expectations were met
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGormWithDialector_PingFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gdb, err := OpenGormWithDialector(dial)
	if err == nil {
		t.Fatalf("expected error, got nil (gdb=%v)", gdb)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenSQLite_MigratesAndRoundTripsDecimals(t *testing.T) {
	gdb, err := OpenSQLite(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, _ := gdb.DB()
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d, want 1", got)
	}

	ctx := context.Background()
	l := &loan.Loan{
		Identifier:                  "L-1",
		IssueDate:                   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:                time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:                 decimal.RequireFromString("1000.50"),
		TotalExpectedInterestAmount: decimal.RequireFromString("50.25"),
		Rating:                      4,
	}
	if err := gdb.WithContext(ctx).Create(l).Error; err != nil {
		t.Fatalf("create loan: %v", err)
	}
	cf := &cashflow.CashFlow{
		LoanID:        l.ID,
		Type:          cashflow.TypeFunding,
		ReferenceDate: l.IssueDate,
		Amount:        decimal.RequireFromString("1000.50"),
	}
	if err := gdb.WithContext(ctx).Create(cf).Error; err != nil {
		t.Fatalf("create cash flow: %v", err)
	}

	var got loan.Loan
	if err := gdb.WithContext(ctx).First(&got, l.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.TotalAmount.Equal(l.TotalAmount) || !got.TotalExpectedInterestAmount.Equal(l.TotalExpectedInterestAmount) {
		t.Fatalf("decimals changed: %s / %s", got.TotalAmount, got.TotalExpectedInterestAmount)
	}
	if !got.MaturityDate.Equal(l.MaturityDate) {
		t.Fatalf("maturity = %v, want %v", got.MaturityDate, l.MaturityDate)
	}
	if got.InvestedAmount != nil || got.IsClosed {
		t.Fatalf("derived fields should start empty: %+v", got.Derived)
	}
}
