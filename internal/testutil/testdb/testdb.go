// Package testdb hands out migrated in-memory sqlite databases for tests.
package testdb

import (
	"testing"

	"loan-ledger/internal/infrastructure/db"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open returns a fresh, migrated database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
