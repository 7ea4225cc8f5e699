package main

import (
	"fmt"

	"loan-ledger/internal/adapter/cache"
	"loan-ledger/internal/adapter/repository/mysql"
	"loan-ledger/internal/config"
	"loan-ledger/internal/domain/cashflow"
	infracache "loan-ledger/internal/infrastructure/cache"
	"loan-ledger/internal/infrastructure/db"
	"loan-ledger/internal/infrastructure/logger"
	cashflowuc "loan-ledger/internal/usecase/cashflow"
	"loan-ledger/internal/usecase/derivation"
	"loan-ledger/internal/usecase/importer"
	loanuc "loan-ledger/internal/usecase/loan"
	"loan-ledger/internal/usecase/statistics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
	rdb *redis.Client // nil when REDIS_ADDR is empty

	engine     *derivation.Engine
	stats      *statistics.Service
	loans      *loanuc.Usecase
	flows      *cashflowuc.Usecase
	importer   *importer.Importer
	dispatcher *importer.Dispatcher
}

func newLogger(c *config.Config) (*zap.Logger, error) {
	log, err := logger.New(c.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func openDB(c *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var (
		gdb *gorm.DB
		err error
	)
	switch c.DBDriver {
	case config.DriverSQLite:
		gdb, err = db.OpenSQLite(c.SQLitePath, log)
	default:
		gdb, err = db.OpenGorm(c.MySQLDSN(), log)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.DBDriver, err)
	}
	return gdb, nil
}

// newApp opens every backing store and builds the use cases on top of them.
func newApp(c *config.Config) (*app, error) {
	log, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	gdb, err := openDB(c, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: c, log: log, db: gdb}

	var store cache.Store
	if c.RedisAddr != "" {
		rdb, err := infracache.OpenRedis(c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis %s: %w", c.RedisAddr, err)
		}
		a.rdb = rdb
		store = cache.NewRedisStore(rdb, c.RedisKeyPrefix, log)
		log.Info("redis connected", zap.String("addr", c.RedisAddr), zap.Int("db", c.RedisDB))
	} else {
		store = cache.NewMemoryStore()
		log.Warn("REDIS_ADDR empty: using in-process cache, idempotency disabled")
	}

	u := mysql.NewGormUoW(gdb)
	loanRepo := mysql.NewLoanRepository(gdb)
	flowRepo := mysql.NewCashFlowRepository(gdb)

	a.engine = derivation.NewEngine(u, log)
	a.stats = statistics.NewService(loanRepo, flowRepo, store, statistics.Options{
		Key: c.StatsCacheKey,
		TTL: c.StatsCacheTTL(),
	}, log)
	a.engine.WithInvalidator(a.stats)
	a.loans = loanuc.NewUsecase(loanRepo, u, a.engine, a.stats, log)
	// engine first so the invalidated snapshot is rebuilt from fresh figures
	a.flows = cashflowuc.NewUsecase(u, loanRepo, flowRepo, cashflow.Listeners{a.engine, a.stats}, log)
	a.importer = importer.New(a.loans, a.flows, log)
	a.dispatcher = importer.NewDispatcher(a.importer,
		importer.NewReportStore(store, c.ImportReportTTL()),
		c.ImportWorkers, c.ImportQueueSize, log)
	return a, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}
