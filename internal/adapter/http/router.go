package http

import (
	"time"

	mw "loan-ledger/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Health     *Handler
	Loans      *LoanHandler
	CashFlows  *CashFlowHandler
	Imports    *ImportHandler
	Statistics *StatisticsHandler

	// Redis enables idempotent POST /cashflows and /repayments; nil skips it.
	Redis    *redis.Client
	IdempTTL time.Duration

	Log *zap.Logger
}

func NewRouter(d RouterDeps) *echo.Echo {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			// set only once a role check has passed
			if role, ok := mw.RoleFrom(c); ok {
				fields = append(fields, zap.String("role", string(role)))
			}
			log.Info("request", fields...)
			return nil
		},
	}))

	anyRole := mw.RequireRole(mw.RoleInvestor, mw.RoleAnalyst, mw.RoleAdmin)
	writer := mw.RequireRole(mw.RoleInvestor, mw.RoleAdmin)
	admin := mw.RequireRole(mw.RoleAdmin)

	idem := []echo.MiddlewareFunc{writer}
	if d.Redis != nil {
		idem = append(idem, mw.Idempotency(d.Redis, d.IdempTTL, log))
	}

	e.GET("/health", d.Health.Health)

	e.POST("/loans", d.Loans.CreateLoan, writer)
	e.GET("/loans", d.Loans.ListLoans, anyRole)
	e.GET("/loans/:identifier", d.Loans.GetLoan, anyRole)
	e.DELETE("/loans/:identifier", d.Loans.DeleteLoan, admin)
	e.POST("/loans/:identifier/recompute", d.Loans.RecomputeLoan, admin)

	e.POST("/cashflows", d.CashFlows.CreateCashFlow, idem...)
	e.GET("/cashflows", d.CashFlows.ListCashFlows, anyRole)
	e.GET("/cashflows/:id", d.CashFlows.GetCashFlow, anyRole)
	e.PUT("/cashflows/:id", d.CashFlows.UpdateCashFlow, writer)
	e.DELETE("/cashflows/:id", d.CashFlows.DeleteCashFlow, writer)
	e.POST("/repayments", d.CashFlows.CreateRepayment, idem...)

	e.POST("/upload/loan-csv", d.Imports.UploadLoans, admin)
	e.POST("/upload/cashflow-csv", d.Imports.UploadCashFlows, admin)
	e.GET("/imports/:id", d.Imports.GetReport, anyRole)

	e.GET("/investment-statistics", d.Statistics.GetStatistics, anyRole)

	return e
}
