package http

import (
	"errors"
	"net/http"
	"time"

	"loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/usecase/importer"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// writeError maps domain errors to responses. Anything unmapped is handed to
// the echo error handler as a 500 with the cause kept internal.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, cashflow.ErrNotFound),
		errors.Is(err, importer.ErrReportNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loan.ErrDuplicateIdentifier):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loan.ErrInvalidTerms),
		errors.Is(err, cashflow.ErrInvalidCashFlow):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "_", Message: err.Error()}},
		})
	case errors.Is(err, importer.ErrQueueFull):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}

// ErrorHandler renders echo errors as ErrorResponse and logs server faults.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, ErrorResponse{Error: msg})
	}
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(loan.DateLayout, s)
	return t
}
