package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "loan-ledger/internal/domain/loan"
	"loan-ledger/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	Identifier                  string          `json:"identifier"                     validate:"omitempty,max=64"`
	IssueDate                   string          `json:"issue_date"                     validate:"required,datetime=2006-01-02"`
	TotalAmount                 decimal.Decimal `json:"total_amount"                   validate:"dpos,dec2"`
	Rating                      int             `json:"rating"                         validate:"required,gte=1,lte=9"`
	MaturityDate                string          `json:"maturity_date"                  validate:"required,datetime=2006-01-02"`
	TotalExpectedInterestAmount decimal.Decimal `json:"total_expected_interest_amount" validate:"dpos,dec2"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		Identifier:                  req.Identifier,
		IssueDate:                   parseDate(req.IssueDate),
		TotalAmount:                 req.TotalAmount,
		Rating:                      req.Rating,
		MaturityDate:                parseDate(req.MaturityDate),
		TotalExpectedInterestAmount: req.TotalExpectedInterestAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	identifier := c.Param("identifier")
	if identifier == "" {
		return badRequest(c, "missing identifier path param")
	}
	dto, err := h.uc.Get(c.Request().Context(), identifier)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListLoans accepts is_closed, rating, investment_date_gte/lte, search,
// ordering, limit and offset.
func (h *LoanHandler) ListLoans(c echo.Context) error {
	var (
		in  loan.ListLoansInput
		err error
	)
	if raw := c.QueryParam("is_closed"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "is_closed must be true or false")
		}
		in.IsClosed = &b
	}
	if raw := c.QueryParam("rating"); raw != "" {
		if in.Rating, err = strconv.Atoi(raw); err != nil || in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
			return badRequest(c, "rating must be an integer between 1 and 9")
		}
	}
	if in.InvestmentDateFrom, err = queryDate(c, "investment_date_gte"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.InvestmentDateTo, err = queryDate(c, "investment_date_lte"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.InvestedAmount, err = queryRange(c, "invested_amount"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.ExpectedIRR, err = queryRange(c, "expected_irr"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.RealizedIRR, err = queryRange(c, "realized_irr"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.Limit, in.Offset, err = queryPage(c); err != nil {
		return badRequest(c, err.Error())
	}
	in.Search = c.QueryParam("search")
	in.Ordering = c.QueryParam("ordering")

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("identifier")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LoanHandler) RecomputeLoan(c echo.Context) error {
	dto, err := h.uc.Recompute(c.Request().Context(), c.Param("identifier"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type queryError string

func (e queryError) Error() string { return string(e) }

func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, queryError(name + " must be formatted 2006-01-02")
	}
	return &t, nil
}

// queryRange reads the inclusive bounds name_gte and name_lte.
func queryRange(c echo.Context, name string) (domain.Range, error) {
	var r domain.Range
	for _, b := range []struct {
		suffix string
		dst    **decimal.Decimal
	}{{"_gte", &r.Min}, {"_lte", &r.Max}} {
		raw := strings.TrimSpace(c.QueryParam(name + b.suffix))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Range{}, queryError(name + b.suffix + " must be a number")
		}
		*b.dst = &d
	}
	return r, nil
}

func queryPage(c echo.Context) (limit, offset int, err error) {
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			return 0, 0, queryError("limit must be a non-negative integer")
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			return 0, 0, queryError("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}
