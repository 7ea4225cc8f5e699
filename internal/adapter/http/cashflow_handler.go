package http

import (
	"net/http"
	"strconv"

	domain "loan-ledger/internal/domain/cashflow"
	"loan-ledger/internal/usecase/cashflow"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CashFlowHandler struct{ uc *cashflow.Usecase }

func NewCashFlowHandler(uc *cashflow.Usecase) *CashFlowHandler { return &CashFlowHandler{uc: uc} }

type createCashFlowReq struct {
	LoanIdentifier string          `json:"loan_identifier" validate:"required,max=64"`
	Type           string          `json:"type"            validate:"required,cftype"`
	ReferenceDate  string          `json:"reference_date"  validate:"required,datetime=2006-01-02"`
	Amount         decimal.Decimal `json:"amount"          validate:"dpos,dec2"`
}

type repaymentReq struct {
	LoanIdentifier string          `json:"loan_identifier" validate:"required,max=64"`
	Amount         decimal.Decimal `json:"amount"          validate:"dpos,dec2"`
	ReferenceDate  string          `json:"reference_date"  validate:"required,datetime=2006-01-02"`
}

type updateCashFlowReq struct {
	Type          *string          `json:"type"           validate:"omitempty,cftype"`
	ReferenceDate *string          `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`
	Amount        *decimal.Decimal `json:"amount"         validate:"omitempty,dpos,dec2"`
}

func (h *CashFlowHandler) CreateCashFlow(c echo.Context) error {
	var req createCashFlowReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	typ, _ := domain.ParseType(req.Type)
	dto, err := h.uc.Create(c.Request().Context(), cashflow.CreateCashFlowInput{
		LoanIdentifier: req.LoanIdentifier,
		Type:           typ,
		ReferenceDate:  parseDate(req.ReferenceDate),
		Amount:         req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// CreateRepayment records a REPAYMENT for an existing loan.
func (h *CashFlowHandler) CreateRepayment(c echo.Context) error {
	var req repaymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.uc.CreateRepayment(c.Request().Context(), cashflow.RepaymentInput{
		LoanIdentifier: req.LoanIdentifier,
		Amount:         req.Amount,
		ReferenceDate:  parseDate(req.ReferenceDate),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CashFlowHandler) GetCashFlow(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be a positive integer")
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CashFlowHandler) ListCashFlows(c echo.Context) error {
	var (
		in  cashflow.ListCashFlowsInput
		err error
	)
	if raw := c.QueryParam("type"); raw != "" {
		if in.Type, err = domain.ParseType(raw); err != nil {
			return badRequest(c, "type must be FUNDING or REPAYMENT")
		}
	}
	if in.DateFrom, err = queryDate(c, "reference_date_gte"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.DateTo, err = queryDate(c, "reference_date_lte"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.Amount, err = queryRange(c, "amount"); err != nil {
		return badRequest(c, err.Error())
	}
	if in.Limit, in.Offset, err = queryPage(c); err != nil {
		return badRequest(c, err.Error())
	}
	in.LoanIdentifier = c.QueryParam("loan_identifier")
	in.Ordering = c.QueryParam("ordering")

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateCashFlow applies the fields present in the body; the owning loan is
// fixed.
func (h *CashFlowHandler) UpdateCashFlow(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be a positive integer")
	}
	var req updateCashFlowReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	var in cashflow.UpdateCashFlowInput
	if req.Type != nil {
		typ, _ := domain.ParseType(*req.Type)
		in.Type = &typ
	}
	if req.ReferenceDate != nil {
		d := parseDate(*req.ReferenceDate)
		in.ReferenceDate = &d
	}
	in.Amount = req.Amount

	dto, err := h.uc.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CashFlowHandler) DeleteCashFlow(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be a positive integer")
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
