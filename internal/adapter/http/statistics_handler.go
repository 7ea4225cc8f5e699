package http

import (
	"net/http"

	"loan-ledger/internal/usecase/statistics"

	"github.com/labstack/echo/v4"
)

type StatisticsHandler struct{ svc *statistics.Service }

func NewStatisticsHandler(svc *statistics.Service) *StatisticsHandler {
	return &StatisticsHandler{svc: svc}
}

func (h *StatisticsHandler) GetStatistics(c echo.Context) error {
	snap, err := h.svc.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
