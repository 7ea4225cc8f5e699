package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"loan-ledger/internal/usecase/importer"

	"github.com/labstack/echo/v4"
)

// DefaultMaxUpload caps a single CSV upload.
const DefaultMaxUpload = 10 << 20

type ImportHandler struct {
	d        *importer.Dispatcher
	maxBytes int64
}

func NewImportHandler(d *importer.Dispatcher, maxBytes int64) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	return &ImportHandler{d: d, maxBytes: maxBytes}
}

// UploadLoans and UploadCashFlows queue the multipart "file" for import and
// answer 202 with the job report.
func (h *ImportHandler) UploadLoans(c echo.Context) error {
	return h.upload(c, importer.KindLoans)
}

func (h *ImportHandler) UploadCashFlows(c echo.Context) error {
	return h.upload(c, importer.KindCashFlows)
}

func (h *ImportHandler) upload(c echo.Context, kind importer.Kind) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart field \"file\" is required")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return badRequest(c, "file must have a .csv extension")
	}
	if fh.Size > h.maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
	}

	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return badRequest(c, "unreadable upload")
	}
	if int64(len(data)) > h.maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
	}

	rep, err := h.d.Submit(c.Request().Context(), kind, filepath.Base(fh.Filename), data)
	if err != nil {
		if errors.Is(err, importer.ErrQueueFull) {
			c.Response().Header().Set("Retry-After", "5")
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, rep)
}

func (h *ImportHandler) GetReport(c echo.Context) error {
	rep, err := h.d.Report(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
