package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drive-backup-api/internal/dto"
	"github.com/noah-isme/drive-backup-api/internal/service"
	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
	"github.com/noah-isme/drive-backup-api/pkg/response"
)

// CycleHandler exposes cycle orchestration endpoints.
type CycleHandler struct {
	cycles  *service.CycleService
	reports *service.ReportService
}

// NewCycleHandler constructs a CycleHandler.
func NewCycleHandler(cycles *service.CycleService, reports *service.ReportService) *CycleHandler {
	return &CycleHandler{cycles: cycles, reports: reports}
}

// Start godoc
// @Summary Run one backup cycle
// @Tags Cycles
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cycles [post]
func (h *CycleHandler) Start(c *gin.Context) {
	report, err := h.cycles.Run(c.Request.Context())
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCycleInProgress) || report == nil {
			response.Error(c, err)
			return
		}
		// The cycle ran and failed; the report carries the failure detail.
		appErr := appErrors.FromError(err)
		response.JSON(c, appErr.Status, dto.NewCycleResponse(report))
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCycleResponse(report))
}

// Last godoc
// @Summary Most recent cycle outcome
// @Tags Cycles
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cycles/last [get]
func (h *CycleHandler) Last(c *gin.Context) {
	report := h.cycles.LastReport()
	if report == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no cycle has run yet"))
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCycleResponse(report))
}

// LastReport godoc
// @Summary Download the most recent cycle report
// @Tags Cycles
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Report format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /cycles/last/report [get]
func (h *CycleHandler) LastReport(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", string(service.ReportFormatCSV)))

	payload, filename, err := h.reports.Render(h.cycles.LastReport(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	mimeType := "text/csv"
	if format == service.ReportFormatPDF {
		mimeType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, payload)
}
