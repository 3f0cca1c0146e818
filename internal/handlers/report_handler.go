package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leonardosolari/dental-pay-tracker/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Installments CSV
// @Description Downloads the installments matching the filters as CSV
// @Tags Reports
// @Produce text/csv
// @Param state query string false "Filter by stored state (pending, paid)"
// @Param search query string false "Search by patient name"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/installments_csv [get]
func (h *ReportHandler) InstallmentsCSV(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["state"] = c.Query("state")

	data, filename, err := h.reportService.InstallmentsCSV(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Installments XLSX
// @Description Downloads the installments matching the filters as a spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param state query string false "Filter by stored state (pending, paid)"
// @Param search query string false "Search by patient name"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/installments_xlsx [get]
func (h *ReportHandler) InstallmentsXLSX(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["state"] = c.Query("state")

	data, filename, err := h.reportService.InstallmentsXLSX(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Payment Plan PDF
// @Description Downloads a payment's installment plan as PDF
// @Tags Reports
// @Produce application/pdf
// @Param payment_id query int true "Payment ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /reports/payment_plan_pdf [get]
func (h *ReportHandler) PaymentPlanPDF(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("payment_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_id non valido"})
		return
	}

	data, filename, err := h.reportService.PaymentPlanPDF(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}
