package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonardosolari/dental-pay-tracker/internal/middleware"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/services"
	"github.com/shopspring/decimal"
)

type InstallmentHandler struct {
	installmentService *services.InstallmentService
}

func NewInstallmentHandler(installmentService *services.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{installmentService: installmentService}
}

type PayInstallmentRequest struct {
	PaidDate string `json:"paid_date"`
}

type UpdateInstallmentRequest struct {
	Amount  *decimal.Decimal `json:"amount"`
	DueDate *string          `json:"due_date"`
}

// @Summary List Installments
// @Description Get a paginated list of installments across all payments, with derived statuses
// @Tags Installments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param state query string false "Filter by stored state (pending, paid)"
// @Param search query string false "Search by patient name"
// @Param today query string false "Reference date for status derivation (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments [get]
func (h *InstallmentHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["state"] = c.Query("state")

	today := time.Now()
	if ref := c.Query("today"); ref != "" {
		parsed, err := time.Parse("2006-01-02", ref)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data di riferimento non valida (atteso YYYY-MM-DD)"})
			return
		}
		today = parsed
	}

	installments, total, err := h.installmentService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"installments": h.installmentService.Responses(installments, today),
		"pagination":   paginationMeta(query, total),
	})
}

// @Summary Get Installment
// @Description Get a single installment with its derived status
// @Tags Installments
// @Produce json
// @Param id path int true "Installment ID"
// @Success 200 {object} models.InstallmentResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{id} [get]
func (h *InstallmentHandler) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	installment, err := h.installmentService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := h.installmentService.Responses([]models.Installment{*installment}, time.Now())
	c.JSON(http.StatusOK, responses[0])
}

// @Summary Pay Installment
// @Description Marks an installment as paid. Paying an already paid installment returns 409.
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path int true "Installment ID"
// @Param request body PayInstallmentRequest false "Payment date (defaults to today)"
// @Success 200 {object} models.InstallmentResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{id}/pay [post]
func (h *InstallmentHandler) Pay(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PayInstallmentRequest
	_ = c.ShouldBindJSON(&req)

	paidAt := time.Now()
	if req.PaidDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PaidDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data di pagamento non valida (atteso YYYY-MM-DD)"})
			return
		}
		paidAt = parsed
	}

	installment, err := h.installmentService.Pay(c.Request.Context(), id, paidAt, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := h.installmentService.Responses([]models.Installment{*installment}, time.Now())
	c.JSON(http.StatusOK, responses[0])
}

// @Summary Update Installment
// @Description Directly overrides one installment's amount or due date without touching the rest of the plan
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path int true "Installment ID"
// @Param request body UpdateInstallmentRequest true "Override data"
// @Success 200 {object} models.InstallmentResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{id} [put]
func (h *InstallmentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateInstallmentRequest
	if err := BindNestedOrFlat(c, "installment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dati rata non validi"})
		return
	}

	input := services.UpdateInstallmentInput{Amount: req.Amount}
	if req.DueDate != nil {
		dueDate, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data di scadenza non valida (atteso YYYY-MM-DD)"})
			return
		}
		input.DueDate = &dueDate
	}

	installment, err := h.installmentService.Update(c.Request.Context(), id, input, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := h.installmentService.Responses([]models.Installment{*installment}, time.Now())
	c.JSON(http.StatusOK, responses[0])
}

// @Summary Upload Receipt
// @Description Attaches a receipt file (PDF or image) to an installment
// @Tags Installments
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Installment ID"
// @Param receipt formData file true "Receipt file"
// @Success 200 {object} models.InstallmentResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{id}/upload_receipt [post]
func (h *InstallmentHandler) UploadReceipt(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File della ricevuta mancante"})
		return
	}
	defer file.Close()

	installment, err := h.installmentService.UploadReceipt(c.Request.Context(), id, file, header, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := h.installmentService.Responses([]models.Installment{*installment}, time.Now())
	c.JSON(http.StatusOK, responses[0])
}

// @Summary Download Receipt
// @Description Downloads the receipt attached to an installment
// @Tags Installments
// @Produce application/octet-stream
// @Param id path int true "Installment ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{id}/download_receipt [get]
func (h *InstallmentHandler) DownloadReceipt(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := h.installmentService.ReceiptFile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), filepath.Base(file.Name()))
}
