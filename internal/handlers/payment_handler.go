package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
	"github.com/leonardosolari/dental-pay-tracker/internal/middleware"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/services"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentService     *services.PaymentService
	installmentService *services.InstallmentService
}

func NewPaymentHandler(paymentService *services.PaymentService, installmentService *services.InstallmentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService:     paymentService,
		installmentService: installmentService,
	}
}

type InstallmentEntryRequest struct {
	DueDate string          `json:"due_date" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

type CreatePaymentRequest struct {
	PatientID     uint                      `json:"patient_id" binding:"required"`
	TreatmentName *string                   `json:"treatment_name"`
	Mode          string                    `json:"mode" binding:"required"`
	Total         decimal.Decimal           `json:"total" binding:"required"`
	Count         int                       `json:"count"`
	StartDate     string                    `json:"start_date"`
	Installments  []InstallmentEntryRequest `json:"installments"`
}

type UpdatePaymentRequest struct {
	TreatmentName *string         `json:"treatment_name"`
	Total         decimal.Decimal `json:"total" binding:"required"`
}

// paymentWithPlan renders a payment together with its installments and their
// derived statuses.
func (h *PaymentHandler) paymentWithPlan(payment *models.Payment) gin.H {
	resp := gin.H{"payment": payment.ToResponse()}
	if payment.IsInstallmentMode() {
		resp["installments"] = h.installmentService.Responses(payment.Installments, time.Now())
	}
	return resp
}

// @Summary List Payments
// @Description Get a paginated list of payments
// @Tags Payments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param mode query string false "Filter by mode (lump_sum, installment)"
// @Param patient_id query int false "Filter by patient"
// @Param search query string false "Search by patient name"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["mode"] = c.Query("mode")
	query.Filters["patient_id"] = c.Query("patient_id")

	payments, total, err := h.paymentService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, p.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments":   responses,
		"pagination": paginationMeta(query, total),
	})
}

// @Summary Get Payment
// @Description Get a payment with its installment plan and derived statuses
// @Tags Payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.paymentWithPlan(payment))
}

// @Summary Create Payment
// @Description Registers a payment. Installment mode takes either a count plus start date (even split, remainder on the last installment) or an explicit list of due dates and amounts that must sum to the total.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body CreatePaymentRequest true "Payment data"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dati pagamento non validi"})
		return
	}

	input := services.CreatePaymentInput{
		PatientID:     req.PatientID,
		TreatmentName: req.TreatmentName,
		Mode:          req.Mode,
		Total:         req.Total,
		Count:         req.Count,
	}

	if req.StartDate != "" {
		startDate, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data di inizio non valida (atteso YYYY-MM-DD)"})
			return
		}
		input.StartDate = startDate
	}

	for _, entry := range req.Installments {
		dueDate, err := time.Parse("2006-01-02", entry.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data di scadenza non valida (atteso YYYY-MM-DD)"})
			return
		}
		input.Entries = append(input.Entries, ledger.Entry{DueDate: dueDate, Amount: entry.Amount})
	}

	payment, err := h.paymentService.Create(c.Request.Context(), input, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.paymentWithPlan(payment))
}

// @Summary Update Payment
// @Description Updates a payment's total. Installment plans are reconciled in place: same due dates and states, amounts recomputed from the new total.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path int true "Payment ID"
// @Param request body UpdatePaymentRequest true "New total"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dati pagamento non validi"})
		return
	}

	payment, err := h.paymentService.UpdateTotal(c.Request.Context(), id, services.UpdatePaymentInput{
		TreatmentName: req.TreatmentName,
		Total:         req.Total,
	}, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.paymentWithPlan(payment))
}

// @Summary Payment Installments
// @Description Lists a payment's installments with derived statuses
// @Tags Payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{id}/installments [get]
func (h *PaymentHandler) Installments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// 404 for a missing payment, not an empty list.
	if _, err := h.paymentService.FindByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	installments, err := h.installmentService.FindByPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"installments": h.installmentService.Responses(installments, time.Now()),
	})
}

// @Summary Delete Payment
// @Description Deletes a payment and its installments
// @Tags Payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.paymentService.Delete(c.Request.Context(), id, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Pagamento eliminato"})
}
