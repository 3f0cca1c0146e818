package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardosolari/dental-pay-tracker/internal/middleware"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/services"
)

type PatientHandler struct {
	patientService *services.PatientService
	paymentService *services.PaymentService
}

func NewPatientHandler(patientService *services.PatientService, paymentService *services.PaymentService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
		paymentService: paymentService,
	}
}

type PatientRequest struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     *string `json:"email"`
}

// @Summary List Patients
// @Description Get a paginated list of patients, searchable by name
// @Tags Patients
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Search by name or email"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /patients [get]
func (h *PatientHandler) Index(c *gin.Context) {
	query := parseListQuery(c)

	patients, total, err := h.patientService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.PatientResponse, 0, len(patients))
	for _, p := range patients {
		responses = append(responses, p.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"patients":   responses,
		"pagination": paginationMeta(query, total),
	})
}

// @Summary Get Patient
// @Description Get a single patient by ID
// @Tags Patients
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} models.PatientResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /patients/{id} [get]
func (h *PatientHandler) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	patient, err := h.patientService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient.ToResponse())
}

// @Summary Create Patient
// @Description Registers a new patient
// @Tags Patients
// @Accept json
// @Produce json
// @Param request body PatientRequest true "Patient data"
// @Success 201 {object} models.PatientResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /patients [post]
func (h *PatientHandler) Create(c *gin.Context) {
	var req PatientRequest
	if err := BindNestedOrFlat(c, "patient", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dati paziente non validi"})
		return
	}

	patient := &models.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	if err := h.patientService.Create(c.Request.Context(), patient, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, patient.ToResponse())
}

// @Summary Update Patient
// @Description Updates a patient's details
// @Tags Patients
// @Accept json
// @Produce json
// @Param id path int true "Patient ID"
// @Param request body PatientRequest true "Patient data"
// @Success 200 {object} models.PatientResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /patients/{id} [put]
func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PatientRequest
	if err := BindNestedOrFlat(c, "patient", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dati paziente non validi"})
		return
	}

	patient := &models.Patient{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	if err := h.patientService.Update(c.Request.Context(), patient, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient.ToResponse())
}

// @Summary Delete Patient
// @Description Deletes a patient along with their payments and installments
// @Tags Patients
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /patients/{id} [delete]
func (h *PatientHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.patientService.Delete(c.Request.Context(), id, middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Paziente eliminato"})
}

// @Summary Patient Payments
// @Description Lists a patient's payments
// @Tags Patients
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /patients/{id}/payments [get]
func (h *PatientHandler) Payments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.FindByPatient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, p.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"payments": responses})
}
