package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ReportService renders installment data as downloadable files for the
// clinic's bookkeeping.
type ReportService struct {
	paymentRepo     repository.PaymentRepository
	installmentRepo repository.InstallmentRepository
}

func NewReportService(paymentRepo repository.PaymentRepository, installmentRepo repository.InstallmentRepository) *ReportService {
	return &ReportService{
		paymentRepo:     paymentRepo,
		installmentRepo: installmentRepo,
	}
}

func (s *ReportService) listAll(ctx context.Context, query *repository.ListQuery) ([]models.Installment, error) {
	// Exports ignore pagination: one file, all matching rows.
	query.Page = 1
	query.PerPage = 10000
	installments, _, err := s.installmentRepo.List(ctx, query)
	return installments, err
}

// InstallmentsCSV exports the installments matching the query, one row per
// installment with its derived status.
func (s *ReportService) InstallmentsCSV(ctx context.Context, query *repository.ListQuery) ([]byte, string, error) {
	installments, err := s.listAll(ctx, query)
	if err != nil {
		return nil, "", err
	}

	today := time.Now()
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Report Rate", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Paziente", "Trattamento", "Rata", "Importo", "Scadenza", "Stato", "Data Pagamento"})

	for _, inst := range installments {
		_ = writer.Write(installmentRow(inst, today))
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("rate_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// InstallmentsXLSX exports the same rows as a spreadsheet with a totals
// section at the top.
func (s *ReportService) InstallmentsXLSX(ctx context.Context, query *repository.ListQuery) ([]byte, string, error) {
	installments, err := s.listAll(ctx, query)
	if err != nil {
		return nil, "", err
	}

	today := time.Now()
	paid, outstanding, overdue := planTotals(installments, today)

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Rate"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Report Rate")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Incassato")
	_ = f.SetCellValue(sheet, "B3", paid.StringFixed(2))
	_ = f.SetCellValue(sheet, "A4", "Da incassare")
	_ = f.SetCellValue(sheet, "B4", outstanding.StringFixed(2))
	_ = f.SetCellValue(sheet, "A5", "Scaduto")
	_ = f.SetCellValue(sheet, "B5", overdue.StringFixed(2))

	headers := []string{"Paziente", "Trattamento", "Rata", "Importo", "Scadenza", "Stato", "Data Pagamento"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 7)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, inst := range installments {
		for colIdx, value := range installmentRow(inst, today) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+8)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("rate_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// PaymentPlanPDF renders a payment's installment plan as a one-page PDF the
// clinic hands to the patient.
func (s *ReportService) PaymentPlanPDF(ctx context.Context, paymentID uint) ([]byte, string, error) {
	payment, err := s.paymentRepo.FindByIDWithInstallments(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	today := time.Now()
	treatment := ""
	if payment.TreatmentName != nil {
		treatment = *payment.TreatmentName
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Piano di Pagamento")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Paziente:")
	pdf.Cell(40, 8, payment.Patient.FullName())
	pdf.Ln(6)
	pdf.Cell(60, 8, "Trattamento:")
	pdf.Cell(40, 8, treatment)
	pdf.Ln(6)
	pdf.Cell(60, 8, "Totale:")
	pdf.Cell(40, 8, fmt.Sprintf("%s EUR", payment.Total.StringFixed(2)))
	pdf.Ln(12)

	if payment.IsInstallmentMode() {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(20, 8, "Rata", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, "Importo", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, "Scadenza", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, "Stato", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 10)
		for _, inst := range payment.Installments {
			status := ledger.DeriveStatus(inst.State, inst.DueDate, today)
			pdf.CellFormat(20, 8, fmt.Sprintf("%d/%d", inst.Number, inst.Count), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 8, inst.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 8, inst.DueDate.Format("02/01/2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 8, status, "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
	} else {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(40, 8, "Pagamento in unica soluzione.")
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("piano_pagamento_%d.pdf", paymentID)
	return buf.Bytes(), filename, nil
}

func installmentRow(inst models.Installment, today time.Time) []string {
	patient := ""
	if inst.Payment.Patient.ID != 0 {
		patient = inst.Payment.Patient.FullName()
	}
	treatment := ""
	if inst.Payment.TreatmentName != nil {
		treatment = *inst.Payment.TreatmentName
	}
	paidDate := ""
	if inst.PaidDate != nil {
		paidDate = inst.PaidDate.Format("02/01/2006")
	}
	return []string{
		patient,
		treatment,
		fmt.Sprintf("%d/%d", inst.Number, inst.Count),
		inst.Amount.StringFixed(2),
		inst.DueDate.Format("02/01/2006"),
		ledger.DeriveStatus(inst.State, inst.DueDate, today),
		paidDate,
	}
}

func planTotals(installments []models.Installment, today time.Time) (paid, outstanding, overdue decimal.Decimal) {
	paid, outstanding, overdue = decimal.Zero, decimal.Zero, decimal.Zero
	for _, inst := range installments {
		switch ledger.DeriveStatus(inst.State, inst.DueDate, today) {
		case models.InstallmentStatusPaid:
			paid = paid.Add(inst.Amount)
		case models.InstallmentStatusOverdue:
			overdue = overdue.Add(inst.Amount)
			outstanding = outstanding.Add(inst.Amount)
		default:
			outstanding = outstanding.Add(inst.Amount)
		}
	}
	return paid, outstanding, overdue
}
