package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/config"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

type overdueRow struct {
	Treatment string
	Number    int
	Count     int
	Amount    string
	DueDate   string
}

// SendOverdueReminder emails a patient the list of their overdue
// installments. Patients without an email address never reach this method.
func (s *EmailService) SendOverdueReminder(ctx context.Context, patient *models.Patient, installments []models.Installment) error {
	if patient.Email == nil {
		return fmt.Errorf("il paziente %s non ha un indirizzo email", patient.FullName())
	}

	rows := make([]overdueRow, 0, len(installments))
	for _, inst := range installments {
		treatment := ""
		if inst.Payment.TreatmentName != nil {
			treatment = *inst.Payment.TreatmentName
		}
		rows = append(rows, overdueRow{
			Treatment: treatment,
			Number:    inst.Number,
			Count:     inst.Count,
			Amount:    inst.Amount.StringFixed(2),
			DueDate:   inst.DueDate.Format("02/01/2006"),
		})
	}

	data := struct {
		Name         string
		Installments []overdueRow
	}{
		Name:         patient.FullName(),
		Installments: rows,
	}

	body, err := s.renderTemplate("overdue_reminder.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{*patient.Email},
		Subject: "Promemoria rate scadute",
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", *patient.Email, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: Promemoria rate scadute | Rate: %d", *patient.Email, len(rows)))
	return nil
}

// SendPaymentConfirmation emails a patient after an installment is marked
// paid at the front desk.
func (s *EmailService) SendPaymentConfirmation(ctx context.Context, patient *models.Patient, installment *models.Installment) error {
	if patient.Email == nil {
		return fmt.Errorf("il paziente %s non ha un indirizzo email", patient.FullName())
	}

	paidDate := time.Now()
	if installment.PaidDate != nil {
		paidDate = *installment.PaidDate
	}

	data := struct {
		Name     string
		Number   int
		Count    int
		Amount   string
		PaidDate string
	}{
		Name:     patient.FullName(),
		Number:   installment.Number,
		Count:    installment.Count,
		Amount:   installment.Amount.StringFixed(2),
		PaidDate: paidDate.Format("02/01/2006"),
	}

	body, err := s.renderTemplate("payment_confirmation.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{*patient.Email},
		Subject: "Conferma pagamento rata",
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", *patient.Email, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: Conferma pagamento rata %d/%d", *patient.Email, installment.Number, installment.Count))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
