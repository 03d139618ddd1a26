package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/config"
)

// Sender handles sending reminder emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendDebtReminder sends a payment reminder for one debt record
func (s *Sender) SendDebtReminder(to, debtorName string, outstanding decimal.Decimal, dueDate time.Time) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Debt Payment Reminder"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"This is a reminder about your outstanding debt of %s EUR, due on %s.\n"+
			"Please settle the amount before the due date to avoid late interest.\n"+
			"\nBest regards,\nDebt Service",
		debtorName, outstanding.StringFixed(2), dueDate.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send reminder to %s: %v", to, err)
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	s.logger.Infof("Reminder sent to %s", to)
	return nil
}
