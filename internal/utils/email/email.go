package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/thorplatform/payout-service/internal/config"
)

// Sender handles sending emails via SMTP
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

// SendFundingSourceAdded notifies a contractor that a bank account was linked
// to their profile.
func (s *Sender) SendFundingSourceAdded(to, name, maskedAccount string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Bank Account Linked"

	body := fmt.Sprintf(
		"Dear %s,\n\n", name,
	)
	body += fmt.Sprintf(
		"A bank account ending in %s has been linked to your profile and can now\n"+
			"be used to receive payouts.\n"+
			"If you did not authorize this change, contact support immediately.\n",
		maskedAccount,
	)
	body += "\nBest regards,\nThor Platform"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send funding source email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendTransferStatusChanged notifies a contractor that a payout reached a
// final status.
func (s *Sender) SendTransferStatusChanged(to, name string, amount float64, currency, status string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Payout Status Update"

	body := fmt.Sprintf(
		"Dear %s,\n\n", name,
	)
	if status == "processed" {
		body += fmt.Sprintf(
			"Your payout of %.2f %s has been completed.\n"+
				"Completed at: %s\n",
			amount, currency, time.Now().Format("2006-01-02 15:04:05"),
		)
	} else {
		body += fmt.Sprintf(
			"Your payout of %.2f %s did not complete (status: %s).\n"+
				"Our team has been notified; you may also contact support for details.\n",
			amount, currency, status,
		)
	}
	body += "\nBest regards,\nThor Platform"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send payout status email to %s: %v", to, err)
		return fmt.Errorf("failed to send payout status email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
