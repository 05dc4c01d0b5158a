package notify

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/lendcore/lending-os/internal/config"
	"github.com/lendcore/lending-os/internal/models"
	"github.com/sirupsen/logrus"
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

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

// SendCapitalCallNotice notifies a lender of a new capital call
func (s *Sender) SendCapitalCallNotice(to, name string, call *models.CapitalCall) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Capital Call %s", call.Reference)

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"A capital call of %s has been issued against your fund commitment.\n"+
			"Reference: %s\n"+
			"Due date: %s\n"+
			"Please arrange funding by the due date.\n"+
			"\nBest regards,\nLending OS",
		name, call.Amount.StringFixed(2), call.Reference, call.DueDate.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	return s.send(e)
}

// SendInstallmentReminder sends an upcoming or overdue installment reminder
func (s *Sender) SendInstallmentReminder(to, borrower string, entry *models.PaymentScheduleEntry, overdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if overdue {
		e.Subject = "Overdue Loan Installment Notification"
	} else {
		e.Subject = "Upcoming Loan Installment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", borrower)
	if overdue {
		body += fmt.Sprintf(
			"Installment %d of %s was due on %s and is now overdue.\n"+
				"Please make the payment as soon as possible.\n",
			entry.InstallmentNumber, entry.TotalAmount.StringFixed(2), entry.DueDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that installment %d of %s is due on %s.\n",
			entry.InstallmentNumber, entry.TotalAmount.StringFixed(2), entry.DueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nLending OS"
	e.Text = []byte(body)

	return s.send(e)
}
