package jobs

import (
	"context"
	"time"

	"github.com/lendcore/lending-os/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const reminderWindowDays = 3

// DueLister supplies installments coming due, with borrower contacts.
type DueLister interface {
	EntriesDueBefore(ctx context.Context, cutoff time.Time) ([]models.InstallmentDue, error)
}

// Notifier is the mail surface the reminder job needs.
type Notifier interface {
	SendInstallmentReminder(to, borrower string, entry *models.PaymentScheduleEntry, overdue bool) error
}

// Scheduler runs the daily installment reminder scan
type Scheduler struct {
	repo DueLister
	mail Notifier
	log  *logrus.Logger
	cron *cron.Cron
}

// NewScheduler initializes the background job scheduler
func NewScheduler(repo DueLister, mail Notifier, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		repo: repo,
		mail: mail,
		log:  log,
		cron: cron.New(),
	}
}

// Start registers the daily reminder job and begins the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 8 * * *", s.RunReminderScan); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Reminder scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunReminderScan mails reminders for installments due inside the window
// and overdue notices for installments already past due. Failures are
// logged per entry, never fatal.
func (s *Scheduler) RunReminderScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	cutoff := now.AddDate(0, 0, reminderWindowDays)
	due, err := s.repo.EntriesDueBefore(ctx, cutoff)
	if err != nil {
		s.log.Errorf("Reminder scan failed: %v", err)
		return
	}

	sent := 0
	for i := range due {
		d := &due[i]
		if d.BorrowerEmail == "" {
			continue
		}
		overdue := d.Entry.DueDate.Before(now)
		if err := s.mail.SendInstallmentReminder(d.BorrowerEmail, d.BorrowerName, &d.Entry, overdue); err != nil {
			s.log.Errorf("Failed to send reminder for loan %d installment %d: %v",
				d.Entry.LoanID, d.Entry.InstallmentNumber, err)
			continue
		}
		sent++
	}
	s.log.Infof("Reminder scan complete: %d due entries, %d reminders sent", len(due), sent)
}
