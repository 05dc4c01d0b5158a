package service

import (
	"context"

	"github.com/lendcore/lending-os/internal/config"
	"github.com/lendcore/lending-os/internal/models"
	"github.com/lendcore/lending-os/internal/repository"
	"github.com/sirupsen/logrus"
)

// SummaryCache is a read-side cache for fund summaries. Mutations
// invalidate; the database transaction remains the source of truth.
type SummaryCache interface {
	GetSummary(ctx context.Context, fundID int64) (*models.FundSummary, bool)
	SetSummary(ctx context.Context, summary *models.FundSummary) error
	Invalidate(ctx context.Context, fundID int64) error
}

// Notifier sends lender-facing mail. Best effort: failures are logged by
// the caller, never surfaced as operation errors.
type Notifier interface {
	SendCapitalCallNotice(to, name string, call *models.CapitalCall) error
	SendInstallmentReminder(to, borrower string, entry *models.PaymentScheduleEntry, overdue bool) error
}

// RateSource provides a reference annual rate for loans created without one.
type RateSource interface {
	GetKeyRate() (float64, error)
}

// Service handles business logic
type Service struct {
	repo   repository.Store
	log    *logrus.Logger
	config *config.Config
	cache  SummaryCache
	mail   Notifier
	rates  RateSource
}

// NewService initializes a new service
func NewService(repo repository.Store, log *logrus.Logger, cfg *config.Config, cache SummaryCache, mail Notifier, rates RateSource) *Service {
	return &Service{repo: repo, log: log, config: cfg, cache: cache, mail: mail, rates: rates}
}
