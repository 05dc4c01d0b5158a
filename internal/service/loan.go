package service

import (
	"context"
	"time"

	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
	"github.com/lendcore/lending-os/internal/repository"
	"github.com/shopspring/decimal"
)

// LoanInput carries validated loan terms from the handler layer.
type LoanInput struct {
	BorrowerName  string
	BorrowerEmail string
	Principal     decimal.Decimal
	AnnualRatePct decimal.Decimal
	TermMonths    int
	StartDate     time.Time
	Type          models.LoanType
}

// CreateLoan records a draft loan and generates its initial schedule in
// the same transaction. A zero rate on an amortizing loan is defaulted
// from the reference key rate when a rate source is configured.
func (s *Service) CreateLoan(ctx context.Context, orgID int64, input LoanInput) (*models.Loan, error) {
	if input.BorrowerName == "" {
		return nil, apperr.E(apperr.ErrInvalidInput, "borrower name is required (org %d)", orgID)
	}
	if input.Type == "" {
		input.Type = models.LoanAmortizing
	}

	rate := input.AnnualRatePct
	if rate.IsZero() && s.rates != nil {
		keyRate, err := s.rates.GetKeyRate()
		if err != nil {
			s.log.Errorf("Failed to fetch key rate, keeping zero rate: %v", err)
		} else {
			rate = decimal.NewFromFloat(keyRate).Round(2)
		}
	}

	loan := &models.Loan{
		OrganizationID: orgID,
		BorrowerName:   input.BorrowerName,
		BorrowerEmail:  input.BorrowerEmail,
		Principal:      input.Principal,
		AnnualRatePct:  rate,
		TermMonths:     input.TermMonths,
		StartDate:      input.StartDate,
		Type:           input.Type,
		Status:         models.LoanDraft,
	}

	// Validate terms before touching the database.
	if _, err := GenerateSchedule(loan); err != nil {
		return nil, err
	}

	if err := s.repo.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}
	entries, err := GenerateSchedule(loan)
	if err != nil {
		return nil, err
	}
	err = s.repo.InTx(ctx, func(tx repository.Tx) error {
		return tx.ReplaceSchedule(ctx, loan.ID, entries)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Loan %d created for %s: principal %s, rate %s%%, %d months (org %d)",
		loan.ID, loan.BorrowerName, loan.Principal, loan.AnnualRatePct, loan.TermMonths, orgID)
	return loan, nil
}

// GetLoan retrieves a loan scoped by organization
func (s *Service) GetLoan(ctx context.Context, orgID, loanID int64) (*models.Loan, error) {
	return s.repo.FindLoan(ctx, orgID, loanID)
}

// ListLoans lists all loans for an organization
func (s *Service) ListLoans(ctx context.Context, orgID int64) ([]models.Loan, error) {
	return s.repo.ListLoans(ctx, orgID)
}

// TransitionLoan applies a loan status transition, rejecting moves the
// transition table does not allow.
func (s *Service) TransitionLoan(ctx context.Context, orgID, loanID int64, next models.LoanStatus) (*models.Loan, error) {
	var loan *models.Loan
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		l, err := tx.FindLoan(ctx, orgID, loanID)
		if err != nil {
			return err
		}
		if !l.Status.CanTransition(next) {
			return apperr.E(apperr.ErrInvalidState, "loan %d: cannot transition %s -> %s (org %d)", loanID, l.Status, next, orgID)
		}
		l.Status = next
		if err := tx.UpdateLoanStatus(ctx, l); err != nil {
			return err
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Loan %d transitioned to %s (org %d)", loanID, next, orgID)
	return loan, nil
}

// CreateLender records a lender for the organization
func (s *Service) CreateLender(ctx context.Context, orgID int64, name, email string) (*models.Lender, error) {
	if name == "" || email == "" {
		return nil, apperr.E(apperr.ErrInvalidInput, "lender name and email are required (org %d)", orgID)
	}
	lender := &models.Lender{
		OrganizationID: orgID,
		Name:           name,
		Email:          email,
	}
	if err := s.repo.CreateLender(ctx, lender); err != nil {
		return nil, err
	}
	s.log.Infof("Lender %d created: %s (org %d)", lender.ID, lender.Name, orgID)
	return lender, nil
}

// ListLenders lists all lenders for an organization
func (s *Service) ListLenders(ctx context.Context, orgID int64) ([]models.Lender, error) {
	return s.repo.ListLenders(ctx, orgID)
}
