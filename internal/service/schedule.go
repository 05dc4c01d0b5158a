package service

import (
	"context"

	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
	"github.com/lendcore/lending-os/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// GenerateSchedule computes the full installment sequence for loan terms.
// Amounts are rounded to cents per installment; the final installment's
// principal is forced to the remaining balance so rounding drift never
// leaves a residual.
func GenerateSchedule(loan *models.Loan) ([]models.PaymentScheduleEntry, error) {
	if loan.TermMonths <= 0 {
		return nil, apperr.E(apperr.ErrInvalidInput, "loan %d: term months must be positive, got %d", loan.ID, loan.TermMonths)
	}
	if !loan.Principal.IsPositive() {
		return nil, apperr.E(apperr.ErrInvalidInput, "loan %d: principal must be positive, got %s", loan.ID, loan.Principal)
	}
	if loan.AnnualRatePct.IsNegative() {
		return nil, apperr.E(apperr.ErrInvalidInput, "loan %d: annual rate must not be negative, got %s", loan.ID, loan.AnnualRatePct)
	}

	monthlyRate := loan.AnnualRatePct.Div(hundred).Div(twelve)

	switch loan.Type {
	case models.LoanInterestOnly:
		return interestOnlySchedule(loan, monthlyRate), nil
	case models.LoanAmortizing:
		return amortizingSchedule(loan, monthlyRate), nil
	default:
		return nil, apperr.E(apperr.ErrInvalidInput, "loan %d: unknown loan type %q", loan.ID, loan.Type)
	}
}

func amortizingSchedule(loan *models.Loan, monthlyRate decimal.Decimal) []models.PaymentScheduleEntry {
	n := loan.TermMonths
	var payment decimal.Decimal
	if !monthlyRate.IsZero() {
		// Level payment: A = P * r / (1 - (1+r)^-n)
		onePlusR := decimal.NewFromInt(1).Add(monthlyRate)
		discount := decimal.NewFromInt(1).Sub(decimal.NewFromInt(1).Div(onePlusR.Pow(decimal.NewFromInt(int64(n)))))
		payment = loan.Principal.Mul(monthlyRate).Div(discount)
	}

	entries := make([]models.PaymentScheduleEntry, 0, n)
	balance := loan.Principal
	for i := 1; i <= n; i++ {
		interest := balance.Mul(monthlyRate).Round(2)
		var principal decimal.Decimal
		switch {
		case i == n:
			// Final installment pays off the exact remaining balance.
			principal = balance
		case monthlyRate.IsZero():
			principal = loan.Principal.Div(decimal.NewFromInt(int64(n))).Round(2)
		default:
			principal = payment.Sub(interest).Round(2)
		}
		balance = balance.Sub(principal)
		entries = append(entries, models.PaymentScheduleEntry{
			LoanID:            loan.ID,
			InstallmentNumber: i,
			DueDate:           loan.StartDate.AddDate(0, i, 0),
			PrincipalAmount:   principal,
			InterestAmount:    interest,
			TotalAmount:       principal.Add(interest),
			RemainingBalance:  balance,
		})
	}
	return entries
}

func interestOnlySchedule(loan *models.Loan, monthlyRate decimal.Decimal) []models.PaymentScheduleEntry {
	n := loan.TermMonths
	interest := loan.Principal.Mul(monthlyRate).Round(2)
	entries := make([]models.PaymentScheduleEntry, 0, n)
	for i := 1; i <= n; i++ {
		principal := decimal.Zero
		balance := loan.Principal
		if i == n {
			principal = loan.Principal
			balance = decimal.Zero
		}
		entries = append(entries, models.PaymentScheduleEntry{
			LoanID:            loan.ID,
			InstallmentNumber: i,
			DueDate:           loan.StartDate.AddDate(0, i, 0),
			PrincipalAmount:   principal,
			InterestAmount:    interest,
			TotalAmount:       principal.Add(interest),
			RemainingBalance:  balance,
		})
	}
	return entries
}

// RegenerateSchedule refetches the loan's current terms, regenerates the
// full sequence from installment 1 and atomically replaces any stored
// entries for that loan.
func (s *Service) RegenerateSchedule(ctx context.Context, orgID, loanID int64) ([]models.PaymentScheduleEntry, error) {
	var entries []models.PaymentScheduleEntry
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		loan, err := tx.FindLoan(ctx, orgID, loanID)
		if err != nil {
			return err
		}
		entries, err = GenerateSchedule(loan)
		if err != nil {
			return err
		}
		return tx.ReplaceSchedule(ctx, loan.ID, entries)
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Schedule regenerated for loan %d (org %d): %d installments", loanID, orgID, len(entries))
	return entries, nil
}

// GetSchedule returns the stored installment set for a loan
func (s *Service) GetSchedule(ctx context.Context, orgID, loanID int64) ([]models.PaymentScheduleEntry, error) {
	if _, err := s.repo.FindLoan(ctx, orgID, loanID); err != nil {
		return nil, err
	}
	return s.repo.ListSchedule(ctx, orgID, loanID)
}
