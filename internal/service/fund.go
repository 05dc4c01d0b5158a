package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
	"github.com/lendcore/lending-os/internal/repository"
	"github.com/shopspring/decimal"
)

// CreateFund creates a new open fund for the organization
func (s *Service) CreateFund(ctx context.Context, orgID int64, name string) (*models.Fund, error) {
	if name == "" {
		return nil, apperr.E(apperr.ErrInvalidInput, "fund name is required (org %d)", orgID)
	}
	fund := &models.Fund{
		OrganizationID: orgID,
		Name:           name,
		Status:         models.FundOpen,
	}
	if err := s.repo.CreateFund(ctx, fund); err != nil {
		return nil, err
	}
	s.log.Infof("Fund created: %d (org %d)", fund.ID, orgID)
	return fund, nil
}

// RecordCommitment records a lender's pledge of capital into a fund.
func (s *Service) RecordCommitment(ctx context.Context, orgID, fundID, lenderID int64, amount decimal.Decimal, date time.Time) (*models.FundCommitment, error) {
	if !amount.IsPositive() {
		return nil, apperr.E(apperr.ErrInvalidInput, "commitment amount must be positive, got %s (fund %d, org %d)", amount, fundID, orgID)
	}
	if _, err := s.repo.FindLender(ctx, orgID, lenderID); err != nil {
		return nil, err
	}

	commitment := &models.FundCommitment{
		OrganizationID:  orgID,
		FundID:          fundID,
		LenderID:        lenderID,
		CommittedAmount: amount,
		CommitmentDate:  date,
		Status:          models.CommitmentActive,
	}
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		fund, err := tx.LockFund(ctx, orgID, fundID)
		if err != nil {
			return err
		}
		if fund.Status != models.FundOpen {
			return apperr.E(apperr.ErrInvalidState, "fund %d is %s, cannot record commitment", fundID, fund.Status)
		}
		return tx.InsertCommitment(ctx, commitment)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, fundID)
	s.log.Infof("Commitment %d recorded: fund %d, lender %d, amount %s (org %d)", commitment.ID, fundID, lenderID, amount, orgID)
	return commitment, nil
}

// CancelCommitment cancels an active commitment. Cancelling an already
// cancelled commitment is a no-op returning the current row.
func (s *Service) CancelCommitment(ctx context.Context, orgID, commitmentID, cancelledBy int64, reason string) (*models.FundCommitment, error) {
	var commitment *models.FundCommitment
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		c, err := tx.LockCommitment(ctx, orgID, commitmentID)
		if err != nil {
			return err
		}
		if c.Status == models.CommitmentCancelled {
			commitment = c
			return nil
		}
		if _, err := tx.LockFund(ctx, orgID, c.FundID); err != nil {
			return err
		}
		c.Status = models.CommitmentCancelled
		c.CancelledBy = cancelledBy
		c.CancelReason = reason
		if err := tx.UpdateCommitment(ctx, c); err != nil {
			return err
		}
		commitment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, commitment.FundID)
	s.log.Infof("Commitment %d cancelled by %d (org %d): %s", commitmentID, cancelledBy, orgID, reason)
	return commitment, nil
}

// CreateCapitalCall draws against outstanding commitments. The call amount
// must not exceed active committed capital minus capital already called.
func (s *Service) CreateCapitalCall(ctx context.Context, orgID, fundID int64, amount decimal.Decimal, dueDate time.Time) (*models.CapitalCall, error) {
	if !amount.IsPositive() {
		return nil, apperr.E(apperr.ErrInvalidInput, "capital call amount must be positive, got %s (fund %d, org %d)", amount, fundID, orgID)
	}

	call := &models.CapitalCall{
		OrganizationID: orgID,
		FundID:         fundID,
		Reference:      uuid.NewString(),
		Amount:         amount,
		DueDate:        dueDate,
	}
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		fund, err := tx.LockFund(ctx, orgID, fundID)
		if err != nil {
			return err
		}
		if fund.Status != models.FundOpen {
			return apperr.E(apperr.ErrInvalidState, "fund %d is %s, cannot issue capital call", fundID, fund.Status)
		}
		agg, err := tx.FundAggregates(ctx, fundID)
		if err != nil {
			return err
		}
		uncalled := agg.TotalCommitted.Sub(agg.TotalCalled)
		if amount.GreaterThan(uncalled) {
			return apperr.E(apperr.ErrInsufficientCapital,
				"capital call %s exceeds uncalled commitments %s (fund %d, org %d)", amount, uncalled, fundID, orgID)
		}
		return tx.InsertCapitalCall(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, fundID)
	s.log.Infof("Capital call %s issued: fund %d, amount %s, due %s (org %d)", call.Reference, fundID, amount, dueDate.Format("2006-01-02"), orgID)
	s.notifyCapitalCall(ctx, orgID, fundID, call)
	return call, nil
}

// notifyCapitalCall mails lenders with active commitments. Best effort.
func (s *Service) notifyCapitalCall(ctx context.Context, orgID, fundID int64, call *models.CapitalCall) {
	if s.mail == nil {
		return
	}
	lenders, err := s.repo.LendersWithActiveCommitments(ctx, orgID, fundID)
	if err != nil {
		s.log.Errorf("Failed to list lenders for capital call %s: %v", call.Reference, err)
		return
	}
	for _, l := range lenders {
		if err := s.mail.SendCapitalCallNotice(l.Email, l.Name, call); err != nil {
			s.log.Errorf("Failed to notify lender %d for capital call %s: %v", l.ID, call.Reference, err)
		}
	}
}

// AllocateToLoan deploys fund capital into a loan. Available capital is
// active commitments minus outstanding allocations, recomputed under the
// fund lock so concurrent allocations serialize.
func (s *Service) AllocateToLoan(ctx context.Context, orgID, fundID, loanID int64, amount decimal.Decimal, date time.Time) (*models.Allocation, error) {
	if !amount.IsPositive() {
		return nil, apperr.E(apperr.ErrInvalidInput, "allocation amount must be positive, got %s (fund %d, org %d)", amount, fundID, orgID)
	}

	allocation := &models.Allocation{
		OrganizationID: orgID,
		FundID:         fundID,
		LoanID:         loanID,
		Amount:         amount,
		ReturnedAmount: decimal.Zero,
		Status:         models.AllocationActive,
		AllocatedAt:    date,
	}
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		fund, err := tx.LockFund(ctx, orgID, fundID)
		if err != nil {
			return err
		}
		if fund.Status != models.FundOpen {
			return apperr.E(apperr.ErrInvalidState, "fund %d is %s, cannot allocate", fundID, fund.Status)
		}
		loan, err := tx.FindLoan(ctx, orgID, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanActive {
			return apperr.E(apperr.ErrInvalidState, "loan %d is %s, cannot receive allocation", loanID, loan.Status)
		}
		agg, err := tx.FundAggregates(ctx, fundID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(agg.Available) {
			return apperr.E(apperr.ErrInsufficientCapital,
				"allocation %s exceeds available capital %s (fund %d, loan %d, org %d)", amount, agg.Available, fundID, loanID, orgID)
		}
		return tx.InsertAllocation(ctx, allocation)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, fundID)
	s.log.Infof("Allocation %d: fund %d -> loan %d, amount %s (org %d)", allocation.ID, fundID, loanID, amount, orgID)
	return allocation, nil
}

// ReturnFromLoan returns capital from a loan to its funding allocations,
// oldest first. Returning more than the outstanding allocated amount is
// rejected.
func (s *Service) ReturnFromLoan(ctx context.Context, orgID, loanID int64, amount decimal.Decimal, date time.Time) ([]models.Allocation, error) {
	if !amount.IsPositive() {
		return nil, apperr.E(apperr.ErrInvalidInput, "return amount must be positive, got %s (loan %d, org %d)", amount, loanID, orgID)
	}

	var updated []models.Allocation
	fundIDs := map[int64]struct{}{}
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		allocations, err := tx.LockActiveAllocations(ctx, orgID, loanID)
		if err != nil {
			return err
		}
		if len(allocations) == 0 {
			return apperr.E(apperr.ErrNotFound, "no active allocation for loan %d (org %d)", loanID, orgID)
		}

		outstanding := decimal.Zero
		for i := range allocations {
			outstanding = outstanding.Add(allocations[i].Outstanding())
		}
		if amount.GreaterThan(outstanding) {
			return apperr.E(apperr.ErrInvalidInput,
				"return %s exceeds outstanding allocated %s (loan %d, org %d)", amount, outstanding, loanID, orgID)
		}

		remaining := amount
		for i := range allocations {
			if remaining.IsZero() {
				break
			}
			a := &allocations[i]
			portion := decimal.Min(remaining, a.Outstanding())
			a.ReturnedAmount = a.ReturnedAmount.Add(portion)
			if a.ReturnedAmount.Equal(a.Amount) {
				a.Status = models.AllocationReturned
			}
			if err := tx.UpdateAllocation(ctx, a); err != nil {
				return err
			}
			remaining = remaining.Sub(portion)
			updated = append(updated, *a)
			fundIDs[a.FundID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for fundID := range fundIDs {
		s.invalidateSummary(ctx, fundID)
	}
	s.log.Infof("Return of %s from loan %d on %s applied across %d allocation(s) (org %d)",
		amount, loanID, date.Format("2006-01-02"), len(updated), orgID)
	return updated, nil
}

// CloseFund transitions a fund to closed. Closed funds reject commitments,
// capital calls and allocations.
func (s *Service) CloseFund(ctx context.Context, orgID, fundID, closedBy int64) (*models.Fund, error) {
	var fund *models.Fund
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		f, err := tx.LockFund(ctx, orgID, fundID)
		if err != nil {
			return err
		}
		if f.Status == models.FundClosed {
			return apperr.E(apperr.ErrInvalidState, "fund %d is already closed", fundID)
		}
		now := time.Now()
		f.Status = models.FundClosed
		f.ClosedBy = closedBy
		f.ClosedAt = &now
		if err := tx.UpdateFundStatus(ctx, f); err != nil {
			return err
		}
		fund = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, fundID)
	s.log.Infof("Fund %d closed by %d (org %d)", fundID, closedBy, orgID)
	return fund, nil
}

// GetFundSummary returns aggregate capital figures, read through the cache.
func (s *Service) GetFundSummary(ctx context.Context, orgID, fundID int64) (*models.FundSummary, error) {
	if _, err := s.repo.FindFund(ctx, orgID, fundID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if summary, ok := s.cache.GetSummary(ctx, fundID); ok {
			return summary, nil
		}
	}
	var summary *models.FundSummary
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		var err error
		summary, err = tx.FundAggregates(ctx, fundID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, summary); err != nil {
			s.log.Errorf("Failed to cache summary for fund %d: %v", fundID, err)
		}
	}
	return summary, nil
}

func (s *Service) invalidateSummary(ctx context.Context, fundID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fundID); err != nil {
		s.log.Errorf("Failed to invalidate summary cache for fund %d: %v", fundID, err)
	}
}
