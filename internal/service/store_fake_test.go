package service

import (
	"context"
	"time"

	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
	"github.com/lendcore/lending-os/internal/repository"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store/Tx used by service tests. Operations
// validate before mutating, so a failed call leaves state untouched just
// like a rolled-back transaction.
type fakeStore struct {
	nextID      int64
	users       map[string]*models.User
	lenders     map[int64]*models.Lender
	loans       map[int64]*models.Loan
	funds       map[int64]*models.Fund
	commitments map[int64]*models.FundCommitment
	calls       map[int64]*models.CapitalCall
	allocations map[int64]*models.Allocation
	schedules   map[int64][]models.PaymentScheduleEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]*models.User{},
		lenders:     map[int64]*models.Lender{},
		loans:       map[int64]*models.Loan{},
		funds:       map[int64]*models.Fund{},
		commitments: map[int64]*models.FundCommitment{},
		calls:       map[int64]*models.CapitalCall{},
		allocations: map[int64]*models.Allocation{},
		schedules:   map[int64][]models.PaymentScheduleEntry{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(f)
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = f.id()
	f.users[user.Email] = user
	return nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, apperr.E(apperr.ErrNotFound, "user %s", email)
	}
	return user, nil
}

func (f *fakeStore) CreateLender(ctx context.Context, lender *models.Lender) error {
	lender.ID = f.id()
	f.lenders[lender.ID] = lender
	return nil
}

func (f *fakeStore) FindLender(ctx context.Context, orgID, lenderID int64) (*models.Lender, error) {
	lender, ok := f.lenders[lenderID]
	if !ok || lender.OrganizationID != orgID {
		return nil, apperr.E(apperr.ErrNotFound, "lender %d (org %d)", lenderID, orgID)
	}
	return lender, nil
}

func (f *fakeStore) ListLenders(ctx context.Context, orgID int64) ([]models.Lender, error) {
	var out []models.Lender
	for _, l := range f.lenders {
		if l.OrganizationID == orgID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) LendersWithActiveCommitments(ctx context.Context, orgID, fundID int64) ([]models.Lender, error) {
	seen := map[int64]bool{}
	var out []models.Lender
	for _, c := range f.commitments {
		if c.FundID != fundID || c.Status != models.CommitmentActive || seen[c.LenderID] {
			continue
		}
		if l, ok := f.lenders[c.LenderID]; ok && l.OrganizationID == orgID {
			out = append(out, *l)
			seen[c.LenderID] = true
		}
	}
	return out, nil
}

func (f *fakeStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	loan.ID = f.id()
	f.loans[loan.ID] = loan
	return nil
}

func (f *fakeStore) FindLoan(ctx context.Context, orgID, loanID int64) (*models.Loan, error) {
	loan, ok := f.loans[loanID]
	if !ok || loan.OrganizationID != orgID {
		return nil, apperr.E(apperr.ErrNotFound, "loan %d (org %d)", loanID, orgID)
	}
	cp := *loan
	return &cp, nil
}

func (f *fakeStore) ListLoans(ctx context.Context, orgID int64) ([]models.Loan, error) {
	var out []models.Loan
	for _, l := range f.loans {
		if l.OrganizationID == orgID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateFund(ctx context.Context, fund *models.Fund) error {
	fund.ID = f.id()
	f.funds[fund.ID] = fund
	return nil
}

func (f *fakeStore) FindFund(ctx context.Context, orgID, fundID int64) (*models.Fund, error) {
	fund, ok := f.funds[fundID]
	if !ok || fund.OrganizationID != orgID {
		return nil, apperr.E(apperr.ErrNotFound, "fund %d (org %d)", fundID, orgID)
	}
	cp := *fund
	return &cp, nil
}

func (f *fakeStore) ListSchedule(ctx context.Context, orgID, loanID int64) ([]models.PaymentScheduleEntry, error) {
	return f.schedules[loanID], nil
}

func (f *fakeStore) EntriesDueBefore(ctx context.Context, cutoff time.Time) ([]models.InstallmentDue, error) {
	var out []models.InstallmentDue
	for loanID, entries := range f.schedules {
		loan := f.loans[loanID]
		if loan == nil || loan.Status != models.LoanActive {
			continue
		}
		for _, e := range entries {
			if !e.DueDate.After(cutoff) {
				out = append(out, models.InstallmentDue{
					Entry:         e,
					BorrowerName:  loan.BorrowerName,
					BorrowerEmail: loan.BorrowerEmail,
				})
			}
		}
	}
	return out, nil
}

// Tx methods

func (f *fakeStore) LockFund(ctx context.Context, orgID, fundID int64) (*models.Fund, error) {
	fund, ok := f.funds[fundID]
	if !ok || fund.OrganizationID != orgID {
		return nil, apperr.E(apperr.ErrNotFound, "fund %d (org %d)", fundID, orgID)
	}
	return fund, nil
}

func (f *fakeStore) UpdateFundStatus(ctx context.Context, fund *models.Fund) error {
	f.funds[fund.ID] = fund
	return nil
}

func (f *fakeStore) FundAggregates(ctx context.Context, fundID int64) (*models.FundSummary, error) {
	s := &models.FundSummary{
		FundID:         fundID,
		TotalCommitted: decimal.Zero,
		TotalCalled:    decimal.Zero,
		TotalAllocated: decimal.Zero,
		TotalReturned:  decimal.Zero,
	}
	for _, c := range f.commitments {
		if c.FundID == fundID && c.Status == models.CommitmentActive {
			s.TotalCommitted = s.TotalCommitted.Add(c.CommittedAmount)
		}
	}
	for _, call := range f.calls {
		if call.FundID == fundID {
			s.TotalCalled = s.TotalCalled.Add(call.Amount)
		}
	}
	for _, a := range f.allocations {
		if a.FundID == fundID {
			s.TotalAllocated = s.TotalAllocated.Add(a.Amount)
			s.TotalReturned = s.TotalReturned.Add(a.ReturnedAmount)
		}
	}
	s.Available = s.TotalCommitted.Sub(s.TotalAllocated.Sub(s.TotalReturned))
	return s, nil
}

func (f *fakeStore) UpdateLoanStatus(ctx context.Context, loan *models.Loan) error {
	stored, ok := f.loans[loan.ID]
	if !ok {
		return apperr.E(apperr.ErrNotFound, "loan %d", loan.ID)
	}
	stored.Status = loan.Status
	return nil
}

func (f *fakeStore) ReplaceSchedule(ctx context.Context, loanID int64, entries []models.PaymentScheduleEntry) error {
	stored := make([]models.PaymentScheduleEntry, len(entries))
	copy(stored, entries)
	for i := range stored {
		stored[i].ID = f.id()
	}
	f.schedules[loanID] = stored
	return nil
}

func (f *fakeStore) InsertCommitment(ctx context.Context, c *models.FundCommitment) error {
	c.ID = f.id()
	cp := *c
	f.commitments[c.ID] = &cp
	return nil
}

func (f *fakeStore) LockCommitment(ctx context.Context, orgID, commitmentID int64) (*models.FundCommitment, error) {
	c, ok := f.commitments[commitmentID]
	if !ok || c.OrganizationID != orgID {
		return nil, apperr.E(apperr.ErrNotFound, "commitment %d (org %d)", commitmentID, orgID)
	}
	return c, nil
}

func (f *fakeStore) UpdateCommitment(ctx context.Context, c *models.FundCommitment) error {
	f.commitments[c.ID] = c
	return nil
}

func (f *fakeStore) InsertCapitalCall(ctx context.Context, call *models.CapitalCall) error {
	call.ID = f.id()
	cp := *call
	f.calls[call.ID] = &cp
	return nil
}

func (f *fakeStore) InsertAllocation(ctx context.Context, a *models.Allocation) error {
	a.ID = f.id()
	cp := *a
	f.allocations[a.ID] = &cp
	return nil
}

func (f *fakeStore) LockActiveAllocations(ctx context.Context, orgID, loanID int64) ([]models.Allocation, error) {
	var out []models.Allocation
	for _, a := range f.allocations {
		if a.LoanID == loanID && a.OrganizationID == orgID && a.Status == models.AllocationActive {
			out = append(out, *a)
		}
	}
	// oldest first, id as tiebreaker
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].AllocatedAt.Before(out[i].AllocatedAt) ||
				(out[j].AllocatedAt.Equal(out[i].AllocatedAt) && out[j].ID < out[i].ID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateAllocation(ctx context.Context, a *models.Allocation) error {
	cp := *a
	f.allocations[a.ID] = &cp
	return nil
}
