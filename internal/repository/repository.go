package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lendcore/lending-os/internal/models"
)

// Store provides database operations. Balance-affecting writes go through
// InTx so that every capital mutation reads and writes inside a single
// transaction.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateLender(ctx context.Context, lender *models.Lender) error
	ListLenders(ctx context.Context, orgID int64) ([]models.Lender, error)
	FindLender(ctx context.Context, orgID, lenderID int64) (*models.Lender, error)
	LendersWithActiveCommitments(ctx context.Context, orgID, fundID int64) ([]models.Lender, error)

	CreateLoan(ctx context.Context, loan *models.Loan) error
	FindLoan(ctx context.Context, orgID, loanID int64) (*models.Loan, error)
	ListLoans(ctx context.Context, orgID int64) ([]models.Loan, error)

	CreateFund(ctx context.Context, fund *models.Fund) error
	FindFund(ctx context.Context, orgID, fundID int64) (*models.Fund, error)

	ListSchedule(ctx context.Context, orgID, loanID int64) ([]models.PaymentScheduleEntry, error)
	EntriesDueBefore(ctx context.Context, cutoff time.Time) ([]models.InstallmentDue, error)
}

// Tx exposes the operations available inside a transaction. Lock methods
// take row-level locks so concurrent mutations against the same fund
// serialize instead of both passing a stale sufficiency check.
type Tx interface {
	LockFund(ctx context.Context, orgID, fundID int64) (*models.Fund, error)
	UpdateFundStatus(ctx context.Context, fund *models.Fund) error
	FundAggregates(ctx context.Context, fundID int64) (*models.FundSummary, error)

	FindLoan(ctx context.Context, orgID, loanID int64) (*models.Loan, error)
	UpdateLoanStatus(ctx context.Context, loan *models.Loan) error
	ReplaceSchedule(ctx context.Context, loanID int64, entries []models.PaymentScheduleEntry) error

	InsertCommitment(ctx context.Context, c *models.FundCommitment) error
	LockCommitment(ctx context.Context, orgID, commitmentID int64) (*models.FundCommitment, error)
	UpdateCommitment(ctx context.Context, c *models.FundCommitment) error

	InsertCapitalCall(ctx context.Context, call *models.CapitalCall) error

	InsertAllocation(ctx context.Context, a *models.Allocation) error
	LockActiveAllocations(ctx context.Context, orgID, loanID int64) ([]models.Allocation, error)
	UpdateAllocation(ctx context.Context, a *models.Allocation) error
}

// Repository implements Store against PostgreSQL
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// InTx runs fn inside a single transaction, rolling back on error.
func (r *Repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&txRepo{q: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txRepo implements Tx over an open *sql.Tx
type txRepo struct {
	q querier
}
