package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
)

// CreateLoan creates a new loan in the database
func (r *Repository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO lending.loans (organization_id, borrower_name, borrower_email, principal, annual_rate_pct, term_months, start_date, loan_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		loan.OrganizationID, loan.BorrowerName, loan.BorrowerEmail, loan.Principal, loan.AnnualRatePct,
		loan.TermMonths, loan.StartDate, loan.Type, loan.Status).
		Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

const loanColumns = `id, organization_id, borrower_name, borrower_email, principal, annual_rate_pct, term_months, start_date, loan_type, status, created_at, updated_at`

func scanLoan(row interface{ Scan(...interface{}) error }, loan *models.Loan) error {
	return row.Scan(&loan.ID, &loan.OrganizationID, &loan.BorrowerName, &loan.BorrowerEmail,
		&loan.Principal, &loan.AnnualRatePct, &loan.TermMonths, &loan.StartDate, &loan.Type,
		&loan.Status, &loan.CreatedAt, &loan.UpdatedAt)
}

func findLoan(ctx context.Context, q querier, orgID, loanID int64, forUpdate bool) (*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM lending.loans WHERE id = $1 AND organization_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	loan := &models.Loan{}
	err := scanLoan(q.QueryRowContext(ctx, query, loanID, orgID), loan)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.ErrNotFound, "loan %d (org %d)", loanID, orgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// FindLoan retrieves a loan scoped by organization
func (r *Repository) FindLoan(ctx context.Context, orgID, loanID int64) (*models.Loan, error) {
	return findLoan(ctx, r.db, orgID, loanID, false)
}

// FindLoan retrieves and locks a loan inside the transaction
func (t *txRepo) FindLoan(ctx context.Context, orgID, loanID int64) (*models.Loan, error) {
	return findLoan(ctx, t.q, orgID, loanID, true)
}

// ListLoans lists all loans for an organization
func (r *Repository) ListLoans(ctx context.Context, orgID int64) ([]models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM lending.loans WHERE organization_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		var l models.Loan
		if err := scanLoan(rows, &l); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// UpdateLoanStatus persists a loan status transition
func (t *txRepo) UpdateLoanStatus(ctx context.Context, loan *models.Loan) error {
	query := `
		UPDATE lending.loans SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND organization_id = $3`
	if _, err := t.q.ExecContext(ctx, query, loan.Status, loan.ID, loan.OrganizationID); err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	return nil
}

// ReplaceSchedule atomically swaps the full installment set for a loan.
// Runs inside the surrounding transaction so no partial state is visible.
func (t *txRepo) ReplaceSchedule(ctx context.Context, loanID int64, entries []models.PaymentScheduleEntry) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM lending.payment_schedule_entries WHERE loan_id = $1`, loanID); err != nil {
		return fmt.Errorf("failed to clear schedule for loan %d: %w", loanID, err)
	}
	query := `
		INSERT INTO lending.payment_schedule_entries (loan_id, installment_number, due_date, principal_amount, interest_amount, total_amount, remaining_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	for i := range entries {
		e := &entries[i]
		err := t.q.QueryRowContext(ctx, query, loanID, e.InstallmentNumber, e.DueDate,
			e.PrincipalAmount, e.InterestAmount, e.TotalAmount, e.RemainingBalance).
			Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert installment %d for loan %d: %w", e.InstallmentNumber, loanID, err)
		}
	}
	return nil
}

const entryColumns = `e.id, e.loan_id, e.installment_number, e.due_date, e.principal_amount, e.interest_amount, e.total_amount, e.remaining_balance, e.created_at`

func scanEntries(rows *sql.Rows) ([]models.PaymentScheduleEntry, error) {
	var entries []models.PaymentScheduleEntry
	for rows.Next() {
		var e models.PaymentScheduleEntry
		if err := rows.Scan(&e.ID, &e.LoanID, &e.InstallmentNumber, &e.DueDate,
			&e.PrincipalAmount, &e.InterestAmount, &e.TotalAmount, &e.RemainingBalance, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListSchedule returns the ordered installment set for a loan
func (r *Repository) ListSchedule(ctx context.Context, orgID, loanID int64) ([]models.PaymentScheduleEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM lending.payment_schedule_entries e
		WHERE e.loan_id = $1
		  AND EXISTS (SELECT 1 FROM lending.loans l WHERE l.id = e.loan_id AND l.organization_id = $2)
		ORDER BY e.installment_number`
	rows, err := r.db.QueryContext(ctx, query, loanID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// EntriesDueBefore returns installments of active loans due before cutoff
// along with borrower contacts, used by the reminder job.
func (r *Repository) EntriesDueBefore(ctx context.Context, cutoff time.Time) ([]models.InstallmentDue, error) {
	query := `
		SELECT ` + entryColumns + `, l.borrower_name, l.borrower_email
		FROM lending.payment_schedule_entries e
		JOIN lending.loans l ON l.id = e.loan_id
		WHERE l.status = 'active' AND e.due_date <= $1
		ORDER BY e.due_date`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list due entries: %w", err)
	}
	defer rows.Close()

	var due []models.InstallmentDue
	for rows.Next() {
		var d models.InstallmentDue
		e := &d.Entry
		if err := rows.Scan(&e.ID, &e.LoanID, &e.InstallmentNumber, &e.DueDate,
			&e.PrincipalAmount, &e.InterestAmount, &e.TotalAmount, &e.RemainingBalance, &e.CreatedAt,
			&d.BorrowerName, &d.BorrowerEmail); err != nil {
			return nil, fmt.Errorf("failed to scan due entry: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}
