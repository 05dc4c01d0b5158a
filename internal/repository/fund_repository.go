package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
)

const fundColumns = `id, organization_id, name, status, closed_by, closed_at, created_at, updated_at`

func scanFund(row interface{ Scan(...interface{}) error }, fund *models.Fund) error {
	var closedBy sql.NullInt64
	if err := row.Scan(&fund.ID, &fund.OrganizationID, &fund.Name, &fund.Status,
		&closedBy, &fund.ClosedAt, &fund.CreatedAt, &fund.UpdatedAt); err != nil {
		return err
	}
	fund.ClosedBy = closedBy.Int64
	return nil
}

// CreateFund creates a new fund in the database
func (r *Repository) CreateFund(ctx context.Context, fund *models.Fund) error {
	query := `
		INSERT INTO lending.funds (organization_id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, fund.OrganizationID, fund.Name, fund.Status).
		Scan(&fund.ID, &fund.CreatedAt, &fund.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fund: %w", err)
	}
	return nil
}

// FindFund retrieves a fund scoped by organization
func (r *Repository) FindFund(ctx context.Context, orgID, fundID int64) (*models.Fund, error) {
	fund := &models.Fund{}
	query := `SELECT ` + fundColumns + ` FROM lending.funds WHERE id = $1 AND organization_id = $2`
	err := scanFund(r.db.QueryRowContext(ctx, query, fundID, orgID), fund)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.ErrNotFound, "fund %d (org %d)", fundID, orgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fund: %w", err)
	}
	return fund, nil
}

// LockFund retrieves the fund row with a row-level lock, serializing all
// capital mutations against that fund for the life of the transaction.
func (t *txRepo) LockFund(ctx context.Context, orgID, fundID int64) (*models.Fund, error) {
	fund := &models.Fund{}
	query := `SELECT ` + fundColumns + ` FROM lending.funds WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	err := scanFund(t.q.QueryRowContext(ctx, query, fundID, orgID), fund)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.ErrNotFound, "fund %d (org %d)", fundID, orgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock fund: %w", err)
	}
	return fund, nil
}

// UpdateFundStatus persists a fund status transition
func (t *txRepo) UpdateFundStatus(ctx context.Context, fund *models.Fund) error {
	query := `
		UPDATE lending.funds SET status = $1, closed_by = NULLIF($2, 0), closed_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND organization_id = $5`
	if _, err := t.q.ExecContext(ctx, query, fund.Status, fund.ClosedBy, fund.ClosedAt, fund.ID, fund.OrganizationID); err != nil {
		return fmt.Errorf("failed to update fund status: %w", err)
	}
	return nil
}

// FundAggregates recomputes capital totals from the ledger rows. Called
// inside the transaction holding the fund lock so the figures cannot go
// stale before the dependent write commits.
func (t *txRepo) FundAggregates(ctx context.Context, fundID int64) (*models.FundSummary, error) {
	s := &models.FundSummary{FundID: fundID}
	query := `
		SELECT
			COALESCE((SELECT SUM(committed_amount) FROM lending.fund_commitments WHERE fund_id = $1 AND status = 'active'), 0),
			COALESCE((SELECT SUM(amount) FROM lending.capital_calls WHERE fund_id = $1), 0),
			COALESCE((SELECT SUM(amount) FROM lending.allocations WHERE fund_id = $1), 0),
			COALESCE((SELECT SUM(returned_amount) FROM lending.allocations WHERE fund_id = $1), 0)`
	err := t.q.QueryRowContext(ctx, query, fundID).
		Scan(&s.TotalCommitted, &s.TotalCalled, &s.TotalAllocated, &s.TotalReturned)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate fund %d: %w", fundID, err)
	}
	s.Available = s.TotalCommitted.Sub(s.TotalAllocated.Sub(s.TotalReturned))
	return s, nil
}

const commitmentColumns = `id, organization_id, fund_id, lender_id, committed_amount, commitment_date, status, cancelled_by, cancel_reason, created_at, updated_at`

func scanCommitment(row interface{ Scan(...interface{}) error }, c *models.FundCommitment) error {
	var cancelledBy sql.NullInt64
	var reason sql.NullString
	if err := row.Scan(&c.ID, &c.OrganizationID, &c.FundID, &c.LenderID, &c.CommittedAmount,
		&c.CommitmentDate, &c.Status, &cancelledBy, &reason, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.CancelledBy = cancelledBy.Int64
	c.CancelReason = reason.String
	return nil
}

// InsertCommitment records a lender commitment within the transaction
func (t *txRepo) InsertCommitment(ctx context.Context, c *models.FundCommitment) error {
	query := `
		INSERT INTO lending.fund_commitments (organization_id, fund_id, lender_id, committed_amount, commitment_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := t.q.QueryRowContext(ctx, query, c.OrganizationID, c.FundID, c.LenderID,
		c.CommittedAmount, c.CommitmentDate, c.Status).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert commitment: %w", err)
	}
	return nil
}

// LockCommitment retrieves a commitment with a row-level lock
func (t *txRepo) LockCommitment(ctx context.Context, orgID, commitmentID int64) (*models.FundCommitment, error) {
	c := &models.FundCommitment{}
	query := `SELECT ` + commitmentColumns + ` FROM lending.fund_commitments WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	err := scanCommitment(t.q.QueryRowContext(ctx, query, commitmentID, orgID), c)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.ErrNotFound, "commitment %d (org %d)", commitmentID, orgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock commitment: %w", err)
	}
	return c, nil
}

// UpdateCommitment persists commitment status and cancellation fields
func (t *txRepo) UpdateCommitment(ctx context.Context, c *models.FundCommitment) error {
	query := `
		UPDATE lending.fund_commitments
		SET status = $1, cancelled_by = NULLIF($2, 0), cancel_reason = NULLIF($3, ''), updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND organization_id = $5`
	if _, err := t.q.ExecContext(ctx, query, c.Status, c.CancelledBy, c.CancelReason, c.ID, c.OrganizationID); err != nil {
		return fmt.Errorf("failed to update commitment: %w", err)
	}
	return nil
}

// InsertCapitalCall records a capital call within the transaction
func (t *txRepo) InsertCapitalCall(ctx context.Context, call *models.CapitalCall) error {
	query := `
		INSERT INTO lending.capital_calls (organization_id, fund_id, reference, amount, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := t.q.QueryRowContext(ctx, query, call.OrganizationID, call.FundID, call.Reference, call.Amount, call.DueDate).
		Scan(&call.ID, &call.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert capital call: %w", err)
	}
	return nil
}

// InsertAllocation records a fund-to-loan allocation within the transaction
func (t *txRepo) InsertAllocation(ctx context.Context, a *models.Allocation) error {
	query := `
		INSERT INTO lending.allocations (organization_id, fund_id, loan_id, amount, returned_amount, status, allocated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, updated_at`
	err := t.q.QueryRowContext(ctx, query, a.OrganizationID, a.FundID, a.LoanID,
		a.Amount, a.ReturnedAmount, a.Status, a.AllocatedAt).
		Scan(&a.ID, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

// LockActiveAllocations locks a loan's active allocations, oldest first,
// so concurrent returns against the same loan serialize.
func (t *txRepo) LockActiveAllocations(ctx context.Context, orgID, loanID int64) ([]models.Allocation, error) {
	query := `
		SELECT id, organization_id, fund_id, loan_id, amount, returned_amount, status, allocated_at, updated_at
		FROM lending.allocations
		WHERE loan_id = $1 AND organization_id = $2 AND status = 'active'
		ORDER BY allocated_at, id
		FOR UPDATE`
	rows, err := t.q.QueryContext(ctx, query, loanID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock allocations: %w", err)
	}
	defer rows.Close()

	var allocations []models.Allocation
	for rows.Next() {
		var a models.Allocation
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.FundID, &a.LoanID, &a.Amount,
			&a.ReturnedAmount, &a.Status, &a.AllocatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// UpdateAllocation persists returned amount and status changes
func (t *txRepo) UpdateAllocation(ctx context.Context, a *models.Allocation) error {
	query := `
		UPDATE lending.allocations
		SET returned_amount = $1, status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND organization_id = $4`
	if _, err := t.q.ExecContext(ctx, query, a.ReturnedAmount, a.Status, a.ID, a.OrganizationID); err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	return nil
}
