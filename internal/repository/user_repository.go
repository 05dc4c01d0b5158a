package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/models"
)

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO lending.users (organization_id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.OrganizationID, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, organization_id, username, email, password_hash, created_at
		FROM lending.users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.OrganizationID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.ErrNotFound, "user %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateLender creates a new lender in the database
func (r *Repository) CreateLender(ctx context.Context, lender *models.Lender) error {
	query := `
		INSERT INTO lending.lenders (organization_id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, lender.OrganizationID, lender.Name, lender.Email).
		Scan(&lender.ID, &lender.CreatedAt, &lender.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lender: %w", err)
	}
	return nil
}

// FindLender retrieves a lender scoped by organization
func (r *Repository) FindLender(ctx context.Context, orgID, lenderID int64) (*models.Lender, error) {
	lender := &models.Lender{}
	query := `
		SELECT id, organization_id, name, email, created_at, updated_at
		FROM lending.lenders
		WHERE id = $1 AND organization_id = $2`
	err := r.db.QueryRowContext(ctx, query, lenderID, orgID).
		Scan(&lender.ID, &lender.OrganizationID, &lender.Name, &lender.Email, &lender.CreatedAt, &lender.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.E(apperr.ErrNotFound, "lender %d (org %d)", lenderID, orgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lender: %w", err)
	}
	return lender, nil
}

// ListLenders lists all lenders for an organization
func (r *Repository) ListLenders(ctx context.Context, orgID int64) ([]models.Lender, error) {
	query := `
		SELECT id, organization_id, name, email, created_at, updated_at
		FROM lending.lenders
		WHERE organization_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lenders: %w", err)
	}
	defer rows.Close()

	var lenders []models.Lender
	for rows.Next() {
		var l models.Lender
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.Name, &l.Email, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lender: %w", err)
		}
		lenders = append(lenders, l)
	}
	return lenders, rows.Err()
}

// LendersWithActiveCommitments lists lenders holding active commitments in a fund
func (r *Repository) LendersWithActiveCommitments(ctx context.Context, orgID, fundID int64) ([]models.Lender, error) {
	query := `
		SELECT DISTINCT l.id, l.organization_id, l.name, l.email, l.created_at, l.updated_at
		FROM lending.lenders l
		JOIN lending.fund_commitments c ON c.lender_id = l.id
		WHERE l.organization_id = $1 AND c.fund_id = $2 AND c.status = 'active'
		ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, query, orgID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list committed lenders: %w", err)
	}
	defer rows.Close()

	var lenders []models.Lender
	for rows.Next() {
		var l models.Lender
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.Name, &l.Email, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lender: %w", err)
		}
		lenders = append(lenders, l)
	}
	return lenders, rows.Err()
}
