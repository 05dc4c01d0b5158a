package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommitmentStatus is the lifecycle state of a fund commitment.
type CommitmentStatus string

const (
	CommitmentActive    CommitmentStatus = "active"
	CommitmentCancelled CommitmentStatus = "cancelled"
)

// FundCommitment is a lender's pledge of capital to a fund
type FundCommitment struct {
	ID              int64            `json:"id"`
	OrganizationID  int64            `json:"organization_id"`
	FundID          int64            `json:"fund_id"`
	LenderID        int64            `json:"lender_id"`
	CommittedAmount decimal.Decimal  `json:"committed_amount"`
	CommitmentDate  time.Time        `json:"commitment_date"`
	Status          CommitmentStatus `json:"status"`
	CancelledBy     int64            `json:"cancelled_by,omitempty"`
	CancelReason    string           `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
