package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundStatus is the lifecycle state of a fund.
type FundStatus string

const (
	FundOpen   FundStatus = "open"
	FundClosed FundStatus = "closed"
)

// Fund pools lender commitments for deployment into loans
type Fund struct {
	ID             int64      `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	Name           string     `json:"name"`
	Status         FundStatus `json:"status"`
	ClosedBy       int64      `json:"closed_by,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FundSummary holds aggregate capital figures recomputed from ledger rows.
// Available capital is on the committed basis: active commitments minus
// active allocations.
type FundSummary struct {
	FundID         int64           `json:"fund_id"`
	TotalCommitted decimal.Decimal `json:"total_committed"`
	TotalCalled    decimal.Decimal `json:"total_called"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	TotalReturned  decimal.Decimal `json:"total_returned"`
	Available      decimal.Decimal `json:"available"`
}
