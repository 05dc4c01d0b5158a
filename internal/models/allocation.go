package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationStatus is the lifecycle state of an allocation.
type AllocationStatus string

const (
	AllocationActive   AllocationStatus = "active"
	AllocationReturned AllocationStatus = "returned"
)

// Allocation is capital drawn from a fund and deployed into a loan.
// ReturnedAmount tracks partial returns; the allocation flips to returned
// once the full amount has come back.
type Allocation struct {
	ID             int64            `json:"id"`
	OrganizationID int64            `json:"organization_id"`
	FundID         int64            `json:"fund_id"`
	LoanID         int64            `json:"loan_id"`
	Amount         decimal.Decimal  `json:"amount"`
	ReturnedAmount decimal.Decimal  `json:"returned_amount"`
	Status         AllocationStatus `json:"status"`
	AllocatedAt    time.Time        `json:"allocated_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Outstanding is the allocated amount not yet returned.
func (a *Allocation) Outstanding() decimal.Decimal {
	return a.Amount.Sub(a.ReturnedAmount)
}
