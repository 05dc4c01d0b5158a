package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapitalCall is a request for lenders to fund part of their commitments
type CapitalCall struct {
	ID             int64           `json:"id"`
	OrganizationID int64           `json:"organization_id"`
	FundID         int64           `json:"fund_id"`
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	CreatedAt      time.Time       `json:"created_at"`
}
