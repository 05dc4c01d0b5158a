package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanType selects the schedule shape for a loan.
type LoanType string

const (
	LoanAmortizing   LoanType = "amortizing"
	LoanInterestOnly LoanType = "interest_only"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanDraft     LoanStatus = "draft"
	LoanActive    LoanStatus = "active"
	LoanPaidOff   LoanStatus = "paid_off"
	LoanDefaulted LoanStatus = "defaulted"
	LoanCancelled LoanStatus = "cancelled"
)

// loanTransitions lists the valid predecessor states per target state.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanActive:    {LoanDraft},
	LoanPaidOff:   {LoanActive},
	LoanDefaulted: {LoanActive},
	LoanCancelled: {LoanDraft},
}

// CanTransition reports whether a loan may move from its current status to next.
func (s LoanStatus) CanTransition(next LoanStatus) bool {
	for _, from := range loanTransitions[next] {
		if from == s {
			return true
		}
	}
	return false
}

// Loan represents a loan owned by an organization
type Loan struct {
	ID             int64           `json:"id"`
	OrganizationID int64           `json:"organization_id"`
	BorrowerName   string          `json:"borrower_name"`
	BorrowerEmail  string          `json:"borrower_email"`
	Principal      decimal.Decimal `json:"principal"`
	AnnualRatePct  decimal.Decimal `json:"annual_rate_percent"`
	TermMonths     int             `json:"term_months"`
	StartDate      time.Time       `json:"start_date"`
	Type           LoanType        `json:"type"`
	Status         LoanStatus      `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// InstallmentDue pairs a schedule entry with borrower contact details for
// reminder delivery.
type InstallmentDue struct {
	Entry         PaymentScheduleEntry `json:"entry"`
	BorrowerName  string               `json:"borrower_name"`
	BorrowerEmail string               `json:"borrower_email"`
}
