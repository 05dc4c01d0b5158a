package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentScheduleEntry represents one installment of a loan's schedule
type PaymentScheduleEntry struct {
	ID                int64           `json:"id"`
	LoanID            int64           `json:"loan_id"`
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	CreatedAt         time.Time       `json:"created_at"`
}
