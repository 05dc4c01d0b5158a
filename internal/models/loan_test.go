package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoanStatusTransitions(t *testing.T) {
	cases := []struct {
		from    LoanStatus
		to      LoanStatus
		allowed bool
	}{
		{LoanDraft, LoanActive, true},
		{LoanDraft, LoanCancelled, true},
		{LoanActive, LoanPaidOff, true},
		{LoanActive, LoanDefaulted, true},
		{LoanDraft, LoanPaidOff, false},
		{LoanActive, LoanCancelled, false},
		{LoanPaidOff, LoanActive, false},
		{LoanCancelled, LoanActive, false},
		{LoanDefaulted, LoanPaidOff, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
