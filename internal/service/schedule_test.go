package service

import (
	"context"
	"testing"
	"time"

	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/config"
	"github.com/lendcore/lending-os/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store *fakeStore) *Service {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewService(store, log, &config.Config{JWTSecret: "test-secret"}, nil, nil, nil)
}

func testLoan(principal string, ratePct string, term int, loanType models.LoanType) *models.Loan {
	return &models.Loan{
		ID:            1,
		Principal:     decimal.RequireFromString(principal),
		AnnualRatePct: decimal.RequireFromString(ratePct),
		TermMonths:    term,
		StartDate:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Type:          loanType,
	}
}

func TestGenerateScheduleAmortizing(t *testing.T) {
	loan := testLoan("12000", "12", 12, models.LoanAmortizing)

	entries, err := GenerateSchedule(loan)
	require.NoError(t, err)
	require.Len(t, entries, 12)

	first := entries[0]
	assert.Equal(t, 1, first.InstallmentNumber)
	assert.True(t, first.InterestAmount.Equal(decimal.RequireFromString("120.00")), "interest = %s", first.InterestAmount)
	assert.True(t, first.PrincipalAmount.Equal(decimal.RequireFromString("946.19")), "principal = %s", first.PrincipalAmount)
	assert.True(t, first.RemainingBalance.Equal(decimal.RequireFromString("11053.81")), "balance = %s", first.RemainingBalance)
	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), first.DueDate)

	last := entries[11]
	assert.True(t, last.RemainingBalance.IsZero(), "final balance = %s", last.RemainingBalance)

	principalSum := decimal.Zero
	for i, e := range entries {
		assert.Equal(t, i+1, e.InstallmentNumber)
		assert.True(t, e.TotalAmount.Equal(e.PrincipalAmount.Add(e.InterestAmount)))
		assert.False(t, e.PrincipalAmount.IsNegative())
		assert.False(t, e.InterestAmount.IsNegative())
		if i > 0 {
			assert.True(t, e.DueDate.After(entries[i-1].DueDate))
			assert.True(t, e.RemainingBalance.LessThan(entries[i-1].RemainingBalance))
		}
		principalSum = principalSum.Add(e.PrincipalAmount)
	}
	assert.True(t, principalSum.Equal(loan.Principal), "principal sum = %s", principalSum)
}

func TestGenerateScheduleZeroRate(t *testing.T) {
	loan := testLoan("1200", "0", 12, models.LoanAmortizing)

	entries, err := GenerateSchedule(loan)
	require.NoError(t, err)
	require.Len(t, entries, 12)

	for _, e := range entries[:11] {
		assert.True(t, e.InterestAmount.IsZero())
		assert.True(t, e.PrincipalAmount.Equal(decimal.RequireFromString("100")), "principal = %s", e.PrincipalAmount)
	}
	assert.True(t, entries[11].RemainingBalance.IsZero())
}

func TestGenerateScheduleZeroRateRounding(t *testing.T) {
	loan := testLoan("1000", "0", 12, models.LoanAmortizing)

	entries, err := GenerateSchedule(loan)
	require.NoError(t, err)

	principalSum := decimal.Zero
	for _, e := range entries {
		principalSum = principalSum.Add(e.PrincipalAmount)
	}
	assert.True(t, principalSum.Equal(loan.Principal), "principal sum = %s", principalSum)
	assert.True(t, entries[len(entries)-1].RemainingBalance.IsZero())
}

func TestGenerateScheduleInterestOnly(t *testing.T) {
	loan := testLoan("10000", "12", 6, models.LoanInterestOnly)

	entries, err := GenerateSchedule(loan)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	for _, e := range entries[:5] {
		assert.True(t, e.PrincipalAmount.IsZero())
		assert.True(t, e.InterestAmount.Equal(decimal.RequireFromString("100.00")), "interest = %s", e.InterestAmount)
		assert.True(t, e.RemainingBalance.Equal(loan.Principal))
	}
	last := entries[5]
	assert.True(t, last.PrincipalAmount.Equal(loan.Principal))
	assert.True(t, last.TotalAmount.Equal(decimal.RequireFromString("10100.00")), "total = %s", last.TotalAmount)
	assert.True(t, last.RemainingBalance.IsZero())
}

func TestGenerateScheduleLongTermDrift(t *testing.T) {
	loan := testLoan("300000", "6.5", 360, models.LoanAmortizing)

	entries, err := GenerateSchedule(loan)
	require.NoError(t, err)
	require.Len(t, entries, 360)

	principalSum := decimal.Zero
	for _, e := range entries {
		assert.False(t, e.RemainingBalance.IsNegative())
		principalSum = principalSum.Add(e.PrincipalAmount)
	}
	assert.True(t, principalSum.Equal(loan.Principal), "principal sum = %s", principalSum)
	assert.True(t, entries[359].RemainingBalance.IsZero())
}

func TestGenerateScheduleInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		loan *models.Loan
	}{
		{"zero term", testLoan("1000", "5", 0, models.LoanAmortizing)},
		{"negative term", testLoan("1000", "5", -3, models.LoanAmortizing)},
		{"zero principal", testLoan("0", "5", 12, models.LoanAmortizing)},
		{"negative principal", testLoan("-100", "5", 12, models.LoanAmortizing)},
		{"negative rate", testLoan("1000", "-1", 12, models.LoanAmortizing)},
		{"unknown type", testLoan("1000", "5", 12, models.LoanType("balloon"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := GenerateSchedule(tc.loan)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Nil(t, entries)
		})
	}
}

func TestRegenerateScheduleReplacesPriorEntries(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	loan, err := svc.CreateLoan(ctx, 1, LoanInput{
		BorrowerName:  "Acme Industrial",
		Principal:     decimal.RequireFromString("12000"),
		AnnualRatePct: decimal.RequireFromString("12"),
		TermMonths:    12,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:          models.LoanAmortizing,
	})
	require.NoError(t, err)

	stored, err := svc.GetSchedule(ctx, 1, loan.ID)
	require.NoError(t, err)
	require.Len(t, stored, 12)

	// Shorten the term and regenerate: the old set must be fully replaced.
	store.loans[loan.ID].TermMonths = 6
	entries, err := svc.RegenerateSchedule(ctx, 1, loan.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	stored, err = svc.GetSchedule(ctx, 1, loan.ID)
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for i, e := range stored {
		assert.Equal(t, i+1, e.InstallmentNumber)
	}
}

func TestRegenerateScheduleUnknownLoan(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.RegenerateSchedule(context.Background(), 1, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateLoanInvalidTermsStoresNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.CreateLoan(context.Background(), 1, LoanInput{
		BorrowerName: "Acme Industrial",
		Principal:    decimal.RequireFromString("1000"),
		TermMonths:   0,
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Empty(t, store.loans)
	assert.Empty(t, store.schedules)
}
