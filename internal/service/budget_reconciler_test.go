package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/client"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testHeader() AllocationHeader {
	return AllocationHeader{
		CostCentreType:    "100",
		CostCentreSubType: "A",
		CCNo:              "CC-001",
		Remarks:           "annual allocation",
	}
}

func testDCAs() []client.DCAOption {
	return []client.DCAOption{
		{Code: "ENG", Name: "Engineering", SubDCAs: []client.SubDCAOption{
			{SubCode: "ENG-1", Name: "Civil"},
			{SubCode: "ENG-2", Name: "Electrical"},
		}},
		{Code: "OPS", Name: "Operations"},
		{Code: "ADM", Name: "Administration"},
	}
}

func newTestAllocation(approved, balance string) *AllocationSession {
	pool := client.CostCentreBudget{CCBudget: dec(approved), BalanceBudget: dec(balance)}
	return NewAllocationSession(testHeader(), pool, testDCAs())
}

func TestSetAllocationPercentageMode(t *testing.T) {
	s := newTestAllocation("100000", "100000")

	over, err := s.SetAllocation("ENG", "25", ModePercentage)
	require.NoError(t, err)
	assert.False(t, over)

	row := s.Rows()[0]
	assert.True(t, row.AssignedAmount.Equal(dec("25000")), "got %s", row.AssignedAmount)
	assert.True(t, row.Percentage.Equal(dec("25")))
	assert.True(t, s.RemainingBalance().Equal(dec("75000")))
}

func TestSetAllocationAmountMode(t *testing.T) {
	s := newTestAllocation("100000", "100000")

	over, err := s.SetAllocation("OPS", "40000", ModeAmount)
	require.NoError(t, err)
	assert.False(t, over)

	row := s.Rows()[1]
	assert.True(t, row.AssignedAmount.Equal(dec("40000")))
	assert.True(t, row.Percentage.Equal(dec("40")))
}

func TestAmountTracksPercentageInBothModes(t *testing.T) {
	// assignedAmount must equal approvedBudget × percentage / 100 after
	// any edit, whichever side was typed.
	s := newTestAllocation("80000", "80000")

	cases := []struct {
		code string
		raw  string
		mode AllocationMode
	}{
		{"ENG", "12.5", ModePercentage},
		{"OPS", "20000", ModeAmount},
		{"ADM", "0.01", ModePercentage},
	}
	for _, c := range cases {
		_, err := s.SetAllocation(c.code, c.raw, c.mode)
		require.NoError(t, err)
	}

	for _, row := range s.Rows() {
		derived := s.ApprovedBudget().Mul(row.Percentage).Div(dec("100")).Round(2)
		assert.True(t, row.AssignedAmount.Sub(derived).Abs().LessThanOrEqual(dec("0.01")),
			"%s: amount %s vs derived %s", row.DCACode, row.AssignedAmount, derived)
	}
}

func TestOverallocationWarnsButDoesNotBlock(t *testing.T) {
	// approvedBudget=100000, balanceBudget=50000: 25% to ENG then
	// 40000 to OPS leaves remainingBalance at -15000 with a warning,
	// and later edits still apply.
	s := newTestAllocation("100000", "50000")

	over, err := s.SetAllocation("ENG", "25", ModePercentage)
	require.NoError(t, err)
	assert.False(t, over)

	over, err = s.SetAllocation("OPS", "40000", ModeAmount)
	require.NoError(t, err)
	assert.True(t, over)
	assert.True(t, s.RemainingBalance().Equal(dec("-15000")), "got %s", s.RemainingBalance())

	// The user corrects a row afterwards; the session never blocked.
	over, err = s.SetAllocation("ENG", "10000", ModeAmount)
	require.NoError(t, err)
	assert.False(t, over)
	assert.True(t, s.RemainingBalance().Equal(dec("0")))
}

func TestNonNumericInputClampsToZero(t *testing.T) {
	s := newTestAllocation("100000", "100000")

	for _, raw := range []string{"abc", "", "12,5", "-300"} {
		over, err := s.SetAllocation("ENG", raw, ModeAmount)
		require.NoError(t, err, "raw %q must not error", raw)
		assert.False(t, over)
		assert.True(t, s.Rows()[0].AssignedAmount.IsZero(), "raw %q", raw)
	}
}

func TestSetAllocationUnknownDCA(t *testing.T) {
	s := newTestAllocation("100000", "100000")
	_, err := s.SetAllocation("NOPE", "10", ModePercentage)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestValidateForSubmit(t *testing.T) {
	t.Run("overallocated", func(t *testing.T) {
		s := newTestAllocation("100000", "50000")
		_, err := s.SetAllocation("ENG", "60000", ModeAmount)
		require.NoError(t, err)
		err = s.ValidateForSubmit()
		assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	})

	t.Run("missing remarks", func(t *testing.T) {
		header := testHeader()
		header.Remarks = ""
		s := NewAllocationSession(header, client.CostCentreBudget{
			CCBudget: dec("1000"), BalanceBudget: dec("1000"),
		}, testDCAs())
		_, err := s.SetAllocation("ENG", "10", ModePercentage)
		require.NoError(t, err)
		assert.True(t, apperr.IsCode(s.ValidateForSubmit(), apperr.CodeValidation))
	})

	t.Run("all allocations zero", func(t *testing.T) {
		s := newTestAllocation("100000", "100000")
		err := s.ValidateForSubmit()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one non-zero allocation")
	})

	t.Run("valid", func(t *testing.T) {
		s := newTestAllocation("100000", "100000")
		_, err := s.SetAllocation("ENG", "10", ModePercentage)
		require.NoError(t, err)
		assert.NoError(t, s.ValidateForSubmit())
	})
}

func TestBuildSubmissionFiltersZeroRows(t *testing.T) {
	s := newTestAllocation("100000", "100000")

	_, err := s.SetAllocation("ENG", "25", ModePercentage)
	require.NoError(t, err)
	require.NoError(t, s.SetSubAllocation("ENG", "ENG-1", "15000"))
	require.NoError(t, s.SetSubAllocation("ENG", "ENG-2", "0"))

	req := s.BuildSubmission()
	require.Len(t, req.Allocations, 1, "zero rows dropped")
	entry := req.Allocations[0]
	assert.Equal(t, "ENG", entry.DCACode)
	require.Len(t, entry.SubDCAs, 1, "zero sub-amounts dropped")
	assert.Equal(t, "ENG-1", entry.SubDCAs[0].SubDCACode)

	assert.Equal(t, "CC-001", req.CCNo)
	assert.Equal(t, "annual allocation", req.Remarks)
}
