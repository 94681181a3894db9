package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/client"
)

// AllocationMode selects which side of an allocation the user typed.
type AllocationMode string

const (
	ModePercentage AllocationMode = "percentage"
	ModeAmount     AllocationMode = "amount"
)

var hundred = decimal.NewFromInt(100)

// AllocationHeader identifies the cost centre receiving allocations.
type AllocationHeader struct {
	CostCentreType    string
	CostCentreSubType string
	CCNo              string
	FiscalYear        string
	Remarks           string
}

// SubAllocationRow is one sub-DCA amount under an allocation row.
type SubAllocationRow struct {
	SubCode string
	Name    string
	Amount  decimal.Decimal
}

// AllocationRow is one DCA allocation kept consistent in both entry
// directions. Amount is the unit of record; percentage is a derived
// view recomputed from amount and the fixed pool size.
type AllocationRow struct {
	DCACode        string
	DCAName        string
	Percentage     decimal.Decimal
	AssignedAmount decimal.Decimal
	ConsumedAmount decimal.Decimal
	SubAllocations []SubAllocationRow
}

// AllocationSession edits a set of DCA allocations against one fixed
// budget pool. The pool is read, never mutated; the session tracks a
// running remaining balance and reports overallocation without
// blocking further edits. One session per submission; not safe for
// concurrent use.
type AllocationSession struct {
	ID             string
	header         AllocationHeader
	approvedBudget decimal.Decimal
	balanceBudget  decimal.Decimal

	rows  []AllocationRow
	index map[string]int
}

// NewAllocationSession seeds a session with zero-amount rows for every
// allocatable DCA under the pool.
func NewAllocationSession(header AllocationHeader, pool client.CostCentreBudget, dcas []client.DCAOption) *AllocationSession {
	s := &AllocationSession{
		ID:             uuid.NewString(),
		header:         header,
		approvedBudget: pool.CCBudget,
		balanceBudget:  pool.BalanceBudget,
		index:          make(map[string]int, len(dcas)),
	}
	for _, dca := range dcas {
		row := AllocationRow{DCACode: dca.Code, DCAName: dca.Name}
		for _, sub := range dca.SubDCAs {
			row.SubAllocations = append(row.SubAllocations, SubAllocationRow{
				SubCode: sub.SubCode,
				Name:    sub.Name,
			})
		}
		s.index[dca.Code] = len(s.rows)
		s.rows = append(s.rows, row)
	}
	return s
}

// Header returns the session's identification fields.
func (s *AllocationSession) Header() AllocationHeader { return s.header }

// ApprovedBudget returns the fixed pool size.
func (s *AllocationSession) ApprovedBudget() decimal.Decimal { return s.approvedBudget }

// Rows returns a copy of the current allocation rows.
func (s *AllocationSession) Rows() []AllocationRow {
	return append([]AllocationRow(nil), s.rows...)
}

// ── Mutation ──────────────────────────────────────────────────────────────────

// SetAllocation applies one edit in either entry direction and keeps
// the other side derived:
//
//	percentage mode: amount = raw/100 × approvedBudget
//	amount mode:     percentage = raw/approvedBudget × 100
//
// Non-numeric or negative input clamps to zero; bad input never
// errors. The returned flag is true when the edit drove the remaining
// balance negative — a warning, not a rejection, since the user may
// correct later rows.
func (s *AllocationSession) SetAllocation(dcaCode, raw string, mode AllocationMode) (overallocated bool, err error) {
	i, ok := s.index[dcaCode]
	if !ok {
		return false, apperr.NotFound("dca", dcaCode)
	}

	value := coerceDecimal(raw)
	row := &s.rows[i]

	switch mode {
	case ModePercentage:
		row.Percentage = value
		row.AssignedAmount = value.Div(hundred).Mul(s.approvedBudget).Round(2)
	case ModeAmount:
		row.AssignedAmount = value.Round(2)
		if s.approvedBudget.IsZero() {
			row.Percentage = decimal.Zero
		} else {
			row.Percentage = value.Div(s.approvedBudget).Mul(hundred).Round(4)
		}
	default:
		return false, apperr.InvalidInput("mode", "mode must be percentage or amount")
	}

	return s.RemainingBalance().IsNegative(), nil
}

// SetSubAllocation sets one sub-DCA amount. Sub amounts are informative
// split lines under a row; they clamp like allocations do.
func (s *AllocationSession) SetSubAllocation(dcaCode, subCode, raw string) error {
	i, ok := s.index[dcaCode]
	if !ok {
		return apperr.NotFound("dca", dcaCode)
	}
	for j := range s.rows[i].SubAllocations {
		if s.rows[i].SubAllocations[j].SubCode == subCode {
			s.rows[i].SubAllocations[j].Amount = coerceDecimal(raw).Round(2)
			return nil
		}
	}
	return apperr.NotFound("subDca", subCode)
}

// RemainingBalance is balanceBudget minus the sum of all assigned
// amounts, recomputed over every row.
func (s *AllocationSession) RemainingBalance() decimal.Decimal {
	total := decimal.Zero
	for _, row := range s.rows {
		total = total.Add(row.AssignedAmount)
	}
	return s.balanceBudget.Sub(total)
}

// ── Submission ────────────────────────────────────────────────────────────────

// ValidateForSubmit checks everything that must hold before the
// payload leaves the process: a non-negative remaining balance, the
// required identification fields, and at least one non-zero
// allocation. Validation runs locally so no round-trip is wasted.
func (s *AllocationSession) ValidateForSubmit() error {
	if s.RemainingBalance().IsNegative() {
		return apperr.New(apperr.CodeValidation,
			"allocations exceed the remaining budget balance")
	}
	if s.header.CostCentreType == "" {
		return apperr.InvalidInput("costCentreType", "cost centre type is required")
	}
	if s.header.CostCentreSubType == "" {
		return apperr.InvalidInput("costCentreSubType", "cost centre sub-type is required")
	}
	if s.header.CCNo == "" {
		return apperr.InvalidInput("ccNo", "cost centre code is required")
	}
	if s.header.Remarks == "" {
		return apperr.InvalidInput("remarks", "remarks are required")
	}

	for _, row := range s.rows {
		if !row.AssignedAmount.IsZero() {
			return nil
		}
	}
	return apperr.New(apperr.CodeValidation, "at least one non-zero allocation is required")
}

// BuildSubmission produces the minimal payload: rows with a zero
// assigned amount are dropped, and each kept row's sub-allocations are
// filtered to entries with a positive amount.
func (s *AllocationSession) BuildSubmission() *client.AssignDCABudgetRequest {
	req := &client.AssignDCABudgetRequest{
		CostCentreType:    s.header.CostCentreType,
		CostCentreSubType: s.header.CostCentreSubType,
		CCNo:              s.header.CCNo,
		FiscalYear:        s.header.FiscalYear,
		Remarks:           s.header.Remarks,
	}

	for _, row := range s.rows {
		if row.AssignedAmount.IsZero() {
			continue
		}
		entry := client.DCAAllocationEntry{
			DCACode:        row.DCACode,
			DCAName:        row.DCAName,
			Percentage:     row.Percentage,
			AssignedAmount: row.AssignedAmount,
		}
		for _, sub := range row.SubAllocations {
			if sub.Amount.IsPositive() {
				entry.SubDCAs = append(entry.SubDCAs, client.SubDCAAllocation{
					SubDCACode: sub.SubCode,
					Amount:     sub.Amount,
				})
			}
		}
		req.Allocations = append(req.Allocations, entry)
	}
	return req
}

// coerceDecimal parses raw, clamping non-numeric and negative input to
// zero.
func coerceDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
