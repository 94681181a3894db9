package client

import "github.com/shopspring/decimal"

// ── Lookup shapes returned by the persistence service ─────────────────────────

// SubTypeOption is a cost-centre sub-type selectable under a type.
type SubTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CostCentreTypeOption is a cost-centre type with its sub-types.
type CostCentreTypeOption struct {
	Value    string          `json:"value"`
	Label    string          `json:"label"`
	SubTypes []SubTypeOption `json:"subType"`
}

// RoleOption is an approver role available for level assignment.
type RoleOption struct {
	RoleID   string `json:"roleId"`
	RoleName string `json:"roleName"`
}

// WorkflowCatalogEntry is one selectable workflow from the catalog menu.
type WorkflowCatalogEntry struct {
	GroupID                int    `json:"groupId"`
	Group                  string `json:"group"`
	WorkflowID             string `json:"workflowId"`
	WorkflowName           string `json:"workflowName"`
	IsCostCentreApplicable bool   `json:"isCostCentreApplicable"`
}

// ── Budget shapes ─────────────────────────────────────────────────────────────

// EligibleCostCentre is a cost centre that can receive DCA allocations.
type EligibleCostCentre struct {
	CCNo            string          `json:"ccNo"`
	CCBudget        decimal.Decimal `json:"ccBudget"`
	BudgetBalance   decimal.Decimal `json:"budgetBalance"`
	ApplyFiscalYear bool            `json:"applyFiscalYear"`
}

// CostCentreBudget is the budget pool for a cost centre and fiscal year.
type CostCentreBudget struct {
	CCBudget      decimal.Decimal `json:"ccBudget"`
	BalanceBudget decimal.Decimal `json:"balanceBudget"`
}

// SubDCAOption is a sub-account under a DCA.
type SubDCAOption struct {
	SubCode string `json:"subCode"`
	Name    string `json:"subdcaName"`
}

// DCAOption is a detailed cost account eligible for allocation.
type DCAOption struct {
	Code    string         `json:"code"`
	Name    string         `json:"name"`
	SubDCAs []SubDCAOption `json:"subDcas"`
}

// ── Allocation submission payload ─────────────────────────────────────────────

// SubDCAAllocation is one non-zero sub-account amount in a submission.
type SubDCAAllocation struct {
	SubDCACode string          `json:"subDcaCode"`
	Amount     decimal.Decimal `json:"amount"`
}

// DCAAllocationEntry is one non-zero DCA allocation in a submission.
type DCAAllocationEntry struct {
	DCACode        string             `json:"dcaCode"`
	DCAName        string             `json:"dcaName"`
	Percentage     decimal.Decimal    `json:"percentage"`
	AssignedAmount decimal.Decimal    `json:"assignedAmount"`
	SubDCAs        []SubDCAAllocation `json:"subDcaAllocations,omitempty"`
}

// AssignDCABudgetRequest is the minimal payload sent to persistence.
type AssignDCABudgetRequest struct {
	CostCentreType    string               `json:"costCentreType"`
	CostCentreSubType string               `json:"costCentreSubType"`
	CCNo              string               `json:"ccNo"`
	FiscalYear        string               `json:"fiscalYear,omitempty"`
	Remarks           string               `json:"remarks"`
	Allocations       []DCAAllocationEntry `json:"allocations"`
}

// AssignDCABudgetResponse acknowledges a stored allocation.
type AssignDCABudgetResponse struct {
	ReferenceNumber string `json:"referenceNumber,omitempty"`
}
