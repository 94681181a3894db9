package store

import "github.com/shopspring/decimal"

// ── Domain types for the approval hierarchy ──────────────────────────────────

// LevelAssignment is one step in an approval chain. Level 0 is the
// creator/initiator; levels >= 1 are verifiers.
type LevelAssignment struct {
	LevelID       int              `json:"levelId"`
	PathID        int              `json:"pathId"`
	RoleID        string           `json:"roleId"`
	ApprovalLimit *decimal.Decimal `json:"approvalLimit,omitempty"`
}

// WorkflowVariant is the per-cost-centre-type specialization of a
// workflow's level chain. CostCentreType is empty when the owning
// workflow is not cost-centre applicable.
type WorkflowVariant struct {
	CostCentreType string            `json:"costCentreType,omitempty"`
	Levels         []LevelAssignment `json:"levels"`
}

// WorkflowDefinition is a named ordered chain of approving roles,
// possibly split into one variant per cost-centre type.
type WorkflowDefinition struct {
	WorkflowID             string            `json:"workflowId"`
	WorkflowName           string            `json:"workflowName"`
	IsCostCentreApplicable bool              `json:"isCostCentreApplicable"`
	Variants               []WorkflowVariant `json:"variants"`
}

// Variant returns the variant for a cost-centre type, or nil. For
// non-applicable definitions the single variant is keyed by "".
func (d *WorkflowDefinition) Variant(costCentreType string) *WorkflowVariant {
	if !d.IsCostCentreApplicable {
		costCentreType = ""
	}
	for i := range d.Variants {
		if d.Variants[i].CostCentreType == costCentreType {
			return &d.Variants[i]
		}
	}
	return nil
}

// WorkflowDetail is one flattened level row tagged with its variant's
// cost-centre type. This is the wire shape the persistence service
// stores for a definition.
type WorkflowDetail struct {
	CostCentreType string           `json:"costCentreType,omitempty"`
	LevelID        int              `json:"levelId"`
	PathID         int              `json:"pathId"`
	RoleID         string           `json:"roleId"`
	ApprovalLimit  *decimal.Decimal `json:"approvalLimit,omitempty"`
}

// Details flattens all variants' levels into one list.
func (d *WorkflowDefinition) Details() []WorkflowDetail {
	var out []WorkflowDetail
	for _, v := range d.Variants {
		for _, lvl := range v.Levels {
			out = append(out, WorkflowDetail{
				CostCentreType: v.CostCentreType,
				LevelID:        lvl.LevelID,
				PathID:         lvl.PathID,
				RoleID:         lvl.RoleID,
				ApprovalLimit:  lvl.ApprovalLimit,
			})
		}
	}
	return out
}

// PendingReference is an in-flight approval instance that references a
// workflow definition.
type PendingReference struct {
	ReferenceID    string `json:"referenceId"`
	EntityRef      string `json:"entityRef"`
	CostCentreType string `json:"costCentreType,omitempty"`
	Status         string `json:"status"`
	CurrentLevel   int    `json:"currentLevel"`
}
