package service

import (
	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

// ErrTerminal is returned by NextLevel when the current level is the
// last one: the entity is fully approved.
var ErrTerminal = apperr.New(apperr.CodeNotFound, "approval chain is terminal")

// ApprovalRouter resolves which level chain governs an entity's
// approval and walks it strictly in ascending level order. Approval
// limits are advisory metadata and never cause a level to be skipped.
type ApprovalRouter struct{}

// NewApprovalRouter creates a router.
func NewApprovalRouter() *ApprovalRouter {
	return &ApprovalRouter{}
}

// ResolveVariant returns the variant governing an entity of the given
// cost-centre type. Non-applicable definitions route every entity
// through their single variant; applicable definitions require an
// exact type match and fail with NotConfigured otherwise.
func (r *ApprovalRouter) ResolveVariant(def *store.WorkflowDefinition, costCentreType string) (*store.WorkflowVariant, error) {
	if !def.IsCostCentreApplicable {
		if len(def.Variants) == 0 {
			return nil, apperr.NotConfigured(def.WorkflowID, costCentreType)
		}
		return &def.Variants[0], nil
	}

	v := def.Variant(costCentreType)
	if v == nil {
		return nil, apperr.NotConfigured(def.WorkflowID, costCentreType)
	}
	return v, nil
}

// NextLevel returns the level after currentLevelID, or ErrTerminal
// when currentLevelID is the last index.
func (r *ApprovalRouter) NextLevel(variant *store.WorkflowVariant, currentLevelID int) (*store.LevelAssignment, error) {
	if currentLevelID < 0 || currentLevelID >= len(variant.Levels) {
		return nil, apperr.InvalidInput("currentLevelId", "no such level")
	}
	if currentLevelID == len(variant.Levels)-1 {
		return nil, ErrTerminal
	}
	return &variant.Levels[currentLevelID+1], nil
}

// RoleForLevel returns the role assigned at a level. The verification
// screen compares this against the acting user's role.
func (r *ApprovalRouter) RoleForLevel(variant *store.WorkflowVariant, levelID int) (string, error) {
	if levelID < 0 || levelID >= len(variant.Levels) {
		return "", apperr.InvalidInput("levelId", "no such level")
	}
	return variant.Levels[levelID].RoleID, nil
}
