package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

func applicableDefinition() *store.WorkflowDefinition {
	return &store.WorkflowDefinition{
		WorkflowID:             "WF-CC-CREATE",
		WorkflowName:           "Cost Centre Creation",
		IsCostCentreApplicable: true,
		Variants: []store.WorkflowVariant{
			{CostCentreType: "100", Levels: []store.LevelAssignment{
				{LevelID: 0, PathID: 0, RoleID: "R1"},
				{LevelID: 1, PathID: 2, RoleID: "R2"},
				{LevelID: 2, PathID: 2, RoleID: "R3"},
			}},
			{CostCentreType: "101", Levels: []store.LevelAssignment{
				{LevelID: 0, PathID: 0, RoleID: "R1"},
				{LevelID: 1, PathID: 3, RoleID: "R4"},
			}},
		},
	}
}

func TestResolveVariantApplicable(t *testing.T) {
	r := NewApprovalRouter()
	def := applicableDefinition()

	v, err := r.ResolveVariant(def, "101")
	require.NoError(t, err)
	assert.Equal(t, "101", v.CostCentreType)

	_, err = r.ResolveVariant(def, "102")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotConfigured))
}

func TestResolveVariantNotApplicable(t *testing.T) {
	r := NewApprovalRouter()
	def := &store.WorkflowDefinition{
		WorkflowID:             "WF-BUDGET",
		IsCostCentreApplicable: false,
		Variants: []store.WorkflowVariant{
			{Levels: []store.LevelAssignment{
				{LevelID: 0, PathID: 0, RoleID: "R1"},
				{LevelID: 1, PathID: 1, RoleID: "R2"},
			}},
		},
	}

	// The single variant governs every entity regardless of type.
	for _, ccType := range []string{"", "100", "999"} {
		v, err := r.ResolveVariant(def, ccType)
		require.NoError(t, err)
		assert.Len(t, v.Levels, 2)
	}
}

func TestNextLevelWalksInOrder(t *testing.T) {
	r := NewApprovalRouter()
	def := applicableDefinition()
	v, err := r.ResolveVariant(def, "100")
	require.NoError(t, err)

	lvl, err := r.NextLevel(v, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, lvl.LevelID)

	lvl, err = r.NextLevel(v, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, lvl.LevelID)

	_, err = r.NextLevel(v, 2)
	assert.ErrorIs(t, err, ErrTerminal)

	_, err = r.NextLevel(v, 7)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestRoleForLevel(t *testing.T) {
	r := NewApprovalRouter()
	def := applicableDefinition()
	v, err := r.ResolveVariant(def, "100")
	require.NoError(t, err)

	role, err := r.RoleForLevel(v, 1)
	require.NoError(t, err)
	assert.Equal(t, "R2", role)

	_, err = r.RoleForLevel(v, -1)
	assert.Error(t, err)
}
