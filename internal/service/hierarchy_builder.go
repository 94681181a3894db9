package service

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/client"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

// VariantKey identifies one variant tab inside a builder session. It
// is the variant's cost-centre type, or the empty string for workflows
// that are not cost-centre applicable.
type VariantKey = string

// variantState is one in-progress variant tab.
type variantState struct {
	costCentreType string
	levels         []store.LevelAssignment
	committed      bool
}

// BuilderSession assembles one WorkflowDefinition level by level. Each
// variant tab is edited independently and frozen by CommitVariant;
// Submit is possible only once every required variant is committed.
//
// A session is owned by a single user action and is not safe for
// concurrent use.
type BuilderSession struct {
	catalog     map[string]client.WorkflowCatalogEntry
	ccTypes     []string
	roles       []client.RoleOption
	limitGroups map[int]bool

	selected *client.WorkflowCatalogEntry
	variants map[VariantKey]*variantState
	order    []VariantKey
}

// NewBuilderSession creates a session over the given catalog, known
// cost-centre types and selectable roles. limitGroups names the
// workflow groups whose levels carry monetary approval limits.
func NewBuilderSession(
	catalog []client.WorkflowCatalogEntry,
	costCentreTypes []string,
	roles []client.RoleOption,
	limitGroups map[int]bool,
) *BuilderSession {
	byID := make(map[string]client.WorkflowCatalogEntry, len(catalog))
	for _, e := range catalog {
		byID[e.WorkflowID] = e
	}
	return &BuilderSession{
		catalog:     byID,
		ccTypes:     costCentreTypes,
		roles:       roles,
		limitGroups: limitGroups,
		variants:    make(map[VariantKey]*variantState),
	}
}

// ── Workflow selection ────────────────────────────────────────────────────────

// SelectWorkflow initializes the session for a catalog workflow.
// Switching workflows discards all in-progress state, committed or
// not, because the level chains are bound to the workflow's
// cost-centre-type composition.
func (b *BuilderSession) SelectWorkflow(workflowID string) error {
	entry, ok := b.catalog[workflowID]
	if !ok {
		return apperr.NotFound("workflow", workflowID)
	}

	b.Reset()
	b.selected = &entry

	if entry.IsCostCentreApplicable {
		for _, ccType := range b.ccTypes {
			b.seedVariant(ccType)
		}
	} else {
		b.seedVariant("")
	}
	return nil
}

// seedVariant creates a variant with the single creator row.
func (b *BuilderSession) seedVariant(ccType string) {
	b.variants[ccType] = &variantState{
		costCentreType: ccType,
		levels: []store.LevelAssignment{
			{LevelID: 0, PathID: PathForLevel(ccType, 0)},
		},
	}
	b.order = append(b.order, ccType)
}

// Reset discards the entire session state.
func (b *BuilderSession) Reset() {
	b.selected = nil
	b.variants = make(map[VariantKey]*variantState)
	b.order = nil
}

// Selected returns the chosen catalog entry, or nil.
func (b *BuilderSession) Selected() *client.WorkflowCatalogEntry {
	return b.selected
}

// VariantKeys returns the session's variant keys in seed order.
func (b *BuilderSession) VariantKeys() []VariantKey {
	return append([]VariantKey(nil), b.order...)
}

// ── Level editing ─────────────────────────────────────────────────────────────

// AddLevel appends an unassigned level to a variant tab.
func (b *BuilderSession) AddLevel(key VariantKey) error {
	v, err := b.editable(key)
	if err != nil {
		return err
	}

	next := len(v.levels)
	v.levels = append(v.levels, store.LevelAssignment{
		LevelID: next,
		PathID:  PathForLevel(v.costCentreType, next),
	})
	return nil
}

// RemoveLevel deletes a level row and recompacts the remaining levels:
// each level id becomes its new position and every path id is
// recomputed from the path rule.
func (b *BuilderSession) RemoveLevel(key VariantKey, levelIndex int) error {
	v, err := b.editable(key)
	if err != nil {
		return err
	}
	if levelIndex < 0 || levelIndex >= len(v.levels) {
		return apperr.InvalidInput("levelIndex", "no such level")
	}

	v.levels = append(v.levels[:levelIndex], v.levels[levelIndex+1:]...)
	for i := range v.levels {
		v.levels[i].LevelID = i
		v.levels[i].PathID = PathForLevel(v.costCentreType, i)
	}
	return nil
}

// SetRole assigns a role to a level. A role already used at another
// level of the same variant is rejected; SelectableRoles exposes the
// same constraint as a filtered option set.
func (b *BuilderSession) SetRole(key VariantKey, levelIndex int, roleID string) error {
	v, err := b.editable(key)
	if err != nil {
		return err
	}
	if levelIndex < 0 || levelIndex >= len(v.levels) {
		return apperr.InvalidInput("levelIndex", "no such level")
	}
	for i, lvl := range v.levels {
		if i != levelIndex && lvl.RoleID == roleID && roleID != "" {
			return apperr.InvalidInput("roleId", "role already assigned at level "+strconv.Itoa(i))
		}
	}

	v.levels[levelIndex].RoleID = roleID
	return nil
}

// SetApprovalLimit sets a level's monetary ceiling. Limits are only
// meaningful for workflow groups configured as limit-bearing.
func (b *BuilderSession) SetApprovalLimit(key VariantKey, levelIndex int, limit decimal.Decimal) error {
	if b.selected == nil {
		return apperr.New(apperr.CodeValidation, "no workflow selected")
	}
	if !b.limitGroups[b.selected.GroupID] {
		return apperr.InvalidInput("approvalLimit",
			"workflow group "+b.selected.Group+" does not carry approval limits")
	}

	v, err := b.editable(key)
	if err != nil {
		return err
	}
	if levelIndex < 0 || levelIndex >= len(v.levels) {
		return apperr.InvalidInput("levelIndex", "no such level")
	}

	v.levels[levelIndex].ApprovalLimit = &limit
	return nil
}

// SelectableRoles returns the roles not yet assigned in the variant.
func (b *BuilderSession) SelectableRoles(key VariantKey) []client.RoleOption {
	v, ok := b.variants[key]
	if !ok {
		return nil
	}

	used := make(map[string]bool, len(v.levels))
	for _, lvl := range v.levels {
		if lvl.RoleID != "" {
			used[lvl.RoleID] = true
		}
	}

	out := make([]client.RoleOption, 0, len(b.roles))
	for _, r := range b.roles {
		if !used[r.RoleID] {
			out = append(out, r)
		}
	}
	return out
}

// Levels returns a copy of a variant's current level rows.
func (b *BuilderSession) Levels(key VariantKey) []store.LevelAssignment {
	v, ok := b.variants[key]
	if !ok {
		return nil
	}
	return append([]store.LevelAssignment(nil), v.levels...)
}

// ── Commit / reopen / submit ──────────────────────────────────────────────────

// CommitVariant freezes a variant tab. Every level must carry a role,
// and no role may appear twice; committing an already-committed
// variant is a no-op.
func (b *BuilderSession) CommitVariant(key VariantKey) error {
	v, ok := b.variants[key]
	if !ok {
		return apperr.NotFound("variant", key)
	}
	if v.committed {
		return nil
	}

	seen := make(map[string]int, len(v.levels))
	for i, lvl := range v.levels {
		if lvl.RoleID == "" {
			return apperr.New(apperr.CodeValidation, "all roles must be selected")
		}
		if prev, dup := seen[lvl.RoleID]; dup {
			return apperr.InvalidInput("roleId",
				"role assigned at levels "+strconv.Itoa(prev)+" and "+strconv.Itoa(i))
		}
		seen[lvl.RoleID] = i
	}

	v.committed = true
	return nil
}

// ReopenVariant un-freezes a committed variant without clearing it.
func (b *BuilderSession) ReopenVariant(key VariantKey) error {
	v, ok := b.variants[key]
	if !ok {
		return apperr.NotFound("variant", key)
	}
	v.committed = false
	return nil
}

// IsCommitted reports whether a variant tab is frozen.
func (b *BuilderSession) IsCommitted(key VariantKey) bool {
	v, ok := b.variants[key]
	return ok && v.committed
}

// CanSubmit reports whether every required variant is committed.
func (b *BuilderSession) CanSubmit() bool {
	if b.selected == nil || len(b.variants) == 0 {
		return false
	}
	for _, v := range b.variants {
		if !v.committed {
			return false
		}
	}
	return true
}

// Submit produces the final WorkflowDefinition from the committed
// variants. It fails unless a workflow is selected and every variant
// tab is committed.
func (b *BuilderSession) Submit() (*store.WorkflowDefinition, error) {
	if b.selected == nil {
		return nil, apperr.New(apperr.CodeValidation, "no workflow selected")
	}
	if !b.CanSubmit() {
		return nil, apperr.New(apperr.CodeValidation, "all variants must be committed before submission")
	}

	def := &store.WorkflowDefinition{
		WorkflowID:             b.selected.WorkflowID,
		WorkflowName:           b.selected.WorkflowName,
		IsCostCentreApplicable: b.selected.IsCostCentreApplicable,
	}
	for _, key := range b.order {
		v := b.variants[key]
		def.Variants = append(def.Variants, store.WorkflowVariant{
			CostCentreType: v.costCentreType,
			Levels:         append([]store.LevelAssignment(nil), v.levels...),
		})
	}
	return def, nil
}

// ── Internal helpers ──────────────────────────────────────────────────────────

func (b *BuilderSession) editable(key VariantKey) (*variantState, error) {
	v, ok := b.variants[key]
	if !ok {
		return nil, apperr.NotFound("variant", key)
	}
	if v.committed {
		return nil, apperr.New(apperr.CodeValidation,
			"variant "+displayKey(key)+" is committed; reopen it to edit")
	}
	return v, nil
}

func displayKey(key VariantKey) string {
	if key == "" {
		return "(default)"
	}
	return key
}

