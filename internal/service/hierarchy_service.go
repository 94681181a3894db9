package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/opsfin/be-cc-approvals/internal/client"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

// HierarchyService orchestrates workflow definition lifecycle: builder
// submissions, guarded edits and deletes, and lifecycle events.
type HierarchyService struct {
	store    *store.WorkflowStore
	guard    *UsageGuard
	events   *client.EventPublisher
	log      zerolog.Logger
	inflight inflight
}

// NewHierarchyService creates a new HierarchyService.
func NewHierarchyService(
	st *store.WorkflowStore,
	guard *UsageGuard,
	events *client.EventPublisher,
	log zerolog.Logger,
) *HierarchyService {
	return &HierarchyService{
		store:  st,
		guard:  guard,
		events: events,
		log:    log,
	}
}

// ListWorkflows refreshes the cache and returns every definition.
func (s *HierarchyService) ListWorkflows(ctx context.Context) ([]store.WorkflowDefinition, error) {
	if err := s.store.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.store.List(), nil
}

// GetWorkflow returns one definition by id.
func (s *HierarchyService) GetWorkflow(ctx context.Context, workflowID string) (*store.WorkflowDefinition, error) {
	return s.store.Get(ctx, workflowID)
}

// CreateWorkflow submits a completed builder session and stores the
// resulting definition.
func (s *HierarchyService) CreateWorkflow(ctx context.Context, session *BuilderSession, actorID string) (*store.WorkflowDefinition, error) {
	if err := s.inflight.begin("createWorkflow"); err != nil {
		return nil, err
	}
	defer s.inflight.end("createWorkflow")

	def, err := session.Submit()
	if err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, def)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("workflow_id", created.WorkflowID).
		Int("variants", len(created.Variants)).
		Msg("Workflow definition created")

	s.events.PublishWorkflowEvent("created", created.WorkflowID, actorID, map[string]any{
		"workflow_name": created.WorkflowName,
		"variants":      len(created.Variants),
	})
	return created, nil
}

// BeginEdit runs the pending-usage check and returns the in-flight
// references. An empty list means editing can proceed directly; a
// non-empty list means the caller must warn the user and obtain an
// explicit override before calling UpdateWorkflow with force set.
func (s *HierarchyService) BeginEdit(ctx context.Context, workflowID string) ([]store.PendingReference, error) {
	return s.guard.CheckPending(ctx, workflowID)
}

// UpdateWorkflow replaces a stored definition after the usage guard
// authorizes the edit. force is the user's explicit "proceed anyway".
func (s *HierarchyService) UpdateWorkflow(ctx context.Context, workflowID string, def *store.WorkflowDefinition, force bool, actorID string) (*store.WorkflowDefinition, error) {
	if err := s.inflight.begin("updateWorkflow"); err != nil {
		return nil, err
	}
	defer s.inflight.end("updateWorkflow")

	if err := s.guard.AuthorizeEdit(ctx, workflowID, force); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, workflowID, def)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("workflow_id", workflowID).
		Bool("forced", force).
		Msg("Workflow definition updated")

	s.events.PublishWorkflowEvent("updated", workflowID, actorID, nil)
	return updated, nil
}

// DeleteWorkflow removes a definition. Delete has no override: the
// guard must report zero references.
func (s *HierarchyService) DeleteWorkflow(ctx context.Context, workflowID string, actorID string) error {
	if err := s.inflight.begin("deleteWorkflow"); err != nil {
		return err
	}
	defer s.inflight.end("deleteWorkflow")

	if err := s.guard.AuthorizeDelete(ctx, workflowID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, workflowID); err != nil {
		return err
	}

	s.log.Info().Str("workflow_id", workflowID).Msg("Workflow definition deleted")
	s.events.PublishWorkflowEvent("deleted", workflowID, actorID, nil)
	return nil
}
