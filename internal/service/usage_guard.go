package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

// UsageAPI is the slice of the persistence service the guard needs.
// Implemented by client.WorkflowClient.
type UsageAPI interface {
	GetPendingReferences(ctx context.Context, workflowID string) ([]store.PendingReference, error)
	CanDelete(ctx context.Context, workflowID string) (bool, error)
}

// UsageGuard blocks destructive edits to workflow definitions that are
// actively referenced. A failed check never permits the destructive
// action.
type UsageGuard struct {
	remote UsageAPI
	log    zerolog.Logger
}

// NewUsageGuard creates a guard over the remote usage API.
func NewUsageGuard(remote UsageAPI, log zerolog.Logger) *UsageGuard {
	return &UsageGuard{remote: remote, log: log}
}

// CheckPending returns the in-flight approval instances referencing a
// workflow. It does not block; the caller decides.
func (g *UsageGuard) CheckPending(ctx context.Context, workflowID string) ([]store.PendingReference, error) {
	refs, err := g.remote.GetPendingReferences(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// CheckDeletable reports whether the workflow has zero references,
// historical or active, per the persistence service's policy.
func (g *UsageGuard) CheckDeletable(ctx context.Context, workflowID string) (bool, error) {
	return g.remote.CanDelete(ctx, workflowID)
}

// AuthorizeEdit runs the edit-side check. With pending references and
// force unset it fails with ConflictBlocked; force is the explicit
// user override ("proceed anyway"). A failed check propagates as-is
// and the edit stays blocked.
func (g *UsageGuard) AuthorizeEdit(ctx context.Context, workflowID string, force bool) error {
	refs, err := g.CheckPending(ctx, workflowID)
	if err != nil {
		return err
	}
	if len(refs) > 0 && !force {
		g.log.Info().
			Str("workflow_id", workflowID).
			Int("pending", len(refs)).
			Msg("Edit blocked: workflow has pending approvals")
		return apperr.New(apperr.CodeConflictBlocked,
			"workflow has pending approval instances; editing requires explicit override")
	}
	return nil
}

// AuthorizeDelete runs the delete-side check. Delete has no override:
// a referenced workflow can never be deleted.
func (g *UsageGuard) AuthorizeDelete(ctx context.Context, workflowID string) error {
	ok, err := g.CheckDeletable(ctx, workflowID)
	if err != nil {
		return err
	}
	if !ok {
		g.log.Info().
			Str("workflow_id", workflowID).
			Msg("Delete blocked: workflow is referenced")
		return apperr.New(apperr.CodeConflictBlocked,
			"workflow is referenced and cannot be deleted")
	}
	return nil
}
