package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/opsfin/be-cc-approvals/internal/store"
)

// WorkflowClient performs workflow definition CRUD and usage checks
// against the persistence service.
type WorkflowClient struct {
	client *HTTPClient
}

// NewWorkflowClient creates a new workflow client.
func NewWorkflowClient(client *HTTPClient) *WorkflowClient {
	return &WorkflowClient{client: client}
}

// List returns every stored workflow definition.
func (c *WorkflowClient) List(ctx context.Context) ([]store.WorkflowDefinition, error) {
	var resp []store.WorkflowDefinition
	if err := c.client.Get(ctx, "/api/v1/workflows", &resp); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return resp, nil
}

// Get returns one workflow definition by id.
func (c *WorkflowClient) Get(ctx context.Context, workflowID string) (*store.WorkflowDefinition, error) {
	var resp store.WorkflowDefinition
	path := "/api/v1/workflows/" + url.PathEscape(workflowID)
	if err := c.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", workflowID, err)
	}
	return &resp, nil
}

// Create stores a new workflow definition and returns the stored copy.
func (c *WorkflowClient) Create(ctx context.Context, def *store.WorkflowDefinition) (*store.WorkflowDefinition, error) {
	var resp struct {
		Workflow store.WorkflowDefinition `json:"workflow"`
	}
	if err := c.client.Post(ctx, "/api/v1/workflows", def, &resp); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}
	return &resp.Workflow, nil
}

// Update replaces a stored workflow definition.
func (c *WorkflowClient) Update(ctx context.Context, workflowID string, def *store.WorkflowDefinition) (*store.WorkflowDefinition, error) {
	var resp struct {
		Workflow store.WorkflowDefinition `json:"workflow"`
	}
	path := "/api/v1/workflows/" + url.PathEscape(workflowID)
	if err := c.client.Put(ctx, path, def, &resp); err != nil {
		return nil, fmt.Errorf("failed to update workflow %s: %w", workflowID, err)
	}
	return &resp.Workflow, nil
}

// Delete removes a stored workflow definition.
func (c *WorkflowClient) Delete(ctx context.Context, workflowID string) error {
	path := "/api/v1/workflows/" + url.PathEscape(workflowID)
	if err := c.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", workflowID, err)
	}
	return nil
}

// GetPendingReferences returns in-flight approval instances that
// reference the workflow. An empty list means the workflow is idle.
func (c *WorkflowClient) GetPendingReferences(ctx context.Context, workflowID string) ([]store.PendingReference, error) {
	var resp []store.PendingReference
	path := "/api/v1/workflows/" + url.PathEscape(workflowID) + "/pending-references"
	if err := c.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch pending references for %s: %w", workflowID, err)
	}
	return resp, nil
}

// CanDelete asks the persistence service whether the workflow has zero
// references, historical or active.
func (c *WorkflowClient) CanDelete(ctx context.Context, workflowID string) (bool, error) {
	var resp struct {
		CanDelete bool `json:"canDelete"`
	}
	path := "/api/v1/workflows/" + url.PathEscape(workflowID) + "/can-delete"
	if err := c.client.Get(ctx, path, &resp); err != nil {
		return false, fmt.Errorf("failed to check deletability of %s: %w", workflowID, err)
	}
	return resp.CanDelete, nil
}
