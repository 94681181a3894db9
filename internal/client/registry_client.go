package client

import (
	"context"
	"fmt"
)

// RegistryClient reads lookup data (cost-centre types, roles, workflow
// catalog) from the persistence service.
type RegistryClient struct {
	client *HTTPClient
}

// NewRegistryClient creates a new registry client.
func NewRegistryClient(client *HTTPClient) *RegistryClient {
	return &RegistryClient{client: client}
}

// GetCostCentreTypes returns all cost-centre types with their sub-types.
func (c *RegistryClient) GetCostCentreTypes(ctx context.Context) ([]CostCentreTypeOption, error) {
	var resp []CostCentreTypeOption
	if err := c.client.Get(ctx, "/api/v1/lookup/cost-centre-types", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch cost centre types: %w", err)
	}
	return resp, nil
}

// GetUserRoles returns all approver roles.
func (c *RegistryClient) GetUserRoles(ctx context.Context) ([]RoleOption, error) {
	var resp []RoleOption
	if err := c.client.Get(ctx, "/api/v1/lookup/user-roles", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch user roles: %w", err)
	}
	return resp, nil
}

// GetWorkflowCatalog returns the grouped menu of selectable workflows.
func (c *RegistryClient) GetWorkflowCatalog(ctx context.Context) ([]WorkflowCatalogEntry, error) {
	var resp []WorkflowCatalogEntry
	if err := c.client.Get(ctx, "/api/v1/lookup/workflow-catalog", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch workflow catalog: %w", err)
	}
	return resp, nil
}
