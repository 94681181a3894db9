package client

import (
	"context"
	"fmt"
	"net/url"
)

// BudgetClient reads budget pools and DCA lists and submits allocations.
type BudgetClient struct {
	client *HTTPClient
}

// NewBudgetClient creates a new budget client.
func NewBudgetClient(client *HTTPClient) *BudgetClient {
	return &BudgetClient{client: client}
}

// GetEligibleCostCentres returns cost centres that can receive
// allocations for the given type/sub-type, optionally scoped to a
// fiscal year.
func (c *BudgetClient) GetEligibleCostCentres(ctx context.Context, ccType, subType, fiscalYear string) ([]EligibleCostCentre, error) {
	q := url.Values{}
	q.Set("type", ccType)
	q.Set("subType", subType)
	if fiscalYear != "" {
		q.Set("fiscalYear", fiscalYear)
	}

	var resp []EligibleCostCentre
	if err := c.client.Get(ctx, "/api/v1/budget/eligible-cost-centres?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch eligible cost centres: %w", err)
	}
	return resp, nil
}

// GetFiscalYears returns the fiscal years a cost centre tracks budgets for.
func (c *BudgetClient) GetFiscalYears(ctx context.Context, ccNo string) ([]string, error) {
	var resp []string
	path := "/api/v1/budget/cost-centres/" + url.PathEscape(ccNo) + "/fiscal-years"
	if err := c.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch fiscal years for %s: %w", ccNo, err)
	}
	return resp, nil
}

// GetBudgetForCCAndYear returns the budget pool for one cost centre
// and fiscal year.
func (c *BudgetClient) GetBudgetForCCAndYear(ctx context.Context, ccNo, year string) (*CostCentreBudget, error) {
	q := url.Values{}
	q.Set("year", year)

	var resp CostCentreBudget
	path := "/api/v1/budget/cost-centres/" + url.PathEscape(ccNo) + "/budget?" + q.Encode()
	if err := c.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch budget for %s/%s: %w", ccNo, year, err)
	}
	return &resp, nil
}

// GetDCAList returns the DCA codes allocatable for a cost centre.
func (c *BudgetClient) GetDCAList(ctx context.Context, ccType, subType, ccNo, fiscalYear string) ([]DCAOption, error) {
	q := url.Values{}
	q.Set("type", ccType)
	q.Set("subType", subType)
	q.Set("ccNo", ccNo)
	if fiscalYear != "" {
		q.Set("fiscalYear", fiscalYear)
	}

	var resp []DCAOption
	if err := c.client.Get(ctx, "/api/v1/budget/dca-list?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch DCA list: %w", err)
	}
	return resp, nil
}

// AssignDCABudget submits a validated allocation payload.
func (c *BudgetClient) AssignDCABudget(ctx context.Context, req *AssignDCABudgetRequest) (*AssignDCABudgetResponse, error) {
	var resp AssignDCABudgetResponse
	if err := c.client.Post(ctx, "/api/v1/budget/assign-dca", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to assign DCA budget: %w", err)
	}
	return &resp, nil
}
