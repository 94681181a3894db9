package client

import (
	"context"
	"fmt"
	"net/url"
)

// ApprovalActionClient issues verification decisions against the
// approval subsystem.
type ApprovalActionClient struct {
	client *HTTPClient
}

// NewApprovalActionClient creates a new approval action client.
func NewApprovalActionClient(client *HTTPClient) *ApprovalActionClient {
	return &ApprovalActionClient{client: client}
}

// Confirm approves the current level of a verification target.
func (c *ApprovalActionClient) Confirm(ctx context.Context, referenceID, actedBy string) error {
	body := map[string]string{"actedBy": actedBy}
	path := "/api/v1/approvals/" + url.PathEscape(referenceID) + "/confirm"
	if err := c.client.Post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("failed to confirm %s: %w", referenceID, err)
	}
	return nil
}

// Reject rejects a verification target.
func (c *ApprovalActionClient) Reject(ctx context.Context, referenceID, actedBy, reason string) error {
	body := map[string]string{"actedBy": actedBy, "reason": reason}
	path := "/api/v1/approvals/" + url.PathEscape(referenceID) + "/reject"
	if err := c.client.Post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("failed to reject %s: %w", referenceID, err)
	}
	return nil
}
