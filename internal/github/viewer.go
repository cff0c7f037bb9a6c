package github

import (
	"context"
	"fmt"
)

// Viewer returns the login of the authenticated user. It is the cheapest
// query against the API and doubles as a token validity check.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	var resp ViewerResponse
	if err := c.Query(ctx, ViewerQuery, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch viewer: %w", err)
	}
	return resp.Viewer.Login, nil
}
