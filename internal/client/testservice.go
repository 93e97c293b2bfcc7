package client

import (
	"context"
	"net/url"
)

// TestServiceClient is a typed client for the test service's endpoints
type TestServiceClient struct {
	client *Client
}

// NewTestServiceClient wraps a client pointed at the test service
func NewTestServiceClient(c *Client) *TestServiceClient {
	return &TestServiceClient{client: c}
}

// Test1 calls GET /test1/{from}
func (t *TestServiceClient) Test1(ctx context.Context, from string) error {
	_, err := t.client.Get(ctx, "/test1/"+url.PathEscape(from))
	return err
}
