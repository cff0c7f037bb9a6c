package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretFetcher fetches named secrets. The relay uses it to load the OAuth
// client secret without putting it in config files.
type SecretFetcher interface {
	FetchSecret(ctx context.Context, name string) (string, error)
	Close() error
}

// SecretManagerClient fetches secrets from GCP Secret Manager.
type SecretManagerClient struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerClient creates a Secret Manager client. The project is
// resolved from the environment or the metadata server.
func NewSecretManagerClient(ctx context.Context, opts ...option.ClientOption) (*SecretManagerClient, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	projectID, err := ProjectID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project ID: %w", err)
	}

	return &SecretManagerClient{
		client:    client,
		projectID: projectID,
	}, nil
}

// FetchSecret retrieves a secret value. The name may be a bare secret name, a
// projects/.../secrets/... path, or a full path including a version; bare and
// versionless forms default to the latest version.
func (c *SecretManagerClient) FetchSecret(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: c.resolveName(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

func (c *SecretManagerClient) resolveName(name string) string {
	if strings.HasPrefix(name, "projects/") {
		if strings.Contains(name, "/versions/") {
			return name
		}
		return name + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.projectID, name)
}

// Close closes the underlying client.
func (c *SecretManagerClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

var _ SecretFetcher = (*SecretManagerClient)(nil)
