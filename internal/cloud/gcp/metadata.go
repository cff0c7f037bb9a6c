package gcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const metadataBaseURL = "http://metadata.google.internal/computeMetadata/v1"

// OnGCP reports whether the process is running on Google Cloud, detected by
// probing the metadata server.
func OnGCP() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	req, err := http.NewRequest(http.MethodGet, metadataBaseURL+"/", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ProjectID resolves the project from the environment, falling back to the
// metadata server on GCP VMs and Cloud Run.
func ProjectID(ctx context.Context) (string, error) {
	for _, env := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT", "GCLOUD_PROJECT"} {
		if projectID := os.Getenv(env); projectID != "" {
			return projectID, nil
		}
	}
	return projectIDFromMetadata(ctx)
}

func projectIDFromMetadata(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataBaseURL+"/project/project-id", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create metadata request: %w", err)
	}
	req.Header.Set("Metadata-Flavor", "Google")

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch project ID from metadata server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metadata response: %w", err)
	}

	projectID := strings.TrimSpace(string(body))
	if projectID == "" {
		return "", fmt.Errorf("empty project ID from metadata server")
	}
	return projectID, nil
}
