package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRawFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/alice/matrix-spec-proposals/my-branch/proposals/1234-test.md" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("# MSC1234: Test proposal\n"))
	}))
	defer server.Close()

	f := NewRawFetcher(WithRawBaseURL(server.URL))
	content, err := f.Fetch(context.Background(), "alice/matrix-spec-proposals", "my-branch", "proposals/1234-test.md")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if content != "# MSC1234: Test proposal\n" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestRawFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewRawFetcher(WithRawBaseURL(server.URL))
	_, err := f.Fetch(context.Background(), "alice/repo", "main", "proposals/missing.md")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}
