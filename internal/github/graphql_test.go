package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuery_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected Authorization header: %s", auth)
		}

		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Variables["num"] != float64(1234) {
			t.Errorf("expected num variable 1234, got %v", req.Variables["num"])
		}

		_, _ = w.Write([]byte(`{"data":{"value":"ok"}}`))
	}))
	defer server.Close()

	c := NewClient("test-token", WithEndpoint(server.URL))

	var out struct {
		Value string `json:"value"`
	}
	err := c.Query(context.Background(), "query { value }", map[string]any{"num": 1234}, &out)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if out.Value != "ok" {
		t.Errorf("expected value ok, got %q", out.Value)
	}
}

func TestQuery_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	c := NewClient("bad-token", WithEndpoint(server.URL))
	err := c.Query(context.Background(), "query { viewer { login } }", nil, nil)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestQuery_GraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"Could not resolve to a PullRequest"}]}`))
	}))
	defer server.Close()

	c := NewClient("test-token", WithEndpoint(server.URL))
	var out map[string]any
	err := c.Query(context.Background(), "query { broken }", nil, &out)
	if err == nil {
		t.Fatal("expected error for GraphQL errors")
	}
	if got := err.Error(); got != "query failed: Could not resolve to a PullRequest" {
		t.Errorf("unexpected error message: %s", got)
	}
}

func TestQuery_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewClient("test-token", WithEndpoint(server.URL))
	err := c.Query(context.Background(), "query { viewer { login } }", nil, nil)
	if err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestViewer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"viewer":{"login":"alice","name":"Alice"}}}`))
	}))
	defer server.Close()

	c := NewClient("test-token", WithEndpoint(server.URL))
	login, err := c.Viewer(context.Background())
	if err != nil {
		t.Fatalf("Viewer failed: %v", err)
	}
	if login != "alice" {
		t.Errorf("expected login alice, got %q", login)
	}
}
