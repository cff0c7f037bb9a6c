// Package gcp holds the Google Cloud integrations: structured logging and
// Secret Manager access for the OAuth relay.
package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/logging"
	"google.golang.org/api/option"
)

// Severity levels for structured logs
type Severity string

const (
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Logger is the structured logging interface the relay writes through.
type Logger interface {
	Log(severity Severity, message string, fields map[string]interface{})
	Info(message string, fields map[string]interface{})
	Error(message string, fields map[string]interface{})
	Close() error
}

// CloudLogger writes structured entries to Cloud Logging.
type CloudLogger struct {
	client    *logging.Client
	logger    *logging.Logger
	component string
}

// NewCloudLogger creates a Cloud Logging backed logger for the given project.
func NewCloudLogger(ctx context.Context, projectID, component string, opts ...option.ClientOption) (*CloudLogger, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project ID cannot be empty")
	}

	client, err := logging.NewClient(ctx, "projects/"+projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging client: %w", err)
	}

	return &CloudLogger{
		client:    client,
		logger:    client.Logger(component),
		component: component,
	}, nil
}

// Log writes a structured entry at the given severity.
func (cl *CloudLogger) Log(severity Severity, message string, fields map[string]interface{}) {
	payload := map[string]interface{}{"message": message}
	for k, v := range fields {
		payload[k] = v
	}

	cl.logger.Log(logging.Entry{
		Severity: logging.ParseSeverity(string(severity)),
		Payload:  payload,
		Labels:   map[string]string{"component": cl.component},
	})
}

// Info writes an INFO level entry.
func (cl *CloudLogger) Info(message string, fields map[string]interface{}) {
	cl.Log(SeverityInfo, message, fields)
}

// Error writes an ERROR level entry.
func (cl *CloudLogger) Error(message string, fields map[string]interface{}) {
	cl.Log(SeverityError, message, fields)
}

// Close flushes buffered entries and releases the client.
func (cl *CloudLogger) Close() error {
	return cl.client.Close()
}

// LogEntry is the JSON shape the fallback logger emits. It matches the
// structured format the Cloud Logging agent parses, so the same lines are
// usable locally and when scraped off a VM's stdout.
type LogEntry struct {
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Component string                 `json:"component"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// FallbackLogger writes structured JSON lines to a local writer, for use
// outside GCP.
type FallbackLogger struct {
	writer    io.Writer
	component string
	mu        sync.Mutex
}

// NewFallbackLogger creates a logger that writes JSON lines to the given
// writer.
func NewFallbackLogger(writer io.Writer, component string) *FallbackLogger {
	return &FallbackLogger{
		writer:    writer,
		component: component,
	}
}

// Log writes a structured entry to the writer.
func (fl *FallbackLogger) Log(severity Severity, message string, fields map[string]interface{}) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	entry := LogEntry{
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Component: fl.component,
		Fields:    fields,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(fl.writer, `{"severity":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintf(fl.writer, "%s\n", data)
}

// Info writes an INFO level entry.
func (fl *FallbackLogger) Info(message string, fields map[string]interface{}) {
	fl.Log(SeverityInfo, message, fields)
}

// Error writes an ERROR level entry.
func (fl *FallbackLogger) Error(message string, fields map[string]interface{}) {
	fl.Log(SeverityError, message, fields)
}

// Close is a no-op for the fallback logger (writes are synchronous).
func (fl *FallbackLogger) Close() error {
	return nil
}

// NewLogger creates the appropriate logger for the environment: Cloud Logging
// when running on GCP with a resolvable project, JSON lines on stdout
// otherwise.
func NewLogger(ctx context.Context, component string) Logger {
	if OnGCP() {
		if projectID, err := ProjectID(ctx); err == nil {
			if cl, err := NewCloudLogger(ctx, projectID, component); err == nil {
				return cl
			}
		}
	}
	return NewFallbackLogger(os.Stdout, component)
}

var _ Logger = (*CloudLogger)(nil)
var _ Logger = (*FallbackLogger)(nil)

// SanitizeForLog redacts credential-looking values before they reach a log
// line.
func SanitizeForLog(s string) string {
	for _, prefix := range []string{"ghp_", "gho_", "ghs_", "ghu_", "ghr_"} {
		if strings.HasPrefix(s, prefix) {
			return "[REDACTED_GITHUB_TOKEN]"
		}
	}
	if strings.HasPrefix(s, "Bearer ") {
		return "Bearer [REDACTED]"
	}
	return s
}
