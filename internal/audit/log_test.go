package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithProfile(ctx, auth.Profile{ID: "1", Username: "admin", Role: "admin"})

	if err := LogEvent(ctx, EventFileDeleted, map[string]any{"file_id": 3}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" || entry["event"] != EventFileDeleted {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "1" || entry["username"] != "admin" {
		t.Fatalf("operator missing: %v", entry)
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["file_id"] != float64(3) {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank event")
	}
}
