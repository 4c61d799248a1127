package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, FormatJSON)

	logger.Info("label found", Label("rejections"), Count(2))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record[KeyLabel] != "rejections" {
		t.Errorf("label = %v, want rejections", record[KeyLabel])
	}
	if record[KeyCount] != float64(2) {
		t.Errorf("count = %v, want 2", record[KeyCount])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, FormatText)

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record should be filtered at info level, got %q", buf.String())
	}

	logger = New(&buf, slog.LevelDebug, "unknown")
	logger.Debug("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("unknown format should fall back to text, got %q", buf.String())
	}
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := WithRunID(New(&buf, slog.LevelInfo, FormatText), "run-1")
	logger.Info("started")
	if !strings.Contains(buf.String(), "run_id=run-1") {
		t.Errorf("expected run_id attribute, got %q", buf.String())
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(New(&buf, slog.LevelInfo, FormatText), "label.apply")
	logger.Info("applied")
	if !strings.Contains(buf.String(), "operation=label.apply") {
		t.Errorf("expected operation attribute, got %q", buf.String())
	}
}

func TestAttrHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("search"), KeyOperation, "search"},
		{"service", Service("gmail"), KeyService, "gmail"},
		{"run id", RunID("abc"), KeyRunID, "abc"},
		{"label", Label("rejections"), KeyLabel, "rejections"},
		{"label id", LabelID("Label_7"), KeyLabelID, "Label_7"},
		{"query", Query("in:inbox"), KeyQuery, "in:inbox"},
		{"count", Count(5), KeyCount, "5"},
		{"chunk", Chunk(3), KeyChunk, "3"},
		{"status", Status(StatusSuccess), KeyStatus, StatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// nil yields an empty group that slog omits
	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}

	hash1 := AnonymizeEmail("jane@example.com")
	if len(hash1) != 21 || !strings.HasPrefix(hash1, "user:") {
		t.Errorf("unexpected hash %q", hash1)
	}
	if hash1 != AnonymizeEmail("jane@example.com") {
		t.Error("AnonymizeEmail should be deterministic")
	}
	if hash1 == AnonymizeEmail("other@example.com") {
		t.Error("different emails should produce different hashes")
	}

	attr := UserHash("jane@example.com")
	if attr.Key != KeyUserHash || attr.Value.String() != hash1 {
		t.Errorf("UserHash = %v, want %s=%s", attr, KeyUserHash, hash1)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"ya29.a_very_long_token", "[token:22 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	// Should not panic
	Discard().Info("dropped", Count(1))
}
