package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Error("Debug message should not be logged at Info level")
		}
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		if buf.Len() == 0 {
			t.Fatal("Info message should be logged at Info level")
		}

		entry := decodeEntry(t, &buf)
		if entry["level"] != "INFO" {
			t.Errorf("Expected level INFO, got %v", entry["level"])
		}
		if entry["msg"] != "info message" {
			t.Errorf("Expected message 'info message', got %v", entry["msg"])
		}
	})

	t.Run("warn and error logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Warn("warn message")
		if buf.Len() == 0 {
			t.Error("Warn message should be logged at Info level")
		}

		buf.Reset()
		logger.Error("error message")
		if buf.Len() == 0 {
			t.Error("Error message should be logged at Info level")
		}
	})
}

func TestLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("user_id", "alice@example.com").Info("message")

	entry := decodeEntry(t, &buf)
	if entry["user_id"] != "alice@example.com" {
		t.Errorf("Expected field user_id, got %v", entry["user_id"])
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{
		"action": "create",
		"count":  float64(2),
	}).Info("message")

	entry := decodeEntry(t, &buf)
	if entry["action"] != "create" {
		t.Errorf("Expected field action, got %v", entry["action"])
	}
	if entry["count"] != float64(2) {
		t.Errorf("Expected field count, got %v", entry["count"])
	}
}

func TestLogger_WithError(t *testing.T) {
	t.Run("attaches error string", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(InfoLevel, &buf)

		logger.WithError(context.DeadlineExceeded).Error("request failed")

		entry := decodeEntry(t, &buf)
		if entry["error"] != context.DeadlineExceeded.Error() {
			t.Errorf("Expected error field, got %v", entry["error"])
		}
	})

	t.Run("nil error is a no-op", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(InfoLevel, &buf)

		logger.WithError(nil).Info("fine")

		entry := decodeEntry(t, &buf)
		if _, ok := entry["error"]; ok {
			t.Error("Expected no error field for nil error")
		}
	})
}

func TestLogger_Formatted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.Debugf("processing %d of %d", 1, 3)

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "processing 1 of 3" {
		t.Errorf("Expected formatted message, got %v", entry["msg"])
	}
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(InfoLevel, &buf)

	logger.WithField("port", 8000).Info("listening")

	out := buf.String()
	if !strings.Contains(out, "msg=listening") {
		t.Errorf("Expected text output, got %q", out)
	}
	if !strings.Contains(out, "port=8000") {
		t.Errorf("Expected field in text output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{" error ", ErrorLevel},
		{"", InfoLevel},
		{"nonsense", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	t.Run("request id round trip", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		if got := GetRequestID(ctx); got != "req-123" {
			t.Errorf("Expected req-123, got %q", got)
		}
	})

	t.Run("missing request id", func(t *testing.T) {
		if got := GetRequestID(context.Background()); got != "" {
			t.Errorf("Expected empty request id, got %q", got)
		}
	})

	t.Run("from context includes request id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(InfoLevel, &buf)

		ctx := WithLogger(context.Background(), logger)
		ctx = WithRequestID(ctx, "req-456")

		FromContext(ctx).Info("handled")

		entry := decodeEntry(t, &buf)
		if entry["request_id"] != "req-456" {
			t.Errorf("Expected request_id req-456, got %v", entry["request_id"])
		}
	})

	t.Run("get logger falls back to default", func(t *testing.T) {
		if GetLogger(context.Background()) == nil {
			t.Error("Expected fallback logger")
		}
	})
}
