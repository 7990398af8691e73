package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		configLvl LogLevel
		logLvl    LogLevel
		shouldLog bool
	}{
		{"debug logs debug", DebugLevel, DebugLevel, true},
		{"info drops debug", InfoLevel, DebugLevel, false},
		{"info logs warn", InfoLevel, WarnLevel, true},
		{"error drops warn", ErrorLevel, WarnLevel, false},
		{"error logs error", ErrorLevel, ErrorLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(Config{Level: tt.configLvl, Output: buf})
			logger.log(tt.logLvl, "message", nil)

			got := buf.Len() > 0
			if got != tt.shouldLog {
				t.Errorf("logged = %v, want %v", got, tt.shouldLog)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: buf})
	logger.Info("scan complete", map[string]interface{}{"subscriptions": 3})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["message"] != "scan complete" {
		t.Errorf("message = %v, want %q", entry["message"], "scan complete")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestHumanFormatSortsFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(Config{Format: HumanFormat, Level: InfoLevel, Output: buf})
	logger.Info("trigger", map[string]interface{}{"path": "a.py", "classification": "moved"})

	out := buf.String()
	if !strings.Contains(out, "classification=moved path=a.py") {
		t.Errorf("fields not sorted: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	// Must not panic and must not write anywhere visible
	logger.Error("dropped", nil)
}
