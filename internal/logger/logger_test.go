package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConfigureWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	ConfigureWriter(&buf, "debug", "json")

	Info("search tier exhausted", "tier", 2, "query", "ai news")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "search tier exhausted" {
		t.Errorf("Expected message field, got %v", entry["message"])
	}
	if entry["query"] != "ai news" {
		t.Errorf("Expected query field 'ai news', got %v", entry["query"])
	}
	if entry["tier"] != float64(2) {
		t.Errorf("Expected tier 2, got %v", entry["tier"])
	}
}

func TestConfigureWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	ConfigureWriter(&buf, "warn", "json")

	Debug("hidden")
	Info("hidden too")
	Error("upload failed", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug/info lines to be filtered, got %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("Expected error text in output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"WARNING": "warn",
		"error":   "error",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}
