package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentLedger, Format: "json", Output: &buf})

	l.Info("hello", FieldKind, "expenses")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentLedger)
	}
	if entry[FieldKind] != "expenses" {
		t.Errorf("kind = %v", entry[FieldKind])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: ParseLevel("warn"), Output: &buf})
	l.Info("dropped")
	l.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewContextStoresLogger(t *testing.T) {
	l := New(Config{Component: "test", Output: &bytes.Buffer{}})
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Fatal("FromContext did not return the injected logger")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("missing logger must fall back to default")
	}
}

func TestStructuredLoggerHTTPEndLevel(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusInternalServerError, 12, "127.0.0.1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry[FieldStatusCode] != float64(500) {
		t.Errorf("status = %v", entry[FieldStatusCode])
	}
}

func TestLogErrorAcceptsNilFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpCreate, nil)
	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("error not logged: %s", buf.String())
	}
}
