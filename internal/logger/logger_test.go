package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestInfoWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("init: %v", err)
	}

	Info(context.Background(), "hello", "bot_id", "b1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["bot_id"] != "b1" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestDebugSuppressedWithoutDetailedLogging(t *testing.T) {
	var buf bytes.Buffer
	_ = InitWithConfig(LogConfig{Level: "DEBUG", Format: "text", Output: &buf})

	Debug(context.Background(), "quiet")
	DebugSkip(context.Background(), 1, "quiet")

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestDecisionEvent(t *testing.T) {
	var buf bytes.Buffer
	_ = InitWithConfig(LogConfig{Level: "WARN", Format: "text", Output: &buf})

	// Decision is logged at INFO, so a WARN logger drops it; Risk is WARN.
	Decision(context.Background(), "b1", "EURUSD", "BUY", 0.8, "trend")
	Risk(context.Background(), "EURUSD", "order_rejected")

	out := buf.String()
	if strings.Contains(out, "Trading decision made") {
		t.Fatalf("decision should be filtered at WARN: %q", out)
	}
	if !strings.Contains(out, "event_type=order_rejected") {
		t.Fatalf("risk event missing: %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("debug").String() != "DEBUG" {
		t.Errorf("debug not parsed")
	}
	if parseLogLevel("nonsense").String() != "INFO" {
		t.Errorf("unknown level should default to INFO")
	}
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	_ = InitWithConfig(LogConfig{Level: "DEBUG", Format: "text", DetailedLogging: true, Output: &buf})

	op := StartOperation(context.Background(), "evaluation.chart", "bot_id", "b1")
	op.End("chart_url", "https://charts.test/a.png")

	op = StartOperation(context.Background(), "evaluation.analysis", "bot_id", "b1")
	op.EndWithError(errors.New("model timeout"))

	out := buf.String()
	for _, want := range []string{"Operation started", "Operation completed", "chart_url=https://charts.test/a.png", "Operation failed", "model timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "level=ERROR") {
		t.Fatalf("step failures are logged below error level: %q", out)
	}
}

func TestOperationTimerSpan(t *testing.T) {
	var buf bytes.Buffer
	_ = InitWithConfig(LogConfig{Level: "INFO", Format: "json", TracingEnabled: true, Output: &buf})
	t.Cleanup(func() {
		_ = Shutdown(context.Background())
		_ = InitWithConfig(LogConfig{Level: "INFO", Output: &bytes.Buffer{}})
	})

	op := StartOperation(context.Background(), "evaluation.record", "bot_id", "b1", "attempt", 1)
	if !oteltrace.SpanContextFromContext(op.GetContext()).IsValid() {
		t.Fatalf("operation context should carry a span")
	}
	op.End()

	if got := toAttributes([]any{"bot_id", "b1", 7, "x", "ratio", 0.5, "nested", struct{}{}}); len(got) != 2 {
		t.Fatalf("expected 2 attributes, got %v", got)
	}
}
