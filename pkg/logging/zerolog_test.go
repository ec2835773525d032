package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/rule"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestApplyLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewApplyLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	logger.LogApply(settings.ApplyEvent{RunID: "run-1", Scope: "member", Target: "resolved", Flags: 1, Values: 2, Duration: time.Millisecond})
	logger.LogApply(settings.ApplyEvent{RunID: "run-1", Scope: "global", Target: "resolved", Err: errors.New("boom")})
	logger.LogApply(settings.ApplyEvent{RunID: "run-1", NotifyErr: errors.New("sink offline")})

	entries := decodeLines(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("expected 3 log lines, got %d: %s", len(entries), buf.String())
	}
	if entries[0]["level"] != "debug" || entries[0][FieldScope] != "member" || entries[0]["values"] != float64(2) {
		t.Fatalf("unexpected apply entry: %v", entries[0])
	}
	if entries[0][FieldComponent] != "settings" {
		t.Fatalf("expected component field, got %v", entries[0])
	}
	if entries[1]["level"] != "error" || entries[1]["error"] != "boom" {
		t.Fatalf("unexpected failure entry: %v", entries[1])
	}
	if entries[2]["level"] != "warn" || entries[2]["error"] != "sink offline" {
		t.Fatalf("unexpected notify entry: %v", entries[2])
	}
}

func TestApplyLoggerWithStack(t *testing.T) {
	var buf bytes.Buffer
	global := settings.NewStore()
	global.SetBool("IgnoreNullValues", settings.Ptr(true))
	member := settings.NewStore()

	resolved, err := settings.GlobalTypePairMember(global, nil, member,
		settings.WithApplyLogger(NewApplyLogger(zerolog.New(&buf))),
	)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.Bool("IgnoreNullValues") {
		t.Fatalf("expected inherited flag")
	}
	if got := len(decodeLines(t, &buf)); got != 2 {
		t.Fatalf("expected one line per layer, got %d", got)
	}
}

func TestEvaluationLogger(t *testing.T) {
	var buf bytes.Buffer
	evaluator := rule.NewExprEvaluator(rule.WithEvaluationLogger(NewEvaluationLogger(zerolog.New(&buf))))

	if _, err := evaluator.Evaluate(rule.Context{Scope: "member"}, "1 < 2"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := evaluator.Evaluate(rule.Context{Scope: "member"}, "1 +"); err == nil {
		t.Fatalf("expected compile error")
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0][FieldEngine] != "expr" || entries[0]["result"] != true || entries[0][FieldScope] != "member" {
		t.Fatalf("unexpected evaluation entry: %v", entries[0])
	}
	if entries[1]["level"] != "error" {
		t.Fatalf("expected error level for failure, got %v", entries[1])
	}
}
