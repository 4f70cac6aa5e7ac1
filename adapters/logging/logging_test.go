package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/flowbridge/flowbridge/adapters/logging"
)

func TestLogger_EmitsMandatoryFields(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(&buf, "info")

	l.Info(logging.CategoryRouting, "route matched", logging.Context{
		RequestID: "req-1",
		Extra:     map[string]any{"destination": "http://dest/"},
	})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not valid JSON: %v (%s)", err, buf.String())
	}

	for _, key := range []string{"timestamp", "level", "category", "message", "context"} {
		if _, ok := line[key]; !ok {
			t.Errorf("log line missing mandatory key %q: %v", key, line)
		}
	}

	if line["category"] != string(logging.CategoryRouting) {
		t.Errorf("category = %v, want %v", line["category"], logging.CategoryRouting)
	}

	ctx, ok := line["context"].(map[string]any)
	if !ok {
		t.Fatalf("context is not an object: %v", line["context"])
	}
	if ctx["request_id"] != "req-1" {
		t.Errorf("context.request_id = %v, want req-1", ctx["request_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(&buf, "error")

	l.Info(logging.CategoryFiltering, "should be suppressed", logging.Context{})
	if buf.Len() != 0 {
		t.Errorf("expected info line to be suppressed at error level, got: %s", buf.String())
	}

	l.Error(logging.CategoryForwarding, "should appear", logging.Context{})
	if buf.Len() == 0 {
		t.Error("expected error line to be emitted")
	}
}

func TestLogger_DefaultsToInfoOnUnrecognizedLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(&buf, "not-a-level")

	l.Info(logging.CategoryResponse, "hello", logging.Context{})
	if buf.Len() == 0 {
		t.Error("expected info line to be emitted at default level")
	}
}
