package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRunIDHandlerStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newRunIDHandler(slog.NewJSONHandler(&buf, nil), "run-1"))
	logger.With(slog.String(FieldComponent, "server")).Info("started")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-1"`) {
		t.Fatalf("expected run_id attribute, got %s", out)
	}
	if !strings.Contains(out, `"component":"server"`) {
		t.Fatalf("expected derived attrs to survive, got %s", out)
	}
}

func TestRunIDHandlerNilBase(t *testing.T) {
	if _, ok := newRunIDHandler(nil, "run-1").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for a nil base")
	}
}
