package logx

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesServiceField(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Config{Service: "lookup"})
	logger.Info().Msg("ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry["service"] != "lookup" {
		t.Fatalf("service = %v, want lookup", entry["service"])
	}
	if entry["message"] != "ready" {
		t.Fatalf("message = %v, want ready", entry["message"])
	}
}

func TestNewDebugLevel(t *testing.T) {
	t.Parallel()

	var quiet bytes.Buffer
	quietLogger := New(&quiet, Config{})
	quietLogger.Debug().Msg("hidden")
	if quiet.Len() != 0 {
		t.Fatalf("expected debug entry to be dropped, got %q", quiet.String())
	}

	var loud bytes.Buffer
	loudLogger := New(&loud, Config{Debug: true})
	loudLogger.Debug().Msg("shown")
	if loud.Len() == 0 {
		t.Fatal("expected debug entry to be written")
	}
}
