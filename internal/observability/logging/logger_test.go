package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithMessageAddsRoutingAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "order-worker", "info")

	WithMessage(logger, domain.ChatMessage{ID: "m-1", ChatID: "c-9", Text: "Acme\n2, Milk"}).Info("order_processed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry["service"] != "order-worker" || entry["message_id"] != "m-1" || entry["chat_id"] != "c-9" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if _, ok := entry["text"]; ok {
		t.Fatalf("message text must not be logged")
	}
}

func TestNewJSONLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "order-api", "warn")

	logger.Info("catalog_loaded")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got %s", buf.String())
	}
}
