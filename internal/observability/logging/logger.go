package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

func NewJSONLogger(service, level string) *slog.Logger {
	return newJSONLogger(os.Stdout, service, level)
}

func newJSONLogger(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

// WithMessage scopes logger to one chat message. The text is not attached.
func WithMessage(logger *slog.Logger, message domain.ChatMessage) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]any, 0, 4)
	if message.ID != "" {
		attrs = append(attrs, "message_id", message.ID)
	}
	if message.ChatID != "" {
		attrs = append(attrs, "chat_id", message.ChatID)
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
