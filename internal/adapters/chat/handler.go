// Package chat adapts chat transport messages to the order intake use cases.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
	"github.com/kirillkom/chat-order-intake/internal/observability/logging"
)

// SummaryCommand asks for the pending order totals instead of placing an order.
const SummaryCommand = "resum"

type OutcomeRecorder interface {
	StartOrderMessage()
	FinishOrderMessage(report domain.OutcomeReport, duration time.Duration)
	RecordDuplicateMessage()
}

type Handler struct {
	orders   ports.OrderMessageProcessor
	summary  ports.PendingSummaryReader
	dedupe   ports.MessageDeduplicator
	recorder OutcomeRecorder
	logger   *slog.Logger
}

type HandlerOptions struct {
	Summary      ports.PendingSummaryReader
	Deduplicator ports.MessageDeduplicator
	Recorder     OutcomeRecorder
	Logger       *slog.Logger
}

func NewHandler(orders ports.OrderMessageProcessor, options HandlerOptions) *Handler {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orders:   orders,
		summary:  options.Summary,
		dedupe:   options.Deduplicator,
		recorder: options.Recorder,
		logger:   logger,
	}
}

// HandleMessage returns the reply for message, or "" when the message is a
// redelivery that was already answered.
func (h *Handler) HandleMessage(ctx context.Context, message domain.ChatMessage) string {
	logger := logging.WithMessage(h.logger, message)
	if h.dedupe != nil {
		first, err := h.dedupe.FirstSeen(ctx, message.ID)
		if err != nil {
			logger.Warn("order_dedupe_unavailable", "error", err)
		}
		if !first {
			logger.Info("order_message_duplicate")
			if h.recorder != nil {
				h.recorder.RecordDuplicateMessage()
			}
			return ""
		}
	}

	if h.summary != nil && IsSummaryCommand(message.Text) {
		logger.Info("order_summary_requested")
		return h.summaryReply(ctx)
	}

	return ReplyText(h.Process(ctx, message.Text))
}

// Process runs the order use case and records its outcome.
func (h *Handler) Process(ctx context.Context, text string) domain.OutcomeReport {
	start := time.Now()
	if h.recorder != nil {
		h.recorder.StartOrderMessage()
	}
	report := h.orders.ProcessOrderMessage(ctx, text)
	if h.recorder != nil {
		h.recorder.FinishOrderMessage(report, time.Since(start))
	}
	return report
}

func (h *Handler) summaryReply(ctx context.Context) string {
	totals, err := h.summary.PendingSummary(ctx)
	if err != nil {
		h.logger.Error("order_summary_failed", "error", err)
		return summaryErrorText
	}
	return SummaryText(totals)
}

func IsSummaryCommand(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), SummaryCommand)
}
