package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/chat-order-intake/internal/adapters/chat"
	"github.com/kirillkom/chat-order-intake/internal/config"
	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/core/ports"
)

const maxMessageBodyBytes = 64 << 10

// OrderIntake processes one order message and records its outcome.
type OrderIntake interface {
	Process(ctx context.Context, text string) domain.OutcomeReport
}

// RouterMetrics is the optional instrumentation surface of the API.
type RouterMetrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
	RecordSummaryExport(format string)
	RecordCatalogReload(stats domain.CatalogStats, err error)
}

type Router struct {
	cfg      config.Config
	intake   OrderIntake
	catalog  ports.CatalogService
	summary  ports.PendingSummaryReader
	exporter ports.SummaryExporter
	metrics  RouterMetrics
}

func NewRouter(
	cfg config.Config,
	intake OrderIntake,
	catalog ports.CatalogService,
	summary ports.PendingSummaryReader,
	exporter ports.SummaryExporter,
	metrics RouterMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		intake:   intake,
		catalog:  catalog,
		summary:  summary,
		exporter: exporter,
		metrics:  metrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/orders/messages", rt.submitOrderMessage)
	mux.HandleFunc("/v1/orders/summary", rt.pendingSummary)
	mux.HandleFunc("/v1/catalog/reload", rt.reloadCatalog)
	mux.HandleFunc("/v1/catalog/", rt.searchCatalog)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type orderMessageResponse struct {
	Report domain.OutcomeReport `json:"report"`
	Reply  string               `json:"reply"`
}

func (rt *Router) submitOrderMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	report := rt.intake.Process(r.Context(), req.Text)
	if !report.Succeeded() {
		slog.Warn("order_message_rejected",
			"request_id", requestIDFromContext(r.Context()),
			"status", report.Status,
			"detail", report.Detail,
		)
	}
	// Detail may carry driver error text; it stays in the log.
	report.Detail = ""
	writeJSON(w, mapOutcomeToHTTPStatus(report), orderMessageResponse{
		Report: report,
		Reply:  chat.ReplyText(report),
	})
}

func (rt *Router) pendingSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format != "" && format != "json" && format != "xlsx" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or xlsx"})
		return
	}
	if format == "xlsx" && rt.exporter == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "xlsx export is not configured"})
		return
	}

	totals, err := rt.summary.PendingSummary(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := rt.exporter.Export(&buf, totals); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		rt.recordExport(format)
		w.Header().Set("Content-Type", rt.exporter.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="pending-orders.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	rt.recordExport(format)
	writeJSON(w, http.StatusOK, map[string]any{
		"totals": totals,
		"text":   chat.SummaryText(totals),
	})
}

func (rt *Router) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	stats, err := rt.catalog.Reload(r.Context())
	if rt.metrics != nil {
		rt.metrics.RecordCatalogReload(stats, err)
	}
	if err != nil {
		slog.Error("catalog_reload_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) searchCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/catalog/")
	rawList, action, ok := strings.Cut(rest, "/")
	if !ok || action != "search" || rawList == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	list, err := domain.ParseCatalogList(rawList)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}

	candidates, err := rt.catalog.Search(list, query)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"list":       list,
		"query":      query,
		"candidates": candidates,
	})
}

func (rt *Router) recordExport(format string) {
	if rt.metrics != nil {
		rt.metrics.RecordSummaryExport(format)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
