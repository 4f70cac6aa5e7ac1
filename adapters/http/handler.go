// Package http hosts FlowBridge's HTTP surface: the webhook handler,
// health and config endpoints, and the chi middleware chain they run
// behind.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/flowbridge/flowbridge/adapters/logging"
	"github.com/flowbridge/flowbridge/adapters/metrics"
	"github.com/flowbridge/flowbridge/app"
	"github.com/flowbridge/flowbridge/config"
	"github.com/flowbridge/flowbridge/domain/predicate"
	"github.com/flowbridge/flowbridge/domain/routing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBody bounds the inbound webhook payload (§5 resource
// bounds, implementer's choice of 1 MiB).
const maxRequestBody = 1 << 20

// timestampFormat renders RequestContext.ReceiveTime and similar
// instants as RFC 3339 with millisecond precision, UTC.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// WebhookHandler serves POST /webhook, running each request through
// the pipeline Service and shaping its Result into the HTTP response
// defined by §4.6.
type WebhookHandler struct {
	service *app.Service
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewWebhookHandler builds a WebhookHandler. metrics may be nil, in
// which case no observations are recorded.
func NewWebhookHandler(service *app.Service, logger *logging.Logger, m *metrics.Collector) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger, metrics: m}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		h.writeInvalidRequest(w, "", "Failed to read request body")
		return
	}
	if len(body) > maxRequestBody {
		h.writeInvalidRequest(w, "", "Payload exceeds maximum size")
		return
	}

	result := h.service.Handle(r.Context(), body)
	h.observe(result)
	h.writeResult(w, result)
}

func (h *WebhookHandler) observe(result app.Result) {
	if h.metrics == nil {
		return
	}
	outcome := outcomeLabel(result)
	h.metrics.RequestsTotal.WithLabelValues(outcome).Inc()
	if result.Stage == app.StageForward {
		h.metrics.ForwardOutcomes.WithLabelValues(string(result.ForwardOutcome.Kind)).Inc()
		h.metrics.ForwardDuration.WithLabelValues(string(result.ForwardOutcome.Kind)).Observe(result.ForwardOutcome.Elapsed.Seconds())
	}
}

func outcomeLabel(result app.Result) string {
	switch {
	case result.Stage == app.StageValidate:
		return metrics.OutcomeInvalidRequest
	case result.Dropped:
		return metrics.OutcomeDropped
	case result.RoutingFailed:
		return metrics.OutcomeRoutingError
	case result.Stage == app.StageForward && result.ForwardOutcome.Kind != "ok":
		return metrics.OutcomeForwardError
	default:
		return metrics.OutcomeRouted
	}
}

func (h *WebhookHandler) writeResult(w http.ResponseWriter, result app.Result) {
	switch {
	case result.Stage == app.StageValidate:
		h.writeInvalidRequest(w, result.RequestID, result.ValidationMessage)

	case result.Dropped:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "processed",
			"result":            "dropped",
			"request_id":        result.RequestID,
			"received_at":       result.ReceiveTime.UTC().Format(timestampFormat),
			"duration_ms":       result.Duration.Milliseconds(),
			"filtering_summary": summaryView(result.FilteringSummary),
		})

	case result.RoutingFailed:
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":       "RoutingError",
			"message":     "No route mapping matched the extracted field value",
			"request_id":  result.RequestID,
			"received_at": result.ReceiveTime.UTC().Format(timestampFormat),
			"duration_ms": result.Duration.Milliseconds(),
			"routing_context": map[string]any{
				"routing_field": result.RoutingDiag.FieldPath,
				"routing_value": routingValue(result.RoutingDiag),
				"rules_checked": result.RoutingDiag.MappingsChecked,
			},
		})

	case result.ForwardOutcome.Kind == "connection_error":
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":       "ForwardingError",
			"message":     "Could not establish a connection to the destination",
			"request_id":  result.RequestID,
			"received_at": result.ReceiveTime.UTC().Format(timestampFormat),
			"duration_ms": result.Duration.Milliseconds(),
			"forwarding_context": map[string]any{
				"error_type": "CONNECTION_ERROR",
				"reason":     result.ForwardOutcome.Reason,
			},
		})

	case result.ForwardOutcome.Kind == "timeout":
		writeJSON(w, http.StatusGatewayTimeout, map[string]any{
			"error":       "ForwardingError",
			"message":     "The destination did not respond within the configured timeout",
			"request_id":  result.RequestID,
			"received_at": result.ReceiveTime.UTC().Format(timestampFormat),
			"duration_ms": result.Duration.Milliseconds(),
			"forwarding_context": map[string]any{
				"error_type": "TIMEOUT_ERROR",
			},
		})

	case result.ForwardOutcome.Kind == "bad_response":
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":       "ForwardingError",
			"message":     "The destination returned a malformed response",
			"request_id":  result.RequestID,
			"received_at": result.ReceiveTime.UTC().Format(timestampFormat),
			"duration_ms": result.Duration.Milliseconds(),
			"forwarding_context": map[string]any{
				"error_type": "BAD_RESPONSE",
				"reason":     result.ForwardOutcome.Reason,
			},
		})

	case result.ForwardOutcome.Kind == "ok":
		content := any(result.ForwardOutcome.ResponseRaw)
		if result.ForwardOutcome.ResponseJSONValid {
			content = result.ForwardOutcome.ResponseJSON
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "routed",
			"request_id":  result.RequestID,
			"received_at": result.ReceiveTime.UTC().Format(timestampFormat),
			"duration_ms": result.Duration.Milliseconds(),
			"routing_summary": map[string]any{
				"destination": result.DestinationURL,
			},
			"destination_response": map[string]any{
				"status_code": result.ForwardOutcome.StatusCode,
				"content":     content,
			},
		})

	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":       "InternalError",
			"message":     "An unexpected error occurred",
			"request_id":  result.RequestID,
			"received_at": result.ReceiveTime.UTC().Format(timestampFormat),
			"duration_ms": result.Duration.Milliseconds(),
		})
	}
}

// routingValue renders the extracted routing field as the response's
// routing_value: null when the field was absent, its lexical form
// otherwise.
func routingValue(diag routing.Diagnostic) any {
	if !diag.ValueFound {
		return nil
	}
	return diag.RoutingValue
}

func (h *WebhookHandler) writeInvalidRequest(w http.ResponseWriter, requestID, message string) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":      "InvalidRequestError",
		"message":    message,
		"request_id": requestID,
	})
}

// summaryView renders a predicate.Summary for the filtering_summary
// response field: matched_rules is null rather than an empty array
// when no rule matched (§8 scenario 2).
func summaryView(s predicate.Summary) map[string]any {
	var matched any
	if len(s.MatchedRules) > 0 {
		matched = s.MatchedRules
	}
	return map[string]any{
		"rules_evaluated":        s.RulesEvaluated,
		"matched_rules":          matched,
		"default_action_applied": s.DefaultActionApplied,
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(timestampFormat),
		"request_id": uuid.NewString(),
	})
}

// ConfigHandler serves GET /config, rendering the loaded config as
// JSON. No redaction is needed: §4.5.7 forbids userinfo in any
// destination URL, so no secret can live in the config at all.
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h.cfg.View())
}

// RouterConfig holds the optional pieces NewRouter wires in.
type RouterConfig struct {
	Metrics *metrics.Collector
}

// NewRouter assembles the chi router: real-IP extraction, structured
// request logging, recovery, a request timeout, and FlowBridge's three
// endpoints, plus /metrics when routerCfg.Metrics is set. No
// request-ID middleware is installed.
func NewRouter(webhook *WebhookHandler, health *HealthHandler, cfgHandler *ConfigHandler, logger *logging.Logger, routerCfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if routerCfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(routerCfg.Metrics))
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/webhook", webhook.ServeHTTP)
	r.Get("/health", health.ServeHTTP)
	r.Get("/config", cfgHandler.ServeHTTP)

	return r
}

// NewLoggingMiddleware logs one RESPONSE-category line per request.
// The line carries no context.request_id: the middleware neither reads
// an inbound request-ID header (§9 open question 2) nor sees the ID the
// pipeline mints for the request.
func NewLoggingMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info(logging.CategoryResponse, "request completed", logging.Context{
				Extra: map[string]any{
					"method":   r.Method,
					"path":     r.URL.Path,
					"status":   ww.Status(),
					"bytes":    ww.BytesWritten(),
					"duration": time.Since(start).String(),
				},
			})
		})
	}
}

// NewMetricsMiddleware observes request latency per terminal HTTP
// status class.
func NewMetricsMiddleware(m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			m.RequestsInFlight.Inc()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.RequestsInFlight.Dec()
			m.RequestDuration.WithLabelValues(statusLabel(ww.Status())).Observe(time.Since(start).Seconds())
		})
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
