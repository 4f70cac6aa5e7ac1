package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/flowbridge/flowbridge/domain/jsonvalue"
	"github.com/flowbridge/flowbridge/domain/webhook"
	"github.com/flowbridge/flowbridge/ports"
)

// maxForwardResponseBody bounds how much of an upstream response body
// the Forwarder will read back (§5 resource bounds).
const maxForwardResponseBody = 10 << 20 // 10MiB

// ForwarderConfig configures the shared connection pool backing
// Forwarder. A single client is reused across every forwarded
// request; the per-call timeout comes from the route's configured
// route_timeout, not from the client itself.
type ForwarderConfig struct {
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Forwarder issues the pipeline's single outbound POST and classifies
// its outcome into ok/timeout/connection_error/bad_response. It owns
// one shared *http.Client with a pooled Transport; callers bound each
// call's deadline via the timeout argument, not the client's own
// Timeout field, so idle connections survive across calls with
// different configured timeouts.
type Forwarder struct {
	client *http.Client
}

// NewForwarder builds a Forwarder with a pooled Transport.
func NewForwarder(cfg ForwarderConfig) *Forwarder {
	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}
	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		IdleConnTimeout:     idleConnTimeout,
	}

	return &Forwarder{
		client: &http.Client{
			Transport: transport,
			// No client-level Timeout: each call supplies its own
			// deadline via context, per req.Timeout.
		},
	}
}

var _ ports.Forwarder = (*Forwarder)(nil)

// Forward issues exactly one POST to req.URL with the body
// re-serialized as JSON, bounded by req.Timeout. No retries.
func (f *Forwarder) Forward(ctx context.Context, req webhook.ForwardRequest) webhook.Outcome {
	start := time.Now()

	payload, err := req.Body.MarshalJSON()
	if err != nil {
		return webhook.Outcome{Kind: webhook.OutcomeConnectionError, Reason: fmt.Sprintf("encode body: %v", err), Elapsed: time.Since(start)}
	}

	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return webhook.Outcome{Kind: webhook.OutcomeConnectionError, Reason: fmt.Sprintf("build request: %v", err), Elapsed: time.Since(start)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return classifyTransportError(err, time.Since(start))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxForwardResponseBody))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return webhook.Outcome{Kind: webhook.OutcomeTimeout, Elapsed: time.Since(start)}
		}
		return webhook.Outcome{Kind: webhook.OutcomeBadResponse, Reason: fmt.Sprintf("read response: %v", err), Elapsed: time.Since(start)}
	}

	outcome := webhook.Outcome{Kind: webhook.OutcomeOK, StatusCode: resp.StatusCode, Elapsed: time.Since(start)}

	if looksLikeJSON(resp.Header.Get("Content-Type"), body) {
		parsed, err := jsonvalue.Decode(body)
		if err != nil {
			// Content-Type declared JSON but the body failed to parse.
			if resp.Header.Get("Content-Type") != "" && strings.Contains(resp.Header.Get("Content-Type"), "json") {
				return webhook.Outcome{Kind: webhook.OutcomeBadResponse, Reason: fmt.Sprintf("invalid JSON response: %v", err), Elapsed: time.Since(start)}
			}
			outcome.ResponseRaw = string(body)
			return outcome
		}
		outcome.ResponseJSON = parsed
		outcome.ResponseJSONValid = true
		return outcome
	}

	outcome.ResponseRaw = string(body)
	return outcome
}

// looksLikeJSON decides whether to attempt a JSON parse of the
// response body: an explicit JSON Content-Type is authoritative; in
// its absence a best-effort parse is still attempted, per §9's open
// question on non-JSON upstream responses, and falls back to the raw
// string on failure rather than erroring.
func looksLikeJSON(contentType string, body []byte) bool {
	if strings.Contains(contentType, "json") {
		return true
	}
	if contentType != "" {
		return false
	}
	return len(bytes.TrimSpace(body)) > 0
}

func classifyTransportError(err error, elapsed time.Duration) webhook.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return webhook.Outcome{Kind: webhook.OutcomeTimeout, Elapsed: elapsed}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return webhook.Outcome{Kind: webhook.OutcomeTimeout, Elapsed: elapsed}
	}

	return webhook.Outcome{Kind: webhook.OutcomeConnectionError, Reason: err.Error(), Elapsed: elapsed}
}
