// Package webhook holds the value types the Forwarder produces and
// consumes: the outbound forward request and the terminal outcome
// classification of the one-shot delivery attempt.
package webhook

import (
	"time"

	"github.com/flowbridge/flowbridge/domain/jsonvalue"
)

// ForwardRequest is the single outbound POST the Forwarder issues per
// admitted, routed request.
type ForwardRequest struct {
	URL       string
	Body      jsonvalue.Value
	RequestID string
	Timeout   time.Duration
}

// OutcomeKind classifies how a forward attempt concluded.
type OutcomeKind string

const (
	// OutcomeOK means the POST completed and a response was read back
	// within the timeout, regardless of the upstream's status code.
	OutcomeOK OutcomeKind = "ok"
	// OutcomeTimeout means no connection was established, or no
	// response was read back, within the timeout.
	OutcomeTimeout OutcomeKind = "timeout"
	// OutcomeConnectionError means DNS resolution, connection refusal,
	// reset, or TLS failure prevented the request from being sent.
	OutcomeConnectionError OutcomeKind = "connection_error"
	// OutcomeBadResponse means the upstream declared a JSON body via
	// Content-Type but the body failed to parse as JSON.
	OutcomeBadResponse OutcomeKind = "bad_response"
)

// Outcome is the terminal result of one Forwarder.Forward call.
type Outcome struct {
	Kind OutcomeKind

	// Populated when Kind == OutcomeOK.
	StatusCode int
	// ResponseJSON holds the parsed JSON body when the upstream
	// response declared and contained parseable JSON.
	ResponseJSON jsonvalue.Value
	// ResponseRaw holds the raw response body when it was not
	// parseable JSON (or no Content-Type indicated JSON).
	ResponseRaw  string
	ResponseJSONValid bool

	// Elapsed is the wall-clock duration of the forward attempt,
	// populated regardless of Kind.
	Elapsed time.Duration

	// Populated when Kind is OutcomeConnectionError or
	// OutcomeBadResponse.
	Reason string
}
