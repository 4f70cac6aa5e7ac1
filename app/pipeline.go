// Package app orchestrates the Request Pipeline: validate, filter,
// route, forward, in that order, producing one terminal Result per
// inbound request.
package app

import (
	"context"
	"time"

	"github.com/flowbridge/flowbridge/adapters/logging"
	"github.com/flowbridge/flowbridge/config"
	"github.com/flowbridge/flowbridge/domain/jsonvalue"
	"github.com/flowbridge/flowbridge/domain/predicate"
	"github.com/flowbridge/flowbridge/domain/routing"
	"github.com/flowbridge/flowbridge/domain/webhook"
	"github.com/flowbridge/flowbridge/ports"
)

// Stage names a terminal or passed-through point of the pipeline.
type Stage string

const (
	StageValidate Stage = "validate"
	StageFilter   Stage = "filter"
	StageRoute    Stage = "route"
	StageForward  Stage = "forward"
)

// Result is the terminal shape of one request's trip through the
// pipeline: enough for the HTTP surface to pick a status code and
// response body without knowing pipeline internals.
type Result struct {
	RequestID   string
	ReceiveTime time.Time
	Duration    time.Duration
	Stage       Stage

	// Validate failures.
	ValidationMessage string

	// Filter outcome.
	Dropped          bool
	FilteringSummary predicate.Summary

	// Route outcome.
	RoutingFailed bool
	RoutingDiag   routing.Diagnostic

	// Forward outcome.
	ForwardOutcome webhook.Outcome
	DestinationURL string
}

// Service wires the Predicate Engine, Routing Table and Forwarder
// over an immutable Config, correlating every stage via a single
// request ID.
type Service struct {
	cfg       *config.Config
	forwarder ports.Forwarder
	ids       ports.IDGenerator
	clock     ports.Clock
	logger    *logging.Logger
}

// NewService builds a pipeline Service over the given immutable
// config and infrastructure ports.
func NewService(cfg *config.Config, forwarder ports.Forwarder, ids ports.IDGenerator, clock ports.Clock, logger *logging.Logger) *Service {
	return &Service{cfg: cfg, forwarder: forwarder, ids: ids, clock: clock, logger: logger}
}

// Handle decodes rawBody as JSON and runs it through validate, filter,
// route, forward in order, stopping at the first terminal stage.
// ReceiveTime is captured from the Clock port at entry and Duration is
// measured against it at whichever stage terminates the request
// (§3's RequestContext = (RequestID, ReceiveTime, DecodedBody, Stage,
// Outcome)).
func (s *Service) Handle(ctx context.Context, rawBody []byte) Result {
	requestID := s.ids.New()
	receiveTime := s.clock.Now()
	result := Result{RequestID: requestID, ReceiveTime: receiveTime}

	finish := func() Result {
		result.Duration = s.clock.Now().Sub(receiveTime)
		return result
	}

	body, err := jsonvalue.Decode(rawBody)
	if err != nil {
		result.Stage = StageValidate
		result.ValidationMessage = "Payload must be valid JSON"
		s.logger.Warn(logging.CategoryValidationError, "request body is not valid JSON", logging.Context{RequestID: requestID, Extra: map[string]any{"error": err.Error()}})
		return finish()
	}
	if !body.IsMapping() {
		result.Stage = StageValidate
		result.ValidationMessage = "Payload must be a JSON object"
		s.logger.Warn(logging.CategoryValidationError, "request body is not a JSON object", logging.Context{RequestID: requestID})
		return finish()
	}

	admitted, summary := predicate.Evaluate(s.cfg.Filtering.Conditions, s.cfg.Filtering.DefaultAction, body)
	result.Stage = StageFilter
	result.FilteringSummary = summary
	s.logger.Info(logging.CategoryFiltering, "filtering evaluated", logging.Context{
		RequestID: requestID,
		Extra: map[string]any{
			"admitted":               admitted,
			"rules_evaluated":        summary.RulesEvaluated,
			"default_action_applied": summary.DefaultActionApplied,
		},
	})
	if !admitted {
		result.Dropped = true
		return finish()
	}

	matched, url, diag := routing.Select(body, s.cfg.Routes)
	result.Stage = StageRoute
	result.RoutingDiag = diag
	if !matched {
		result.RoutingFailed = true
		s.logger.Warn(logging.CategoryRouting, "no route mapping matched", logging.Context{
			RequestID: requestID,
			Extra: map[string]any{
				"routing_field": diag.FieldPath,
				"routing_value": diag.RoutingValue,
			},
		})
		return finish()
	}
	result.DestinationURL = url
	s.logger.Info(logging.CategoryRouting, "route matched", logging.Context{
		RequestID: requestID,
		Extra:     map[string]any{"destination": url, "routing_value": diag.RoutingValue},
	})

	result.Stage = StageForward
	timeout := time.Duration(s.cfg.General.RouteTimeout) * time.Second
	outcome := s.forwarder.Forward(ctx, webhook.ForwardRequest{
		URL:       url,
		Body:      body,
		RequestID: requestID,
		Timeout:   timeout,
	})
	result.ForwardOutcome = outcome

	switch outcome.Kind {
	case webhook.OutcomeOK:
		s.logger.Info(logging.CategoryForwarding, "forward completed", logging.Context{
			RequestID: requestID,
			Extra:     map[string]any{"status_code": outcome.StatusCode, "duration_ms": outcome.Elapsed.Milliseconds()},
		})
	default:
		s.logger.Error(logging.CategoryForwarding, "forward failed", logging.Context{
			RequestID: requestID,
			Extra:     map[string]any{"outcome": string(outcome.Kind), "reason": outcome.Reason, "duration_ms": outcome.Elapsed.Milliseconds()},
		})
	}

	return finish()
}
