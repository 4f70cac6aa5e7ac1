package metrics_test

import (
	"testing"

	"github.com/flowbridge/flowbridge/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.RequestsInFlight == nil {
		t.Error("RequestsInFlight is nil")
	}
	if m.ForwardOutcomes == nil {
		t.Error("ForwardOutcomes is nil")
	}
	if m.ForwardDuration == nil {
		t.Error("ForwardDuration is nil")
	}
}

func TestRequestsTotal_LabeledByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsTotal.WithLabelValues(metrics.OutcomeRouted).Inc()
	m.RequestsTotal.WithLabelValues(metrics.OutcomeDropped).Add(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "flowbridge_requests_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("flowbridge_requests_total metric not found")
	}
}

func TestForwardOutcomes_LabeledByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ForwardOutcomes.WithLabelValues("ok").Inc()
	m.ForwardOutcomes.WithLabelValues("timeout").Inc()
	m.ForwardOutcomes.WithLabelValues("connection_error").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "flowbridge_forward_outcomes_total" {
			found = true
			if len(f.GetMetric()) != 3 {
				t.Errorf("expected 3 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("flowbridge_forward_outcomes_total metric not found")
	}
}

func TestForwardDuration_ObservedByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ForwardDuration.WithLabelValues("ok").Observe(0.042)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "flowbridge_forward_duration_seconds" {
			found = true
			if got := f.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
				t.Errorf("sample count = %d, want 1", got)
			}
		}
	}
	if !found {
		t.Error("flowbridge_forward_duration_seconds metric not found")
	}
}

func TestRequestsInFlight_Gauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Dec()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	for _, f := range families {
		if f.GetName() == "flowbridge_requests_in_flight" {
			val := f.GetMetric()[0].GetGauge().GetValue()
			if val != 1 {
				t.Errorf("expected value 1, got %f", val)
			}
			return
		}
	}
	t.Error("flowbridge_requests_in_flight metric not found")
}
