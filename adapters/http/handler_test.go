package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowbridge/flowbridge/adapters/clock"
	flowhttp "github.com/flowbridge/flowbridge/adapters/http"
	"github.com/flowbridge/flowbridge/adapters/idgen"
	"github.com/flowbridge/flowbridge/adapters/logging"
	"github.com/flowbridge/flowbridge/app"
	"github.com/flowbridge/flowbridge/config"
	"github.com/flowbridge/flowbridge/domain/webhook"
)

type fakeForwarder struct {
	outcome webhook.Outcome
	calls   int
}

func (f *fakeForwarder) Forward(ctx context.Context, req webhook.ForwardRequest) webhook.Outcome {
	f.calls++
	return f.outcome
}

const testYAML = `
general:
  route_timeout: 5
  log_rotation: 10mb

server:
  host: "0.0.0.0"
  port: 8080
  workers: 4
  log_level: info

filtering:
  default_action: drop
  conditions:
    logic: AND
    rules:
      - field: objectType
        operator: equals
        value: alert

routes:
  - field: object.title
    mappings:
      - key: "AP_McAfeeMsme-virusDetected"
        url: "http://dest/ep/"
`

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "flowbridge.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestHandler(t *testing.T, forwarder *fakeForwarder) *flowhttp.WebhookHandler {
	t.Helper()
	cfg := loadTestConfig(t)
	logger := logging.New(nil, "error")
	svc := app.NewService(cfg, forwarder, idgen.NewSequential("req-"), clock.Real{}, logger)
	return flowhttp.NewWebhookHandler(svc, logger, nil)
}

func TestWebhookHandler_RoutedOK(t *testing.T) {
	forwarder := &fakeForwarder{outcome: webhook.Outcome{Kind: webhook.OutcomeOK, StatusCode: 200}}
	h := newTestHandler(t, forwarder)

	body := `{"objectType":"alert","object":{"title":"AP_McAfeeMsme-virusDetected"}}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if forwarder.calls != 1 {
		t.Errorf("expected forwarder to be called once, got %d", forwarder.calls)
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "routed" {
		t.Errorf("status field = %v, want routed", resp["status"])
	}
}

func TestWebhookHandler_Dropped(t *testing.T) {
	forwarder := &fakeForwarder{}
	h := newTestHandler(t, forwarder)

	body := `{"objectType":"incident"}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if forwarder.calls != 0 {
		t.Error("forwarder should not be called when request is dropped")
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["result"] != "dropped" {
		t.Errorf("result field = %v, want dropped", resp["result"])
	}
}

func TestWebhookHandler_RoutingError(t *testing.T) {
	forwarder := &fakeForwarder{}
	h := newTestHandler(t, forwarder)

	body := `{"objectType":"alert","object":{"title":"unknown"}}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404, body=%s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "RoutingError" {
		t.Errorf("error field = %v, want RoutingError", resp["error"])
	}
}

func TestWebhookHandler_NotJSONObject(t *testing.T) {
	forwarder := &fakeForwarder{}
	h := newTestHandler(t, forwarder)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`[1,2,3]`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "InvalidRequestError" {
		t.Errorf("error field = %v, want InvalidRequestError", resp["error"])
	}
	if resp["message"] != "Payload must be a JSON object" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestWebhookHandler_NotJSON(t *testing.T) {
	forwarder := &fakeForwarder{}
	h := newTestHandler(t, forwarder)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookHandler_ForwardTimeout(t *testing.T) {
	forwarder := &fakeForwarder{outcome: webhook.Outcome{Kind: webhook.OutcomeTimeout}}
	h := newTestHandler(t, forwarder)

	body := `{"objectType":"alert","object":{"title":"AP_McAfeeMsme-virusDetected"}}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 504 {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
}

func TestWebhookHandler_ForwardConnectionError(t *testing.T) {
	forwarder := &fakeForwarder{outcome: webhook.Outcome{Kind: webhook.OutcomeConnectionError, Reason: "refused"}}
	h := newTestHandler(t, forwarder)

	body := `{"objectType":"alert","object":{"title":"AP_McAfeeMsme-virusDetected"}}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 502 {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	cfg := loadTestConfig(t)
	h := flowhttp.NewHealthHandler(cfg)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", resp["status"])
	}
	if resp["request_id"] == "" {
		t.Error("expected a non-empty request_id")
	}
}

func TestConfigHandler(t *testing.T) {
	cfg := loadTestConfig(t)
	h := flowhttp.NewConfigHandler(cfg)

	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp["general"] == nil {
		t.Error("expected a general section in the rendered config")
	}
}
