package bootstrap_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowbridge/flowbridge/bootstrap"
	"github.com/flowbridge/flowbridge/config"
)

func TestBootstrap_Integration(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte(`{"message": "hello from upstream"}`))
	}))
	defer upstream.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "flowbridge.yaml")

	configContent := `
general:
  route_timeout: 5
  log_rotation: 10mb

server:
  host: "127.0.0.1"
  port: 18080
  workers: 2
  log_level: debug

filtering:
  default_action: pass
  conditions:
    logic: OR
    rules:
      - field: objectType
        operator: equals
        value: alert

routes:
  - field: object.title
    mappings:
      - key: "virusDetected"
        url: "` + upstream.URL + `"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}

	if a.Server == nil {
		t.Fatal("expected a configured HTTP server")
	}

	if err := a.Shutdown(); err != nil {
		t.Errorf("Shutdown on a never-started server should be a no-op: %v", err)
	}
}

func TestBootstrap_ConsoleLogFormat(t *testing.T) {
	os.Setenv(bootstrap.EnvLogFormat, "console")
	defer os.Unsetenv(bootstrap.EnvLogFormat)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "flowbridge.yaml")
	configContent := `
general:
  route_timeout: 5
  log_rotation: 10mb
server:
  host: "127.0.0.1"
  port: 18080
  workers: 1
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
      - key: "x"
        url: "http://localhost:9/"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	if a.Logger == nil {
		t.Error("expected a non-nil logger")
	}
}
