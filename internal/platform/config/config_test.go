package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
ecoflow:
  access_key: file-access
  secret_key: file-secret
  timeout: 3s
server:
  port: 9090
poller:
  interval: 30s
  devices:
    - HW51ZOH4SF4E0000
jwt:
  secret: jwt-secret
`)

	t.Setenv("ECOFLOW_SECRET_KEY", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.EcoFlow.AccessKey != "file-access" {
		t.Errorf("AccessKey = %q, want file-access", cfg.EcoFlow.AccessKey)
	}
	if cfg.EcoFlow.SecretKey != "env-secret" {
		t.Errorf("SecretKey = %q, want env override", cfg.EcoFlow.SecretKey)
	}
	if cfg.EcoFlow.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.EcoFlow.Timeout)
	}
	if cfg.EcoFlow.BaseURL != "https://api-e.ecoflow.com" {
		t.Errorf("BaseURL = %q, want default", cfg.EcoFlow.BaseURL)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Poller.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Poller.Interval)
	}
	if len(cfg.Poller.Devices) != 1 || cfg.Poller.Devices[0] != "HW51ZOH4SF4E0000" {
		t.Errorf("Devices = %v", cfg.Poller.Devices)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("ECOFLOW_ACCESS_KEY", "ak")
	t.Setenv("ECOFLOW_SECRET_KEY", "sk")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.EcoFlow.Validate(); err != nil {
		t.Errorf("EcoFlow.Validate() error = %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Logging.Output = %q, want stderr", cfg.Logging.Output)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"missing access key", Config{EcoFlow: EcoFlowConfig{SecretKey: "s"}}, ErrMissingAccessKey},
		{"missing secret key", Config{EcoFlow: EcoFlowConfig{AccessKey: "a"}}, ErrMissingSecretKey},
		{"missing jwt secret", Config{EcoFlow: EcoFlowConfig{AccessKey: "a", SecretKey: "s"}}, ErrMissingJWTSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
