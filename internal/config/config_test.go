package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	log := slog.Default()
	path, err := Load("/nonexistent/path/config.yaml", log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
server:
  host: 0.0.0.0
  port: 9090
  rate_limit: 25.5
  rate_burst: 50
logging:
  level: debug
  format: text
history:
  db_path: /var/lib/ragbridge/history.db
pinecone:
  environment: us-east1-gcp
defaults:
  vector_db_type: qdrant
  vector_db_url: http://qdrant.internal:6334
  collection: my-docs
`)

	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Clear env vars that the YAML should set.
	envKeys := []string{
		"SERVER_HOST", "SERVER_PORT", "RATE_LIMIT", "RATE_BURST",
		"LOG_LEVEL", "LOG_FORMAT", "RAGBRIDGE_HISTORY_DB",
		"PINECONE_ENVIRONMENT",
		"VECTOR_DB_TYPE", "VECTOR_DB_URL", "VECTOR_DB_COLLECTION",
	}
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	log := slog.Default()
	loaded, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	checks := map[string]string{
		"SERVER_HOST":          "0.0.0.0",
		"SERVER_PORT":          "9090",
		"RATE_LIMIT":           "25.5",
		"RATE_BURST":           "50",
		"LOG_LEVEL":            "debug",
		"LOG_FORMAT":           "text",
		"RAGBRIDGE_HISTORY_DB": "/var/lib/ragbridge/history.db",
		"PINECONE_ENVIRONMENT": "us-east1-gcp",
		"VECTOR_DB_TYPE":       "qdrant",
		"VECTOR_DB_URL":        "http://qdrant.internal:6334",
		"VECTOR_DB_COLLECTION": "my-docs",
	}
	for k, want := range checks {
		got := os.Getenv(k)
		if got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
server:
  host: 10.1.2.3
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Set env var BEFORE loading — it should NOT be overwritten.
	t.Setenv("SERVER_HOST", "127.0.0.1")

	log := slog.Default()
	_, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := os.Getenv("SERVER_HOST"); got != "127.0.0.1" {
		t.Errorf("SERVER_HOST: expected env override %q, got %q", "127.0.0.1", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := slog.Default()
	_, err := Load(cfgPath, log)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestFloat64Str(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float64
		want string
	}{
		{0.0, ""},
		{0.2, "0.2"},
		{25.5, "25.5"},
		{1.0, "1"},
	}
	for _, tt := range tests {
		if got := float64Str(tt.in); got != tt.want {
			t.Errorf("float64Str(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
