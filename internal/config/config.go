// Package config provides YAML-based configuration for ragbridge.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, so existing workflows are unaffected.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. RAGBRIDGE_CONFIG environment variable
//  3. ~/.ragbridge/config.yaml
//  4. ./ragbridge.yaml
//
// If no file is found the system runs entirely from env vars (backwards compatible).
//
// Provider credentials for pipelines arrive per request and are never read
// from this file; the Defaults section only pre-fills CLI flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// History configures ingestion run history persistence.
	History HistoryConfig `yaml:"history"`

	// Pinecone configures the Pinecone region fallback.
	Pinecone PineconeConfig `yaml:"pinecone"`

	// Defaults pre-fills CLI flags for the chat and ingest commands.
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// APIKey is the Bearer token for API authentication. Prefer env var RAGBRIDGE_API_KEY.
	APIKey string `yaml:"api_key"`
	// RateLimit is the per-IP sustained request rate (requests/second).
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the per-IP maximum burst size.
	RateBurst int `yaml:"rate_burst"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// HistoryConfig holds ingestion run history settings.
type HistoryConfig struct {
	// DBPath is the SQLite database path. Set to "disabled" to disable.
	DBPath string `yaml:"db_path"`
}

// PineconeConfig holds Pinecone regional settings.
type PineconeConfig struct {
	// Environment is the Pinecone region used when a request carries no
	// explicit vector store URL.
	Environment string `yaml:"environment"`
}

// DefaultsConfig pre-fills CLI flags for one-shot commands.
type DefaultsConfig struct {
	// OpenAIAPIKey is the default OpenAI key. Prefer env var OPENAI_API_KEY.
	OpenAIAPIKey string `yaml:"openai_api_key"`
	// VectorDBType is the default vector store backend.
	VectorDBType string `yaml:"vector_db_type"`
	// VectorDBURL is the default vector store endpoint.
	VectorDBURL string `yaml:"vector_db_url"`
	// VectorDBAPIKey is the default vector store key. Prefer env var VECTOR_DB_API_KEY.
	VectorDBAPIKey string `yaml:"vector_db_api_key"`
	// Collection is the default vector store collection.
	Collection string `yaml:"collection"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"SERVER_HOST", func(c *Config) string { return c.Server.Host }},
	{"SERVER_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"RAGBRIDGE_API_KEY", func(c *Config) string { return c.Server.APIKey }},
	{"RATE_LIMIT", func(c *Config) string { return float64Str(c.Server.RateLimit) }},
	{"RATE_BURST", func(c *Config) string { return intStr(c.Server.RateBurst) }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"RAGBRIDGE_HISTORY_DB", func(c *Config) string { return c.History.DBPath }},
	{"PINECONE_ENVIRONMENT", func(c *Config) string { return c.Pinecone.Environment }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Defaults.OpenAIAPIKey }},
	{"VECTOR_DB_TYPE", func(c *Config) string { return c.Defaults.VectorDBType }},
	{"VECTOR_DB_URL", func(c *Config) string { return c.Defaults.VectorDBURL }},
	{"VECTOR_DB_API_KEY", func(c *Config) string { return c.Defaults.VectorDBAPIKey }},
	{"VECTOR_DB_COLLECTION", func(c *Config) string { return c.Defaults.Collection }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || yamlVal == "0" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set — do not override
		}
		os.Setenv(m.envKey, yamlVal)
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("RAGBRIDGE_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".ragbridge", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("ragbridge.yaml"); err == nil {
		return "ragbridge.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

// float64Str converts a float64 to string, returning "" for zero values.
func float64Str(v float64) string {
	if v == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
