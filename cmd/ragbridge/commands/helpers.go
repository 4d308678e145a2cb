package commands

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/54b3r/ragbridge/internal/server"
	"github.com/54b3r/ragbridge/internal/store"
	"github.com/54b3r/ragbridge/internal/vectorstore"
)

// getEnvOrDefault returns the env var value or def when unset/empty.
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the env var parsed as int, or def on absence or parse failure.
func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvFloat returns the env var parsed as float64, or def on absence or
// parse failure.
func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// openHistory opens the ingestion run history store. RAGBRIDGE_HISTORY_DB
// overrides the default path (~/.ragbridge/history.db); "disabled" turns
// history off. Failures degrade to no history rather than aborting.
func openHistory(log *slog.Logger) (*store.SQLiteStore, func()) {
	dbPath := os.Getenv("RAGBRIDGE_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via RAGBRIDGE_HISTORY_DB=disabled")
		return nil, func() {}
	}
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
		dbPath = p
	}

	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// buildPingers constructs readiness probes for the default vector store
// configured via env vars. Qdrant gets its native gRPC health check; the
// HTTP-speaking stores get a plain reachability probe. No env configuration
// means no probes (liveness-only readiness).
func buildPingers(log *slog.Logger) ([]server.Pinger, func()) {
	dbType := strings.ToLower(os.Getenv("VECTOR_DB_TYPE"))
	dbURL := os.Getenv("VECTOR_DB_URL")
	if dbURL == "" {
		return nil, func() {}
	}

	switch dbType {
	case "qdrant":
		client, err := vectorstore.NewQdrantClient(dbURL, os.Getenv("VECTOR_DB_API_KEY"))
		if err != nil {
			log.Warn("readiness: could not create qdrant client, skipping probe", slog.Any("error", err))
			return nil, func() {}
		}
		return []server.Pinger{server.NewQdrantPinger(client)}, func() { _ = client.Close() }
	case "pinecone", "weaviate":
		return []server.Pinger{server.NewHTTPPinger(dbURL, dbType)}, func() {}
	default:
		return nil, func() {}
	}
}
