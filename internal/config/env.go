package config

import (
	"os"
	"strconv"
)

// Environment variable name constants for INGESTCORE_ prefixed overrides.
const (
	// EnvProfile selects the named profile to activate.
	EnvProfile = "INGESTCORE_PROFILE"
	// EnvStorePath overrides the staging store path.
	EnvStorePath = "INGESTCORE_STORE_PATH"
	// EnvSourceRoot overrides the local source root.
	EnvSourceRoot = "INGESTCORE_SOURCE_ROOT"
	// EnvPattern overrides the ingestion glob pattern.
	EnvPattern = "INGESTCORE_PATTERN"
	// EnvWorkers overrides the ingestion worker count.
	EnvWorkers = "INGESTCORE_WORKERS"
	// EnvBatchSize overrides the ingestion batch size.
	EnvBatchSize = "INGESTCORE_BATCH_SIZE"
	// EnvLogFormat overrides the log output format (not a profile field).
	EnvLogFormat = "INGESTCORE_LOG_FORMAT"
	// EnvDebug enables debug-level logging regardless of verbosity flags.
	EnvDebug = "INGESTCORE_DEBUG"
)

// buildEnvMap reads INGESTCORE_* environment variables and returns a flat
// map of profile overrides. Only non-empty env vars that parse successfully
// are included. Invalid numeric values are silently skipped so that a bad
// env var does not block the entire resolution pipeline.
func buildEnvMap() map[string]any {
	m := make(map[string]any)

	if v := os.Getenv(EnvStorePath); v != "" {
		m["store_path"] = v
	}
	if v := os.Getenv(EnvSourceRoot); v != "" {
		m["source.root"] = v
	}
	if v := os.Getenv(EnvPattern); v != "" {
		m["source.pattern"] = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			m["source.workers"] = n
		}
	}
	if v := os.Getenv(EnvBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			m["source.batch_size"] = n
		}
	}

	return m
}
