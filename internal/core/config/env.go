package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: AGATYPES_[SECTION]_[KEY] (e.g., AGATYPES_BACKEND_EXE_PATH).
func ApplyEnvOverrides(cfg *Config) {
	// Backend
	setEnvString(&cfg.Backend.ExePath, "AGATYPES_BACKEND_EXE_PATH")
	setEnvString(&cfg.Backend.Subcommand, "AGATYPES_BACKEND_SUBCOMMAND")

	// Types
	setEnvInt(&cfg.Types.MaxLength, "AGATYPES_TYPES_MAX_LENGTH")
	setEnvBoolPtr(&cfg.Types.ShowString, "AGATYPES_TYPES_SHOW_STRING")
	setEnvBool(&cfg.Types.MultilineString, "AGATYPES_TYPES_MULTILINE_STRING")

	// Resolver and caches
	setEnvInt(&cfg.Resolver.MaxDepth, "AGATYPES_RESOLVER_MAX_DEPTH")
	setEnvInt(&cfg.Caches.Documents, "AGATYPES_CACHES_DOCUMENTS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "AGATYPES_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RefreshRate, "AGATYPES_WATCH_REFRESH_RATE")
	setEnvInt(&cfg.Watch.RefreshBurst, "AGATYPES_WATCH_REFRESH_BURST")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "AGATYPES_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "AGATYPES_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "AGATYPES_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "AGATYPES_OBSERVABILITY_ENABLE_TRACING")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
