package instrumentation

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls how telemetry is collected and exported. DefaultConfig
// reads it from the environment so the CLI needs no instrumentation flags
// beyond --metrics-addr.
type Config struct {
	// ServiceName labels all exported telemetry (default: conflictfewer).
	ServiceName string

	// ServiceVersion is stamped onto the OTel resource.
	ServiceVersion string

	// ServiceInstanceID distinguishes concurrent runs (default: hostname).
	ServiceInstanceID string

	// Enabled turns the whole subsystem on or off. When false every
	// recorder and span helper is a no-op (INSTRUMENTATION_ENABLED).
	Enabled bool

	// MetricsExporter is one of "prometheus", "otlp", "stdout"
	// (default: "prometheus").
	MetricsExporter string

	// TracingExporter is one of "otlp", "stdout", "none" (default: "none").
	TracingExporter string

	// OTLPEndpoint is the collector host:port, no scheme prefix,
	// e.g. "localhost:4318". Required for either OTLP exporter.
	OTLPEndpoint string

	// OTLPInsecure sends telemetry over plain HTTP. Spans carry organizer
	// domains and attendee counts, so keep this off outside local testing.
	OTLPInsecure bool

	// TraceSamplingRate is the head-sampling ratio, 0.0 to 1.0
	// (default: 0.1).
	TraceSamplingRate float64

	// DetailedLabels admits high-cardinality metric labels. Off by
	// default; the cardinality bounds in cardinality.go assume it stays
	// off in production.
	DetailedLabels bool

	// AuditLogging configures the command audit trail.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true).
	Enabled bool

	// IncludePII switches audit entries from anonymized identifiers to
	// full email addresses. Only for deployments whose audit sink has
	// matching access controls.
	IncludePII bool

	// LogLevel sets the slog level for audit messages (default: info).
	LogLevel string
}

// DefaultConfig builds a Config from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       envString("OTEL_SERVICE_NAME", "conflictfewer"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: envString("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:           envBool("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: envFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    envBool("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envBool("AUDIT_LOGGING_ENABLED", true),
			IncludePII: envBool("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   envString("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate rejects configurations the provider could not start with.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}

	return nil
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Validation status values
	StatusValid   = "valid"
	StatusInvalid = "invalid"

	// Google service names
	ServiceCalendar = "calendar"
	ServiceSearch   = "customsearch"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
