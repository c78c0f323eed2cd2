// Package instrumentation provides comprehensive OpenTelemetry instrumentation
// for the conflictfewer scheduling assistant.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for availability checks, validations, and Google API calls
//   - Distributed tracing for command flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Availability Metrics:
//   - availability_checks_total: Counter of attendee availability checks by result
//   - availability_check_duration_seconds: Histogram of availability check durations
//   - availability_parallelization_factor: Histogram of speedup over sequential checking
//
// Validation Metrics:
//   - validations_total: Counter of event validations by status
//   - validation_dimension_duration_seconds: Histogram of per-dimension validation durations
//
// Policy Metrics:
//   - policy_violations_total: Counter of policy violations by rule and severity
//
// Scheduling Metrics:
//   - events_created_total: Counter of calendar events created
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// Holiday Metrics:
//   - holiday_lookups_total: Counter of holiday lookups by result
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - Command execution (command.<name>)
//   - Validation dimensions (validate.<dimension>)
//   - Google API calls (google.<service>.<operation>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: conflictfewer)
//
// # Example Usage
//
//	// Initialize instrumentation
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "conflictfewer",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Get metrics recorder
//	recorder := provider.Metrics()
//
//	// Record an availability check
//	recorder.RecordAvailabilityCheck(ctx, attendees, busy, errored, factor, time.Since(start))
//
//	// Record a Google API operation
//	recorder.RecordGoogleAPIOperation(ctx, "calendar", "freebusy", "success", time.Since(start))
//
//	// Record an event validation
//	recorder.RecordValidation(ctx, "valid")
package instrumentation
