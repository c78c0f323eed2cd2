package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrDimension = "dimension"
	attrRule      = "rule"
	attrSeverity  = "severity"
	attrAccount   = "account"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Availability metrics
	availabilityChecksTotal metric.Int64Counter
	availabilityDuration    metric.Float64Histogram
	parallelizationFactor   metric.Float64Histogram

	// Validation metrics
	validationsTotal   metric.Int64Counter
	dimensionDuration  metric.Float64Histogram
	policyViolations   metric.Int64Counter
	eventsCreatedTotal metric.Int64Counter

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// Holiday lookup metrics
	holidayLookupsTotal metric.Int64Counter

	// Configuration
	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// Availability Metrics
	m.availabilityChecksTotal, err = meter.Int64Counter(
		"availability_checks_total",
		metric.WithDescription("Total number of per-attendee availability checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create availability_checks_total counter: %w", err)
	}

	m.availabilityDuration, err = meter.Float64Histogram(
		"availability_check_duration_seconds",
		metric.WithDescription("Wall-clock duration of a full attendee-list availability check"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create availability_check_duration_seconds histogram: %w", err)
	}

	m.parallelizationFactor, err = meter.Float64Histogram(
		"availability_parallelization_factor",
		metric.WithDescription("Observed speedup over a nominal sequential check"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 50, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create availability_parallelization_factor histogram: %w", err)
	}

	// Validation Metrics
	m.validationsTotal, err = meter.Int64Counter(
		"validations_total",
		metric.WithDescription("Total number of event validations"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create validations_total counter: %w", err)
	}

	m.dimensionDuration, err = meter.Float64Histogram(
		"validation_dimension_duration_seconds",
		metric.WithDescription("Duration of a single validation dimension"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation_dimension_duration_seconds histogram: %w", err)
	}

	m.policyViolations, err = meter.Int64Counter(
		"policy_violations_total",
		metric.WithDescription("Total number of policy violations found"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy_violations_total counter: %w", err)
	}

	m.eventsCreatedTotal, err = meter.Int64Counter(
		"events_created_total",
		metric.WithDescription("Total number of calendar events created"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create events_created_total counter: %w", err)
	}

	// Google API Metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	// Holiday Lookup Metrics
	m.holidayLookupsTotal, err = meter.Int64Counter(
		"holiday_lookups_total",
		metric.WithDescription("Total number of holiday lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create holiday_lookups_total counter: %w", err)
	}

	return m, nil
}

// RecordAvailabilityCheck records one whole-list availability check.
//
// Parameters:
//   - attendees: number of attendees checked
//   - busy: number classified busy
//   - errored: number that failed
//   - factor: observed parallelization factor
//   - duration: wall-clock time for the whole check
func (m *Metrics) RecordAvailabilityCheck(ctx context.Context, attendees, busy, errored int, factor float64, duration time.Duration) {
	if m.availabilityChecksTotal == nil || m.availabilityDuration == nil {
		return // Instrumentation not initialized
	}

	available := attendees - busy - errored
	m.availabilityChecksTotal.Add(ctx, int64(available),
		metric.WithAttributes(attribute.String(attrResult, "available")))
	m.availabilityChecksTotal.Add(ctx, int64(busy),
		metric.WithAttributes(attribute.String(attrResult, "busy")))
	m.availabilityChecksTotal.Add(ctx, int64(errored),
		metric.WithAttributes(attribute.String(attrResult, "errored")))

	m.availabilityDuration.Record(ctx, duration.Seconds())
	if m.parallelizationFactor != nil {
		m.parallelizationFactor.Record(ctx, factor)
	}
}

// RecordValidation records the outcome of a whole validation run.
// Status should be "valid" or "invalid".
func (m *Metrics) RecordValidation(ctx context.Context, status string) {
	if m.validationsTotal == nil {
		return // Instrumentation not initialized
	}

	m.validationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStatus, status),
	))
}

// RecordValidationDimension records one dimension's duration and status.
// Status should be one of: "passed", "failed", "skipped".
func (m *Metrics) RecordValidationDimension(ctx context.Context, dimension, status string, duration time.Duration) {
	if m.dimensionDuration == nil {
		return // Instrumentation not initialized
	}

	m.dimensionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrDimension, dimension),
		attribute.String(attrStatus, status),
	))
}

// RecordPolicyViolation records a single policy violation by rule and severity.
func (m *Metrics) RecordPolicyViolation(ctx context.Context, rule, severity string) {
	if m.policyViolations == nil {
		return // Instrumentation not initialized
	}

	m.policyViolations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrRule, rule),
		attribute.String(attrSeverity, severity),
	))
}

// RecordEventCreated records a successful calendar event creation.
// The account label is only attached when detailedLabels is enabled.
func (m *Metrics) RecordEventCreated(ctx context.Context, account string) {
	if m.eventsCreatedTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{}
	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.eventsCreatedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (calendar, customsearch)
//   - operation: Operation type (freebusy, list, insert, query, etc.)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordHolidayLookup records a holiday lookup with its result.
// Result should be one of: "hit", "miss", "error", "cached".
func (m *Metrics) RecordHolidayLookup(ctx context.Context, result string) {
	if m.holidayLookupsTotal == nil {
		return // Instrumentation not initialized
	}

	m.holidayLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}
